package app

import (
	"errors"
	"fmt"
)

// Output formats.
const (
	OutputHTML = "html"
	OutputJS   = "js"
)

// DefaultMaxResumptions bounds how often a single render may resume the
// interpreter.
const DefaultMaxResumptions = 10000

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SitePath  string   // site.hcl
	OutDir    string   // rendered files
	Output    string   // "html" or "js"
	Documents []string // empty renders every document under the site root

	LogFormat      string
	LogLevel       string
	MaxResumptions int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SitePath == "" {
		return nil, errors.New("SitePath is a required configuration field and cannot be empty")
	}

	switch cfg.Output {
	case "":
		cfg.Output = OutputHTML
	case OutputHTML, OutputJS:
	default:
		return nil, fmt.Errorf("invalid output %q: must be %q or %q", cfg.Output, OutputHTML, OutputJS)
	}

	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.MaxResumptions < 0 {
		return nil, errors.New("MaxResumptions cannot be negative")
	}
	if cfg.MaxResumptions == 0 {
		cfg.MaxResumptions = DefaultMaxResumptions
	}

	return &cfg, nil
}
