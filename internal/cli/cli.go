package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/quill/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("quill", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Quill - A compiler for declarative UI documents.

Usage:
  quill [options] [DOCUMENT...]

Arguments:
  DOCUMENT
    Name of a document under the site root, without the .quill extension.
    Every document is rendered when none is given.

Options:
`)
		flagSet.PrintDefaults()
	}

	siteFlag := flagSet.String("site", "site.hcl", "Path to the site configuration file.")
	outFlag := flagSet.String("out", "public", "Directory the rendered files are written to.")
	outputFlag := flagSet.String("output", app.OutputHTML, "What to render. Options: 'html' or 'js'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	maxResumptionsFlag := flagSet.Int("max-resumptions", app.DefaultMaxResumptions, "Upper bound on interpreter resumptions per document.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if *siteFlag == "" {
		slog.Debug("No site path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		SitePath:       *siteFlag,
		OutDir:         *outFlag,
		Output:         strings.ToLower(*outputFlag),
		Documents:      flagSet.Args(),
		LogFormat:      strings.ToLower(*logFormatFlag),
		LogLevel:       strings.ToLower(*logLevelFlag),
		MaxResumptions: *maxResumptionsFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
