package app

import (
	"log/slog"
)

// App renders documents. It holds no per-document state and may be shared.
type App struct {
	config Config
	logger *slog.Logger
}

// New is the constructor for the render entry point. A nil logger falls back
// to slog.Default().
func New(cfg Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxResumptions <= 0 {
		cfg.MaxResumptions = DefaultMaxResumptions
	}
	logger.Debug("App created.", "output", cfg.Output, "max_resumptions", cfg.MaxResumptions)
	return &App{config: cfg, logger: logger}
}

// Config returns the configuration the app was created with.
func (a *App) Config() Config {
	return a.config
}
