package app

import (
	"io"
	"log/slog"
)

// NewLogger builds an isolated logger writing to w. level is one of debug,
// info, warn or error, and anything else means info. format "json" selects
// the JSON handler, anything else the text handler. The global logger is
// left untouched.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
