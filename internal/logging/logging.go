// Package logging builds the slog logger used across imagekit.
package logging

import (
	"io"
	"log/slog"

	"github.com/ironsheep/imagekit/internal/config"
)

// New returns a logger writing to w at the configured level and format.
// The returned LevelVar allows the level to be changed at runtime.
func New(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, *slog.LevelVar) {
	var lvl slog.LevelVar
	lvl.Set(ParseLevel(cfg.Level))

	opts := &slog.HandlerOptions{Level: &lvl}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), &lvl
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a config level name to a slog.Level. Unknown names are Info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
