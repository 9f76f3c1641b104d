// Package logging builds the application loggers used by the CLI and the
// debug server.
package logging

import (
	"log/slog"
	"os"
)

// New creates a configured application logger. It writes to stderr so
// stdout stays clean for rendered diagrams and simulation output, and
// standardizes common keys (e.g. "error" -> "err").
func New(level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
