// Package logging provides the structured logger shared by the server,
// CLI, and engine.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup creates and installs a process-wide slog logger at the given
// level, writing JSON records to stdout.
func Setup(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Default returns a logger at info level without installing it as the
// process default; used by tests and one-shot CLI invocations.
func Default() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
