package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger: human-readable text in development, JSON in
// production so log shippers can parse it.
func New(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
