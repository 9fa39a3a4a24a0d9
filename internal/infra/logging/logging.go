package logging

import (
	"io"
	"log/slog"
	"os"
)

// NewJSON returns a JSON slog logger writing to w at the given level.
func NewJSON(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetupJSON installs a stdout JSON logger as slog's default and returns it.
func SetupJSON(level slog.Level) *slog.Logger {
	logger := NewJSON(os.Stdout, level)
	slog.SetDefault(logger)

	return logger
}
