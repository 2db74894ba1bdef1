package pkg

import (
	"io"
	"log/slog"
)

func NewLogger(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, nil)
	return slog.New(handler)
}

// NewLoggerWithLevel используется при SHUTTLE_VERBOSE=true, чтобы видеть каждый опрос маршрута.
func NewLoggerWithLevel(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	return slog.New(handler)
}
