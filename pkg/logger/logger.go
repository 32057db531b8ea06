// Package logger wraps log/slog behind a process-wide default, the same
// init-once-get-everywhere shape the teacher used for its own interpreter.
package logger

import (
	"fmt"
	"log/slog"
	"os"
)

var globalLogger *slog.Logger

// InitLogger configures the process-wide logger for the given level.
func InitLogger(level string) error {
	var slogLevel slog.Level

	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return nil
}

// GetLogger returns the process-wide logger, or slog.Default() if InitLogger
// has not run yet.
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// With tags every line emitted through the returned logger with a
// "component" attribute, so mtc/oscsource/playback/scheduler lines can be
// told apart in a shared log stream.
func With(component string) *slog.Logger {
	return GetLogger().With("component", component)
}
