// Package logging builds the zerolog loggers used across the module.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Formats accepted by New.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// ParseLevel maps debug, info, warn, error (case-insensitive) to a zerolog
// level. Anything else is info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewZerolog creates a timestamped JSON logger writing to writer.
func NewZerolog(writer io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewConsoleLogger creates a human-readable logger on stderr.
func NewConsoleLogger(level zerolog.Level) zerolog.Logger {
	return NewZerolog(zerolog.ConsoleWriter{Out: os.Stderr}, level)
}

// New creates a logger from configuration strings.
func New(format, level string) zerolog.Logger {
	lvl := ParseLevel(level)
	if strings.ToLower(format) == FormatConsole {
		return NewConsoleLogger(lvl)
	}
	return NewZerolog(os.Stderr, lvl)
}

// WithComponent returns a logger with a component field.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithRunID returns a logger with a run_id field.
func WithRunID(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}
