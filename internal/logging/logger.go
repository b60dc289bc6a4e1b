package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat selects the slog handler used for output
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// ParseLevel maps a configured level name to a slog level, defaulting to info
func ParseLevel(logLevel string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat maps a configured format name, defaulting to text
func ParseFormat(format string) LogFormat {
	if strings.EqualFold(strings.TrimSpace(format), string(LogFormatJSON)) {
		return LogFormatJSON
	}
	return LogFormatText
}

// NewLogger creates a structured logger writing to w
func NewLogger(w io.Writer, logLevel, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(logLevel),
	}

	var handler slog.Handler
	if ParseFormat(format) == LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		// Text output reads better in a terminal during development
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// SetupLogging configures the global slog handler.
// Call once at start-up, before any service is constructed.
func SetupLogging(logLevel, format string) {
	slog.SetDefault(NewLogger(os.Stdout, logLevel, format))
}
