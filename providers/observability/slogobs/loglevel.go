package slogobs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace sits below slog.LevelDebug. The handler renders it as TRACE and
// [Observer.Trace] logs at it, so setting LLMWIRE_LOG_LEVEL=TRACE surfaces
// the most granular events.
const LevelTrace = slog.LevelDebug - 4

// GetLogLevelFromEnv returns the log level configured via environment
// variables. LLMWIRE_LOG_LEVEL wins over the generic LOG_LEVEL; when neither
// is set the default is INFO.
func GetLogLevelFromEnv() slog.Level {
	level := os.Getenv("LLMWIRE_LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		return slog.LevelInfo
	}

	return ParseLogLevel(level)
}

// ParseLogLevel parses a level name into a slog.Level. Accepted values are
// TRACE, DEBUG, INFO, WARN, WARNING and ERROR, case-insensitive and with
// surrounding whitespace ignored. Unknown values fall back to INFO with a
// warning on stderr, so a typo in an env var degrades loudly instead of
// silencing logs.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "Warning: Unknown log level '%s', using INFO\n", level)
		return slog.LevelInfo
	}
}

// LogLevelString returns the canonical name for a log level.
func LogLevelString(level slog.Level) string {
	switch level {
	case LevelTrace:
		return "TRACE"
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}
