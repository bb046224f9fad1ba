package slogobs

import (
	"os"
	"strings"
)

// Format selects how log records are rendered.
type Format string

const (
	// FormatCompact renders one line per record with JSON-encoded attributes
	// after an arrow. The default for interactive development.
	//
	//	2025-11-03 10:40:35  INFO llm generate completed → {"model":"gemini-2.0-flash"}
	FormatCompact Format = "compact"

	// FormatPretty renders each attribute on its own indented line under the
	// record. Verbose, meant for debugging sessions.
	FormatPretty Format = "pretty"

	// FormatJSON renders one JSON object per line, for production log
	// aggregation.
	FormatJSON Format = "json"
)

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// ParseFormat maps a format name to a Format, case-insensitive. Unknown
// values fall back to FormatCompact.
func ParseFormat(s string) Format {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "compact":
		return FormatCompact
	case "pretty":
		return FormatPretty
	case "json":
		return FormatJSON
	default:
		return FormatCompact
	}
}

// GetFormatFromEnv returns the log format configured via environment
// variables. LLMWIRE_LOG_FORMAT wins over the generic LOG_FORMAT; when
// neither is set the default is FormatCompact.
func GetFormatFromEnv() Format {
	if format := os.Getenv("LLMWIRE_LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}

	return FormatCompact
}
