package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Handler is a slog.Handler with three output formats (compact, pretty,
// JSON), optional ANSI colors, and group-prefixed attribute keys.
type Handler struct {
	format Format
	level  slog.Level
	output io.Writer
	colors bool
	mu     sync.Mutex
	attrs  []slog.Attr
	groups []string
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	// Format selects the output rendering; empty means FormatCompact.
	Format Format
	// Level is the minimum level to emit.
	Level slog.Level
	// Output is the destination writer; nil means os.Stdout.
	Output io.Writer
	// Colors forces ANSI colors for the compact and pretty formats. When
	// false, colors are enabled only if Output is a terminal.
	Colors bool
}

// NewHandler builds a Handler, filling unset options with their defaults.
func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	format := opts.Format
	if format == "" {
		format = FormatCompact
	}

	colors := opts.Colors
	if !colors && format != FormatJSON {
		if f, ok := output.(*os.File); ok {
			colors = isTerminal(f)
		}
	}

	return &Handler{
		format: format,
		level:  opts.Level,
		output: output,
		colors: colors,
		attrs:  []slog.Attr{},
		groups: []string{},
	}
}

// Enabled reports whether records at the given level are emitted.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle renders and writes one log record in the configured format.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.format {
	case FormatPretty:
		return h.writePretty(record)
	case FormatJSON:
		return h.writeJSON(record)
	default:
		return h.writeCompact(record)
	}
}

// WithAttrs returns a Handler that includes the given attributes on every
// record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &Handler{
		format: h.format,
		level:  h.level,
		output: h.output,
		colors: h.colors,
		attrs:  merged,
		groups: h.groups,
	}
}

// WithGroup returns a Handler that prefixes attribute keys with the group
// name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)

	return &Handler{
		format: h.format,
		level:  h.level,
		output: h.output,
		colors: h.colors,
		attrs:  h.attrs,
		groups: groups,
	}
}

// appendHeader writes the shared "timestamp LEVEL" prefix, right-aligning the
// level name to five characters and coloring it when enabled.
func (h *Handler) appendHeader(buf []byte, record slog.Record) []byte {
	buf = append(buf, record.Time.Format("2006-01-02 15:04:05")...)
	buf = append(buf, ' ')

	level := levelString(record.Level)
	if h.colors {
		buf = append(buf, colorForLevel(record.Level)...)
		buf = append(buf, fmt.Sprintf("%5s", level)...)
		buf = append(buf, colorReset...)
	} else {
		buf = append(buf, fmt.Sprintf("%5s", level)...)
	}

	return append(buf, ' ')
}

// writeCompact renders one line per record, attributes JSON-encoded after an
// arrow:
//
//	2025-11-03 10:40:35  INFO llm generate completed → {"model":"gemini-2.0-flash"}
func (h *Handler) writeCompact(record slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = h.appendHeader(buf, record)
	buf = append(buf, record.Message...)

	if attrs := h.collectAttrs(record); len(attrs) > 0 {
		buf = append(buf, " → "...)
		encoded, err := json.Marshal(attrs)
		if err != nil {
			buf = append(buf, "[json-error]"...)
		} else {
			buf = append(buf, encoded...)
		}
	}

	buf = append(buf, '\n')
	_, err := h.output.Write(buf)
	return err
}

// prettyIndent aligns attribute lines under the message column.
const prettyIndent = "                   "

// writePretty renders the record header followed by one tree-drawn line per
// attribute:
//
//	2025-11-03 10:40:35 🟢 INFO   llm generate completed
//	                   ├─ model: gemini-2.0-flash
//	                   └─ duration: 1.2s
func (h *Handler) writePretty(record slog.Record) error {
	buf := make([]byte, 0, 256)

	buf = append(buf, record.Time.Format("2006-01-02 15:04:05")...)
	buf = append(buf, ' ')
	buf = append(buf, emojiForLevel(record.Level)...)
	buf = append(buf, ' ')

	level := levelString(record.Level)
	if h.colors {
		buf = append(buf, colorForLevel(record.Level)...)
		buf = append(buf, level...)
		buf = append(buf, colorReset...)
	} else {
		buf = append(buf, level...)
	}
	for pad := 7 - len(level); pad > 0; pad-- {
		buf = append(buf, ' ')
	}

	buf = append(buf, record.Message...)
	buf = append(buf, '\n')

	attrs := h.collectAttrs(record)
	remaining := len(attrs)
	for key, value := range attrs {
		remaining--
		buf = append(buf, prettyIndent...)
		if remaining == 0 {
			buf = append(buf, "└─ "...)
		} else {
			buf = append(buf, "├─ "...)
		}
		buf = append(buf, key...)
		buf = append(buf, ": "...)
		buf = append(buf, fmt.Sprintf("%v", value)...)
		buf = append(buf, '\n')
	}

	_, err := h.output.Write(buf)
	return err
}

// writeJSON renders the record as a single JSON object per line. Standard
// fields (time, level, msg) are always present; attributes merge at the top
// level.
func (h *Handler) writeJSON(record slog.Record) error {
	data := make(map[string]interface{}, record.NumAttrs()+3)
	data["time"] = record.Time.Format("2006-01-02T15:04:05")
	data["level"] = levelString(record.Level)
	data["msg"] = record.Message

	for key, value := range h.collectAttrs(record) {
		data[key] = value
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}

	encoded = append(encoded, '\n')
	_, err = h.output.Write(encoded)
	return err
}

// collectAttrs merges the handler's stored attributes with the record's into
// one map, applying group prefixes.
func (h *Handler) collectAttrs(record slog.Record) map[string]interface{} {
	attrs := make(map[string]interface{}, len(h.attrs)+record.NumAttrs())

	for _, attr := range h.attrs {
		h.addAttr(attrs, attr)
	}

	record.Attrs(func(attr slog.Attr) bool {
		h.addAttr(attrs, attr)
		return true
	})

	return attrs
}

// addAttr stores one attribute, prefixing its key with the group path.
func (h *Handler) addAttr(attrs map[string]interface{}, attr slog.Attr) {
	key := attr.Key
	for _, group := range h.groups {
		key = group + "." + key
	}

	attrs[key] = attr.Value.Any()
}

// levelString names a level, mapping anything below DEBUG to TRACE.
func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ANSI escape sequences for level coloring.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

func colorForLevel(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return colorGray
	case level < slog.LevelInfo:
		return colorBlue
	case level < slog.LevelWarn:
		return colorGreen
	case level < slog.LevelError:
		return colorYellow
	default:
		return colorRed
	}
}

func emojiForLevel(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "🔍"
	case level < slog.LevelInfo:
		return "🔵"
	case level < slog.LevelWarn:
		return "🟢"
	case level < slog.LevelError:
		return "🟡"
	default:
		return "🔴"
	}
}

// isTerminal reports whether the file is attached to a character device.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
