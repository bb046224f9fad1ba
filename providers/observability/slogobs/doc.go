// Package slogobs implements observability.Provider on Go's log/slog:
// spans, counters, and histograms all surface as structured log entries,
// which makes it the right default for CLIs and tests where a metrics
// backend would be overkill.
//
// [New] reads LLMWIRE_LOG_FORMAT and LLMWIRE_LOG_LEVEL when no options are
// given; [WithFormat], [WithLevel], [WithOutput], [WithColors], and
// [WithLogger] override. Three output formats are available: compact
// single-line, pretty multi-line with colors, and JSON. Setting the level
// to [LevelTrace] also reveals span and metric events.
package slogobs
