package slogobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/llmwire/llmwire/providers/observability"
)

// Observer implements observability.Provider on top of log/slog: spans and
// metrics become structured log events, so a process gets usable telemetry
// without an external collector.
type Observer struct {
	logger  *slog.Logger
	metrics *metricsStore
}

var _ observability.Provider = (*Observer)(nil)

// New builds a slog-backed observer. Without options the configuration comes
// from the environment (LLMWIRE_LOG_FORMAT, LLMWIRE_LOG_LEVEL), defaulting to
// compact INFO output on stdout.
//
// Example usage:
//
//	// Environment-driven defaults
//	observer := slogobs.New()
//
//	// Explicit configuration
//	observer := slogobs.New(
//	    slogobs.WithFormat(slogobs.FormatJSON),
//	    slogobs.WithLevel(slog.LevelDebug),
//	)
//
//	// Reuse an existing logger
//	observer := slogobs.New(slogobs.WithLogger(slog.Default()))
func New(opts ...Option) *Observer {
	cfg := applyOptions(opts...)

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(NewHandler(&HandlerOptions{
			Format: cfg.format,
			Level:  cfg.level,
			Output: cfg.output,
			Colors: cfg.colors,
		}))
	}

	return &Observer{
		logger:  logger,
		metrics: newMetricsStore(),
	}
}

/*
	##### TRACING #####
*/

// StartSpan opens a named span, logging its start at DEBUG level. The span
// accumulates attributes until End, which logs the elapsed duration. The
// context is returned unchanged; there is no cross-process propagation here.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &logSpan{
		name:    name,
		started: time.Now(),
		logger:  o.logger,
		attrs:   attrs,
	}

	o.logger.LogAttrs(ctx, slog.LevelDebug, "Span started",
		spanAttrs(name, "span.start", attrs)...)

	return ctx, span
}

// logSpan renders span lifecycle events as log entries.
type logSpan struct {
	name    string
	started time.Time
	logger  *slog.Logger
	mu      sync.Mutex
	attrs   []observability.Attribute
}

// End logs the span close with its total duration and accumulated attributes.
func (s *logSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	logAttrs := spanAttrs(s.name, "span.end", s.attrs)
	logAttrs = append(logAttrs, slog.Duration("duration", time.Since(s.started)))

	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "Span ended", logAttrs...)
}

// SetAttributes appends attributes that End will include.
func (s *logSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

// SetStatus records the final status as span attributes.
func (s *logSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := "unset"
	switch code {
	case observability.StatusOK:
		status = "ok"
	case observability.StatusError:
		status = "error"
	}

	s.attrs = append(s.attrs, observability.String(observability.AttrStatus, status))
	if description != "" {
		s.attrs = append(s.attrs, observability.String(observability.AttrStatusDescription, description))
	}
}

// RecordError attaches the error to the span and logs it immediately at
// ERROR level, so failures surface even if the span is never ended.
func (s *logSpan) RecordError(err error) {
	if err == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attrs = append(s.attrs, observability.Error(err))

	s.logger.LogAttrs(context.Background(), slog.LevelError, "Span error",
		slog.String("span", s.name),
		slog.String("event", "error"),
		slog.String("error", err.Error()),
	)
}

// AddEvent logs a named point-in-time event within the span at DEBUG level.
func (s *logSpan) AddEvent(name string, attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "Span event",
		spanAttrs(s.name, name, attrs)...)
}

// spanAttrs builds the slog attribute list shared by span lifecycle events.
func spanAttrs(span, event string, attrs []observability.Attribute) []slog.Attr {
	logAttrs := make([]slog.Attr, 0, len(attrs)+2)
	logAttrs = append(logAttrs,
		slog.String("span", span),
		slog.String("event", event),
	)
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	return logAttrs
}

/*
	##### METRICS #####
*/

// Counter returns the named counter. Repeated calls with the same name return
// the same instance, so callers can fetch it on every use without caching.
func (o *Observer) Counter(name string) observability.Counter {
	return o.metrics.counter(name, o.logger)
}

// Histogram returns the named histogram. Repeated calls with the same name
// return the same instance.
func (o *Observer) Histogram(name string) observability.Histogram {
	return o.metrics.histogram(name, o.logger)
}

// metricsStore keeps instruments in memory, keyed by name.
type metricsStore struct {
	mu         sync.RWMutex
	counters   map[string]*logCounter
	histograms map[string]*logHistogram
}

func newMetricsStore() *metricsStore {
	return &metricsStore{
		counters:   make(map[string]*logCounter),
		histograms: make(map[string]*logHistogram),
	}
}

func (m *metricsStore) counter(name string, logger *slog.Logger) *logCounter {
	m.mu.RLock()
	counter, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return counter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check: another goroutine may have created it between the locks.
	if counter, ok := m.counters[name]; ok {
		return counter
	}

	counter = &logCounter{name: name, logger: logger}
	m.counters[name] = counter
	return counter
}

func (m *metricsStore) histogram(name string, logger *slog.Logger) *logHistogram {
	m.mu.RLock()
	histogram, ok := m.histograms[name]
	m.mu.RUnlock()
	if ok {
		return histogram
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, ok := m.histograms[name]; ok {
		return histogram
	}

	histogram = &logHistogram{name: name, logger: logger}
	m.histograms[name] = histogram
	return histogram
}

// logCounter is a cumulative counter whose every Add emits a DEBUG entry with
// the delta and running total.
type logCounter struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	value  int64
}

func (c *logCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += value
	total := c.value
	c.mu.Unlock()

	logAttrs := make([]slog.Attr, 0, len(attrs)+4)
	logAttrs = append(logAttrs,
		slog.String("metric", c.name),
		slog.String("type", "counter"),
		slog.Int64("value", total),
		slog.Int64("delta", value),
	)
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "Counter", logAttrs...)
}

// logHistogram emits a DEBUG entry per observation; no buckets are kept.
type logHistogram struct {
	name   string
	logger *slog.Logger
}

func (h *logHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	logAttrs := make([]slog.Attr, 0, len(attrs)+3)
	logAttrs = append(logAttrs,
		slog.String("metric", h.name),
		slog.String("type", "histogram"),
		slog.Float64("value", value),
	)
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}

	h.logger.LogAttrs(ctx, slog.LevelDebug, "Histogram", logAttrs...)
}

/*
	##### LOGGING #####
*/

// Trace logs below DEBUG; enable it with LLMWIRE_LOG_LEVEL=TRACE.
func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, LevelTrace, msg, attrs...)
}

// Debug logs diagnostic detail useful during development.
func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelDebug, msg, attrs...)
}

// Info logs normal operational events.
func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelInfo, msg, attrs...)
}

// Warn logs recoverable anomalies worth investigating.
func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelWarn, msg, attrs...)
}

// Error logs failures that affected the current operation.
func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelError, msg, attrs...)
}

func (o *Observer) log(ctx context.Context, level slog.Level, msg string, attrs ...observability.Attribute) {
	logAttrs := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	o.logger.LogAttrs(ctx, level, msg, logAttrs...)
}
