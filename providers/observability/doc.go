// Package observability defines the tracing, metrics, and logging interfaces
// the rest of llmwire reports through, without binding to any telemetry
// backend.
//
// [Provider] composes [Tracer], [Metrics], and [Logger] into one injectable
// dependency. An active provider and span travel through a [context.Context]
// via [ContextWithObserver] and [ContextWithSpan], and are read back with
// [ObserverFromContext] and [SpanFromContext]; both getters return nil on an
// uninstrumented context, so callers nil-check and carry on.
//
// Attribute keys, metric names, and span names are centralized in semconv.go
// so every component records the same observation the same way. The slogobs
// subpackage supplies a ready-made Provider backed by log/slog.
package observability
