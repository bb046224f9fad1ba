package observability

import (
	"context"
	"time"
)

// Provider bundles the three observability facets behind one dependency.
// Components take a Provider (usually via context) and never know which
// backend sits behind it.
type Provider interface {
	Tracer
	Metrics
	Logger
}

/*
	##### TRACING #####
*/

// Tracer starts spans around units of work.
type Tracer interface {
	// StartSpan opens a span and returns the context to use for work
	// performed inside it.
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is one traced unit of work. Implementations must be safe for
// concurrent use: streaming code records attributes from consumer
// goroutines.
type Span interface {
	// End completes the span. Must be called exactly once.
	End()
	// SetAttributes attaches attributes to the span.
	SetAttributes(attrs ...Attribute)
	// SetStatus records the final outcome.
	SetStatus(code StatusCode, description string)
	// RecordError attaches an error to the span.
	RecordError(err error)
	// AddEvent marks a named point in time within the span.
	AddEvent(name string, attrs ...Attribute)
}

// StatusCode is the final outcome of a span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

/*
	##### METRICS #####
*/

// Metrics hands out named instruments. Calling with the same name must
// return the same instrument, so callers need not cache them.
type Metrics interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// Counter is a monotonically increasing value.
type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

// Histogram records a distribution of values.
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

/*
	##### LOGGING #####
*/

// Logger is leveled structured logging. Trace sits below Debug for
// high-volume events like per-chunk stream progress.
type Logger interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

/*
	##### ATTRIBUTES #####
*/

// Attribute is one key-value pair attached to spans, metrics, or log
// entries. Keys should come from the semconv constants.
type Attribute struct {
	Key   string
	Value interface{}
}

// String builds a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int builds an int attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 builds an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Float64 builds a float64 attribute.
func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool builds a bool attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// StringSlice builds a string-slice attribute.
func StringSlice(key string, value []string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration builds a duration attribute.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Error builds an attribute from an error's message under the "error" key.
// A nil error yields an empty value.
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: AttrError, Value: ""}
	}
	return Attribute{Key: AttrError, Value: err.Error()}
}
