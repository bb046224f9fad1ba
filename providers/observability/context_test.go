package observability

import (
	"context"
	"sync"
	"testing"
)

// stubSpan carries a name so identity assertions can tell instances apart.
type stubSpan struct {
	name string
}

func (s *stubSpan) End()                          {}
func (s *stubSpan) SetAttributes(...Attribute)    {}
func (s *stubSpan) SetStatus(StatusCode, string)  {}
func (s *stubSpan) RecordError(error)             {}
func (s *stubSpan) AddEvent(string, ...Attribute) {}

// stubProvider is the minimal Provider used for context round-trips.
type stubProvider struct {
	label string
}

func (p *stubProvider) StartSpan(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, nil
}
func (p *stubProvider) Counter(string) Counter                      { return nil }
func (p *stubProvider) Histogram(string) Histogram                  { return nil }
func (p *stubProvider) Trace(context.Context, string, ...Attribute) {}
func (p *stubProvider) Debug(context.Context, string, ...Attribute) {}
func (p *stubProvider) Info(context.Context, string, ...Attribute)  {}
func (p *stubProvider) Warn(context.Context, string, ...Attribute)  {}
func (p *stubProvider) Error(context.Context, string, ...Attribute) {}

/*
	##### SPAN CONTEXT #####
*/

func TestSpanFromContext_EmptyContext(t *testing.T) {
	if span := SpanFromContext(context.Background()); span != nil {
		t.Errorf("expected nil span from plain context, got %v", span)
	}
}

func TestSpanFromContext_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context exercises the guard
	if span := SpanFromContext(nil); span != nil {
		t.Errorf("expected nil span from nil context, got %v", span)
	}
}

func TestSpanContext_RoundTrip(t *testing.T) {
	injected := &stubSpan{name: "generate"}

	ctx := ContextWithSpan(context.Background(), injected)

	if got := SpanFromContext(ctx); got != injected {
		t.Errorf("SpanFromContext returned %v, want the injected instance", got)
	}
}

func TestContextWithSpan_InnerSpanWins(t *testing.T) {
	outer := &stubSpan{name: "outer"}
	inner := &stubSpan{name: "inner"}

	ctx := ContextWithSpan(context.Background(), outer)
	ctx = ContextWithSpan(ctx, inner)

	got, ok := SpanFromContext(ctx).(*stubSpan)
	if !ok || got.name != "inner" {
		t.Errorf("expected the innermost span, got %v", got)
	}
}

func TestSpanContext_SurvivesWrapping(t *testing.T) {
	type otherKey string

	span := &stubSpan{name: "parent"}
	ctx := ContextWithSpan(context.Background(), span)

	// Values layered on top must not shadow the span.
	ctx = context.WithValue(ctx, otherKey("request-id"), "abc123")
	ctx = context.WithValue(ctx, otherKey("attempt"), 2)

	if got := SpanFromContext(ctx); got != span {
		t.Error("span lost after wrapping the context with unrelated values")
	}
}

func TestSpanContext_ConcurrentReaders(t *testing.T) {
	span := &stubSpan{name: "shared"}
	base := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := ContextWithSpan(base, span)
			if SpanFromContext(ctx) != span {
				t.Error("span identity lost under concurrent access")
			}
		}()
	}
	wg.Wait()
}

/*
	##### OBSERVER CONTEXT #####
*/

func TestObserverContext_RoundTrip(t *testing.T) {
	injected := &stubProvider{label: "primary"}

	ctx := ContextWithObserver(context.Background(), injected)

	got := ObserverFromContext(ctx)
	if got == nil {
		t.Fatal("ObserverFromContext returned nil, want the injected provider")
	}
	provider, ok := got.(*stubProvider)
	if !ok {
		t.Fatalf("retrieved observer has type %T, want *stubProvider", got)
	}
	if provider.label != "primary" {
		t.Errorf("retrieved observer label = %q, want %q", provider.label, "primary")
	}
}

func TestObserverFromContext_EmptyContext(t *testing.T) {
	if obs := ObserverFromContext(context.Background()); obs != nil {
		t.Errorf("expected nil observer from plain context, got %v", obs)
	}
}

func TestObserverFromContext_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context exercises the guard
	if obs := ObserverFromContext(nil); obs != nil {
		t.Errorf("expected nil observer from nil context, got %v", obs)
	}
}

func TestSpanAndObserver_IndependentKeys(t *testing.T) {
	span := &stubSpan{name: "generate"}
	observer := &stubProvider{label: "primary"}

	ctx := ContextWithSpan(context.Background(), span)
	ctx = ContextWithObserver(ctx, observer)

	if SpanFromContext(ctx) != span {
		t.Error("storing an observer displaced the span")
	}
	if got := ObserverFromContext(ctx); got != Provider(observer) {
		t.Error("storing a span displaced the observer")
	}
}
