package slogobs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/llmwire/llmwire/providers/observability"
)

// newTestObserver returns an observer routed through a plain text handler at
// DEBUG level, so span and metric events land in buf.
func newTestObserver(buf *bytes.Buffer) *Observer {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(WithLogger(logger))
}

/*
	##### CONSTRUCTION #####
*/

func TestNew_Defaults(t *testing.T) {
	obs := New()
	if obs == nil {
		t.Fatal("New() returned nil")
	}
}

func TestNew_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)

	obs.Info(context.Background(), "routed through custom logger")

	if !strings.Contains(buf.String(), "routed through custom logger") {
		t.Errorf("expected message via custom logger, got: %s", buf.String())
	}
}

/*
	##### SPANS #####
*/

func TestStartSpan_LogsStart(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)
	ctx := context.Background()

	returnedCtx, span := obs.StartSpan(ctx, "llm.generate",
		observability.String("model", "gemini-2.0-flash"),
	)

	if returnedCtx == nil {
		t.Fatal("StartSpan returned nil context")
	}
	if span == nil {
		t.Fatal("StartSpan returned nil span")
	}

	output := buf.String()
	if !strings.Contains(output, "llm.generate") {
		t.Errorf("expected span name in output, got: %s", output)
	}
	if !strings.Contains(output, "span.start") {
		t.Errorf("expected span.start event in output, got: %s", output)
	}
	if !strings.Contains(output, "gemini-2.0-flash") {
		t.Errorf("expected start attributes in output, got: %s", output)
	}
}

func TestSpan_End(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)

	_, span := obs.StartSpan(context.Background(), "llm.generate")
	buf.Reset()

	span.End()

	output := buf.String()
	if !strings.Contains(output, "span.end") {
		t.Errorf("expected span.end event in output, got: %s", output)
	}
	if !strings.Contains(output, "duration") {
		t.Errorf("expected duration in output, got: %s", output)
	}
}

func TestSpan_SetAttributesAppearAtEnd(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)

	_, span := obs.StartSpan(context.Background(), "llm.generate")
	span.SetAttributes(
		observability.Int("tokens.total", 128),
		observability.String("finish_reason", "stop"),
	)
	buf.Reset()

	span.End()

	output := buf.String()
	if !strings.Contains(output, "tokens.total") || !strings.Contains(output, "128") {
		t.Errorf("expected accumulated attribute in end output, got: %s", output)
	}
	if !strings.Contains(output, "finish_reason") {
		t.Errorf("expected accumulated attribute in end output, got: %s", output)
	}
}

func TestSpan_SetStatus(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)

	_, span := obs.StartSpan(context.Background(), "llm.generate")
	span.SetStatus(observability.StatusError, "upstream returned 503")
	buf.Reset()

	span.End()

	output := buf.String()
	if !strings.Contains(output, "status=error") {
		t.Errorf("expected error status in end output, got: %s", output)
	}
	if !strings.Contains(output, "upstream returned 503") {
		t.Errorf("expected status description in end output, got: %s", output)
	}
}

func TestSpan_SetStatus_OKWithoutDescription(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)

	_, span := obs.StartSpan(context.Background(), "llm.generate")
	span.SetStatus(observability.StatusOK, "")
	buf.Reset()

	span.End()

	output := buf.String()
	if !strings.Contains(output, "status=ok") {
		t.Errorf("expected ok status in end output, got: %s", output)
	}
	if strings.Contains(output, "status_description") {
		t.Errorf("empty description should be omitted, got: %s", output)
	}
}

func TestSpan_RecordError(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)

	_, span := obs.StartSpan(context.Background(), "llm.generate")
	buf.Reset()

	span.RecordError(errors.New("connection reset"))

	output := buf.String()
	if !strings.Contains(output, "connection reset") {
		t.Errorf("expected error message logged immediately, got: %s", output)
	}
	if !strings.Contains(output, "level=ERROR") {
		t.Errorf("expected ERROR level, got: %s", output)
	}
}

func TestSpan_RecordError_NilIsNoop(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)

	_, span := obs.StartSpan(context.Background(), "llm.generate")
	buf.Reset()

	span.RecordError(nil)

	if buf.Len() != 0 {
		t.Errorf("expected no output for nil error, got: %s", buf.String())
	}
}

func TestSpan_AddEvent(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)

	_, span := obs.StartSpan(context.Background(), "llm.stream")
	buf.Reset()

	span.AddEvent("first_chunk", observability.Int("latency_ms", 84))

	output := buf.String()
	if !strings.Contains(output, "first_chunk") {
		t.Errorf("expected event name in output, got: %s", output)
	}
	if !strings.Contains(output, "latency_ms") {
		t.Errorf("expected event attribute in output, got: %s", output)
	}
}

/*
	##### METRICS #####
*/

func TestCounter_LogsTypeAndName(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)

	counter := obs.Counter("llmwire.client.request.count")
	counter.Add(context.Background(), 1, observability.String("provider", "gemini"))

	output := buf.String()
	if !strings.Contains(output, "llmwire.client.request.count") {
		t.Errorf("expected counter name in output, got: %s", output)
	}
	if !strings.Contains(output, "type=counter") {
		t.Errorf("expected counter type in output, got: %s", output)
	}
	if !strings.Contains(output, "provider=gemini") {
		t.Errorf("expected counter attribute in output, got: %s", output)
	}
}

func TestCounter_Accumulates(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)
	ctx := context.Background()

	counter := obs.Counter("tokens")
	counter.Add(ctx, 10)
	counter.Add(ctx, 5)
	counter.Add(ctx, 3)

	if !strings.Contains(buf.String(), "value=18") {
		t.Errorf("expected running total 18 in output, got: %s", buf.String())
	}
}

func TestCounter_SameNameSameInstance(t *testing.T) {
	obs := New(WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	first := obs.Counter("requests")
	second := obs.Counter("requests")

	if first != second {
		t.Error("expected the same counter instance for the same name")
	}
	if obs.Counter("other") == first {
		t.Error("expected a different instance for a different name")
	}
}

func TestHistogram_RecordsValue(t *testing.T) {
	var buf bytes.Buffer
	obs := newTestObserver(&buf)

	histogram := obs.Histogram("llmwire.client.request.duration")
	histogram.Record(context.Background(), 1.25, observability.String("provider", "gemini"))

	output := buf.String()
	if !strings.Contains(output, "llmwire.client.request.duration") {
		t.Errorf("expected histogram name in output, got: %s", output)
	}
	if !strings.Contains(output, "type=histogram") {
		t.Errorf("expected histogram type in output, got: %s", output)
	}
	if !strings.Contains(output, "value=1.25") {
		t.Errorf("expected recorded value in output, got: %s", output)
	}
}

func TestHistogram_SameNameSameInstance(t *testing.T) {
	obs := New(WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	if obs.Histogram("latency") != obs.Histogram("latency") {
		t.Error("expected the same histogram instance for the same name")
	}
}

/*
	##### LOGGING #####
*/

func TestLogging_Levels(t *testing.T) {
	tests := []struct {
		name string
		log  func(obs *Observer, ctx context.Context)
		want string
	}{
		{
			name: "debug",
			log: func(obs *Observer, ctx context.Context) {
				obs.Debug(ctx, "debug message", observability.String("key", "value"))
			},
			want: "level=DEBUG",
		},
		{
			name: "info",
			log: func(obs *Observer, ctx context.Context) {
				obs.Info(ctx, "info message", observability.Int("count", 42))
			},
			want: "count=42",
		},
		{
			name: "warn",
			log: func(obs *Observer, ctx context.Context) {
				obs.Warn(ctx, "warn message", observability.Bool("retryable", true))
			},
			want: "level=WARN",
		},
		{
			name: "error",
			log: func(obs *Observer, ctx context.Context) {
				obs.Error(ctx, "error message", observability.Float64("elapsed", 3.5))
			},
			want: "level=ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			obs := newTestObserver(&buf)

			tt.log(obs, context.Background())

			output := buf.String()
			if !strings.Contains(output, tt.name+" message") {
				t.Errorf("expected message in output, got: %s", output)
			}
			if !strings.Contains(output, tt.want) {
				t.Errorf("expected %q in output, got: %s", tt.want, output)
			}
		})
	}
}

func TestLogging_TraceBelowDebug(t *testing.T) {
	// At DEBUG the trace record is filtered; at LevelTrace it passes.
	var filtered bytes.Buffer
	obs := New(WithLogger(slog.New(slog.NewTextHandler(&filtered, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	obs.Trace(context.Background(), "trace message")
	if filtered.Len() != 0 {
		t.Errorf("trace should be filtered at DEBUG level, got: %s", filtered.String())
	}

	var kept bytes.Buffer
	obs = New(WithLogger(slog.New(slog.NewTextHandler(&kept, &slog.HandlerOptions{Level: LevelTrace}))))
	obs.Trace(context.Background(), "trace message")
	if !strings.Contains(kept.String(), "trace message") {
		t.Errorf("trace should pass at TRACE level, got: %s", kept.String())
	}
}
