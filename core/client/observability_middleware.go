package client

import (
	"context"

	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/observability"
)

// NewObservabilityMiddleware creates a MiddlewareConfig that provides
// distributed tracing spans, structured metrics, and log events for every
// backend request.
//
// The generate middleware records a span from the moment the request enters
// the chain to when the response (or error) is returned. The stream
// middleware records the same span, but defers completion metrics until the
// stream iterator is fully consumed or encounters an error.
//
// Both the span and the observer are injected into the context before
// calling next, so that adapters can retrieve them via
// [observability.SpanFromContext] and [observability.ObserverFromContext]
// and attach their own request events.
//
// The middleware is automatically prepended to the chain by [New] when
// [WithObserver] is provided, making it the outermost wrapper. This means it
// observes the final outcome — after any retry or timeout middleware — which
// is the correct behavior for end-to-end request metrics.
//
// Parameters:
//   - observer: the observability provider; must not be nil.
//   - defaultModel: model name used to label span and metric attributes when
//     the request's own Model field is empty.
func NewObservabilityMiddleware(observer observability.Provider, defaultModel string) MiddlewareConfig {
	return MiddlewareConfig{
		Generate: buildObsGenerate(observer, defaultModel),
		Stream:   buildObsStream(observer, defaultModel),
	}
}

// buildObsGenerate constructs the generate middleware that wraps each
// provider call with a tracing span and records success/error metrics and logs.
func buildObsGenerate(observer observability.Provider, defaultModel string) Middleware {
	return func(next GenerateFunc) GenerateFunc {
		return func(ctx context.Context, request ai.Request) (*ai.Response, error) {
			model := effectiveModel(request.Model, defaultModel)

			// 1. Start span and enrich context so adapters can attach request events.
			ctx, span := observer.StartSpan(ctx, observability.SpanClientGenerate,
				observability.String(observability.AttrLLMModel, model),
			)
			ctx = observability.ContextWithSpan(ctx, span)
			ctx = observability.ContextWithObserver(ctx, observer)

			// 2. Emit a debug log at request start.
			observer.Debug(ctx, "llm generate",
				observability.String(observability.AttrLLMModel, model),
				observability.Int(observability.AttrRequestTurnsCount, len(request.Turns)),
			)

			// 3. Time the provider call.
			timer := utils.NewTimer()
			response, err := next(ctx, request)
			timer.Stop()

			// 4. Handle error path.
			if err != nil {
				recordObsError(ctx, span, observer, err, timer, model, "llm generate failed")
				return nil, err
			}

			// 5. Record success metrics and log.
			recordObsSuccess(ctx, span, observer, response, timer, model)

			return response, nil
		}
	}
}

// buildObsStream constructs the stream middleware that wraps the returned
// Stream's iterator to defer metric recording until the stream completes.
func buildObsStream(observer observability.Provider, defaultModel string) StreamMiddleware {
	return func(next StreamFunc) StreamFunc {
		return func(ctx context.Context, request ai.Request) (*ai.Stream, error) {
			model := effectiveModel(request.Model, defaultModel)

			// 1. Start span and enrich context.
			ctx, span := observer.StartSpan(ctx, observability.SpanClientGenerateStream,
				observability.String(observability.AttrLLMModel, model),
			)
			ctx = observability.ContextWithSpan(ctx, span)
			ctx = observability.ContextWithObserver(ctx, observer)

			// 2. Emit a debug log at stream start.
			observer.Debug(ctx, "llm generate stream",
				observability.String(observability.AttrLLMModel, model),
				observability.Int(observability.AttrRequestTurnsCount, len(request.Turns)),
			)

			// 3. Time the call that initiates the stream.
			timer := utils.NewTimer()
			stream, err := next(ctx, request)
			if err != nil {
				timer.Stop()
				recordObsError(ctx, span, observer, err, timer, model, "llm stream failed")
				return nil, err
			}

			// 4. Wrap the iterator so we can observe it as it drains.
			wrapped := wrapStreamWithObservability(ctx, stream, span, observer, timer, model)
			return wrapped, nil
		}
	}
}

// wrapStreamWithObservability returns a new Stream whose iterator yields all
// chunks unchanged but records observability data when the stream ends
// normally, is abandoned (caller breaks early), or encounters an error.
func wrapStreamWithObservability(
	ctx context.Context,
	stream *ai.Stream,
	span observability.Span,
	observer observability.Provider,
	timer *utils.Timer,
	model string,
) *ai.Stream {
	iteratorFunc := func(yield func(ai.Chunk, error) bool) {
		var usage *ai.Usage
		var finishReason string
		var toolParts []ai.Part

		for chunk, err := range stream.Iter() {
			if err != nil {
				timer.Stop()
				recordObsError(ctx, span, observer, err, timer, model, "llm stream failed")
				yield(chunk, err)
				return
			}

			// Capture metadata for the completion log entry.
			if chunk.Kind == ai.ChunkUsage && chunk.Usage != nil {
				usage = chunk.Usage
			}
			if chunk.Metadata.FinishReason != "" {
				finishReason = chunk.Metadata.FinishReason
			}
			if chunk.Kind == ai.ChunkToolCallEnd && chunk.ToolCall != nil {
				toolParts = append(toolParts, ai.ToolCallPart(ai.ToolCall{
					ID:   chunk.ToolCall.ID,
					Name: chunk.ToolCall.Name,
				}))
			}

			if !yield(chunk, nil) {
				// Caller broke out early — record what we have so far.
				timer.Stop()
				span.SetStatus(observability.StatusOK, "llm stream abandoned")
				span.End()

				observer.Info(ctx, "llm stream abandoned",
					observability.String(observability.AttrLLMModel, model),
					observability.Duration(observability.AttrDuration, timer.GetDuration()),
				)

				return
			}
		}

		// Stream completed normally.
		timer.Stop()

		// Build a synthetic response to reuse the shared success recorder.
		syntheticResponse := &ai.Response{
			Model:        model,
			Parts:        toolParts,
			FinishReason: finishReason,
			Usage:        usage,
		}

		recordObsSuccess(ctx, span, observer, syntheticResponse, timer, model)
	}

	return ai.NewStream(iteratorFunc)
}

// recordObsError writes all error-path observability data: span error status,
// an ERROR log, the error-labelled request counter, and then ends the span.
func recordObsError(
	ctx context.Context,
	span observability.Span,
	observer observability.Provider,
	err error,
	timer *utils.Timer,
	model string,
	message string,
) {
	span.RecordError(err)
	span.SetStatus(observability.StatusError, message)
	span.End()

	observer.Error(ctx, message,
		observability.Error(err),
		observability.Duration(observability.AttrDuration, timer.GetDuration()),
		observability.String(observability.AttrLLMModel, model),
	)

	observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "error"),
		observability.String(observability.AttrLLMModel, model),
	)
}

// recordObsSuccess writes all success-path observability data: duration
// histogram, request counter, token counters, span attributes, a structured
// INFO log, and then ends the span.
func recordObsSuccess(
	ctx context.Context,
	span observability.Span,
	observer observability.Provider,
	response *ai.Response,
	timer *utils.Timer,
	model string,
) {
	elapsed := timer.GetDuration()

	// Metrics
	observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrLLMModel, model),
	)

	observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "success"),
		observability.String(observability.AttrLLMModel, model),
	)

	toolCalls := response.ToolCalls()

	// Log attributes (always present)
	logAttrs := []observability.Attribute{
		observability.String(observability.AttrLLMModel, model),
		observability.String(observability.AttrLLMFinishReason, response.FinishReason),
		observability.Duration(observability.AttrDuration, elapsed),
		observability.Int(observability.AttrClientToolCalls, len(toolCalls)),
	}

	// Token counters and span attributes (when usage is available)
	if response.Usage != nil {
		observer.Counter(observability.MetricClientTokensTotal).Add(ctx, int64(response.Usage.TotalTokens),
			observability.String(observability.AttrLLMModel, model),
		)
		observer.Counter(observability.MetricClientTokensPrompt).Add(ctx, int64(response.Usage.PromptTokens),
			observability.String(observability.AttrLLMModel, model),
		)
		observer.Counter(observability.MetricClientTokensCompletion).Add(ctx, int64(response.Usage.CompletionTokens),
			observability.String(observability.AttrLLMModel, model),
		)

		span.SetAttributes(
			observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens),
			observability.Int(observability.AttrLLMTokensPrompt, response.Usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, response.Usage.CompletionTokens),
		)

		logAttrs = append(logAttrs,
			observability.Int(observability.AttrLLMTokensPrompt, response.Usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, response.Usage.CompletionTokens),
			observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens),
		)
	}

	// Add tool call names if present
	if len(toolCalls) > 0 {
		toolNames := make([]string, len(toolCalls))
		for i, toolCall := range toolCalls {
			toolNames[i] = toolCall.Name
		}

		logAttrs = append(logAttrs, observability.StringSlice("tool_calls", toolNames))
	}

	// Add response content preview if present
	if text := response.Text(); text != "" {
		logAttrs = append(logAttrs,
			observability.String(observability.AttrResponseContent, utils.TruncateString(text, 100)),
		)
	}

	observer.Info(ctx, "llm generate completed", logAttrs...)

	span.SetStatus(observability.StatusOK, "success")
	span.End()
}

// effectiveModel returns the request-level model when set, falling back to
// the client's configured default. Both being empty is valid (backend picks).
func effectiveModel(requestModel, defaultModel string) string {
	if requestModel != "" {
		return requestModel
	}

	return defaultModel
}
