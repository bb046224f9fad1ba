package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/llmwire/llmwire/core/client"
	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
)

// LogLevel controls how much detail the logging middleware emits per request.
type LogLevel int

const (
	// LogLevelMinimal logs only the model name, total duration, and token counts.
	// Use this when you want lightweight audit trails without noise.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard logs everything in Minimal plus the turn count, tool
	// count and finish reason. This is the recommended default for most
	// applications.
	LogLevelStandard

	// LogLevelVerbose logs everything in Standard plus the first turn content
	// and the full response text, each truncated to 500 characters.
	//
	// WARNING: DO NOT use LogLevelVerbose in production. It will log raw prompt
	// and response text, which may contain sensitive user data, secrets, or PII.
	// It is intended solely for local debugging and development.
	LogLevelVerbose
)

// truncateLen is the maximum content length included in verbose log output.
const truncateLen = 500

// NewLoggingMiddleware creates a MiddlewareConfig that emits structured slog
// log entries before and after every backend call. Both synchronous and
// streaming calls are covered: for streams the completion entry is emitted
// once the iterator is fully consumed or fails.
//
// The logger parameter must not be nil. Use slog.Default() if you have not
// configured a custom logger.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Generate: buildGenerateLogging(logger, level),
		Stream:   buildStreamLogging(logger, level),
	}
}

// buildGenerateLogging constructs the generate middleware that logs
// request/response pairs.
func buildGenerateLogging(logger *slog.Logger, level LogLevel) client.Middleware {
	return func(next client.GenerateFunc) client.GenerateFunc {
		return func(ctx context.Context, request ai.Request) (*ai.Response, error) {
			logger.InfoContext(ctx, "llm generate",
				buildRequestAttrs(request, level)...,
			)

			start := time.Now()
			response, err := next(ctx, request)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "llm generate failed",
					slog.String("model", request.Model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "llm generate completed",
				buildResponseAttrs(response, elapsed, level)...,
			)

			return response, nil
		}
	}
}

// buildStreamLogging constructs the stream middleware that logs stream start
// and wraps the iterator to log completion or error at the end of the stream.
func buildStreamLogging(logger *slog.Logger, level LogLevel) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request ai.Request) (*ai.Stream, error) {
			logger.InfoContext(ctx, "llm stream",
				buildRequestAttrs(request, level)...,
			)

			start := time.Now()
			stream, err := next(ctx, request)
			if err != nil {
				elapsed := time.Since(start)
				logger.ErrorContext(ctx, "llm stream failed",
					slog.String("model", request.Model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			// Wrap the stream iterator so we can log when it finishes.
			wrapped := wrapStreamWithLogging(ctx, stream, logger, request.Model, level, start)
			return wrapped, nil
		}
	}
}

// wrapStreamWithLogging returns a new Stream whose iterator logs a completion
// entry when the chunk sequence ends normally, or an error entry on failure.
func wrapStreamWithLogging(
	ctx context.Context,
	stream *ai.Stream,
	logger *slog.Logger,
	model string,
	level LogLevel,
	start time.Time,
) *ai.Stream {
	iteratorFunc := func(yield func(ai.Chunk, error) bool) {
		var finishReason string
		var usage *ai.Usage
		toolCalls := 0

		for chunk, err := range stream.Iter() {
			if err != nil {
				elapsed := time.Since(start)
				logger.ErrorContext(ctx, "llm stream failed",
					slog.String("model", model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				yield(chunk, err)
				return
			}

			// Capture metadata carried on the chunks for the completion entry.
			if chunk.Kind == ai.ChunkUsage && chunk.Usage != nil {
				usage = chunk.Usage
			}
			if chunk.Kind == ai.ChunkToolCallEnd {
				toolCalls++
			}
			if chunk.Metadata.FinishReason != "" {
				finishReason = chunk.Metadata.FinishReason
			}

			if !yield(chunk, nil) {
				// Caller broke out of the range loop early — log what we have.
				elapsed := time.Since(start)
				logger.InfoContext(ctx, "llm stream abandoned",
					slog.String("model", model),
					slog.Duration("duration", elapsed),
				)
				return
			}
		}

		elapsed := time.Since(start)

		attrs := []any{
			slog.String("model", model),
			slog.Duration("duration", elapsed),
		}

		if level >= LogLevelStandard {
			if finishReason != "" {
				attrs = append(attrs, slog.String("finish_reason", finishReason))
			}
			if toolCalls > 0 {
				attrs = append(attrs, slog.Int("tool_calls", toolCalls))
			}
		}

		if usage != nil {
			attrs = append(attrs,
				slog.Int("prompt_tokens", usage.PromptTokens),
				slog.Int("completion_tokens", usage.CompletionTokens),
				slog.Int("total_tokens", usage.TotalTokens),
			)
		}

		logger.InfoContext(ctx, "llm stream completed", attrs...)
	}

	return ai.NewStream(iteratorFunc)
}

// buildRequestAttrs returns slog attributes for an outgoing request, expanding
// detail according to the requested verbosity level.
func buildRequestAttrs(request ai.Request, level LogLevel) []any {
	attrs := []any{
		slog.String("model", request.Model),
	}

	if level >= LogLevelStandard {
		attrs = append(attrs, slog.Int("turn_count", len(request.Turns)))
		if len(request.Tools) > 0 {
			attrs = append(attrs, slog.Int("tool_count", len(request.Tools)))
		}
	}

	if level >= LogLevelVerbose && len(request.Turns) > 0 {
		first := request.Turns[0]
		attrs = append(attrs,
			slog.String("first_turn_role", string(first.Role)),
			slog.String("first_turn_content", utils.TruncateString(firstText(first), truncateLen)),
		)
	}

	return attrs
}

// buildResponseAttrs returns slog attributes for a completed response,
// expanding detail according to the requested verbosity level.
func buildResponseAttrs(response *ai.Response, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", response.Model),
		slog.Duration("duration", elapsed),
	}

	if response.Usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", response.Usage.PromptTokens),
			slog.Int("completion_tokens", response.Usage.CompletionTokens),
			slog.Int("total_tokens", response.Usage.TotalTokens),
		)
	}

	if level >= LogLevelStandard {
		if response.FinishReason != "" {
			attrs = append(attrs, slog.String("finish_reason", response.FinishReason))
		}
		if calls := response.ToolCalls(); len(calls) > 0 {
			attrs = append(attrs, slog.Int("tool_calls", len(calls)))
		}
	}

	if level >= LogLevelVerbose {
		if text := response.Text(); text != "" {
			attrs = append(attrs,
				slog.String("response_content", utils.TruncateString(text, truncateLen)),
			)
		}
	}

	return attrs
}

// firstText returns the first text part of a turn, or empty when the turn
// carries no text.
func firstText(turn ai.Turn) string {
	for _, part := range turn.Parts {
		if part.Type == ai.PartText {
			return part.Text
		}
	}
	return ""
}
