package middleware

import (
	"context"
	"time"

	"github.com/llmwire/llmwire/core/client"
	"github.com/llmwire/llmwire/providers/ai"
)

// NewTimeoutMiddleware creates a MiddlewareConfig that enforces a per-request
// deadline on both synchronous and streaming backend calls.
//
// For generate requests the implementation wraps the context with
// context.WithTimeout and defers cancel() — the context is automatically
// canceled once the backend returns or the deadline expires.
//
// For streaming requests the timeout wraps the context before calling next,
// but the cancel function is NOT deferred immediately. Instead it is called
// once the stream is fully consumed, a mid-stream error occurs, or the
// iterator is abandoned. This ensures the timeout governs the complete
// lifetime of the stream, not just the time to receive the first byte.
//
// If the caller supplies a context that already has a shorter deadline, that
// shorter deadline wins as per normal context semantics.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Generate: buildGenerateTimeout(timeout),
		Stream:   buildStreamTimeout(timeout),
	}
}

// buildGenerateTimeout constructs the generate middleware that adds a deadline.
func buildGenerateTimeout(timeout time.Duration) client.Middleware {
	return func(next client.GenerateFunc) client.GenerateFunc {
		return func(ctx context.Context, request ai.Request) (*ai.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}

// buildStreamTimeout constructs the stream middleware that adds a deadline and
// wraps the resulting Stream so the cancel function is called at the
// appropriate moment.
func buildStreamTimeout(timeout time.Duration) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request ai.Request) (*ai.Stream, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)

			stream, err := next(ctx, request)
			if err != nil {
				// Pre-stream error — cancel immediately.
				cancel()
				return nil, err
			}

			// Wrap the iterator so cancel is called when the stream ends.
			wrapped := wrapStreamWithCancel(stream, cancel)
			return wrapped, nil
		}
	}
}

// wrapStreamWithCancel returns a new Stream whose iterator calls cancel once
// the chunk sequence ends, errors, or the caller breaks out of the loop.
func wrapStreamWithCancel(stream *ai.Stream, cancel context.CancelFunc) *ai.Stream {
	iteratorFunc := func(yield func(ai.Chunk, error) bool) {
		defer cancel()

		for chunk, err := range stream.Iter() {
			if !yield(chunk, err) {
				// The caller broke out of the range loop early.
				return
			}

			if err != nil {
				return
			}
		}
	}

	return ai.NewStream(iteratorFunc)
}
