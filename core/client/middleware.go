package client

import (
	"context"

	"github.com/llmwire/llmwire/providers/ai"
)

// GenerateFunc is a function that sends a request to the backend and returns
// the completed response. It is the base unit threaded through the generate
// middleware chain.
type GenerateFunc func(ctx context.Context, request ai.Request) (*ai.Response, error)

// StreamFunc is a function that sends a request to the backend and returns a
// Stream of normalized chunks. It is the base unit threaded through the
// stream middleware chain.
type StreamFunc func(ctx context.Context, request ai.Request) (*ai.Stream, error)

// Middleware intercepts and optionally transforms generate requests and
// responses. Each Middleware receives the next GenerateFunc in the chain and
// returns a new GenerateFunc that wraps it. Middlewares are applied
// outermost-first: the first middleware in the slice is the outermost wrapper.
type Middleware func(next GenerateFunc) GenerateFunc

// StreamMiddleware is the streaming counterpart of Middleware. It intercepts
// stream requests and may wrap the returned Stream to observe or transform
// the chunk sequence. If nil in a MiddlewareConfig, streaming calls skip this
// particular middleware in the chain.
type StreamMiddleware func(next StreamFunc) StreamFunc

// MiddlewareConfig pairs a generate middleware with its optional streaming
// counterpart. The Generate field is required; a nil Generate causes [New] to
// return a descriptive error. The Stream field is optional: a nil value means
// streaming calls bypass this middleware entry entirely (the stream chain
// falls through to the next entry).
type MiddlewareConfig struct {
	// Generate is the middleware applied to Generate and Collect calls.
	// Required — a nil Generate causes New to return an error.
	Generate Middleware

	// Stream is the optional middleware applied to GenerateStream calls
	// (and through them to Collect). A nil value means streaming bypasses
	// this middleware.
	Stream StreamMiddleware
}

// baseGenerate returns the chain base: a direct provider call.
func baseGenerate(provider ai.Provider) GenerateFunc {
	return func(ctx context.Context, request ai.Request) (*ai.Response, error) {
		return provider.Generate(ctx, request)
	}
}

// baseStream returns the stream chain base. It calls the provider's native
// GenerateStream; when the backend reports streaming as unsupported it falls
// back to a synchronous Generate wrapped in a single-response stream, so
// callers can range over any provider uniformly.
func baseStream(provider ai.Provider) StreamFunc {
	return func(ctx context.Context, request ai.Request) (*ai.Stream, error) {
		stream, err := provider.GenerateStream(ctx, request)
		if err == nil {
			return stream, nil
		}
		if !ai.IsUnsupported(err) {
			return nil, err
		}

		response, genErr := provider.Generate(ctx, request)
		if genErr != nil {
			return nil, genErr
		}

		return ai.NewSingleResponseStream(response), nil
	}
}

// buildGenerateChain constructs the linear generate middleware chain from the
// slice of MiddlewareConfig values. Middlewares are applied in reverse order
// so that the first entry in the slice becomes the outermost wrapper, i.e.
// the first to execute on an incoming request.
func buildGenerateChain(provider ai.Provider, middlewares []MiddlewareConfig) GenerateFunc {
	chain := baseGenerate(provider)

	// Apply middlewares in reverse so that middlewares[0] is outermost.
	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Generate(chain)
	}

	return chain
}

// buildStreamChain constructs the linear stream middleware chain from the
// slice of MiddlewareConfig values. Middlewares with a nil Stream field are
// skipped; only those with a non-nil Stream are applied.
func buildStreamChain(provider ai.Provider, middlewares []MiddlewareConfig) StreamFunc {
	chain := baseStream(provider)

	// Apply only non-nil stream middlewares in reverse so that the first
	// entry with a non-nil Stream field is the outermost wrapper.
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}

	return chain
}

// hasStreamMiddleware reports whether any entry carries a Stream component.
func hasStreamMiddleware(middlewares []MiddlewareConfig) bool {
	for _, middleware := range middlewares {
		if middleware.Stream != nil {
			return true
		}
	}
	return false
}
