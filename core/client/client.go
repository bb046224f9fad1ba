package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/observability"
)

// Client wraps a single resolved backend with client-level defaults and an
// optional middleware chain. The zero value is not usable; construct one via
// [New]. A Client is immutable after construction and safe for concurrent
// use; per-call state lives in the request and the returned stream.
type Client struct {
	provider ai.Provider
	model    string
	system   string

	middlewares []MiddlewareConfig
	sendChain   GenerateFunc // nil when no middleware is configured
	streamChain StreamFunc   // nil when no middleware carries a Stream component
}

// ClientOptions collects the values the functional options write into. It is
// exported so callers can implement their own option functions.
type ClientOptions struct {
	// Model is stamped on requests whose own Model field is empty.
	Model string

	// System is stamped on requests whose own System field is empty.
	System string

	// Observer, when set, prepends the observability middleware as the
	// outermost chain entry (see NewObservabilityMiddleware).
	Observer observability.Provider

	// Middlewares are applied outermost-first in slice order.
	Middlewares []MiddlewareConfig
}

// Option mutates ClientOptions during New.
type Option func(*ClientOptions)

// WithModel sets the default model for requests that do not name one.
func WithModel(model string) Option {
	return func(options *ClientOptions) {
		options.Model = model
	}
}

// WithSystemPrompt sets the default system prompt for requests that do not
// carry one. A request-level System always wins.
func WithSystemPrompt(prompt string) Option {
	return func(options *ClientOptions) {
		options.System = prompt
	}
}

// WithObserver wires an observability provider into every call. The
// observability middleware becomes the outermost chain entry, so it observes
// the final outcome after any retry or timeout middleware has run.
func WithObserver(observer observability.Provider) Option {
	return func(options *ClientOptions) {
		options.Observer = observer
	}
}

// WithMiddleware appends middleware entries to the chain. Entries execute
// outermost-first: the first entry passed (across all WithMiddleware calls)
// wraps everything that follows it.
func WithMiddleware(configs ...MiddlewareConfig) Option {
	return func(options *ClientOptions) {
		options.Middlewares = append(options.Middlewares, configs...)
	}
}

// New builds a Client over the given provider. It validates the middleware
// slice up front so a malformed entry fails at construction time rather than
// on the first call.
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, errors.New("client requires a provider")
	}

	options := &ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	middlewares := options.Middlewares
	if options.Observer != nil {
		middlewares = append(
			[]MiddlewareConfig{NewObservabilityMiddleware(options.Observer, options.Model)},
			middlewares...,
		)
	}

	for i, middleware := range middlewares {
		if middleware.Generate == nil {
			return nil, fmt.Errorf("middleware[%d] has a nil Generate field", i)
		}
	}

	c := &Client{
		provider:    provider,
		model:       options.Model,
		system:      options.System,
		middlewares: middlewares,
	}

	if len(middlewares) > 0 {
		c.sendChain = buildGenerateChain(provider, middlewares)
	}
	if hasStreamMiddleware(middlewares) {
		c.streamChain = buildStreamChain(provider, middlewares)
	}

	return c, nil
}

// Provider returns the backend this client was built over.
func (c *Client) Provider() ai.Provider {
	return c.provider
}

// Generate sends the request through the middleware chain and returns the
// completed response. Client-level defaults (model, system prompt) fill in
// request fields left empty by the caller.
func (c *Client) Generate(ctx context.Context, request ai.Request) (*ai.Response, error) {
	request = c.applyDefaults(request)

	if c.sendChain != nil {
		return c.sendChain(ctx, request)
	}

	return c.provider.Generate(ctx, request)
}

// GenerateStream sends the request through the stream middleware chain and
// returns a Stream of normalized chunks. Backends that report streaming as
// unsupported are transparently served through a synchronous call wrapped in
// a single-response stream. The caller must consume the returned stream.
func (c *Client) GenerateStream(ctx context.Context, request ai.Request) (*ai.Stream, error) {
	request = c.applyDefaults(request)

	if c.streamChain != nil {
		return c.streamChain(ctx, request)
	}

	return baseStream(c.provider)(ctx, request)
}

// Collect issues a streaming call and reduces the whole stream into its
// final response: text fragments concatenated, tool calls reassembled, the
// last usage report winning. Use it when a caller wants the streaming
// transport (or its mid-stream diagnostics) but a complete response value.
func (c *Client) Collect(ctx context.Context, request ai.Request) (*ai.Response, error) {
	stream, err := c.GenerateStream(ctx, request)
	if err != nil {
		return nil, err
	}

	return stream.Collect()
}

// applyDefaults returns a copy of the request with client-level defaults
// filled into empty fields. Request-level values always win.
func (c *Client) applyDefaults(request ai.Request) ai.Request {
	if request.Model == "" {
		request.Model = c.model
	}
	if request.System == "" {
		request.System = c.system
	}
	return request
}
