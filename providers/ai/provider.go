package ai

import "context"

// Provider is the contract every backend family implements. It covers the
// full lifecycle of a single logical call: request serialization, dispatch,
// streaming or synchronous response interpretation, plus the discovery and
// health operations a caller needs before committing to a backend.
//
// Implementations are stateless per call and safe for concurrent use; the
// only mutable state they hold across chunks of one stream lives inside that
// stream's iterator.
type Provider interface {
	// Name returns the stable backend identifier (e.g. "gemini",
	// "openrouter", "custom"). Registry resolution and model-list cache
	// keys build on it.
	Name() string

	// Generate sends the request and returns the completed response.
	// Transient network failures and 5xx responses are retried with bounded
	// exponential backoff; 4xx responses surface immediately as a typed
	// error carrying the backend's raw error text.
	Generate(ctx context.Context, request Request) (*Response, error)

	// GenerateStream sends the request and returns a Stream of normalized
	// chunks as they arrive. Pre-stream errors (auth, bad request, network)
	// are returned as a normal error; mid-stream errors are yielded through
	// the iterator. The caller must consume the stream (see Stream).
	GenerateStream(ctx context.Context, request Request) (*Stream, error)

	// CountTokens estimates how many tokens the given text costs on this
	// backend. Backends with a tokenize endpoint use it; the rest fall back
	// to a local estimate. The result is an estimate, never exact billing.
	CountTokens(ctx context.Context, text string) (int, error)

	// ListModels returns the models this backend offers. Results are cached
	// for 24 hours per backend identity and credential fingerprint, so
	// repeated calls are cheap.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// CheckHealth reports whether the adapter is usable: credentials
	// present, endpoint reachable where that can be verified without a
	// billed generation call.
	CheckHealth(ctx context.Context) HealthStatus
}

// ModelInfo describes one model offered by a backend.
type ModelInfo struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name,omitempty"`
	Description   string `json:"description,omitempty"`
	ContextLength int    `json:"context_length,omitempty"`
	OwnedBy       string `json:"owned_by,omitempty"`
}

// HealthStatus is the result of a configuration health check.
type HealthStatus struct {
	// Configured reports whether the adapter has everything it needs.
	Configured bool `json:"configured"`
	// Error describes what is missing or broken when Configured is false.
	Error string `json:"error,omitempty"`
	// SetupInstructions tells a human how to fix it (typically which
	// environment variable to export).
	SetupInstructions string `json:"setup_instructions,omitempty"`
}
