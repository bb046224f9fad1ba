// Package llmwire puts heterogeneous AI backends behind one interface: a
// canonical request/response model, per-backend adapters that speak each
// wire format, and a normalization layer that converts every streaming
// shape into a single canonical event stream.
//
// The root package is a convenience facade. It aliases the types a typical
// caller touches and wires registry resolution to client construction, so
// simple programs need only one import:
//
//	provider, err := llmwire.Resolve(ctx, "openrouter")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := llmwire.NewClient(provider, client.WithModel("openai/gpt-4o-mini"))
//	...
//	resp, err := c.Generate(ctx, llmwire.Request{Turns: []llmwire.Turn{llmwire.UserTurn("hi")}})
//
// Callers needing the full surface import the layered packages directly:
// [github.com/llmwire/llmwire/providers/ai] for the canonical model,
// [github.com/llmwire/llmwire/providers/ai/registry] for backend selection,
// [github.com/llmwire/llmwire/core/client] for defaults and middleware.
package llmwire

import (
	"context"

	"github.com/llmwire/llmwire/core/client"
	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/ai/registry"
)

// Canonical model aliases.
type (
	Request   = ai.Request
	Response  = ai.Response
	Turn      = ai.Turn
	Part      = ai.Part
	Chunk     = ai.Chunk
	Stream    = ai.Stream
	Usage     = ai.Usage
	ToolCall  = ai.ToolCall
	ModelInfo = ai.ModelInfo
	Provider  = ai.Provider
)

// Turn constructors, re-exported for one-import callers.
var (
	UserTurn       = ai.UserTurn
	AssistantTurn  = ai.AssistantTurn
	ToolResultTurn = ai.ToolResultTurn
)

// Resolve builds the adapter for identifier from a default registry: the
// built-in backend families with ambient credentials. Programs that need
// configured endpoints or shared caches construct their own
// [registry.Registry] instead.
func Resolve(ctx context.Context, identifier string) (ai.Provider, error) {
	return registry.Default().Resolve(ctx, identifier)
}

// NewClient wraps a resolved provider in a [client.Client].
func NewClient(provider ai.Provider, opts ...client.Option) (*client.Client, error) {
	return client.New(provider, opts...)
}
