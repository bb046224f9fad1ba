package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/llmwire/llmwire/core/parse"
	"github.com/llmwire/llmwire/internal/jsonschema"
	"github.com/llmwire/llmwire/providers/ai"
)

// StructuredResponse pairs a value parsed into type T with the response it
// was extracted from. The embedded Response keeps backend metadata (usage,
// finish reason, model) reachable without a second field.
type StructuredResponse[T any] struct {
	ai.Response
	Data *T
}

// StructuredClient wraps a base Client and parses every response into type T.
// It is a single-shot extractor: the JSON schema for T is generated once at
// construction, appended to the system prompt of every request as output
// guidance, and the response text is parsed back through the layered JSON
// repair chain in [parse.ParseStringAs].
//
// Because the guidance travels in the system prompt rather than a dedicated
// wire field, it works uniformly across backends, including custom endpoints
// that do not implement a native structured-output mode.
//
// Example usage:
//
//	type Review struct {
//	    Product string `json:"product" jsonschema:"required"`
//	    Rating  int    `json:"rating" jsonschema:"required"`
//	}
//
//	rc, err := client.NewStructured[Review](provider, client.WithModel("gemini-2.0-flash"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := rc.Extract(ctx, "Summarize this review: ...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Data.Product, resp.Data.Rating)
type StructuredClient[T any] struct {
	Client
	schema   *jsonschema.Schema
	guidance string
}

// FromBaseClient wraps an already-configured Client in a StructuredClient for
// type T. The base client's defaults (model, system prompt, middleware chain,
// observer) all stay in effect; the wrapper only adds schema guidance and
// response parsing. Returns nil when base is nil.
func FromBaseClient[T any](base *Client) *StructuredClient[T] {
	if base == nil {
		return nil
	}
	schema := jsonschema.GenerateJSONSchema[T]()
	return &StructuredClient[T]{
		Client:   *base,
		schema:   schema,
		guidance: renderSchemaGuidance(schema),
	}
}

// NewStructured builds a base Client from the provider and options, then
// wraps it for structured output of type T. Convenience for the common case
// where the base client is not needed on its own.
func NewStructured[T any](provider ai.Provider, opts ...Option) (*StructuredClient[T], error) {
	base, err := New(provider, opts...)
	if err != nil {
		return nil, err
	}
	return FromBaseClient[T](base), nil
}

// Schema returns the JSON schema generated for T. Useful for debugging the
// guidance sent to the backend.
func (sc *StructuredClient[T]) Schema() *jsonschema.Schema {
	return sc.schema
}

// Generate sends the request with schema guidance appended to its system
// prompt and parses the response text into T.
func (sc *StructuredClient[T]) Generate(ctx context.Context, request ai.Request) (*StructuredResponse[T], error) {
	response, err := sc.Client.Generate(ctx, sc.withGuidance(request))
	if err != nil {
		return nil, err
	}
	return sc.parseResponse(response)
}

// Extract sends a single user prompt and parses the response into T. It is
// shorthand for Generate with a one-turn request.
func (sc *StructuredClient[T]) Extract(ctx context.Context, prompt string) (*StructuredResponse[T], error) {
	return sc.Generate(ctx, ai.Request{
		Turns: []ai.Turn{ai.UserTurn(prompt)},
	})
}

// withGuidance resolves the effective system prompt (request value first,
// client default second) and appends the schema guidance block. The request
// is modified by value, so the caller's copy is untouched.
func (sc *StructuredClient[T]) withGuidance(request ai.Request) ai.Request {
	system := request.System
	if system == "" {
		system = sc.system
	}

	if system == "" {
		request.System = sc.guidance
	} else {
		request.System = system + "\n\n" + sc.guidance
	}
	return request
}

// parseResponse parses the response text into T via the layered repair chain.
func (sc *StructuredClient[T]) parseResponse(response *ai.Response) (*StructuredResponse[T], error) {
	if response == nil {
		return nil, fmt.Errorf("response is nil")
	}

	data, err := parse.ParseStringAs[T](response.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to parse structured output: %w", err)
	}

	return &StructuredResponse[T]{
		Response: *response,
		Data:     &data,
	}, nil
}

// renderSchemaGuidance produces the instruction block appended to the system
// prompt. The schema is inlined as indented JSON so smaller models can follow
// the shape without a native structured-output mode.
func renderSchemaGuidance(schema *jsonschema.Schema) string {
	payload, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "Respond with a single valid JSON object and no surrounding prose."
	}

	var b strings.Builder
	b.WriteString("Respond with a single JSON object that conforms to the following JSON Schema.\n")
	b.WriteString("Emit only the JSON object: no code fences, no surrounding prose.\n\n")
	b.Write(payload)
	return b.String()
}
