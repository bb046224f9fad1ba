package openrouter

import "github.com/llmwire/llmwire/internal/jsonschema"

/*
	CHAT COMPLETIONS API - REQUEST TYPES
*/

// chatCompletionRequest represents the /chat/completions request format.
// Responses are not deserialized into structs here; they are handed raw to
// the shared normalizer.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Tools       []chatTool    `json:"tools,omitempty"`

	Stream        *bool          `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

// streamOptions tunes streaming behavior; include_usage asks for a final
// usage-bearing frame.
type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// chatMessage is one entry of the messages array.
type chatMessage struct {
	Role       string         `json:"role"`              // system, user, assistant, tool
	Content    any            `json:"content,omitempty"` // string, or []contentPart for multimodal
	ToolCallID string         `json:"tool_call_id,omitempty"` // for role=tool
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`   // for role=assistant
}

// contentPart represents a multimodal content part.
type contentPart struct {
	Type     string            `json:"type"` // "text" or "image_url"
	Text     string            `json:"text,omitempty"`
	ImageURL *contentPartImage `json:"image_url,omitempty"`
}

// contentPartImage carries an image by URL or data URL.
type contentPartImage struct {
	URL string `json:"url"`
}

// chatTool wraps a function declaration the model may call.
type chatTool struct {
	Type     string       `json:"type"` // always "function"
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// chatToolCall echoes a previous model tool call back in history.
type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // always "function"
	Function chatToolFunction `json:"function"`
}

type chatToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

/*
	MODEL LISTING TYPES
*/

// modelsResponse represents the /models listing. OpenRouter also reports
// per-model pricing in this payload; it is passed over since the canonical
// model carries no cost data.
type modelsResponse struct {
	Data []modelEntry `json:"data"`
}

type modelEntry struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Description   string `json:"description,omitempty"`
	ContextLength int    `json:"context_length,omitempty"`
}
