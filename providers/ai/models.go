package ai

import (
	"fmt"

	"github.com/llmwire/llmwire/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// Request represents a single provider-agnostic "generate content" call.
// It is constructed fresh per call by the caller and treated as immutable by
// adapters: serialization into a backend wire format never mutates it.
type Request struct {
	Model      string            `json:"model,omitempty"`      // Model name or identifier
	System     string            `json:"system,omitempty"`     // Optional system prompt, kept out of the turn list
	Turns      []Turn            `json:"turns"`                // Ordered conversation history
	Tools      []ToolDeclaration `json:"tools,omitempty"`      // Callable functions the model may invoke
	Generation *GenerationParams `json:"generation,omitempty"` // Optional sampling/limit parameters
}

// ToolDeclaration describes one callable function offered to the model.
// Arguments arrive back through tool-call parts/chunks as a JSON string
// matching Parameters.
type ToolDeclaration struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Turn is one entry of the conversation: a role plus an ordered sequence of
// parts. A turn's parts must be homogeneous in intent; see Validate.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Validate checks the turn's structural invariants. A turn carrying a
// tool-result part must carry only tool-result parts, since backends map the
// whole turn onto a dedicated tool-response message shape. Adapters call this
// before serialization.
func (t Turn) Validate() error {
	if len(t.Parts) == 0 {
		return fmt.Errorf("turn with role %q has no parts", t.Role)
	}
	results := 0
	for _, part := range t.Parts {
		if part.Type == PartToolResult {
			results++
		}
	}
	if results > 0 && results != len(t.Parts) {
		return fmt.Errorf("turn with role %q mixes tool-result parts with other part types", t.Role)
	}
	return nil
}

// PartType identifies the payload carried by a Part.
type PartType string

const (
	// PartText is a plain text fragment.
	PartText PartType = "text"
	// PartBlob is inline binary data (base64) or a URI reference to it.
	PartBlob PartType = "blob"
	// PartToolCall is a model-initiated function call.
	PartToolCall PartType = "tool_call"
	// PartToolResult is the caller-supplied result of a previous tool call.
	PartToolResult PartType = "tool_result"
)

// Part is one element of a turn or of a response. Exactly one payload field
// is set, identified by Type.
type Part struct {
	Type       PartType    `json:"type"`
	Text       string      `json:"text,omitempty"`        // Type == PartText
	Blob       *Blob       `json:"blob,omitempty"`        // Type == PartBlob
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`   // Type == PartToolCall
	ToolResult *ToolResult `json:"tool_result,omitempty"` // Type == PartToolResult
}

// Blob carries inline binary content. Exactly one of Data (base64) or URI is
// expected; MimeType qualifies either.
type Blob struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data,omitempty"` // base64-encoded payload
	URI      string `json:"uri,omitempty"`  // remote reference, when the backend accepts one
}

// GenerationParams are optional sampling and limit parameters. Nil pointer
// fields are omitted from the wire request so the backend applies its own
// defaults.
type GenerationParams struct {
	Temperature     *float64 `json:"temperature,omitempty"`       // Sampling temperature. Higher => more random.
	TopP            *float64 `json:"top_p,omitempty"`             // Nucleus sampling; alternative to temperature.
	MaxOutputTokens int      `json:"max_output_tokens,omitempty"` // Cap on generated tokens; 0 means backend default.
	StopSequences   []string `json:"stop_sequences,omitempty"`    // Generation halts when one of these is produced.
}

/*
	##### PROVIDER OUTPUT #####
*/

// Usage reports token counts for one call. Backends that do not report usage
// leave the whole struct absent rather than zero-valued.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Response is the result of one non-streaming call, or the fully-reduced
// result of a stream (see Stream.Collect). It is immutable once returned;
// Text and ToolCalls are computed accessors over Parts.
type Response struct {
	Model        string `json:"model,omitempty"`
	Created      int64  `json:"created,omitempty"`
	Parts        []Part `json:"parts"`
	FinishReason string `json:"finish_reason,omitempty"` // Backend-reported stop cause, opaque
	Usage        *Usage `json:"usage,omitempty"`
}

// Text concatenates the text parts of the response in order.
func (r *Response) Text() string {
	var out string
	for _, part := range r.Parts {
		if part.Type == PartText {
			out += part.Text
		}
	}
	return out
}

// ToolCalls collects the tool-call parts of the response in order.
func (r *Response) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, part := range r.Parts {
		if part.Type == PartToolCall && part.ToolCall != nil {
			calls = append(calls, *part.ToolCall)
		}
	}
	return calls
}

// Empty reports whether the response carries neither text nor tool calls.
// A successful backend call must never produce an empty response; adapters
// turn this condition into a protocol error instead of returning it.
func (r *Response) Empty() bool {
	for _, part := range r.Parts {
		switch part.Type {
		case PartText:
			if part.Text != "" {
				return false
			}
		case PartToolCall:
			if part.ToolCall != nil {
				return false
			}
		}
	}
	return true
}

/*
	##### TOOL CALLS #####
*/

// ToolCall is a model-initiated request to invoke a declared function.
// Arguments is a JSON string; during streaming it is assembled incrementally
// and may have passed through truncation repair before arriving here.
type ToolCall struct {
	ID        string `json:"id,omitempty"` // Backend call id, or synthesized when the backend supplies none
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// ToolResult is the caller-supplied outcome of a previous tool call, sent
// back to the model on the next turn. CallID must match the ToolCall.ID it
// answers; losing that correlation breaks multi-turn tool use.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

/*
	##### ENUMS #####
*/

// Role identifies the author of a turn; compatible with string.
type Role string

const (
	RoleSystem    Role = "system"    // System instructions/configuration
	RoleUser      Role = "user"      // End-user message
	RoleAssistant Role = "assistant" // Model response
	RoleTool      Role = "tool"      // Tool execution result
)

/*
	##### CONSTRUCTORS #####
*/

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// ToolCallPart builds a tool-call part.
func ToolCallPart(call ToolCall) Part {
	return Part{Type: PartToolCall, ToolCall: &call}
}

// ToolResultPart builds a tool-result part answering the given call.
func ToolResultPart(callID, name, content string) Part {
	return Part{Type: PartToolResult, ToolResult: &ToolResult{CallID: callID, Name: name, Content: content}}
}

// UserTurn builds a user turn from a plain text message.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Parts: []Part{TextPart(text)}}
}

// AssistantTurn builds an assistant turn from the parts of a previous
// response, so a caller can append the model's own output to the history.
func AssistantTurn(parts ...Part) Turn {
	return Turn{Role: RoleAssistant, Parts: parts}
}

// ToolResultTurn builds a tool turn carrying a single tool result.
func ToolResultTurn(callID, name, content string) Turn {
	return Turn{Role: RoleTool, Parts: []Part{ToolResultPart(callID, name, content)}}
}
