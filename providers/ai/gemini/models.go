package gemini

import (
	"encoding/json"

	"github.com/llmwire/llmwire/internal/jsonschema"
)

/*
	GEMINI API - REQUEST TYPES
*/

// generateContentRequest represents the request to Gemini's generateContent
// endpoint. Responses are not deserialized into structs here; they are handed
// raw to the shared normalizer.
type generateContentRequest struct {
	Contents          []content          `json:"contents"`
	SystemInstruction *systemInstruction `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig  `json:"generationConfig,omitempty"`
	Tools             []tool             `json:"tools,omitempty"`
}

// systemInstruction represents the system instruction for Gemini.
type systemInstruction struct {
	Parts []part `json:"parts"`
}

// content represents a content block with role and parts.
type content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"
	Parts []part `json:"parts"`
}

// part represents a content part (text, function call, function response, inline data, file data).
type part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
	InlineData       *inlineData       `json:"inlineData,omitempty"` // For multimodal content (images, audio, documents)
	FileData         *fileData         `json:"fileData,omitempty"`   // For URI-referenced multimodal content
}

// inlineData represents inline binary data (e.g., base64-encoded images, audio).
type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// fileData represents a file reference by MIME type and URI.
type fileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

// functionCall represents a function call echoed back in conversation history.
type functionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// functionResponse represents a response to a function call. Gemini correlates
// by function name rather than call id.
type functionResponse struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

// generationConfig represents generation parameters for Gemini.
type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

// tool represents a tool definition for Gemini.
type tool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations,omitempty"`
}

// functionDeclaration represents a user-defined function declaration.
type functionDeclaration struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

/*
	GEMINI API - AUXILIARY ENDPOINT TYPES
*/

// countTokensRequest represents the request to the countTokens endpoint.
type countTokensRequest struct {
	Contents []content `json:"contents"`
}

// countTokensResponse represents the countTokens result.
type countTokensResponse struct {
	TotalTokens int `json:"totalTokens"`
}

// modelsPage represents one page of the models listing endpoint.
type modelsPage struct {
	Models        []modelEntry `json:"models"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
}

// modelEntry represents one model in the listing. Names arrive prefixed with
// "models/".
type modelEntry struct {
	Name            string `json:"name"`
	DisplayName     string `json:"displayName,omitempty"`
	Description     string `json:"description,omitempty"`
	InputTokenLimit int    `json:"inputTokenLimit,omitempty"`
}
