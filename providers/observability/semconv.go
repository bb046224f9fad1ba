package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across different components of the system.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the name of the backend provider (e.g., "gemini", "openrouter")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "gemini-2.0-flash", "openai/gpt-4o")
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMResponseID is the unique response identifier from the provider
	AttrLLMResponseID = "llm.response.id"

	// AttrLLMFinishReason is the backend-reported reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMTemperature is the sampling temperature used
	AttrLLMTemperature = "llm.temperature"

	// AttrLLMMaxTokens is the maximum output tokens allowed
	AttrLLMMaxTokens = "llm.max_tokens" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Token Usage Attributes ---

const (
	// AttrLLMTokensPrompt is the number of prompt tokens
	AttrLLMTokensPrompt = "llm.tokens.prompt" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensCompletion is the number of completion tokens
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensTotal is the total number of tokens
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Stream / Normalization Attributes ---

const (
	// AttrStreamFormat is the wire format a stream or payload was classified as
	AttrStreamFormat = "stream.format"

	// AttrStreamChunks is the number of normalized chunks produced
	AttrStreamChunks = "stream.chunks"

	// AttrStreamFramesSkipped is the number of malformed frames skipped
	AttrStreamFramesSkipped = "stream.frames_skipped"
)

// --- Request/Response Attributes ---

const (
	// AttrRequestTurnsCount is the number of conversation turns in the request
	AttrRequestTurnsCount = "request.turns_count"

	// AttrRequestToolsCount is the number of tool declarations in the request
	AttrRequestToolsCount = "request.tools_count"

	// AttrResponseContent is the response content from the model
	AttrResponseContent = "response.content"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Client Attributes ---

const (
	// AttrClientPrompt is the user prompt/input
	AttrClientPrompt = "client.prompt"

	// AttrClientToolCalls is the number of tool calls in the response
	AttrClientToolCalls = "client.tool_calls"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrErrorType is the error type/class
	AttrErrorType = "error.type"

	// AttrErrorKind is the typed failure kind (configuration, transient, ...)
	AttrErrorKind = "error.kind"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanClientGenerate is the span name for client-level generate calls
	SpanClientGenerate = "client.generate"

	// SpanClientGenerateStream is the span name for client-level streaming calls
	SpanClientGenerateStream = "client.generate_stream"

	// SpanLLMRequest is the span name for backend API requests
	SpanLLMRequest = "llm.request"
)

// --- Event Names ---

const (
	// EventLLMRequestStart marks the start of a backend request
	EventLLMRequestStart = "llm.request.start"

	// EventLLMRequestEnd marks the end of a backend request
	EventLLMRequestEnd = "llm.request.end"

	// EventTokensReceived marks when usage totals are received from the backend
	EventTokensReceived = "llm.tokens.received" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// EventStreamFrameSkipped marks a malformed stream frame that was skipped
	EventStreamFrameSkipped = "stream.frame.skipped"

	// EventStreamComplete marks the normal end of a stream
	EventStreamComplete = "stream.complete"
)

// --- Metric Names ---

const (
	// MetricClientRequestCount is the counter for client requests
	MetricClientRequestCount = "llmwire.client.request.count"

	// MetricClientRequestDuration is the histogram for request duration
	MetricClientRequestDuration = "llmwire.client.request.duration"

	// MetricClientTokensTotal is the counter for total tokens
	MetricClientTokensTotal = "llmwire.client.tokens.total"

	// MetricClientTokensPrompt is the counter for prompt tokens
	MetricClientTokensPrompt = "llmwire.client.tokens.prompt"

	// MetricClientTokensCompletion is the counter for completion tokens
	MetricClientTokensCompletion = "llmwire.client.tokens.completion"

	// MetricStreamFramesSkipped is the counter for malformed frames skipped
	MetricStreamFramesSkipped = "llmwire.stream.frames_skipped"
)
