package ai

// Format tags the wire shape a raw backend payload was classified as.
// Classification is structural (duck-typed) because backends do not
// self-identify; see the normalize package for the detection rules.
// The set of tags and their detection precedence form a versioned contract:
// changing either breaks downstream consumers that switch on chunk metadata.
type Format string

const (
	// FormatChatDelta is the streaming chat-completion shape:
	// an object field "chat.completion.chunk" with a choices array of deltas.
	FormatChatDelta Format = "chat_delta"
	// FormatChatComplete is the non-streaming chat-completion shape:
	// an object field "chat.completion" with a choices array of messages.
	FormatChatComplete Format = "chat_complete"
	// FormatContentBlock is the content-block event family
	// (message_start, content_block_start/delta/stop, message_delta).
	FormatContentBlock Format = "content_block"
	// FormatCandidates is the candidate-based shape with a candidates array
	// of content parts.
	FormatCandidates Format = "candidates"
	// FormatChatMessage is the custom-API variant carrying a bare
	// message.role object; treated as an alias of the chat shape.
	FormatChatMessage Format = "chat_message"
	// FormatUnknown marks a payload that matched no known shape. It is
	// surfaced to callers as an error chunk, never silently dropped.
	FormatUnknown Format = "unknown"
)
