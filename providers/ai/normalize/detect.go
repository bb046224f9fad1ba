package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/llmwire/llmwire/providers/ai"
)

// contentBlockTypes are the event type tags that fingerprint the
// content-block streaming family. Only the three most distinctive members
// are fingerprints; the remaining family events (message_start,
// content_block_stop, message_stop, ping, error) either carry no unique
// marker or nest a message.role object that would match the chat-message
// rule, and are resolved by the Normalizer's per-stream stickiness instead.
var contentBlockTypes = map[string]bool{
	"content_block_start": true,
	"content_block_delta": true,
	"message_delta":       true,
}

// Detect classifies a raw backend payload into one of the known wire
// formats using structural fingerprints. The rules are evaluated in a fixed
// priority order and the first match wins:
//
//  1. a choices array with object == "chat.completion.chunk" — chat delta
//  2. a choices array with object == "chat.completion" — chat complete
//  3. a type field of content_block_start, content_block_delta or
//     message_delta — content block
//  4. a candidates array — candidates
//  5. a message.role field — chat message (custom-API alias of chat)
//  6. none of the above — unknown
//
// The ordering is load-bearing: backends do not self-identify, and a
// payload can carry more than one of these markers (a content-block
// message_start event nests message.role, so it intentionally resolves to
// the chat-message shape here and is reclassified by stream stickiness).
// Changing the rule order or the fingerprints is a breaking change pinned
// by regression tests.
func Detect(raw []byte) ai.Format {
	if !gjson.ValidBytes(raw) {
		return ai.FormatUnknown
	}

	object := gjson.GetBytes(raw, "object").Str
	if gjson.GetBytes(raw, "choices").IsArray() {
		switch object {
		case "chat.completion.chunk":
			return ai.FormatChatDelta
		case "chat.completion":
			return ai.FormatChatComplete
		}
	}

	if typeTag := gjson.GetBytes(raw, "type"); typeTag.Type == gjson.String && contentBlockTypes[typeTag.Str] {
		return ai.FormatContentBlock
	}

	if gjson.GetBytes(raw, "candidates").IsArray() {
		return ai.FormatCandidates
	}

	if gjson.GetBytes(raw, "message.role").Exists() {
		return ai.FormatChatMessage
	}

	return ai.FormatUnknown
}
