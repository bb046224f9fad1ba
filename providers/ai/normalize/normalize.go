package normalize

import (
	"time"

	"github.com/tidwall/gjson"

	"github.com/llmwire/llmwire/core/parse"
	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
)

// Normalizer converts raw backend payloads into canonical chunk events. One
// Normalizer serves one stream (or one complete response): it owns the
// tool-call accumulation state and the stream's format stickiness, and is
// not safe for concurrent use.
type Normalizer struct {
	forced ai.Format // format fixed by the adapter; empty means auto-detect
	sticky ai.Format // last format recognized in auto mode
	model  string    // model stamped on metadata when payloads do not report one
	now    func() time.Time

	acc *toolCallAccumulator

	// The content-block family spreads usage across events: input tokens
	// arrive on message_start, output tokens on message_delta. The snapshot
	// is held here and emitted consolidated.
	inputTokens int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithFormat fixes the wire format instead of detecting it per payload.
// Adapters know their own wire and always set this; auto-detection is for
// callers normalizing payloads of unknown origin.
func WithFormat(format ai.Format) Option {
	return func(n *Normalizer) { n.forced = format }
}

// WithModel sets the model identifier stamped on chunk metadata when the
// payload itself does not report one.
func WithModel(model string) Option {
	return func(n *Normalizer) { n.model = model }
}

// WithClock overrides the timestamp source. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New creates a Normalizer for one stream.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now: time.Now,
		acc: newToolCallAccumulator(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts one raw payload into zero or more canonical chunks. A
// single payload may carry any combination of text, tool-call and usage
// data, or none at all (keep-alives, lifecycle markers).
//
// A payload that is not valid JSON returns a stream-frame error and no
// chunks; the caller decides whether to skip it or give up after repeated
// failures. A payload that is valid JSON but matches no known shape yields
// a single error chunk and a nil error, so unrecognized data is surfaced
// in-band rather than silently dropped.
func (n *Normalizer) Normalize(raw []byte) ([]ai.Chunk, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &ai.Error{
			Kind:    ai.KindStreamFrame,
			Message: "frame is not valid JSON",
			Raw:     utils.TruncateStringDefault(string(raw)),
		}
	}

	switch format := n.resolveFormat(raw); format {
	case ai.FormatChatDelta:
		return n.normalizeChatDelta(raw), nil
	case ai.FormatChatComplete:
		return n.normalizeChatComplete(raw), nil
	case ai.FormatContentBlock:
		return n.normalizeContentBlock(raw), nil
	case ai.FormatCandidates:
		return n.normalizeCandidates(raw), nil
	case ai.FormatChatMessage:
		return n.normalizeChatMessage(raw), nil
	default:
		return []ai.Chunk{{
			Kind:     ai.ChunkError,
			Error:    "unrecognized payload shape",
			Metadata: n.metadata(ai.FormatUnknown, "", ""),
		}}, nil
	}
}

// Flush closes every tool call still open, emitting its end event with the
// arguments accumulated so far. Adapters call it when the transport signals
// end-of-stream, so a backend that never reports a closing finish reason
// cannot leave a call's lifecycle dangling.
func (n *Normalizer) Flush() []ai.Chunk {
	open := n.acc.open()
	if len(open) == 0 {
		return nil
	}

	meta := n.metadata(n.effectiveFormat(), "", "")
	var chunks []ai.Chunk
	for _, state := range open {
		if !state.started {
			state.ensureID()
			state.started = true
			chunks = append(chunks, startChunk(state, meta))
		}
		chunks = append(chunks, endChunk(state, meta))
	}
	return chunks
}

/*
	##### FORMAT RESOLUTION #####
*/

// resolveFormat picks the format for one payload: the forced format when the
// adapter fixed one, otherwise per-payload detection with stream stickiness.
// Stickiness covers the content-block family events that carry no fingerprint
// of their own (message_start, content_block_stop, message_stop, ping): once
// the stream has been recognized as content-block, any type-tagged event
// stays in the family rather than re-fingerprinting as something else.
func (n *Normalizer) resolveFormat(raw []byte) ai.Format {
	if n.forced != "" {
		return n.forced
	}

	if n.sticky == ai.FormatContentBlock && gjson.GetBytes(raw, "type").Type == gjson.String {
		return ai.FormatContentBlock
	}

	if detected := Detect(raw); detected != ai.FormatUnknown {
		n.sticky = detected
		return detected
	}
	if n.sticky != "" {
		return n.sticky
	}
	return ai.FormatUnknown
}

func (n *Normalizer) effectiveFormat() ai.Format {
	if n.forced != "" {
		return n.forced
	}
	if n.sticky != "" {
		return n.sticky
	}
	return ai.FormatUnknown
}

// metadata builds the diagnostics stamped on every chunk. A payload-reported
// model is remembered for the rest of the stream, since most formats report
// it only on their first or final event.
func (n *Normalizer) metadata(format ai.Format, model, finishReason string) ai.ChunkMetadata {
	if model != "" {
		n.model = model
	}
	return ai.ChunkMetadata{
		Format:       format,
		Model:        n.model,
		Timestamp:    n.now(),
		FinishReason: finishReason,
	}
}

/*
	##### CHAT DELTA (streaming chat completions) #####
*/

// normalizeChatDelta maps one streaming chat-completion chunk. Text comes
// from choices[0].delta.content; tool deltas from choices[0].delta.tool_calls,
// keyed by their index field — not the call id, which arrives only on the
// first delta of each index and is remembered. finish_reason "tool_calls"
// closes every open call. Usage rides the final chunk (often with empty
// choices) and is emitted even when nothing else is present.
func (n *Normalizer) normalizeChatDelta(raw []byte) []ai.Chunk {
	finish := gjson.GetBytes(raw, "choices.0.finish_reason").Str
	meta := n.metadata(ai.FormatChatDelta, gjson.GetBytes(raw, "model").Str, finish)

	var chunks []ai.Chunk

	if usage := usageFromChat(gjson.GetBytes(raw, "usage")); usage != nil {
		chunks = append(chunks, ai.Chunk{Kind: ai.ChunkUsage, Usage: usage, Metadata: meta})
	}

	delta := gjson.GetBytes(raw, "choices.0.delta")

	if text := delta.Get("content"); text.Type == gjson.String && text.Str != "" {
		chunks = append(chunks, ai.Chunk{Kind: ai.ChunkText, Content: text.Str, Metadata: meta})
	}

	for _, callDelta := range delta.Get("tool_calls").Array() {
		key := int(callDelta.Get("index").Int())
		state := n.acc.get(key)

		if id := callDelta.Get("id").Str; id != "" && state.id == "" {
			state.id = id
		}
		if name := callDelta.Get("function.name").Str; name != "" && state.name == "" {
			state.name = name
		}
		if !state.started {
			state.ensureID()
			state.started = true
			chunks = append(chunks, startChunk(state, meta))
		}
		if fragment := callDelta.Get("function.arguments").Str; fragment != "" {
			state.arguments.WriteString(fragment)
			chunks = append(chunks, deltaChunk(state, fragment, meta))
		}
	}

	if finish == "tool_calls" {
		for _, state := range n.acc.open() {
			chunks = append(chunks, endChunk(state, meta))
		}
	}

	return chunks
}

/*
	##### CONTENT BLOCK (event-tagged streaming) #####
*/

// normalizeContentBlock maps one event of the content-block family, keyed by
// the event-level block index. Tool calls open on content_block_start with
// block type tool_use (the only event carrying the call's id and name),
// accumulate through input_json_delta fragments, and close on
// content_block_stop. Usage is split across message_start and message_delta
// and emitted consolidated on the latter.
func (n *Normalizer) normalizeContentBlock(raw []byte) []ai.Chunk {
	meta := n.metadata(ai.FormatContentBlock, gjson.GetBytes(raw, "message.model").Str, "")

	switch gjson.GetBytes(raw, "type").Str {

	case "message_start":
		n.inputTokens = int(gjson.GetBytes(raw, "message.usage.input_tokens").Int())
		return nil

	case "content_block_start":
		block := gjson.GetBytes(raw, "content_block")
		if block.Get("type").Str != "tool_use" {
			return nil
		}
		state := n.acc.get(int(gjson.GetBytes(raw, "index").Int()))
		state.id = block.Get("id").Str
		state.name = block.Get("name").Str
		state.ensureID()
		state.started = true
		return []ai.Chunk{startChunk(state, meta)}

	case "content_block_delta":
		delta := gjson.GetBytes(raw, "delta")
		switch delta.Get("type").Str {
		case "text_delta":
			if text := delta.Get("text").Str; text != "" {
				return []ai.Chunk{{Kind: ai.ChunkText, Content: text, Metadata: meta}}
			}
			return nil
		case "input_json_delta":
			fragment := delta.Get("partial_json").Str
			if fragment == "" {
				return nil
			}
			key := int(gjson.GetBytes(raw, "index").Int())
			state, ok := n.acc.lookup(key)
			if !ok {
				// Fragment for a block that never announced itself; open the
				// call anyway so its lifecycle stays complete.
				state = n.acc.get(key)
				state.ensureID()
				state.started = true
				state.arguments.WriteString(fragment)
				return []ai.Chunk{startChunk(state, meta), deltaChunk(state, fragment, meta)}
			}
			state.arguments.WriteString(fragment)
			return []ai.Chunk{deltaChunk(state, fragment, meta)}
		}
		return nil

	case "content_block_stop":
		state, ok := n.acc.lookup(int(gjson.GetBytes(raw, "index").Int()))
		if !ok || state.finished {
			// Text blocks never enter the accumulator; nothing to close.
			return nil
		}
		return []ai.Chunk{endChunk(state, meta)}

	case "message_delta":
		if stop := gjson.GetBytes(raw, "delta.stop_reason").Str; stop != "" {
			meta.FinishReason = stop
		}
		usage := gjson.GetBytes(raw, "usage")
		if !usage.IsObject() {
			if meta.FinishReason == "" {
				return nil
			}
			// Carry the stop reason even when the backend omits usage.
			return []ai.Chunk{{Kind: ai.ChunkUsage, Usage: &ai.Usage{PromptTokens: n.inputTokens, TotalTokens: n.inputTokens}, Metadata: meta}}
		}
		output := int(usage.Get("output_tokens").Int())
		return []ai.Chunk{{
			Kind: ai.ChunkUsage,
			Usage: &ai.Usage{
				PromptTokens:     n.inputTokens,
				CompletionTokens: output,
				TotalTokens:      n.inputTokens + output,
			},
			Metadata: meta,
		}}

	case "message_stop", "ping":
		return nil

	case "error":
		message := gjson.GetBytes(raw, "error.message").Str
		if message == "" {
			message = "backend reported a stream error"
		}
		return []ai.Chunk{{Kind: ai.ChunkError, Error: message, Metadata: meta}}

	default:
		// Unknown family events are skipped for forward compatibility.
		return nil
	}
}

/*
	##### CANDIDATES #####
*/

// normalizeCandidates maps a candidate-based payload, used both per-chunk on
// streams and for complete responses. Text and function calls are read from
// candidates[0].content.parts; a function call here is always complete (no
// delta semantics) and is emitted as a start/end pair with a synthesized id
// when the backend supplies none.
func (n *Normalizer) normalizeCandidates(raw []byte) []ai.Chunk {
	finish := gjson.GetBytes(raw, "candidates.0.finishReason").Str
	meta := n.metadata(ai.FormatCandidates, gjson.GetBytes(raw, "modelVersion").Str, finish)

	var chunks []ai.Chunk

	for _, part := range gjson.GetBytes(raw, "candidates.0.content.parts").Array() {
		if text := part.Get("text").Str; text != "" && !part.Get("thought").Bool() {
			chunks = append(chunks, ai.Chunk{Kind: ai.ChunkText, Content: text, Metadata: meta})
		}
		if call := part.Get("functionCall"); call.Exists() {
			chunks = append(chunks, n.completeCall(
				call.Get("id").Str,
				call.Get("name").Str,
				call.Get("args").Raw,
				meta,
			)...)
		}
	}

	if usage := usageFromCandidates(gjson.GetBytes(raw, "usageMetadata")); usage != nil {
		chunks = append(chunks, ai.Chunk{Kind: ai.ChunkUsage, Usage: usage, Metadata: meta})
	}

	return chunks
}

/*
	##### CHAT COMPLETE / CHAT MESSAGE #####
*/

// normalizeChatComplete maps a non-streaming chat completion: the same
// content locations as the delta format, but under choices[0].message.
func (n *Normalizer) normalizeChatComplete(raw []byte) []ai.Chunk {
	finish := gjson.GetBytes(raw, "choices.0.finish_reason").Str
	meta := n.metadata(ai.FormatChatComplete, gjson.GetBytes(raw, "model").Str, finish)
	return n.chatStyleMessage(gjson.GetBytes(raw, "choices.0.message"), gjson.GetBytes(raw, "usage"), meta)
}

// normalizeChatMessage maps the custom-API variant: a chat-shaped message
// object at the payload root instead of inside a choices array.
func (n *Normalizer) normalizeChatMessage(raw []byte) []ai.Chunk {
	finish := gjson.GetBytes(raw, "finish_reason").Str
	if finish == "" {
		finish = gjson.GetBytes(raw, "done_reason").Str
	}
	meta := n.metadata(ai.FormatChatMessage, gjson.GetBytes(raw, "model").Str, finish)
	return n.chatStyleMessage(gjson.GetBytes(raw, "message"), gjson.GetBytes(raw, "usage"), meta)
}

// chatStyleMessage maps a complete chat message object: text content plus
// tool calls that arrive whole, each emitted as a start/end pair.
func (n *Normalizer) chatStyleMessage(message, usage gjson.Result, meta ai.ChunkMetadata) []ai.Chunk {
	var chunks []ai.Chunk

	if text := message.Get("content"); text.Type == gjson.String && text.Str != "" {
		chunks = append(chunks, ai.Chunk{Kind: ai.ChunkText, Content: text.Str, Metadata: meta})
	}

	for _, call := range message.Get("tool_calls").Array() {
		arguments := call.Get("function.arguments")
		// Chat responses carry arguments as a JSON string; some custom
		// backends inline them as an object instead.
		encoded := arguments.Str
		if arguments.IsObject() || arguments.IsArray() {
			encoded = arguments.Raw
		}
		chunks = append(chunks, n.completeCall(
			call.Get("id").Str,
			call.Get("function.name").Str,
			encoded,
			meta,
		)...)
	}

	if u := usageFromChat(usage); u != nil {
		chunks = append(chunks, ai.Chunk{Kind: ai.ChunkUsage, Usage: u, Metadata: meta})
	}

	return chunks
}

/*
	##### SHARED MAPPING HELPERS #####
*/

// completeCall registers an already-complete tool call under the next
// synthetic key and emits its full start/end lifecycle at once.
func (n *Normalizer) completeCall(id, name, arguments string, meta ai.ChunkMetadata) []ai.Chunk {
	state := n.acc.get(n.acc.next())
	state.id = id
	state.name = name
	state.ensureID()
	state.started = true
	if arguments != "" {
		state.arguments.WriteString(arguments)
	}
	return []ai.Chunk{startChunk(state, meta), endChunk(state, meta)}
}

func startChunk(state *toolCallState, meta ai.ChunkMetadata) ai.Chunk {
	return ai.Chunk{
		Kind: ai.ChunkToolCallStart,
		ToolCall: &ai.ChunkToolCall{
			ID:     state.id,
			Name:   state.name,
			Status: ai.ToolCallPending,
		},
		Metadata: meta,
	}
}

func deltaChunk(state *toolCallState, fragment string, meta ai.ChunkMetadata) ai.Chunk {
	return ai.Chunk{
		Kind: ai.ChunkToolCallDelta,
		ToolCall: &ai.ChunkToolCall{
			ID:                state.id,
			ArgumentsFragment: fragment,
			Status:            ai.ToolCallPartial,
		},
		Metadata: meta,
	}
}

// endChunk finalizes a call: the accumulated buffer is parsed, repaired when
// truncated, or carried raw with the RawArguments flag when unrecoverable,
// so already-streamed content is never discarded over a bad argument buffer.
func endChunk(state *toolCallState, meta ai.ChunkMetadata) ai.Chunk {
	state.finished = true

	arguments := state.arguments.String()
	if arguments == "" {
		arguments = "{}"
	}
	final, parseable := parse.EnsureJSON(arguments)

	return ai.Chunk{
		Kind: ai.ChunkToolCallEnd,
		ToolCall: &ai.ChunkToolCall{
			ID:                state.id,
			Name:              state.name,
			ArgumentsFragment: final,
			Status:            ai.ToolCallComplete,
			RawArguments:      !parseable,
		},
		Metadata: meta,
	}
}

func usageFromChat(usage gjson.Result) *ai.Usage {
	if !usage.IsObject() {
		return nil
	}
	u := &ai.Usage{
		PromptTokens:     int(usage.Get("prompt_tokens").Int()),
		CompletionTokens: int(usage.Get("completion_tokens").Int()),
		TotalTokens:      int(usage.Get("total_tokens").Int()),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

func usageFromCandidates(usage gjson.Result) *ai.Usage {
	if !usage.IsObject() {
		return nil
	}
	u := &ai.Usage{
		PromptTokens:     int(usage.Get("promptTokenCount").Int()),
		CompletionTokens: int(usage.Get("candidatesTokenCount").Int()),
		TotalTokens:      int(usage.Get("totalTokenCount").Int()),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}
