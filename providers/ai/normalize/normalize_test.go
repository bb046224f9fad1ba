package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmwire/llmwire/providers/ai"
)

// collect feeds frames through the normalizer and returns every chunk,
// failing the test on any frame error.
func collect(t *testing.T, n *Normalizer, frames ...string) []ai.Chunk {
	t.Helper()
	var chunks []ai.Chunk
	for _, frame := range frames {
		out, err := n.Normalize([]byte(frame))
		require.NoError(t, err)
		chunks = append(chunks, out...)
	}
	return chunks
}

func kinds(chunks []ai.Chunk) []ai.ChunkKind {
	out := make([]ai.ChunkKind, len(chunks))
	for i, chunk := range chunks {
		out[i] = chunk.Kind
	}
	return out
}

func TestNormalizer_ChatDelta_Text(t *testing.T) {
	n := New()

	chunks := collect(t, n,
		`{"object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}],"usage":null}`,
		`{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"lo."}}],"usage":null}`,
		`{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":null},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`,
	)

	require.Equal(t, []ai.ChunkKind{ai.ChunkText, ai.ChunkText, ai.ChunkUsage}, kinds(chunks))
	assert.Equal(t, "Hel", chunks[0].Content)
	assert.Equal(t, "lo.", chunks[1].Content)

	usage := chunks[2].Usage
	require.NotNil(t, usage)
	assert.Equal(t, 5, usage.PromptTokens)
	assert.Equal(t, 2, usage.CompletionTokens)
	assert.Equal(t, 7, usage.TotalTokens)
	assert.Equal(t, "stop", chunks[2].Metadata.FinishReason)

	for _, chunk := range chunks {
		assert.Equal(t, ai.FormatChatDelta, chunk.Metadata.Format)
		assert.Equal(t, "gpt-4o", chunk.Metadata.Model)
	}
}

func TestNormalizer_ChatDelta_ToolCallLifecycle(t *testing.T) {
	// Bare chunks without the object tag are undetectable on their own;
	// adapters always fix the format up front.
	n := New(WithFormat(ai.FormatChatDelta))

	chunks := collect(t, n,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":""}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\":"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Paris\"}"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	)

	require.Equal(t, []ai.ChunkKind{
		ai.ChunkToolCallStart,
		ai.ChunkToolCallDelta,
		ai.ChunkToolCallDelta,
		ai.ChunkToolCallEnd,
	}, kinds(chunks))

	start := chunks[0].ToolCall
	require.NotNil(t, start)
	assert.Equal(t, "call_1", start.ID)
	assert.Equal(t, "get_weather", start.Name)
	assert.Equal(t, ai.ToolCallPending, start.Status)
	assert.Empty(t, start.ArgumentsFragment)

	// Later deltas never repeat the id; the normalizer stamps the remembered
	// one on every event of the call.
	for _, chunk := range chunks[1:] {
		assert.Equal(t, "call_1", chunk.ToolCall.ID)
	}
	assert.Equal(t, `{"city":`, chunks[1].ToolCall.ArgumentsFragment)
	assert.Equal(t, ai.ToolCallPartial, chunks[1].ToolCall.Status)

	end := chunks[3].ToolCall
	assert.Equal(t, "get_weather", end.Name)
	assert.Equal(t, `{"city":"Paris"}`, end.ArgumentsFragment)
	assert.Equal(t, ai.ToolCallComplete, end.Status)
	assert.False(t, end.RawArguments)
	assert.Equal(t, "tool_calls", chunks[3].Metadata.FinishReason)
}

func TestNormalizer_ChatDelta_InterleavedToolCalls(t *testing.T) {
	n := New(WithFormat(ai.FormatChatDelta))

	chunks := collect(t, n,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_a","function":{"name":"first"}},{"index":1,"id":"call_b","function":{"name":"second"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":1,"function":{"arguments":"{\"b\":2}"}},{"index":0,"function":{"arguments":"{\"a\":1}"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	)

	require.Equal(t, []ai.ChunkKind{
		ai.ChunkToolCallStart, ai.ChunkToolCallStart,
		ai.ChunkToolCallDelta, ai.ChunkToolCallDelta,
		ai.ChunkToolCallEnd, ai.ChunkToolCallEnd,
	}, kinds(chunks))

	// Fragments route by index, never bleeding across calls.
	assert.Equal(t, "call_b", chunks[2].ToolCall.ID)
	assert.Equal(t, `{"b":2}`, chunks[2].ToolCall.ArgumentsFragment)
	assert.Equal(t, "call_a", chunks[3].ToolCall.ID)
	assert.Equal(t, `{"a":1}`, chunks[3].ToolCall.ArgumentsFragment)

	// End events close open calls in arrival order.
	assert.Equal(t, "call_a", chunks[4].ToolCall.ID)
	assert.Equal(t, `{"a":1}`, chunks[4].ToolCall.ArgumentsFragment)
	assert.Equal(t, "call_b", chunks[5].ToolCall.ID)
	assert.Equal(t, `{"b":2}`, chunks[5].ToolCall.ArgumentsFragment)
}

func TestNormalizer_ChatDelta_UsageOnlyFinalChunk(t *testing.T) {
	// stream_options.include_usage delivers a last chunk with empty choices.
	n := New()

	chunks := collect(t, n,
		`{"object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":9,"completion_tokens":4,"total_tokens":13}}`,
	)

	require.Equal(t, []ai.ChunkKind{ai.ChunkUsage}, kinds(chunks))
	assert.Equal(t, 13, chunks[0].Usage.TotalTokens)
}

func TestNormalizer_ChatDelta_TruncatedArgumentsRepaired(t *testing.T) {
	n := New(WithFormat(ai.FormatChatDelta))

	chunks := collect(t, n,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"filter","arguments":"{\"level\": {\"min\": 3"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	)

	end := chunks[len(chunks)-1]
	require.Equal(t, ai.ChunkToolCallEnd, end.Kind)
	assert.Equal(t, `{"level": {"min": 3}}`, end.ToolCall.ArgumentsFragment)
	assert.False(t, end.ToolCall.RawArguments)
}

func TestNormalizer_ChatDelta_UnparseableArgumentsKeptRaw(t *testing.T) {
	n := New(WithFormat(ai.FormatChatDelta))

	chunks := collect(t, n,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"echo","arguments":"beep "}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"boop"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	)

	end := chunks[len(chunks)-1]
	require.Equal(t, ai.ChunkToolCallEnd, end.Kind)
	assert.Equal(t, "beep boop", end.ToolCall.ArgumentsFragment)
	assert.True(t, end.ToolCall.RawArguments)
	assert.Equal(t, ai.ToolCallComplete, end.ToolCall.Status)
}

func TestNormalizer_ChatDelta_EmptyArgumentObject(t *testing.T) {
	n := New(WithFormat(ai.FormatChatDelta))

	chunks := collect(t, n,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"refresh","arguments":""}}]}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	)

	require.Equal(t, []ai.ChunkKind{ai.ChunkToolCallStart, ai.ChunkToolCallEnd}, kinds(chunks))
	assert.Equal(t, "{}", chunks[1].ToolCall.ArgumentsFragment)
	assert.False(t, chunks[1].ToolCall.RawArguments)
}

func TestNormalizer_ContentBlock_TextAndToolCall(t *testing.T) {
	n := New(WithFormat(ai.FormatContentBlock))

	chunks := collect(t, n,
		`{"type":"message_start","message":{"id":"msg_1","role":"assistant","content":[],"model":"claude-sonnet-4","usage":{"input_tokens":25}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Let me look that up."}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_01","name":"get_weather"}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"city\": \"Par"}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"is\"}"}}`,
		`{"type":"content_block_stop","index":1}`,
		`{"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":30}}`,
		`{"type":"message_stop"}`,
		`{"type":"ping"}`,
	)

	require.Equal(t, []ai.ChunkKind{
		ai.ChunkText,
		ai.ChunkToolCallStart,
		ai.ChunkToolCallDelta,
		ai.ChunkToolCallDelta,
		ai.ChunkToolCallEnd,
		ai.ChunkUsage,
	}, kinds(chunks))

	assert.Equal(t, "Let me look that up.", chunks[0].Content)

	start := chunks[1].ToolCall
	assert.Equal(t, "toolu_01", start.ID)
	assert.Equal(t, "get_weather", start.Name)

	end := chunks[4].ToolCall
	assert.Equal(t, "toolu_01", end.ID)
	assert.Equal(t, `{"city": "Paris"}`, end.ArgumentsFragment)
	assert.False(t, end.RawArguments)

	// Input tokens from message_start consolidate with the message_delta
	// output count.
	usage := chunks[5].Usage
	assert.Equal(t, 25, usage.PromptTokens)
	assert.Equal(t, 30, usage.CompletionTokens)
	assert.Equal(t, 55, usage.TotalTokens)
	assert.Equal(t, "tool_use", chunks[5].Metadata.FinishReason)

	// The model reported on message_start sticks for the whole stream.
	for _, chunk := range chunks {
		assert.Equal(t, "claude-sonnet-4", chunk.Metadata.Model)
	}
}

func TestNormalizer_ContentBlock_StickyLifecycleEvents(t *testing.T) {
	// In auto-detect mode only three event types fingerprint as
	// content-block. Once one of them classifies the stream, the unmarked
	// lifecycle events (stop/ping) must stay in the family instead of
	// surfacing as unknown shapes.
	n := New()

	chunks := collect(t, n,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}`,
		`{"type":"ping"}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_stop"}`,
	)

	require.Equal(t, []ai.ChunkKind{ai.ChunkText}, kinds(chunks))
	assert.Equal(t, "Hi", chunks[0].Content)
}

func TestNormalizer_ContentBlock_BackendError(t *testing.T) {
	n := New(WithFormat(ai.FormatContentBlock))

	chunks := collect(t, n,
		`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
	)

	require.Equal(t, []ai.ChunkKind{ai.ChunkError}, kinds(chunks))
	assert.Equal(t, "Overloaded", chunks[0].Error)
}

func TestNormalizer_Candidates_TextAndFunctionCall(t *testing.T) {
	n := New()

	chunks := collect(t, n,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Checking the weather."},{"functionCall":{"name":"get_weather","args":{"city":"Paris"}}}]},"index":0}],"modelVersion":"gemini-2.0-flash"}`,
		`{"candidates":[{"content":{"role":"model","parts":[]},"finishReason":"STOP","index":0}],"usageMetadata":{"promptTokenCount":7,"candidatesTokenCount":14,"totalTokenCount":21},"modelVersion":"gemini-2.0-flash"}`,
	)

	require.Equal(t, []ai.ChunkKind{
		ai.ChunkText,
		ai.ChunkToolCallStart,
		ai.ChunkToolCallEnd,
		ai.ChunkUsage,
	}, kinds(chunks))

	assert.Equal(t, "Checking the weather.", chunks[0].Content)

	// Candidate payloads never carry a call id; one is synthesized and
	// shared by both lifecycle events.
	start, end := chunks[1].ToolCall, chunks[2].ToolCall
	assert.NotEmpty(t, start.ID)
	assert.Contains(t, start.ID, "call_")
	assert.Equal(t, start.ID, end.ID)
	assert.Equal(t, "get_weather", end.Name)
	assert.JSONEq(t, `{"city":"Paris"}`, end.ArgumentsFragment)
	assert.False(t, end.RawArguments)

	usage := chunks[3].Usage
	assert.Equal(t, 7, usage.PromptTokens)
	assert.Equal(t, 14, usage.CompletionTokens)
	assert.Equal(t, 21, usage.TotalTokens)
	assert.Equal(t, "STOP", chunks[3].Metadata.FinishReason)
	assert.Equal(t, "gemini-2.0-flash", chunks[3].Metadata.Model)
}

func TestNormalizer_Candidates_ZeroArgumentCall(t *testing.T) {
	n := New()

	chunks := collect(t, n,
		`{"candidates":[{"content":{"parts":[{"functionCall":{"name":"refresh"}}]},"index":0}]}`,
	)

	require.Equal(t, []ai.ChunkKind{ai.ChunkToolCallStart, ai.ChunkToolCallEnd}, kinds(chunks))
	assert.Equal(t, "{}", chunks[1].ToolCall.ArgumentsFragment)
}

func TestNormalizer_ChatComplete_Response(t *testing.T) {
	n := New()

	chunks := collect(t, n,
		`{"id":"cc_1","object":"chat.completion","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"Sure.","tool_calls":[{"id":"call_9","type":"function","function":{"name":"lookup","arguments":"{\"q\":\"go\"}"}}]},"finish_reason":"tool_calls"}],"usage":{"prompt_tokens":11,"completion_tokens":6,"total_tokens":17}}`,
	)

	require.Equal(t, []ai.ChunkKind{
		ai.ChunkText,
		ai.ChunkToolCallStart,
		ai.ChunkToolCallEnd,
		ai.ChunkUsage,
	}, kinds(chunks))

	assert.Equal(t, "Sure.", chunks[0].Content)
	assert.Equal(t, "call_9", chunks[1].ToolCall.ID)
	assert.Equal(t, `{"q":"go"}`, chunks[2].ToolCall.ArgumentsFragment)
	assert.Equal(t, 17, chunks[3].Usage.TotalTokens)
	assert.Equal(t, "tool_calls", chunks[3].Metadata.FinishReason)
}

func TestNormalizer_ChatMessage_Response(t *testing.T) {
	n := New()

	// Custom backends put the message at the root and may inline tool
	// arguments as an object instead of an encoded string.
	chunks := collect(t, n,
		`{"model":"local-7b","message":{"role":"assistant","content":"Hello.","tool_calls":[{"id":"c1","function":{"name":"ping","arguments":{"host":"example.com"}}}]},"finish_reason":"stop","usage":{"prompt_tokens":3,"completion_tokens":2}}`,
	)

	require.Equal(t, []ai.ChunkKind{
		ai.ChunkText,
		ai.ChunkToolCallStart,
		ai.ChunkToolCallEnd,
		ai.ChunkUsage,
	}, kinds(chunks))

	assert.Equal(t, "Hello.", chunks[0].Content)
	assert.JSONEq(t, `{"host":"example.com"}`, chunks[2].ToolCall.ArgumentsFragment)

	// total_tokens is computed when the backend omits it.
	assert.Equal(t, 5, chunks[3].Usage.TotalTokens)
	assert.Equal(t, "stop", chunks[3].Metadata.FinishReason)
	assert.Equal(t, ai.FormatChatMessage, chunks[0].Metadata.Format)
}

func TestNormalizer_InvalidJSONFrame(t *testing.T) {
	n := New()

	chunks, err := n.Normalize([]byte(`{"choices": [{"delta"`))
	require.Error(t, err)
	assert.Nil(t, chunks)

	var aiErr *ai.Error
	require.True(t, errors.As(err, &aiErr))
	assert.Equal(t, ai.KindStreamFrame, aiErr.Kind)
	assert.NotEmpty(t, aiErr.Raw)
}

func TestNormalizer_UnknownShape(t *testing.T) {
	n := New()

	// Valid JSON matching no shape surfaces in-band, and the stream keeps
	// going: a later recognizable frame normalizes normally.
	chunks := collect(t, n,
		`{"status":"queued","eta_seconds":4}`,
		`{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"late"}}]}`,
	)

	require.Equal(t, []ai.ChunkKind{ai.ChunkError, ai.ChunkText}, kinds(chunks))
	assert.Equal(t, "unrecognized payload shape", chunks[0].Error)
	assert.Equal(t, ai.FormatUnknown, chunks[0].Metadata.Format)
	assert.Equal(t, "late", chunks[1].Content)
}

func TestNormalizer_ForcedFormatSkipsDetection(t *testing.T) {
	frame := `{"choices":[{"index":0,"delta":{"content":"Hi"}}]}`

	// Undetectable on its own...
	auto := New()
	chunks := collect(t, auto, frame)
	require.Equal(t, []ai.ChunkKind{ai.ChunkError}, kinds(chunks))

	// ...but normalizes fully when the adapter fixes the format.
	forced := New(WithFormat(ai.FormatChatDelta))
	chunks = collect(t, forced, frame)
	require.Equal(t, []ai.ChunkKind{ai.ChunkText}, kinds(chunks))
	assert.Equal(t, "Hi", chunks[0].Content)
}

func TestNormalizer_StickyFormatCoversUnmarkedFrames(t *testing.T) {
	n := New()

	// The first frame carries the object tag and classifies the stream; a
	// later bare frame falls back to the stream's format.
	chunks := collect(t, n,
		`{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"first"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":" second"}}]}`,
	)

	require.Equal(t, []ai.ChunkKind{ai.ChunkText, ai.ChunkText}, kinds(chunks))
	assert.Equal(t, " second", chunks[1].Content)
	assert.Equal(t, ai.FormatChatDelta, chunks[1].Metadata.Format)
}

func TestNormalizer_Flush_ClosesDanglingCalls(t *testing.T) {
	n := New(WithFormat(ai.FormatChatDelta))

	collect(t, n,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"filter","arguments":"{\"level\": {\"min\": 3"}}]}}]}`,
	)

	// The stream ended without a closing finish reason.
	chunks := n.Flush()
	require.Equal(t, []ai.ChunkKind{ai.ChunkToolCallEnd}, kinds(chunks))
	assert.Equal(t, "call_1", chunks[0].ToolCall.ID)
	assert.Equal(t, `{"level": {"min": 3}}`, chunks[0].ToolCall.ArgumentsFragment)
	assert.False(t, chunks[0].ToolCall.RawArguments)

	// Everything is closed now.
	assert.Nil(t, n.Flush())
}

func TestNormalizer_Flush_NothingOpen(t *testing.T) {
	n := New(WithFormat(ai.FormatChatDelta))
	assert.Nil(t, n.Flush())
}

func TestNormalizer_MetadataStamping(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n := New(WithFormat(ai.FormatChatDelta), WithModel("preset-model"), WithClock(func() time.Time { return fixed }))

	chunks := collect(t, n,
		`{"choices":[{"index":0,"delta":{"content":"a"}}]}`,
		`{"model":"reported-model","choices":[{"index":0,"delta":{"content":"b"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"c"}}]}`,
	)

	require.Len(t, chunks, 3)
	assert.Equal(t, "preset-model", chunks[0].Metadata.Model)
	// A payload-reported model replaces the preset for the rest of the stream.
	assert.Equal(t, "reported-model", chunks[1].Metadata.Model)
	assert.Equal(t, "reported-model", chunks[2].Metadata.Model)

	for _, chunk := range chunks {
		assert.Equal(t, fixed, chunk.Metadata.Timestamp)
		assert.Equal(t, ai.FormatChatDelta, chunk.Metadata.Format)
	}
}
