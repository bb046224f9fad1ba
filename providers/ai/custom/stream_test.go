package custom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/llmwire/llmwire/providers/ai"
)

// writeSSE writes one SSE data line and flushes, so the client sees frames
// arrive one at a time.
func writeSSE(writer http.ResponseWriter, data string) {
	fmt.Fprintf(writer, "data: %s\n\n", data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

// TestGenerateStream_ChatDeltasDetected streams chat-completion chunks with
// their object tag, the shape most OpenAI-compatible servers emit. The frame
// format is not pinned for this provider, so the tag is what classifies them.
func TestGenerateStream_ChatDeltasDetected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, err := io.ReadAll(request.Body)
		if err != nil {
			t.Fatalf("failed to read request: %v", err)
		}
		if !gjson.GetBytes(body, "stream").Bool() {
			t.Error("expected stream flag in request")
		}
		if !gjson.GetBytes(body, "stream_options.include_usage").Bool() {
			t.Error("expected stream_options.include_usage in request")
		}
		if got := gjson.GetBytes(body, "model").Str; got != "qwen2.5-coder" {
			t.Errorf("unexpected model on wire: %q", got)
		}

		writer.Header().Set("Content-Type", "text/event-stream")
		writer.WriteHeader(http.StatusOK)

		writeSSE(writer, `{"object":"chat.completion.chunk","model":"qwen2.5-coder","choices":[{"delta":{"role":"assistant"}}]}`)
		writeSSE(writer, `{"object":"chat.completion.chunk","choices":[{"delta":{"content":"Sure, "}}]}`)
		writeSSE(writer, `{"object":"chat.completion.chunk","choices":[{"delta":{"content":"done."}}]}`)
		writeSSE(writer, `{"object":"chat.completion.chunk","choices":[{"delta":{},"finish_reason":"stop"}]}`)
		writeSSE(writer, `{"object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":7,"completion_tokens":3,"total_tokens":10}}`)
		writeSSE(writer, `[DONE]`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	stream, err := provider.GenerateStream(context.Background(), ai.Request{
		Model: "qwen2.5-coder",
		Turns: []ai.Turn{ai.UserTurn("Hi")},
	})
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}

	var text string
	var formats []ai.Format
	for chunk, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		formats = append(formats, chunk.Metadata.Format)
		if chunk.Kind == ai.ChunkText {
			text += chunk.Content
		}
	}

	if text != "Sure, done." {
		t.Errorf("unexpected text: %q", text)
	}
	for i, format := range formats {
		if format != ai.FormatChatDelta {
			t.Errorf("chunk %d: expected detected chat-delta format, got %q", i, format)
		}
	}
}

// TestGenerateStream_EventFramesDetected streams event-tagged content-block
// frames instead of chat deltas. Detection plus stream stickiness must route
// the whole stream through the content-block path.
func TestGenerateStream_EventFramesDetected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		writer.WriteHeader(http.StatusOK)

		writeSSE(writer, `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		writeSSE(writer, `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Local "}}`)
		writeSSE(writer, `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"hello."}}`)
		writeSSE(writer, `{"type":"content_block_stop","index":0}`)
		writeSSE(writer, `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":4}}`)
		writeSSE(writer, `{"type":"message_stop"}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	stream, err := provider.GenerateStream(context.Background(), ai.Request{
		Turns: []ai.Turn{ai.UserTurn("Hi")},
	})
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if response.Text() != "Local hello." {
		t.Errorf("unexpected text: %q", response.Text())
	}
	if response.FinishReason != "end_turn" {
		t.Errorf("unexpected finish reason: %q", response.FinishReason)
	}
	if response.Usage == nil || response.Usage.CompletionTokens != 4 {
		t.Errorf("unexpected usage: %+v", response.Usage)
	}
}

// TestGenerateStream_OverrideRemovesStreamOptions covers servers that reject
// stream_options: a nil-valued body override deletes it from the wire while
// the stream flag itself survives.
func TestGenerateStream_OverrideRemovesStreamOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, err := io.ReadAll(request.Body)
		if err != nil {
			t.Fatalf("failed to read request: %v", err)
		}
		if gjson.GetBytes(body, "stream_options").Exists() {
			t.Errorf("expected stream_options removed, got: %s", body)
		}
		if !gjson.GetBytes(body, "stream").Bool() {
			t.Error("expected stream flag preserved")
		}

		writer.Header().Set("Content-Type", "text/event-stream")
		writer.WriteHeader(http.StatusOK)
		writeSSE(writer, `{"object":"chat.completion.chunk","choices":[{"delta":{"content":"ok"},"finish_reason":"stop"}]}`)
		writeSSE(writer, `[DONE]`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL).
		WithBodyOverrides(map[string]any{"stream_options": nil})

	stream, err := provider.GenerateStream(context.Background(), ai.Request{
		Turns: []ai.Turn{ai.UserTurn("hello")},
	})
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if response.Text() != "ok" {
		t.Errorf("unexpected text: %q", response.Text())
	}
}

func TestGenerateStream_MissingBaseURL(t *testing.T) {
	t.Setenv(envBaseURL, "")
	t.Setenv(envAPIKey, "")
	t.Setenv(envHeaders, "")

	_, err := New().GenerateStream(context.Background(), ai.Request{
		Turns: []ai.Turn{ai.UserTurn("hello")},
	})
	if err == nil {
		t.Fatal("expected error when base URL is missing")
	}
	if !ai.IsConfiguration(err) {
		t.Errorf("expected configuration error, got: %v", err)
	}
}
