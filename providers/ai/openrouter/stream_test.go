package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

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

func TestGenerateStream_TextDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var req chatCompletionRequest
		if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Stream == nil || !*req.Stream {
			t.Error("expected stream flag in request")
		}
		if req.StreamOptions == nil || !req.StreamOptions.IncludeUsage {
			t.Error("expected stream_options.include_usage in request")
		}

		writer.Header().Set("Content-Type", "text/event-stream")
		writer.WriteHeader(http.StatusOK)

		writeSSE(writer, `{"choices":[{"delta":{"role":"assistant"}}]}`)
		writeSSE(writer, `{"choices":[{"delta":{"content":"Hello"}}],"model":"openai/gpt-4o"}`)
		writeSSE(writer, `{"choices":[{"delta":{"content":" there"}}]}`)
		writeSSE(writer, `{"choices":[{"delta":{},"finish_reason":"stop"}]}`)
		writeSSE(writer, `{"choices":[],"usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6}}`)
		writeSSE(writer, `[DONE]`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	stream, err := provider.GenerateStream(context.Background(), ai.Request{
		Model: "openai/gpt-4o",
		Turns: []ai.Turn{ai.UserTurn("Hi")},
	})
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if response.Text() != "Hello there" {
		t.Errorf("unexpected text: %q", response.Text())
	}
	if response.FinishReason != "stop" {
		t.Errorf("unexpected finish reason: %q", response.FinishReason)
	}
	if response.Model != "openai/gpt-4o" {
		t.Errorf("unexpected model: %q", response.Model)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 6 {
		t.Errorf("expected usage from final frame, got %+v", response.Usage)
	}
}

func TestGenerateStream_ToolCallLifecycle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		writer.WriteHeader(http.StatusOK)

		writeSSE(writer, `{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_weather","arguments":""}}]}}]}`)
		writeSSE(writer, `{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\""}}]}}]}`)
		writeSSE(writer, `{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":": \"Paris\"}"}}]}}]}`)
		writeSSE(writer, `{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`)
		writeSSE(writer, `[DONE]`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	stream, err := provider.GenerateStream(context.Background(), ai.Request{
		Turns: []ai.Turn{ai.UserTurn("weather in paris?")},
	})
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}

	var kinds []ai.ChunkKind
	var end *ai.ChunkToolCall
	for chunk, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		kinds = append(kinds, chunk.Kind)
		if chunk.Kind == ai.ChunkToolCallEnd {
			end = chunk.ToolCall
		}
	}

	want := []ai.ChunkKind{
		ai.ChunkToolCallStart,
		ai.ChunkToolCallDelta,
		ai.ChunkToolCallDelta,
		ai.ChunkToolCallEnd,
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d chunks, got %d (%v)", len(want), len(kinds), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("chunk %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}

	if end == nil {
		t.Fatal("expected tool-call end chunk")
	}
	if end.ID != "call_1" || end.Name != "get_weather" {
		t.Errorf("unexpected call identity: %+v", end)
	}
	if end.ArgumentsFragment != `{"city": "Paris"}` {
		t.Errorf("unexpected assembled arguments: %s", end.ArgumentsFragment)
	}
	if end.RawArguments {
		t.Error("arguments assembled from fragments should be parseable")
	}
}

func TestGenerateStream_MalformedFrameSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		writer.WriteHeader(http.StatusOK)

		writeSSE(writer, `{"choices":[{"delta":{"content":"keep"}}]}`)
		writeSSE(writer, `:not even close`)
		writeSSE(writer, `{"choices":[{"delta":{"content":" going"},"finish_reason":"stop"}]}`)
		writeSSE(writer, `[DONE]`)
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
	if response.Text() != "keep going" {
		t.Errorf("expected malformed frame skipped, got %q", response.Text())
	}
}

func TestGenerateStream_HTTPErrorBeforeStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
		writer.Write([]byte(`{"error": {"message": "No auth credentials found", "code": 401}}`))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	_, err := provider.GenerateStream(context.Background(), ai.Request{
		Turns: []ai.Turn{ai.UserTurn("Hi")},
	})
	if err == nil {
		t.Fatal("expected pre-stream error for 401 response")
	}

	typed, ok := ai.AsError(err)
	if !ok {
		t.Fatalf("expected typed error, got %T", err)
	}
	if typed.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", typed.HTTPStatus)
	}
}

func TestGenerateStream_MissingAPIKey(t *testing.T) {
	provider := New().WithAPIKey("").WithBaseURL("http://127.0.0.1:0")

	_, err := provider.GenerateStream(context.Background(), ai.Request{
		Turns: []ai.Turn{ai.UserTurn("Hi")},
	})
	if err == nil {
		t.Fatal("expected error when API key is missing")
	}
	if !ai.IsConfiguration(err) {
		t.Errorf("expected configuration error, got: %v", err)
	}
}
