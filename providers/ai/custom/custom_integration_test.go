//go:build integration

package custom

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/llmwire/llmwire/providers/ai"
)

// requireBaseURL fails the test immediately when CUSTOM_API_BASE_URL is not
// set. Integration tests are opt-in (build tag), so a missing endpoint is a
// configuration error that should surface loudly rather than be skipped.
func requireBaseURL(t *testing.T) {
	t.Helper()
	if os.Getenv(envBaseURL) == "" {
		t.Fatalf("%s is required for integration tests (point it at a running OpenAI-compatible server)", envBaseURL)
	}
}

func TestGenerate_Integration(t *testing.T) {
	requireBaseURL(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	response, err := New().Generate(ctx, ai.Request{
		Model: os.Getenv("CUSTOM_TEST_MODEL"),
		Turns: []ai.Turn{ai.UserTurn("Reply with exactly: hello world")},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if response.Text() == "" {
		t.Error("expected non-empty text")
	}
	t.Logf("model: %s", response.Model)
	t.Logf("text: %s", response.Text())
}

func TestGenerateStream_Integration(t *testing.T) {
	requireBaseURL(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	stream, err := New().GenerateStream(ctx, ai.Request{
		Model: os.Getenv("CUSTOM_TEST_MODEL"),
		Turns: []ai.Turn{ai.UserTurn("Count from 1 to 5, one number per line.")},
	})
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}

	textChunks := 0
	for chunk, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		if chunk.Kind == ai.ChunkText {
			textChunks++
		}
	}
	if textChunks == 0 {
		t.Error("expected at least one text chunk")
	}
}

func TestListModels_Integration(t *testing.T) {
	requireBaseURL(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	models, err := New().ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	// Even endpoints without a /models route answer through the fallback.
	if len(models) == 0 {
		t.Fatal("expected at least one model entry")
	}
	t.Logf("found %d models, first: %s", len(models), models[0].ID)
}
