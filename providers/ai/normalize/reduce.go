package normalize

import (
	"github.com/llmwire/llmwire/providers/ai"
)

// Reduce normalizes one complete response payload into an [ai.Response].
// It is the non-streaming counterpart of [SSEStream]: the payload runs
// through a fresh Normalizer, dangling tool calls are flushed, and the
// resulting chunks are collapsed with the same reduction a stream consumer
// gets from [ai.Stream.Collect]. An empty result (no text, no tool calls)
// surfaces as a protocol error attributed to provider.
func Reduce(provider string, raw []byte, opts ...Option) (*ai.Response, error) {
	normalizer := New(opts...)

	chunks, err := normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, normalizer.Flush()...)

	response, err := ai.ChunkStream(chunks...).Collect()
	if err != nil {
		if typed, ok := ai.AsError(err); ok && typed.Provider == "" {
			typed.Provider = provider
		}
		return nil, err
	}
	return response, nil
}
