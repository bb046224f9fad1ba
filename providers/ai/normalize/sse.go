package normalize

import (
	"context"
	"fmt"
	"io"

	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
	"github.com/llmwire/llmwire/providers/observability"
)

// maxConsecutiveBadFrames is how many malformed frames in a row a stream
// tolerates. Isolated corruption is skipped and counted; an unbroken run of
// it means the endpoint is not speaking the expected protocol at all, and
// the stream aborts.
const maxConsecutiveBadFrames = 5

// SSEStream drives a server-sent-events body through a fresh Normalizer and
// exposes the result as a canonical stream. Every adapter's streaming path
// ends here: the adapter issues the request and fixes the wire format, this
// loop owns frame reading, skip/abort policy, end-of-stream flushing, and
// body cleanup.
//
// The body is closed when the iterator finishes or its consumer breaks out
// early. ctx is checked between frames so a canceled caller does not hang on
// a stalled backend. Malformed frames are skipped and counted; text already
// streamed is never discarded over one bad frame.
func SSEStream(ctx context.Context, provider string, body io.ReadCloser, opts ...Option) *ai.Stream {
	normalizer := New(opts...)
	scanner := utils.NewSSEScanner(body)

	iterator := func(yield func(ai.Chunk, error) bool) {
		defer utils.CloseWithLog(body)

		span := observability.SpanFromContext(ctx)
		observer := observability.ObserverFromContext(ctx)

		consecutiveBad := 0
		skipped := 0

		for {
			if ctx.Err() != nil {
				yield(ai.Chunk{}, ctx.Err())
				return
			}

			payload, err := scanner.Next()
			if err == io.EOF {
				// Close any tool call the backend left dangling before
				// reporting the end of the stream.
				for _, chunk := range normalizer.Flush() {
					if !yield(chunk, nil) {
						return
					}
				}
				if span != nil {
					span.AddEvent(observability.EventStreamComplete,
						observability.Int(observability.AttrStreamFramesSkipped, skipped))
				}
				return
			}
			if err != nil {
				yield(ai.Chunk{}, &ai.Error{
					Kind:     ai.KindTransient,
					Provider: provider,
					Message:  "stream read failed",
					Cause:    err,
				})
				return
			}

			chunks, err := normalizer.Normalize([]byte(payload))
			if err != nil {
				consecutiveBad++
				skipped++
				if observer != nil {
					observer.Debug(ctx, "skipping malformed stream frame",
						observability.String(observability.AttrLLMProvider, provider),
						observability.Error(err),
					)
					observer.Counter(observability.MetricStreamFramesSkipped).Add(ctx, 1,
						observability.String(observability.AttrLLMProvider, provider))
				}
				if span != nil {
					span.AddEvent(observability.EventStreamFrameSkipped, observability.Error(err))
				}
				if consecutiveBad >= maxConsecutiveBadFrames {
					yield(ai.Chunk{}, &ai.Error{
						Kind:     ai.KindStreamFrame,
						Provider: provider,
						Message:  fmt.Sprintf("giving up after %d consecutive malformed frames", consecutiveBad),
						Cause:    err,
					})
					return
				}
				continue
			}
			consecutiveBad = 0

			for _, chunk := range chunks {
				if !yield(chunk, nil) {
					return
				}
			}
		}
	}

	return ai.NewStream(iterator)
}
