package ai

import (
	"iter"
	"strings"
	"time"
)

// ChunkKind identifies the kind of event carried by a Chunk.
type ChunkKind string

const (
	// ChunkText indicates a text content fragment.
	ChunkText ChunkKind = "text"
	// ChunkToolCallStart opens a logical tool call: the first event carrying
	// the call's name (and id, when the backend supplies one up front).
	ChunkToolCallStart ChunkKind = "tool_call_start"
	// ChunkToolCallDelta carries an incremental arguments fragment for an
	// open tool call.
	ChunkToolCallDelta ChunkKind = "tool_call_delta"
	// ChunkToolCallEnd closes a tool call; its ToolCall carries the full
	// accumulated arguments, final and safe to parse.
	ChunkToolCallEnd ChunkKind = "tool_call_end"
	// ChunkUsage carries token usage totals (typically on the final event).
	ChunkUsage ChunkKind = "usage"
	// ChunkError carries an in-band error: an unrecognized payload shape or
	// a backend-reported stream error. The stream may continue after it.
	ChunkError ChunkKind = "error"
)

// ToolCallStatus tracks how much of a streamed tool call has arrived.
type ToolCallStatus string

const (
	// ToolCallPending means the call is open but no arguments have arrived.
	ToolCallPending ToolCallStatus = "pending"
	// ToolCallPartial means arguments are still being accumulated.
	ToolCallPartial ToolCallStatus = "partial"
	// ToolCallComplete means the arguments are final.
	ToolCallComplete ToolCallStatus = "complete"
)

// ChunkToolCall is the tool-call payload of TOOL_CALL_* chunks. The id is
// present on every event of a call: the normalizer remembers the backend id
// from the opening event (or synthesizes one when the backend never supplies
// any) and stamps it on each subsequent delta and on the end event.
// On start events ArgumentsFragment is empty; on delta events it is the
// incremental fragment; on end events it is the complete accumulated
// arguments string, repaired when the raw buffer was truncated.
type ChunkToolCall struct {
	ID                string         `json:"id,omitempty"`
	Name              string         `json:"name,omitempty"`
	ArgumentsFragment string         `json:"arguments_fragment,omitempty"`
	Status            ToolCallStatus `json:"status"`
	// RawArguments marks an end event whose accumulated buffer failed to
	// parse as JSON even after repair. The fragment then carries the raw
	// text and the caller decides whether to treat the call as an error.
	RawArguments bool `json:"raw_arguments,omitempty"`
}

// ChunkMetadata is attached to every chunk for diagnostics.
type ChunkMetadata struct {
	Format       Format    `json:"format"`                  // Wire shape the source payload was classified as
	Model        string    `json:"model,omitempty"`         // Model identifier when the payload reported one
	Timestamp    time.Time `json:"timestamp,omitzero"`      // When the chunk was produced
	FinishReason string    `json:"finish_reason,omitempty"` // Stop cause, present once the backend reports it
}

// Chunk is one discrete normalized event of a streamed response. Each chunk
// carries exactly one payload, identified by Kind; Metadata is always set.
//
// For a single logical tool call a consumer observes exactly one
// ChunkToolCallStart, zero or more ChunkToolCallDelta, and exactly one
// ChunkToolCallEnd, in that order. Arguments are final only at the end event.
type Chunk struct {
	Kind     ChunkKind      `json:"kind"`
	Content  string         `json:"content,omitempty"`   // Kind == ChunkText
	ToolCall *ChunkToolCall `json:"tool_call,omitempty"` // Kind == ChunkToolCall*
	Usage    *Usage         `json:"usage,omitempty"`     // Kind == ChunkUsage
	Error    string         `json:"error,omitempty"`     // Kind == ChunkError
	Metadata ChunkMetadata  `json:"metadata"`
}

// Stream wraps a streaming iterator of normalized chunks and provides
// accumulation of the whole sequence into a final Response. It supports both
// range-based iteration for real-time processing and a convenience Collect()
// for callers who want the complete response.
//
// Callers must consume the stream, either by iterating with Iter() (breaking
// out early is fine) or by calling Collect(). The producing adapter holds the
// HTTP response body open until the iterator completes or is abandoned via a
// loop break; constructing a Stream and never iterating it leaks that
// connection.
type Stream struct {
	iterator iter.Seq2[Chunk, error]
}

// NewStream creates a Stream from a raw chunk iterator. The iterator yields
// chunks with a nil error for normal events and a non-nil error for terminal
// mid-stream failures.
func NewStream(iterator iter.Seq2[Chunk, error]) *Stream {
	return &Stream{iterator: iterator}
}

// NewSingleResponseStream wraps a completed Response as a short synthetic
// stream: its parts in order, usage last. Used as a fallback where a caller
// wants stream semantics over a non-streaming result.
func NewSingleResponseStream(response *Response) *Stream {
	meta := ChunkMetadata{
		Format:       FormatChatComplete,
		Model:        response.Model,
		Timestamp:    time.Now(),
		FinishReason: response.FinishReason,
	}

	iteratorFunc := func(yield func(Chunk, error) bool) {
		for _, part := range response.Parts {
			switch part.Type {
			case PartText:
				if part.Text == "" {
					continue
				}
				if !yield(Chunk{Kind: ChunkText, Content: part.Text, Metadata: meta}, nil) {
					return
				}

			case PartToolCall:
				if part.ToolCall == nil {
					continue
				}
				call := part.ToolCall
				if !yield(Chunk{
					Kind:     ChunkToolCallStart,
					ToolCall: &ChunkToolCall{ID: call.ID, Name: call.Name, Status: ToolCallPending},
					Metadata: meta,
				}, nil) {
					return
				}
				if !yield(Chunk{
					Kind: ChunkToolCallEnd,
					ToolCall: &ChunkToolCall{
						ID:                call.ID,
						Name:              call.Name,
						ArgumentsFragment: call.Arguments,
						Status:            ToolCallComplete,
					},
					Metadata: meta,
				}, nil) {
					return
				}
			}
		}

		if response.Usage != nil {
			yield(Chunk{Kind: ChunkUsage, Usage: response.Usage, Metadata: meta}, nil)
		}
	}

	return NewStream(iteratorFunc)
}

// ChunkStream wraps an already-materialized chunk slice as a Stream, so a
// non-streaming response normalized into chunks can reuse Collect's
// reduction.
func ChunkStream(chunks ...Chunk) *Stream {
	return NewStream(func(yield func(Chunk, error) bool) {
		for _, chunk := range chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	})
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
// Example:
//
//	for chunk, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    fmt.Print(chunk.Content)
//	}
func (stream *Stream) Iter() iter.Seq2[Chunk, error] {
	return stream.iterator
}

// Collect consumes the entire stream and returns the reduced Response:
// text fragments concatenated into one leading text part, tool calls
// reassembled from their start/delta/end chunks in arrival order, the last
// usage chunk winning. A mid-stream error terminates collection and returns
// the partial response alongside that error. In-band error chunks do not
// stop collection; terminal failures arrive through the iterator's error
// value.
func (stream *Stream) Collect() (*Response, error) {
	collector := newChunkCollector()

	for chunk, err := range stream.iterator {
		if err != nil {
			return collector.response(), err
		}
		collector.add(chunk)
	}

	response := collector.response()
	if response.Empty() {
		return response, &Error{
			Kind:    KindProtocol,
			Message: "stream produced neither text nor tool calls",
		}
	}
	return response, nil
}

// chunkCollector reduces a chunk sequence into a Response. Tool calls are
// keyed by their chunk id (present on every tool-call chunk) and finalized
// in the order their start events arrived.
type chunkCollector struct {
	text     strings.Builder
	calls    map[string]*chunkCallBuilder
	order    []string
	usage    *Usage
	lastMeta ChunkMetadata
}

// chunkCallBuilder accumulates one tool call across its start/delta/end chunks.
type chunkCallBuilder struct {
	id        string
	name      string
	arguments strings.Builder
}

func newChunkCollector() *chunkCollector {
	return &chunkCollector{calls: make(map[string]*chunkCallBuilder)}
}

func (c *chunkCollector) add(chunk Chunk) {
	if chunk.Metadata.Model != "" {
		c.lastMeta.Model = chunk.Metadata.Model
	}
	if chunk.Metadata.FinishReason != "" {
		c.lastMeta.FinishReason = chunk.Metadata.FinishReason
	}
	if chunk.Metadata.Format != "" {
		c.lastMeta.Format = chunk.Metadata.Format
	}

	switch chunk.Kind {
	case ChunkText:
		c.text.WriteString(chunk.Content)

	case ChunkToolCallStart, ChunkToolCallDelta, ChunkToolCallEnd:
		if chunk.ToolCall == nil {
			return
		}
		builder, ok := c.calls[chunk.ToolCall.ID]
		if !ok {
			builder = &chunkCallBuilder{id: chunk.ToolCall.ID}
			c.calls[chunk.ToolCall.ID] = builder
			c.order = append(c.order, chunk.ToolCall.ID)
		}
		if chunk.ToolCall.Name != "" {
			builder.name = chunk.ToolCall.Name
		}
		switch chunk.Kind {
		case ChunkToolCallDelta:
			builder.arguments.WriteString(chunk.ToolCall.ArgumentsFragment)
		case ChunkToolCallEnd:
			// The end chunk carries the full accumulated (and possibly
			// repaired) arguments; it supersedes the deltas seen here.
			if chunk.ToolCall.ArgumentsFragment != "" {
				builder.arguments.Reset()
				builder.arguments.WriteString(chunk.ToolCall.ArgumentsFragment)
			}
		}

	case ChunkUsage:
		if chunk.Usage != nil {
			c.usage = chunk.Usage
		}

	case ChunkError:
		// Informational; a terminal failure arrives as the iterator error.
	}
}

func (c *chunkCollector) response() *Response {
	response := &Response{
		Model:        c.lastMeta.Model,
		FinishReason: c.lastMeta.FinishReason,
		Usage:        c.usage,
	}
	if c.text.Len() > 0 {
		response.Parts = append(response.Parts, TextPart(c.text.String()))
	}
	for _, id := range c.order {
		builder := c.calls[id]
		response.Parts = append(response.Parts, ToolCallPart(ToolCall{
			ID:        builder.id,
			Name:      builder.name,
			Arguments: builder.arguments.String(),
		}))
	}
	return response
}
