// Package normalize converts raw backend payloads, streaming chunks or
// complete responses in any of the known wire shapes, into the canonical
// [ai.Chunk] event model.
//
// The package has three cooperating pieces. [Detect] classifies a payload
// into an [ai.Format] by structural fingerprints (backends do not tag their
// own wire format). [Normalizer] dispatches on the format and maps fields
// into zero or more canonical events per payload. The unexported tool-call
// accumulator inside each Normalizer assembles incremental tool-call
// argument fragments across chunks, so a consumer always observes the
// start/delta/end lifecycle with final, parseable arguments on the end
// event.
//
// A Normalizer is created per stream and is not safe for concurrent use;
// its accumulated state is exactly one stream's state. Adapters that know
// their own wire format fix it with [WithFormat]; otherwise each payload is
// classified on arrival and the stream stays sticky to the first recognized
// format for events that carry no fingerprint of their own.
//
// [SSEStream] is the shared streaming entry point: it reads a server-sent
// events body frame by frame through a fresh Normalizer and exposes the
// result as an [ai.Stream], owning the skip/abort policy for malformed
// frames and end-of-stream flushing.
package normalize
