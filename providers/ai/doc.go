// Package ai defines the shared, provider-agnostic types and interfaces used
// across all backend adapter implementations (Gemini, OpenRouter, custom
// OpenAI-compatible endpoints). Each adapter's conversion layer maps these
// types to its own wire format, keeping the rest of the codebase decoupled
// from backend-specific details.
//
// The central interface is [Provider], covering generation, streaming, token
// estimation, model discovery and health checks. Requests flow through
// [Request] as an ordered sequence of [Turn] values, each holding homogeneous
// [Part] payloads; responses come back as [Response]. For streaming, [Stream]
// yields normalized [Chunk] events: text fragments, the tool-call
// start/delta/end lifecycle, usage totals and in-band errors, every chunk
// stamped with the wire [Format] it was decoded from.
//
// Failures across the module share the typed [Error] with an [ErrorKind]
// taxonomy, so callers branch on kind predicates instead of message text.
package ai
