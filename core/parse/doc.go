// Package parse provides utilities for recovering structured data from raw
// model output. Streaming cuts tool-call argument buffers off mid-object and
// models wrap JSON in quirks like unquoted keys or trailing commas, so this
// package applies a layered recovery strategy: direct parsing, truncation
// completion via [Repair], and a deep jsonrepair pass, before falling back
// to a clear error.
//
// [Repair] is the streaming-side entry point: it closes unbalanced braces
// and brackets on a truncated fragment and never fails. [EnsureJSON] runs
// the full chain and reports whether the result is parseable. The generic
// [ParseStringAs] converts recovered content into a concrete type, handling
// both primitives and JSON-decoded complex types in one uniform API.
package parse
