// Package client provides the orchestration layer between raw backend calls
// and application code. It wraps a single resolved [ai.Provider] with default
// request values, an optional middleware chain, and observability, exposing
// the same Generate / GenerateStream surface plus a Collect convenience that
// reduces a stream into its final response.
//
// The primary entry point is [New], which accepts an [ai.Provider] and a set
// of functional options (e.g. [WithModel], [WithSystemPrompt],
// [WithMiddleware], [WithObserver]). For type-safe structured responses, use
// [NewStructured] or [FromBaseClient].
package client
