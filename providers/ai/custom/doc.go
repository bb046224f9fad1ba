// Package custom adapts an arbitrary OpenAI-compatible endpoint to the
// [ai.Provider] contract: self-hosted inference servers, corporate proxies,
// anything speaking the chat-completions dialect.
//
// Unlike the dedicated adapters, nothing about the far side is assumed.
// The base URL is mandatory (CUSTOM_API_BASE_URL), the credential optional
// (CUSTOM_API_KEY, local servers often need none), and extra headers come
// from CUSTOM_API_HEADERS as a JSON-encoded map. Responses are not pinned to
// a wire format either: the shared normalizer classifies each payload
// structurally, so a server answering in the root-level message dialect
// works as well as one speaking strict chat completions.
//
// Servers that reject standard fields can be accommodated with
// [Provider.WithBodyOverrides]: each override is an sjson path applied to
// the serialized request, a nil value deleting the key (for example
// {"stream_options": nil} for a backend that chokes on usage reporting).
package custom
