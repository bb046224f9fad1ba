// Package openrouter adapts the OpenRouter model gateway to the [ai.Provider]
// contract.
//
// OpenRouter fronts many upstream vendors behind one OpenAI-style
// chat-completions API, so requests serialize into the chat message/tool
// shape and responses are mapped by the shared normalizer with the format
// forced to chat-completions (complete for [Provider.Generate], delta frames
// for [Provider.GenerateStream]). Streams request usage reporting through
// stream_options.include_usage so the final frame carries token counts.
//
// Configuration comes from OPENROUTER_API_KEY and the optional
// OPENROUTER_API_BASE_URL override; see [New]. The attribution headers
// OpenRouter uses for app rankings (HTTP-Referer, X-Title) default to this
// project and can be overridden with [Provider.WithAttribution].
package openrouter
