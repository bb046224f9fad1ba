// Package gemini adapts Google's Gemini generative language API to the
// canonical [ai.Provider] contract.
//
// Requests are serialized into the generateContent wire shape. Responses and
// SSE events from streamGenerateContent come back in the candidate-based
// format and are mapped to canonical chunks by the shared normalizer, with
// the format forced so no per-payload detection runs.
//
// The primary entry point is [New], which reads GEMINI_API_KEY and
// GEMINI_API_BASE_URL from the environment. Use [Provider.WithAPIKey],
// [Provider.WithBaseURL], or [Provider.WithHTTPClient] to configure the
// provider programmatically.
package gemini
