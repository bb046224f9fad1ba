// Package utils provides shared low-level helpers used throughout the llmwire
// internals. It covers HTTP request helpers for both synchronous and
// streaming (SSE) communication with AI backend APIs, retry with bounded
// exponential backoff, response decompression, generic pointer and string
// utilities, and a simple elapsed-time timer.
//
// Key entry points: [DoPostSync] and [DoGetSync] for synchronous JSON
// round-trips returning typed errors, [DoPostStream] together with
// [SSEScanner] for Server-Sent Events streaming, [Retry] for transient
// failure recovery, [Ptr] for converting values to pointers, and [Timer]
// for measuring latency.
package utils
