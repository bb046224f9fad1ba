package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorKind classifies a failure so callers can branch on recovery policy
// without string-matching messages.
type ErrorKind string

const (
	// KindConfiguration marks a missing or invalid credential. Reported
	// before any network call, never retried, and carries the name of the
	// environment variable to set plus setup instructions.
	KindConfiguration ErrorKind = "configuration"
	// KindTransient marks a connection failure, timeout, 408/429 or 5xx
	// response. Retried with bounded exponential backoff; exhaustion
	// surfaces the last underlying error.
	KindTransient ErrorKind = "transient"
	// KindProtocol marks a non-retryable 4xx response or a response body
	// that matches no known shape. Carries the raw backend error text.
	KindProtocol ErrorKind = "protocol"
	// KindStreamFrame marks a malformed SSE frame. Individual frames are
	// logged and skipped; only a run of consecutive bad frames terminates
	// the stream with this kind.
	KindStreamFrame ErrorKind = "stream_frame"
	// KindToolArguments marks tool-call arguments that stayed unparseable
	// after repair. Usually surfaced inside the tool-call end chunk rather
	// than as an error value, so already-streamed text is not discarded.
	KindToolArguments ErrorKind = "tool_arguments"
	// KindUnsupported marks an operation the backend does not offer.
	KindUnsupported ErrorKind = "unsupported"
)

// Error is the typed failure shared by all adapters. Exactly one is wrapped
// around each failure path so callers can use errors.As plus the kind
// predicates below instead of matching message text.
type Error struct {
	Kind       ErrorKind
	Provider   string // backend identifier, when known
	HTTPStatus int    // response status, when the failure came from a response
	Message    string
	Raw        string // raw backend error body, truncated by the producer
	// RetryAfter is the backend's requested wait before retrying, parsed
	// from the Retry-After header. Zero when the backend sent none.
	RetryAfter time.Duration
	// Configuration failures carry which variable to set and how.
	EnvVar            string
	SetupInstructions string

	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.HTTPStatus != 0 {
		fmt.Fprintf(&b, " (status %d)", e.HTTPStatus)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.EnvVar != "" {
		fmt.Fprintf(&b, " (set %s)", e.EnvVar)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause to errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether retrying the same call can reasonably succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransient
}

// AsError extracts a typed *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

func isKind(err error, kind ErrorKind) bool {
	typed, ok := AsError(err)
	return ok && typed.Kind == kind
}

// IsConfiguration reports whether err is a missing/invalid credential failure.
func IsConfiguration(err error) bool { return isKind(err, KindConfiguration) }

// IsTransient reports whether err is a retryable network/5xx failure.
func IsTransient(err error) bool { return isKind(err, KindTransient) }

// IsProtocol reports whether err is a non-retryable backend protocol failure.
func IsProtocol(err error) bool { return isKind(err, KindProtocol) }

// IsUnsupported reports whether err marks an operation the backend lacks.
func IsUnsupported(err error) bool { return isKind(err, KindUnsupported) }

// NewConfigurationError builds the failure returned when a required
// credential variable is unset. The variable name is part of the message so
// it survives plain error printing.
func NewConfigurationError(provider, envVar, setup string) *Error {
	return &Error{
		Kind:              KindConfiguration,
		Provider:          provider,
		Message:           fmt.Sprintf("required environment variable %s is not set", envVar),
		EnvVar:            envVar,
		SetupInstructions: setup,
	}
}

// NewUnsupportedError builds the failure for a capability a backend lacks.
func NewUnsupportedError(provider, operation string) *Error {
	return &Error{
		Kind:     KindUnsupported,
		Provider: provider,
		Message:  fmt.Sprintf("operation %s is not supported", operation),
	}
}

// ErrorFromStatus classifies an HTTP error response into a typed Error.
// 408, 429 and all 5xx are transient (retryable); every other non-2xx status
// is a protocol failure surfaced with the raw body.
func ErrorFromStatus(provider string, status int, body string) *Error {
	kind := KindProtocol
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500 {
		kind = KindTransient
	}
	return &Error{
		Kind:       kind,
		Provider:   provider,
		HTTPStatus: status,
		Message:    http.StatusText(status),
		Raw:        body,
	}
}

// TransportError wraps a failure that happened before any response arrived
// (dial, TLS, timeout). Always transient.
func TransportError(provider string, cause error) *Error {
	return &Error{
		Kind:     KindTransient,
		Provider: provider,
		Message:  "request failed",
		Cause:    cause,
	}
}
