package utils

import (
	"context"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/llmwire/llmwire/providers/ai"
)

// RetryConfig holds the tuning parameters for retried calls. Zero values are
// replaced with the defaults documented below when Retry is called.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first
	// failure. A value of 3 means at most 4 calls (1 original + 3 retries).
	// Default: 3.
	MaxRetries int

	// InitialBackoff is the wait duration before the first retry attempt.
	// Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff so it never exceeds this value.
	// A backend Retry-After hint is honored up to the same cap.
	// Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth multiplier applied to
	// InitialBackoff on successive retries
	// (backoff = min(InitialBackoff * BackoffFactor^attempt, MaxBackoff)).
	// Default: 2.0.
	BackoffFactor float64

	// JitterFraction adds random noise to the computed backoff in the range
	// [0, JitterFraction * backoff] to avoid thundering-herd problems.
	// Default: 0.1 (10% jitter).
	JitterFraction float64

	// RetryableFunc reports whether an error should trigger a retry.
	// Default: [ai.IsTransient], so connection failures, timeouts, 408, 429
	// and 5xx responses are retried while 4xx failures surface immediately.
	RetryableFunc func(error) bool
}

// applyRetryDefaults fills in zero-valued fields in config.
func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	if config.InitialBackoff == 0 {
		config.InitialBackoff = time.Second
	}

	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}

	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}

	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}

	if config.RetryableFunc == nil {
		config.RetryableFunc = ai.IsTransient
	}
}

// computeBackoff returns the backoff duration for the given attempt (0-indexed).
// backoff = min(InitialBackoff * BackoffFactor^attempt, MaxBackoff) + jitter
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}

	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter is intentional
	return time.Duration(base + jitter)
}

// backoffFor picks the wait before the given retry attempt. A Retry-After
// hint carried by the last error wins over the computed backoff, capped at
// MaxBackoff so a misbehaving backend cannot park the caller for hours.
func backoffFor(config RetryConfig, attempt int, lastErr error) time.Duration {
	if typed, ok := ai.AsError(lastErr); ok && typed.RetryAfter > 0 {
		if typed.RetryAfter > config.MaxBackoff {
			return config.MaxBackoff
		}
		return typed.RetryAfter
	}
	return computeBackoff(config, attempt)
}

// Retry calls operation until it succeeds, fails with a non-retryable error,
// or the retry budget is exhausted. Between attempts it waits with bounded
// exponential backoff, respecting context cancellation and any Retry-After
// hint on the previous error. On exhaustion the last error is returned so
// the caller sees the real failure, not a retry wrapper.
func Retry[T any](ctx context.Context, config RetryConfig, operation func() (T, error)) (T, error) {
	applyRetryDefaults(&config)

	var zero T
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffFor(config, attempt-1, lastErr)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := operation()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !config.RetryableFunc(err) {
			return zero, err
		}
	}

	return zero, lastErr
}

// ParseRetryAfter reads the Retry-After header, which per RFC 9110 is either
// a delay in seconds or an HTTP-date. Returns 0 when absent or malformed.
func ParseRetryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		return d
	}
	return 0
}
