package middleware

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/llmwire/llmwire/core/client"
	"github.com/llmwire/llmwire/providers/ai"
)

// RetryConfig holds the tuning parameters for the retry middleware. Zero values
// are replaced with the defaults documented below when NewRetryMiddleware is called.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first failure.
	// A value of 3 means the backend is called at most 4 times (1 original + 3 retries).
	// Default: 3.
	MaxRetries int

	// InitialBackoff is the wait duration before the first retry attempt.
	// Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff so it never exceeds this value.
	// A backend Retry-After hint is honored up to the same cap.
	// Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth multiplier applied to InitialBackoff
	// on successive retries (backoff = min(InitialBackoff * BackoffFactor^attempt, MaxBackoff)).
	// Default: 2.0.
	BackoffFactor float64

	// JitterFraction adds random noise to the computed backoff in the range
	// [0, JitterFraction * backoff] to avoid thundering-herd problems.
	// Default: 0.1 (10% jitter).
	JitterFraction float64

	// RetryableFunc returns true when an error should trigger a retry.
	// Default: [ai.IsTransient], so connection failures, timeouts, 408, 429
	// and 5xx responses are retried while protocol and configuration
	// failures surface immediately.
	RetryableFunc func(error) bool
}

// applyRetryDefaults fills in zero-valued fields in config with safe defaults.
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
// hint carried by the last typed error wins over the computed backoff,
// capped at MaxBackoff.
func backoffFor(config RetryConfig, attempt int, lastErr error) time.Duration {
	if typed, ok := ai.AsError(lastErr); ok && typed.RetryAfter > 0 {
		if typed.RetryAfter > config.MaxBackoff {
			return config.MaxBackoff
		}
		return typed.RetryAfter
	}
	return computeBackoff(config, attempt)
}

// NewRetryMiddleware constructs a MiddlewareConfig that retries failed generate
// requests according to the supplied RetryConfig. Zero-valued fields in config
// are replaced with safe defaults (see RetryConfig documentation).
//
// The Stream field of the returned MiddlewareConfig is nil; streaming requests
// bypass this middleware because mid-stream errors cannot be transparently
// retried without replaying chunks the caller has already seen.
//
// On exhaustion the returned error wraps both [ErrRetryExhausted] and the last
// backend error, allowing callers to unwrap either.
func NewRetryMiddleware(config RetryConfig) client.MiddlewareConfig {
	applyRetryDefaults(&config)

	generateMiddleware := client.Middleware(func(next client.GenerateFunc) client.GenerateFunc {
		return func(ctx context.Context, request ai.Request) (*ai.Response, error) {
			var lastErr error

			for attempt := 0; attempt <= config.MaxRetries; attempt++ {
				if attempt > 0 {
					// Respect context cancellation between retries.
					backoff := backoffFor(config, attempt-1, lastErr)
					select {
					case <-ctx.Done():
						return nil, ctx.Err()
					case <-time.After(backoff):
					}
				}

				response, err := next(ctx, request)
				if err == nil {
					return response, nil
				}

				lastErr = err

				if !config.RetryableFunc(err) {
					// Non-retryable error — propagate immediately.
					return nil, err
				}
			}

			return nil, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr)
		}
	})

	return client.MiddlewareConfig{
		Generate: generateMiddleware,
		Stream:   nil, // Streaming cannot be transparently retried.
	}
}
