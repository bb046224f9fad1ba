// Package modelcache caches model-listing results so repeated discovery
// calls do not hit the backend. Entries are keyed per backend and credential
// fingerprint: two credentials for one backend never share an entry, and
// rotating a credential naturally starts a fresh one.
package modelcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/llmwire/llmwire/providers/ai"
)

// DefaultTTL is how long a cached model list stays fresh before the next
// read triggers a refresh.
const DefaultTTL = 24 * time.Hour

// FetchFunc loads the model list from the backend.
type FetchFunc func(ctx context.Context) ([]ai.ModelInfo, error)

// Cache is an in-memory TTL cache for model lists. It is safe for concurrent
// use; a single fetch mutex serializes refreshes so readers of an expired
// entry never stack duplicate backend calls.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry

	fetchMu sync.Mutex
}

type entry struct {
	models    []ai.ModelInfo
	fetchedAt time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock overrides the time source. Tests pin it to step through expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the cache key for one backend and credential. The credential is
// fingerprinted, never stored, so the key is safe to log.
func Key(backend, credential string) string {
	if credential == "" {
		return backend + ":anon"
	}
	sum := sha256.Sum256([]byte(credential))
	return backend + ":" + hex.EncodeToString(sum[:6])
}

// GetOrFetch returns the cached list for key while it is fresh, refreshing
// it through fetch otherwise. Concurrent callers of an expired key produce
// exactly one refresh. When a refresh fails and a stale list exists, the
// stale list is served rather than the error; the error surfaces only when
// there is nothing to fall back on.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) ([]ai.ModelInfo, error) {
	if models, ok := c.fresh(key); ok {
		return models, nil
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// Another caller may have refreshed while this one waited on the lock.
	if models, ok := c.fresh(key); ok {
		return models, nil
	}

	models, err := fetch(ctx)
	if err != nil {
		c.mu.RLock()
		stale, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return stale.models, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{models: models, fetchedAt: c.now()}
	c.mu.Unlock()

	return models, nil
}

// Invalidate drops the entry for key, forcing the next read to fetch.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache) fresh(key string) ([]ai.ModelInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.models, true
}
