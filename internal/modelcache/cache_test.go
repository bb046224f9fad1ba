package modelcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmwire/llmwire/providers/ai"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func countingFetch(models []ai.ModelInfo, calls *atomic.Int32) FetchFunc {
	return func(ctx context.Context) ([]ai.ModelInfo, error) {
		calls.Add(1)
		return models, nil
	}
}

func TestCache_FreshEntryServedWithoutFetch(t *testing.T) {
	clock := newFakeClock()
	cache := New(WithClock(clock.now))

	var calls atomic.Int32
	fetch := countingFetch([]ai.ModelInfo{{ID: "model-a"}}, &calls)

	models, err := cache.GetOrFetch(context.Background(), "backend:key", fetch)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, int32(1), calls.Load())

	// Just inside the default lifetime: served from cache.
	clock.advance(DefaultTTL - time.Minute)
	models, err = cache.GetOrFetch(context.Background(), "backend:key", fetch)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_ExpiredEntryRefreshesOnce(t *testing.T) {
	clock := newFakeClock()
	cache := New(WithClock(clock.now))

	var calls atomic.Int32
	fetch := countingFetch([]ai.ModelInfo{{ID: "model-a"}}, &calls)

	_, err := cache.GetOrFetch(context.Background(), "backend:key", fetch)
	require.NoError(t, err)

	clock.advance(DefaultTTL + time.Minute)

	_, err = cache.GetOrFetch(context.Background(), "backend:key", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	// The refresh restarted the clock; the next read is cached again.
	_, err = cache.GetOrFetch(context.Background(), "backend:key", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_KeyIsolation(t *testing.T) {
	keyA := Key("gemini", "credential-alpha-0123456789")
	keyB := Key("gemini", "credential-beta-0123456789")

	assert.NotEqual(t, keyA, keyB)
	assert.Contains(t, keyA, "gemini:")
	// Fingerprinted, not embedded.
	assert.NotContains(t, keyA, "credential-alpha")
	assert.Equal(t, "gemini:anon", Key("gemini", ""))

	clock := newFakeClock()
	cache := New(WithClock(clock.now))

	var callsA, callsB atomic.Int32
	_, err := cache.GetOrFetch(context.Background(), keyA, countingFetch([]ai.ModelInfo{{ID: "a"}}, &callsA))
	require.NoError(t, err)
	modelsB, err := cache.GetOrFetch(context.Background(), keyB, countingFetch([]ai.ModelInfo{{ID: "b"}}, &callsB))
	require.NoError(t, err)

	// The second credential never saw the first one's entry.
	assert.Equal(t, int32(1), callsB.Load())
	assert.Equal(t, "b", modelsB[0].ID)
}

func TestCache_StaleServedWhenRefreshFails(t *testing.T) {
	clock := newFakeClock()
	cache := New(WithClock(clock.now), WithTTL(time.Hour))

	var calls atomic.Int32
	_, err := cache.GetOrFetch(context.Background(), "k", countingFetch([]ai.ModelInfo{{ID: "old"}}, &calls))
	require.NoError(t, err)

	clock.advance(2 * time.Hour)

	failing := func(ctx context.Context) ([]ai.ModelInfo, error) {
		return nil, errors.New("backend down")
	}
	models, err := cache.GetOrFetch(context.Background(), "k", failing)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "old", models[0].ID)
}

func TestCache_ErrorWhenNothingCached(t *testing.T) {
	cache := New()

	failing := func(ctx context.Context) ([]ai.ModelInfo, error) {
		return nil, errors.New("backend down")
	}
	models, err := cache.GetOrFetch(context.Background(), "k", failing)
	require.Error(t, err)
	assert.Nil(t, models)
}

func TestCache_ConcurrentReadersSingleFetch(t *testing.T) {
	cache := New()

	var calls atomic.Int32
	slowFetch := func(ctx context.Context) ([]ai.ModelInfo, error) {
		calls.Add(1)
		time.Sleep(5 * time.Millisecond)
		return []ai.ModelInfo{{ID: "m"}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			models, err := cache.GetOrFetch(context.Background(), "k", slowFetch)
			assert.NoError(t, err)
			assert.Len(t, models, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_Invalidate(t *testing.T) {
	cache := New()

	var calls atomic.Int32
	fetch := countingFetch([]ai.ModelInfo{{ID: "m"}}, &calls)

	_, err := cache.GetOrFetch(context.Background(), "k", fetch)
	require.NoError(t, err)

	cache.Invalidate("k")

	_, err = cache.GetOrFetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
