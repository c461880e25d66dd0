package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
}

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := NewMemoryStore[string](WithClock(clock.Now))

	_, ok := store.Get(ctx, "missing")
	assert.False(t, ok)

	store.Set(ctx, "k", "v1", time.Minute)
	got, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v1", got)

	store.Set(ctx, "k", "v2", time.Minute)
	got, ok = store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestMemoryStore_ExpiresAtDeadline(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := NewMemoryStore[int](WithClock(clock.Now))

	store.Set(ctx, "k", 42, 180*time.Second)

	clock.Advance(179 * time.Second)
	_, ok := store.Get(ctx, "k")
	assert.True(t, ok, "entry should still be live one second before expiry")

	clock.Advance(time.Second)
	_, ok = store.Get(ctx, "k")
	assert.False(t, ok, "entry must not be returned at its expiry instant")
	assert.Equal(t, 0, store.Len(), "expired entry is evicted on read")
}

func TestMemoryStore_NonPositiveTTLIsNotStored(t *testing.T) {
	store := NewMemoryStore[string]()
	store.Set(context.Background(), "k", "v", 0)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_ExpiredEntriesEvictedOnlyOnAccess(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := NewMemoryStore[string](WithClock(clock.Now))

	store.Set(ctx, "short", "a", time.Second)
	store.Set(ctx, "long", "b", time.Hour)
	clock.Advance(time.Minute)

	assert.Equal(t, 2, store.Len(), "expired entry stays until read")

	_, ok := store.Get(ctx, "short")
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())

	got, ok := store.Get(ctx, "long")
	assert.True(t, ok)
	assert.Equal(t, "b", got)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string]()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			for j := 0; j < 200; j++ {
				store.Set(ctx, key, fmt.Sprintf("v%d", j), time.Minute)
				if v, ok := store.Get(ctx, key); ok {
					assert.NotEmpty(t, v)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, store.Len())
}

func BenchmarkMemoryStore_Get(b *testing.B) {
	ctx := context.Background()
	store := NewMemoryStore[string]()
	store.Set(ctx, "k", "v", time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Get(ctx, "k")
	}
}
