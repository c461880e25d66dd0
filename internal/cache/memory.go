package cache

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now func() time.Time
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

// MemoryStore is a process-local Store. Expired entries are evicted lazily on
// read; nothing runs in the background.
type MemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	now   func() time.Time
}

func NewMemoryStore[T any](opts ...MemoryOption) *MemoryStore[T] {
	o := memoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore[T]{
		items: make(map[string]entry[T]),
		now:   o.now,
	}
}

func (s *MemoryStore[T]) Get(_ context.Context, key string) (T, bool) {
	var zero T

	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}

	if s.now().Before(e.expiresAt) {
		return e.value, true
	}

	s.mu.Lock()
	// A concurrent Set may have replaced the entry since the read lock was released.
	if cur, ok := s.items[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
		delete(s.items, key)
	}
	s.mu.Unlock()

	return zero, false
}

// Set replaces any existing entry. A non-positive ttl stores nothing.
func (s *MemoryStore[T]) Set(_ context.Context, key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	s.mu.Lock()
	s.items[key] = entry[T]{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
}

// Len reports stored entries, including expired ones not yet evicted.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
