// Package cache provides the TTL key-value stores shared by the quote gateway
// and the catalog.
package cache

import (
	"context"
	"time"
)

// Store is a TTL cache. Misses, expired entries and backend failures all
// report found=false; callers treat the cache as advisory.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T, ttl time.Duration)
}
