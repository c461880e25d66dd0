package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store shared across replicas. Values are JSON encoded and
// expiry is delegated to Redis.
type RedisStore[T any] struct {
	client redis.Cmdable
	prefix string
	logger logger.Logger
}

func NewRedisStore[T any](client redis.Cmdable, prefix string, log logger.Logger) *RedisStore[T] {
	return &RedisStore[T]{
		client: client,
		prefix: prefix,
		logger: log.WithFields(map[string]interface{}{"component": "redis-cache"}),
	}
}

func (s *RedisStore[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed, treating as miss", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return zero, false
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		s.logger.Warn("cache entry undecodable, treating as miss", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return zero, false
	}
	return value, true
}

func (s *RedisStore[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache entry not encodable", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	if err := s.client.Set(ctx, s.prefix+key, raw, ttl).Err(); err != nil {
		s.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
