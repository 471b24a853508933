package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a Counter backed by Redis INCR/EXPIRE, shared by every
// process pointing at the same Redis.
type RedisLimiter struct {
	rdb    redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter allows limit hits per window for each key under prefix.
func NewRedisLimiter(rdb redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (r *RedisLimiter) key(k string) string {
	return fmt.Sprintf("%s:%s", r.prefix, k)
}

// Hit implements Counter.
func (r *RedisLimiter) Hit(ctx context.Context, key string) (bool, time.Duration, error) {
	rk := r.key(key)
	count, err := r.rdb.Incr(ctx, rk).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit incr: %w", err)
	}
	if count == 1 {
		if err := r.rdb.Expire(ctx, rk, r.window).Err(); err != nil {
			return false, 0, fmt.Errorf("ratelimit expire: %w", err)
		}
	}
	if count <= int64(r.limit) {
		return true, 0, nil
	}

	ttl, err := r.rdb.TTL(ctx, rk).Result()
	if err != nil || ttl <= 0 {
		// A key without expiry would block forever; restore the window.
		_ = r.rdb.Expire(ctx, rk, r.window).Err()
		ttl = r.window
	}
	return false, ttl, nil
}

// Reset implements Counter.
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("ratelimit reset: %w", err)
	}
	return nil
}
