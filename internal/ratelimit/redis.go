package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resumelens/internal/errors"
)

// RedisLimiter is a fixed-window limiter backed by Redis, for deployments
// with more than one server instance. Each identity+window pair maps to one
// counter key incremented atomically.
type RedisLimiter struct {
	client *redis.Client
	quota  Quota
	logger *errors.Logger
	now    func() time.Time // test hook
}

// NewRedisLimiter creates a Redis-backed limiter and verifies the connection
func NewRedisLimiter(ctx context.Context, client *redis.Client, quota Quota, logger *errors.Logger) (*RedisLimiter, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisLimiter{
		client: client,
		quota:  quota,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (r *RedisLimiter) counterKey(identity string, start time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", identity, start.Unix())
}

// Allow consumes one unit of quota for the identity. INCR makes the check
// atomic across server instances.
func (r *RedisLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	start := windowStart(r.now(), r.quota.Window)
	key := r.counterKey(identity, start)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*r.quota.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := incr.Val()
	if count > int64(r.quota.MaxRequests) {
		if r.logger != nil {
			r.logger.Debug("Rate limit quota exhausted",
				"identity", identity, "count", count)
		}
		return false, nil
	}
	return true, nil
}

// Stats returns current limiter statistics
func (r *RedisLimiter) Stats(ctx context.Context) map[string]any {
	stats := map[string]any{
		"backend":        "redis",
		"max_requests":   r.quota.MaxRequests,
		"window_seconds": r.quota.Window.Seconds(),
	}

	keys, err := r.client.Keys(ctx, "ratelimit:*").Result()
	if err == nil {
		stats["active_counters"] = len(keys)
	}
	return stats
}

// Close releases the Redis connection
func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
