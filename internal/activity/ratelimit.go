package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Londondannyboy/quest-sub002/internal/config"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

// RedisRateLimiter enforces a per-adapter token-bucket rate limit backed
// by Redis, so limits hold across every worker process sharing the store
// (spec §6 "rate limits are process-wide, not per-worker"). Grounded on
// the teacher's Redis-backed fixed-window limiter
// (internal/infrastructure/api/rest/middleware_ratelimit_redis.go),
// adapted from a per-client-IP block/count pair to a per-adapter
// token-bucket refilled once per second.
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter builds a limiter over the given Redis config.
func NewRedisRateLimiter(cfg config.RedisConfig) (*RedisRateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.URL,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisRateLimiter{client: client}, nil
}

// NewRedisRateLimiterFromClient wraps an already-constructed client,
// allowing tests to substitute a miniredis-backed client.
func NewRedisRateLimiterFromClient(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

// Close releases the underlying Redis connection.
func (l *RedisRateLimiter) Close() error { return l.client.Close() }

// Allow consumes one token from adapterName's bucket. It returns a
// *domain.Error (ClassTransient, CodeRateLimited, with RetryAfter set)
// when the bucket is empty, so the caller's retry policy can back off
// using the vendor-agnostic hint (spec §4.1).
func (l *RedisRateLimiter) Allow(ctx context.Context, adapterName string, limit config.AdapterRateLimit) error {
	countKey := "ratelimit:count:" + adapterName
	window := time.Second

	count, err := l.client.Incr(ctx, countKey).Result()
	if err != nil {
		return domain.Transient(domain.CodeUpstream5xx, "rate limiter unavailable", err, nil)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, countKey, window).Err(); err != nil {
			return domain.Transient(domain.CodeUpstream5xx, "rate limiter unavailable", err, nil)
		}
	}

	burst := limit.Burst
	if burst <= 0 {
		burst = 1
	}

	if int(count) > burst {
		ttl, ttlErr := l.client.TTL(ctx, countKey).Result()
		retryAfter := 1
		if ttlErr == nil && ttl > 0 {
			retryAfter = int(ttl.Seconds()) + 1
		}
		return domain.Transient(domain.CodeRateLimited, fmt.Sprintf("adapter %s rate limit exceeded", adapterName), nil, &retryAfter)
	}

	return nil
}

// Reset clears the counter for adapterName, used by tests and by manual
// operator recovery.
func (l *RedisRateLimiter) Reset(ctx context.Context, adapterName string) error {
	return l.client.Del(ctx, "ratelimit:count:"+adapterName).Err()
}
