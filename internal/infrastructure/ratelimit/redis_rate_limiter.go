// Package ratelimit provides fixed-window rate limiting backed by Redis, with an
// in-process fallback.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/pkg/constants"
	"github.com/turtacn/crn/pkg/logger"
)

// fixedWindowScript increments the window counter, arms its expiry on first use
// and returns {count, pttl}.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisRateLimiter implements service.RateLimiter with a shared Redis counter per
// (scope, key, window). When Redis is unreachable it degrades to the local limiter.
type RedisRateLimiter struct {
	client   redis.UniversalClient
	fallback *LocalRateLimiter
	logger   logger.Logger
	now      func() time.Time
}

var _ service.RateLimiter = (*RedisRateLimiter)(nil)

// NewRedisRateLimiter creates a limiter on client.
func NewRedisRateLimiter(client redis.UniversalClient, log logger.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:   client,
		fallback: NewLocalRateLimiter(),
		logger:   log.WithComponent("rate_limiter"),
		now:      time.Now,
	}
}

// Allow consumes one request for key within the current window.
func (l *RedisRateLimiter) Allow(ctx context.Context, scope, key string, limit int, window time.Duration) (bool, int, time.Time, error) {
	if limit <= 0 {
		return false, 0, l.now().Add(window), nil
	}
	redisKey := fmt.Sprintf("%s%s:%s", constants.CacheKeyRateLimitPrefix, scope, key)

	res, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		l.logger.Warn(ctx, "Redis rate limit check failed, using local limiter",
			logger.String("scope", scope),
			logger.Error(err),
		)
		return l.fallback.Allow(ctx, scope, key, limit, window)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= limit, remaining, l.now().Add(ttl), nil
}

// Reset clears the counter for key.
func (l *RedisRateLimiter) Reset(ctx context.Context, scope, key string) error {
	l.fallback.Reset(scope, key)
	return l.client.Del(ctx, fmt.Sprintf("%s%s:%s", constants.CacheKeyRateLimitPrefix, scope, key)).Err()
}
