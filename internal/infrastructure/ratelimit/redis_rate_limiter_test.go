package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/crn/internal/infrastructure/ratelimit"
	"github.com/turtacn/crn/pkg/logger"
)

func TestRedisRateLimiter_FixedWindow(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	limiter := ratelimit.NewRedisRateLimiter(client, logger.NewNoopLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "network_search", "tenant-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, remaining, resetAt, err := limiter.Allow(ctx, "network_search", "tenant-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.WithinDuration(t, time.Now().Add(time.Minute), resetAt, 2*time.Second)

	// Other tenants have their own budget.
	allowed, _, _, err = limiter.Allow(ctx, "network_search", "tenant-2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	s.FastForward(61 * time.Second)
	allowed, _, _, err = limiter.Allow(ctx, "network_search", "tenant-1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "network_search", "tenant-1"))
	_, remaining, _, err = limiter.Allow(ctx, "network_search", "tenant-1", 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestRedisRateLimiter_FallsBackWhenRedisIsDown(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr(), MaxRetries: -1})
	limiter := ratelimit.NewRedisRateLimiter(client, logger.NewNoopLogger())
	s.Close()

	ctx := context.Background()
	allowed, _, _, err := limiter.Allow(ctx, "tenant", "t", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, _, _, err = limiter.Allow(ctx, "tenant", "t", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLocalRateLimiter(t *testing.T) {
	l := ratelimit.NewLocalRateLimiter()
	ctx := context.Background()

	allowed, remaining, _, err := l.Allow(ctx, "s", "k", 2, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
	_, _, _, _ = l.Allow(ctx, "s", "k", 2, 50*time.Millisecond)
	allowed, _, _, _ = l.Allow(ctx, "s", "k", 2, 50*time.Millisecond)
	assert.False(t, allowed)

	time.Sleep(60 * time.Millisecond)
	allowed, _, _, _ = l.Allow(ctx, "s", "k", 2, 50*time.Millisecond)
	assert.True(t, allowed)

	allowed, _, _, _ = l.Allow(ctx, "s", "zero", 0, time.Second)
	assert.False(t, allowed)
}
