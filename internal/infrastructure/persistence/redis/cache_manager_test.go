package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/pkg/logger"
)

func newTestCache(t *testing.T) (*IdentityCache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	conn := NewRedisConnectionFromClient(client, logger.NewNoopLogger())
	return NewIdentityCache(conn, time.Minute, time.Minute, nil, logger.NewNoopLogger()), s
}

func sampleIdentity() *models.NetworkIdentity {
	n := &models.NetworkIdentity{ID: "i1", RiskTier: models.RiskTierHigh, WeightedScore: 30, PhoneLast4: "4567"}
	n.SetHash(models.HashKindPhone, "ph")
	return n
}

func TestIdentityCacheReadThrough(t *testing.T) {
	cache, s := newTestCache(t)
	ctx := context.Background()
	var loads int32
	load := func(context.Context) (*models.NetworkIdentity, error) {
		atomic.AddInt32(&loads, 1)
		return sampleIdentity(), nil
	}

	got, err := cache.GetOrLoad(ctx, models.HashKindPhone, "ph", load)
	require.NoError(t, err)
	assert.Equal(t, "i1", got.ID)
	assert.True(t, s.Exists(service.IdentityCacheKey(models.HashKindPhone, "ph")))

	got, err = cache.GetOrLoad(ctx, models.HashKindPhone, "ph", load)
	require.NoError(t, err)
	assert.Equal(t, 30, got.WeightedScore)
	assert.EqualValues(t, 1, atomic.LoadInt32(&loads))

	// A second instance reads the Redis tier and keeps the hashes.
	other := NewIdentityCache(NewRedisConnectionFromClient(cache.client, logger.NewNoopLogger()), time.Minute, time.Minute, nil, logger.NewNoopLogger())
	fromRedis, err := other.GetOrLoad(ctx, models.HashKindPhone, "ph", load)
	require.NoError(t, err)
	assert.Equal(t, "ph", fromRedis.Hash(models.HashKindPhone))
	assert.EqualValues(t, 1, atomic.LoadInt32(&loads))
}

func TestIdentityCacheDoesNotCacheMisses(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0
	miss := func(context.Context) (*models.NetworkIdentity, error) {
		calls++
		return nil, nil
	}

	for i := 0; i < 2; i++ {
		got, err := cache.GetOrLoad(ctx, models.HashKindEmail, "none", miss)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.Equal(t, 2, calls)
}

func TestIdentityCacheInvalidate(t *testing.T) {
	cache, s := newTestCache(t)
	ctx := context.Background()
	score := 30
	load := func(context.Context) (*models.NetworkIdentity, error) {
		n := sampleIdentity()
		n.WeightedScore = score
		return n, nil
	}
	_, err := cache.GetOrLoad(ctx, models.HashKindPhone, "ph", load)
	require.NoError(t, err)

	score = 54
	key := service.IdentityCacheKey(models.HashKindPhone, "ph")
	require.NoError(t, cache.Invalidate(ctx, key))
	assert.False(t, s.Exists(key))

	got, err := cache.GetOrLoad(ctx, models.HashKindPhone, "ph", load)
	require.NoError(t, err)
	assert.Equal(t, 54, got.WeightedScore)
}

func TestIdentityCacheLoadErrorsPropagate(t *testing.T) {
	cache := NewIdentityCache(nil, 0, 0, nil, logger.NewNoopLogger())
	boom := errors.New("db down")
	_, err := cache.GetOrLoad(context.Background(), models.HashKindPhone, "x", func(context.Context) (*models.NetworkIdentity, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestIdentityCacheCoalescesConcurrentMisses(t *testing.T) {
	cache := NewIdentityCache(nil, 0, 0, nil, logger.NewNoopLogger())
	var loads int32
	release := make(chan struct{})
	load := func(context.Context) (*models.NetworkIdentity, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return sampleIdentity(), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.GetOrLoad(context.Background(), models.HashKindPhone, "ph", load)
			assert.NoError(t, err)
			assert.Equal(t, "i1", got.ID)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&loads))
}
