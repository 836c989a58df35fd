package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/pkg/constants"
	"github.com/turtacn/crn/pkg/logger"
)

// Cache tier labels reported to metrics.
const (
	cacheTierLocal = "identity_local"
	cacheTierRedis = "identity_redis"
)

// cachedIdentity carries the hashes that NetworkIdentity hides from JSON, so the
// cached copy can still produce its own invalidation keys.
type cachedIdentity struct {
	Identity    *models.NetworkIdentity `json:"identity"`
	PhoneHash   *string                 `json:"phone_hash,omitempty"`
	EmailHash   *string                 `json:"email_hash,omitempty"`
	AddressHash *string                 `json:"address_hash,omitempty"`
}

func encodeIdentity(n *models.NetworkIdentity) ([]byte, error) {
	return json.Marshal(cachedIdentity{Identity: n, PhoneHash: n.PhoneHash, EmailHash: n.EmailHash, AddressHash: n.AddressHash})
}

func decodeIdentity(b []byte) (*models.NetworkIdentity, error) {
	var c cachedIdentity
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if c.Identity == nil {
		return nil, errors.New("cached identity is empty")
	}
	c.Identity.PhoneHash, c.Identity.EmailHash, c.Identity.AddressHash = c.PhoneHash, c.EmailHash, c.AddressHash
	return c.Identity, nil
}

// IdentityCache is a two-tier read-through cache for network identities: an
// in-process go-cache in front of Redis. Concurrent misses for the same key share
// one load. Misses are not cached.
type IdentityCache struct {
	local    *gocache.Cache
	localTTL time.Duration
	client   redis.UniversalClient
	ttl      time.Duration
	group    singleflight.Group
	metrics  service.Metrics
	logger   logger.Logger
}

// NewIdentityCache creates the cache. conn may be nil to run with the local tier only.
func NewIdentityCache(conn *RedisConnection, ttl, localTTL time.Duration, metrics service.Metrics, log logger.Logger) *IdentityCache {
	if ttl <= 0 {
		ttl = constants.DefaultIdentityCacheTTL
	}
	if localTTL <= 0 {
		localTTL = constants.DefaultLocalCacheTTL
	}
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	c := &IdentityCache{
		local:    gocache.New(localTTL, 2*localTTL),
		localTTL: localTTL,
		ttl:      ttl,
		metrics:  metrics,
		logger:   log.WithComponent("identity_cache"),
	}
	if conn != nil {
		c.client = conn.Client()
	}
	return c
}

// GetOrLoad returns the cached identity for (kind, hash) or calls load on a miss.
func (c *IdentityCache) GetOrLoad(ctx context.Context, kind models.HashKind, hash string, load service.IdentityLoader) (*models.NetworkIdentity, error) {
	key := service.IdentityCacheKey(kind, hash)

	if v, ok := c.local.Get(key); ok {
		c.metrics.RecordCacheAccess(cacheTierLocal, true)
		cp := *(v.(*models.NetworkIdentity))
		return &cp, nil
	}
	c.metrics.RecordCacheAccess(cacheTierLocal, false)

	if c.client != nil {
		b, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if identity, derr := decodeIdentity(b); derr == nil {
				c.metrics.RecordCacheAccess(cacheTierRedis, true)
				c.storeLocal(key, identity)
				return identity, nil
			}
			c.logger.Warn(ctx, "Discarding undecodable cache entry", logger.String("key_kind", string(kind)))
		case errors.Is(err, redis.Nil):
			c.metrics.RecordCacheAccess(cacheTierRedis, false)
		default:
			c.logger.Warn(ctx, "Redis read failed, loading from store", logger.Error(err))
		}
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		identity, err := load(ctx)
		if err != nil || identity == nil {
			return identity, err
		}
		c.store(ctx, key, identity)
		return identity, nil
	})
	if err != nil {
		return nil, err
	}
	identity, _ := v.(*models.NetworkIdentity)
	if identity == nil {
		return nil, nil
	}
	cp := *identity
	return &cp, nil
}

func (c *IdentityCache) storeLocal(key string, identity *models.NetworkIdentity) {
	cp := *identity
	c.local.Set(key, &cp, c.localTTL)
}

func (c *IdentityCache) store(ctx context.Context, key string, identity *models.NetworkIdentity) {
	c.storeLocal(key, identity)
	if c.client == nil {
		return
	}
	b, err := encodeIdentity(identity)
	if err != nil {
		c.logger.Warn(ctx, "Failed to encode identity for cache", logger.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "Redis write failed", logger.Error(err))
	}
}

// Invalidate drops keys from both tiers.
func (c *IdentityCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	for _, k := range keys {
		c.local.Delete(k)
		c.group.Forget(k)
	}
	if c.client == nil {
		return nil
	}
	// One DEL per key so cluster mode never sees a cross-slot command.
	pipe := c.client.Pipeline()
	for _, k := range keys {
		pipe.Del(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error(ctx, "Cache invalidation failed", err, logger.Int("keys", len(keys)))
		return err
	}
	return nil
}

// InvalidateLocal drops keys from the in-process tier only. Used when another
// instance has already cleared Redis.
func (c *IdentityCache) InvalidateLocal(keys ...string) {
	for _, k := range keys {
		c.local.Delete(k)
		c.group.Forget(k)
	}
}
