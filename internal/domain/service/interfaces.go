package service

import (
	"context"
	"time"

	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/pkg/constants"
)

// IncidentPublisher publishes recorded incidents to the audit stream.
type IncidentPublisher interface {
	PublishIncident(ctx context.Context, event *models.NetworkIncidentEvent) error
}

// IdentityLoader loads an identity on a cache miss. A nil identity means no match.
type IdentityLoader func(ctx context.Context) (*models.NetworkIdentity, error)

// IdentityCache caches exact-hash identity lookups.
type IdentityCache interface {
	// GetOrLoad returns the cached identity for (kind, hash) or calls load.
	GetOrLoad(ctx context.Context, kind models.HashKind, hash string, load IdentityLoader) (*models.NetworkIdentity, error)

	// Invalidate drops the given cache keys.
	Invalidate(ctx context.Context, keys ...string) error
}

// RateLimiter enforces a fixed request budget per key and window.
type RateLimiter interface {
	// Allow consumes one unit for key and reports whether it was within limit.
	Allow(ctx context.Context, scope, key string, limit int, window time.Duration) (allowed bool, remaining int, resetAt time.Time, err error)
}

// Metrics records domain-level measurements.
type Metrics interface {
	RecordCustomerAdded(outcome string)
	RecordEventLogged(severity int, negative bool)
	RecordIdentityResolution(outcome string)
	RecordNetworkSearch(kind string, hit bool)
	RecordLinkageCandidates(pass string, confidences []float64)
	RecordPropertySync(result models.SyncResult)
	RecordCacheAccess(cacheType string, hit bool)
	RecordRateLimitHit(scope string)
	RecordDBQuery(operation string, duration time.Duration)
	SetTierDistribution(counts []models.TierCount)
}

// ================================================================================
// No-op implementations
// ================================================================================

// NoopPublisher discards incidents.
type NoopPublisher struct{}

func (NoopPublisher) PublishIncident(context.Context, *models.NetworkIncidentEvent) error { return nil }

// PassthroughCache always calls the loader.
type PassthroughCache struct{}

func (PassthroughCache) GetOrLoad(ctx context.Context, _ models.HashKind, _ string, load IdentityLoader) (*models.NetworkIdentity, error) {
	return load(ctx)
}

func (PassthroughCache) Invalidate(context.Context, ...string) error { return nil }

// NoopMetrics records nothing.
type NoopMetrics struct{}

func (NoopMetrics) RecordCustomerAdded(string)                {}
func (NoopMetrics) RecordEventLogged(int, bool)               {}
func (NoopMetrics) RecordIdentityResolution(string)           {}
func (NoopMetrics) RecordNetworkSearch(string, bool)          {}
func (NoopMetrics) RecordLinkageCandidates(string, []float64) {}
func (NoopMetrics) RecordPropertySync(models.SyncResult)      {}
func (NoopMetrics) RecordCacheAccess(string, bool)            {}
func (NoopMetrics) RecordRateLimitHit(string)                 {}
func (NoopMetrics) RecordDBQuery(string, time.Duration)       {}
func (NoopMetrics) SetTierDistribution([]models.TierCount)    {}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IdentityCacheKey is the cache key for an exact-hash identity lookup.
func IdentityCacheKey(kind models.HashKind, hash string) string {
	return constants.CacheKeyIdentityPrefix + string(kind) + ":" + hash
}

// IdentityCacheKeys returns every cache key under which identity may be cached.
func IdentityCacheKeys(identity *models.NetworkIdentity) []string {
	keys := make([]string, 0, len(models.ResolutionOrder))
	for _, kind := range models.ResolutionOrder {
		if h := identity.Hash(kind); h != "" {
			keys = append(keys, IdentityCacheKey(kind, h))
		}
	}
	return keys
}
