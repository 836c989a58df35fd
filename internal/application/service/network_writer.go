// Package service holds the application services: the use cases behind the HTTP
// API and the admin CLI.
package service

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	domainservice "github.com/turtacn/crn/internal/domain/service"
	"github.com/turtacn/crn/pkg/logger"
)

var tracer = otel.Tracer("github.com/turtacn/crn/internal/application/service")

// NetworkWriter is the single path from tenant actions into the shared network:
// it hashes customer facts, resolves the identity, records incidents, and keeps
// caches and other instances in step.
type NetworkWriter struct {
	resolver  *domainservice.IdentityResolver
	hasher    *domainservice.Hasher
	cache     domainservice.IdentityCache
	publisher domainservice.IncidentPublisher
	clock     repository.Clock
	logger    logger.Logger
}

// NewNetworkWriter creates the writer. cache and publisher may be nil.
func NewNetworkWriter(
	resolver *domainservice.IdentityResolver,
	hasher *domainservice.Hasher,
	cache domainservice.IdentityCache,
	publisher domainservice.IncidentPublisher,
	clock repository.Clock,
	log logger.Logger,
) *NetworkWriter {
	if cache == nil {
		cache = domainservice.PassthroughCache{}
	}
	if publisher == nil {
		publisher = domainservice.NoopPublisher{}
	}
	if clock == nil {
		clock = domainservice.SystemClock{}
	}
	return &NetworkWriter{
		resolver:  resolver,
		hasher:    hasher,
		cache:     cache,
		publisher: publisher,
		clock:     clock,
		logger:    log.WithComponent("network_writer"),
	}
}

// ResolveCustomer resolves or creates the identity behind a tenant's customer and
// counts the tenant as a reporter. It returns nil when the customer has no contact fact.
func (w *NetworkWriter) ResolveCustomer(ctx context.Context, tenantID string, c *models.Customer) (*domainservice.Resolution, error) {
	ctx, span := tracer.Start(ctx, "NetworkWriter.ResolveCustomer")
	defer span.End()

	facts := w.hasher.IdentityFacts(c.Phone, c.Email, c.Address, c.City)
	if facts.Empty() {
		return nil, nil
	}
	res, err := w.resolver.ResolveOrCreate(ctx, facts, w.hasher.ReporterKey(tenantID), models.SourceNetwork)
	if err != nil {
		return nil, err
	}
	w.invalidate(ctx, domainservice.IdentityCacheKeys(res.Identity))
	return res, nil
}

// RecordIncident applies an event to the identity, drops its cached copies, and
// announces the change. A failed announcement is logged; local tiers elsewhere
// expire on their own.
func (w *NetworkWriter) RecordIncident(ctx context.Context, identityID string, event *models.Event) (*models.NetworkIdentity, error) {
	ctx, span := tracer.Start(ctx, "NetworkWriter.RecordIncident")
	defer span.End()

	updated, err := w.resolver.RecordIncident(ctx, identityID, event.Severity, event.Category)
	if err != nil {
		return nil, err
	}
	keys := domainservice.IdentityCacheKeys(updated)
	w.invalidate(ctx, keys)

	msg := &models.NetworkIncidentEvent{
		EventID:       event.ID,
		IdentityID:    updated.ID,
		Severity:      event.Severity,
		Category:      event.Category,
		Negative:      w.IsNegative(event.Severity),
		WeightedScore: updated.WeightedScore,
		RiskTier:      updated.RiskTier,
		CacheKeys:     keys,
		OccurredAt:    w.clock.Now(),
	}
	if err := w.publisher.PublishIncident(ctx, msg); err != nil {
		w.logger.Warn(ctx, "incident announcement failed", logger.String("identity_id", updated.ID), logger.Error(err))
	}
	return updated, nil
}

// IsNegative reports whether severity counts as an incident under the current scoring.
func (w *NetworkWriter) IsNegative(severity int) bool {
	return w.resolver.Ledger().IsNegative(severity)
}

// Invalidate drops cache keys, logging failures.
func (w *NetworkWriter) Invalidate(ctx context.Context, keys []string) {
	w.invalidate(ctx, keys)
}

func (w *NetworkWriter) invalidate(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := w.cache.Invalidate(ctx, keys...); err != nil {
		w.logger.Warn(ctx, "identity cache invalidation failed", logger.Error(err))
	}
}
