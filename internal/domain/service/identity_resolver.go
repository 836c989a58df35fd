package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
	crnerrors "github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

// Resolution outcomes reported to metrics.
const (
	ResolutionMatched = "matched"
	ResolutionCreated = "created"
	ResolutionRaced   = "raced"
)

// Resolution is the result of ResolveOrCreate.
type Resolution struct {
	Identity *models.NetworkIdentity
	Created  bool
	// MatchedOn is the hash kind that found an existing identity.
	MatchedOn models.HashKind
	// NewReporter is true when this call counted a new distinct tenant.
	NewReporter bool
}

// IdentityResolver owns every write to the network identity store.
type IdentityResolver struct {
	identities repository.NetworkIdentityRepository
	scoring    *ScoringProvider
	clock      repository.Clock
	metrics    Metrics
	log        logger.Logger
}

// NewIdentityResolver creates a resolver.
func NewIdentityResolver(
	identities repository.NetworkIdentityRepository,
	scoring *ScoringProvider,
	clock repository.Clock,
	metrics Metrics,
	log logger.Logger,
) *IdentityResolver {
	if clock == nil {
		clock = SystemClock{}
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &IdentityResolver{
		identities: identities,
		scoring:    scoring,
		clock:      clock,
		metrics:    metrics,
		log:        log.WithComponent("identity_resolver"),
	}
}

// Ledger returns an incident ledger bound to the current scoring snapshot.
func (r *IdentityResolver) Ledger() *IncidentLedger {
	return NewIncidentLedger(r.scoring.Get())
}

// Lookup finds an identity by exact hash in priority order phone, email, address.
// The first hit wins.
func (r *IdentityResolver) Lookup(ctx context.Context, facts models.IdentityFacts) (*models.NetworkIdentity, models.HashKind, error) {
	for _, kind := range models.ResolutionOrder {
		hash := facts.Hash(kind)
		if hash == "" {
			continue
		}
		identity, err := r.identities.FindByHash(ctx, kind, hash)
		if err != nil {
			return nil, "", err
		}
		if identity != nil {
			return identity, kind, nil
		}
	}
	return nil, "", nil
}

// ResolveOrCreate finds the identity for facts or creates one. On a hit, last_seen_at
// is bumped and new hashes and fragments are merged in. reporterKey, when set, is
// registered so seen_by_business_count counts distinct tenants.
func (r *IdentityResolver) ResolveOrCreate(ctx context.Context, facts models.IdentityFacts, reporterKey string, source models.IdentitySource) (*Resolution, error) {
	if facts.Empty() {
		return nil, crnerrors.ErrValidation("at least one of phone, email or address is required to resolve an identity")
	}
	if source == "" {
		source = models.SourceNetwork
	}

	existing, kind, err := r.Lookup(ctx, facts)
	if err != nil {
		return nil, err
	}

	outcome := ResolutionMatched
	res := &Resolution{}
	if existing == nil {
		identity := r.newIdentity(facts, source)
		created, err := r.identities.Create(ctx, identity, reporterKey)
		if err != nil {
			return nil, err
		}
		if created {
			res.Identity, res.Created, res.NewReporter = identity, true, reporterKey != ""
			outcome = ResolutionCreated
			r.log.Info(ctx, "network identity created",
				logger.String("identity_id", identity.ID),
				logger.String("source", string(source)),
			)
		} else {
			// Another writer inserted one of our hashes first; use theirs.
			existing, kind, err = r.Lookup(ctx, facts)
			if err != nil {
				return nil, err
			}
			if existing == nil {
				return nil, crnerrors.ErrInternal("identity insert conflicted but no identity holds the hashes")
			}
			outcome = ResolutionRaced
		}
	}

	if existing != nil {
		if err := r.absorbFacts(ctx, existing, facts, source); err != nil {
			return nil, err
		}
		res.Identity, res.MatchedOn = existing, kind
	}

	if reporterKey != "" && !res.Created {
		isNew, err := r.identities.RegisterReporter(ctx, res.Identity.ID, reporterKey)
		if err != nil {
			return nil, err
		}
		if isNew {
			res.Identity.SeenByBusinessCount++
			res.NewReporter = true
		}
	}

	r.metrics.RecordIdentityResolution(outcome)
	return res, nil
}

func (r *IdentityResolver) newIdentity(facts models.IdentityFacts, source models.IdentitySource) *models.NetworkIdentity {
	now := r.clock.Now()
	identity := &models.NetworkIdentity{
		ID:                  uuid.New().String(),
		PhoneLast4:          facts.PhoneLast4,
		EmailDomain:         facts.EmailDomain,
		AddressFragment:     facts.AddressFragment,
		RiskTier:            models.RiskTierUnknown,
		SeenByBusinessCount: 1,
		FirstSeenAt:         now,
		LastSeenAt:          now,
		Source:              source,
	}
	for _, kind := range models.ResolutionOrder {
		identity.SetHash(kind, facts.Hash(kind))
	}
	return identity
}

// absorbFacts merges hashes the identity does not hold yet. A hash already owned by
// another identity stays where it is; the conflict is logged for the dedup job.
func (r *IdentityResolver) absorbFacts(ctx context.Context, identity *models.NetworkIdentity, facts models.IdentityFacts, source models.IdentitySource) error {
	for _, kind := range models.ResolutionOrder {
		hash := facts.Hash(kind)
		if hash == "" || identity.Hash(kind) != "" {
			continue
		}
		owner, err := r.identities.FindByHash(ctx, kind, hash)
		if err != nil {
			return err
		}
		if owner != nil && owner.ID != identity.ID {
			r.log.Warn(ctx, "identity hash held by another identity",
				logger.String("identity_id", identity.ID),
				logger.String("other_identity_id", owner.ID),
				logger.String("hash_kind", string(kind)),
			)
			continue
		}
		identity.SetHash(kind, hash)
	}

	if identity.PhoneHash != nil && identity.PhoneLast4 == "" {
		identity.PhoneLast4 = facts.PhoneLast4
	}
	if identity.EmailHash != nil && identity.EmailDomain == "" {
		identity.EmailDomain = facts.EmailDomain
	}
	if identity.AddressHash != nil && identity.AddressFragment == "" {
		identity.AddressFragment = facts.AddressFragment
	}
	identity.Source = identity.Source.Merge(source)
	identity.LastSeenAt = r.clock.Now()

	err := r.identities.SaveFacts(ctx, identity)
	if errors.Is(err, repository.ErrHashConflict) {
		// Lost a race for one of the new hashes; keep only what is persisted.
		r.log.Warn(ctx, "identity hash claimed concurrently", logger.String("identity_id", identity.ID))
		fresh, ferr := r.identities.FindByID(ctx, identity.ID)
		if ferr != nil {
			return ferr
		}
		fresh.LastSeenAt = identity.LastSeenAt
		fresh.Source = identity.Source
		*identity = *fresh
		return r.identities.SaveFacts(ctx, identity)
	}
	return err
}

// RecordIncident applies one incident under a row lock.
func (r *IdentityResolver) RecordIncident(ctx context.Context, identityID string, severity int, category string) (*models.NetworkIdentity, error) {
	if !models.ValidSeverity(severity) {
		return nil, crnerrors.ErrInvalidParameterFormat("severity", fmt.Sprintf("integer between %d and %d", models.MinSeverity, models.MaxSeverity))
	}
	ledger := r.Ledger()
	now := r.clock.Now()
	updated, err := r.identities.Mutate(ctx, identityID, func(identity *models.NetworkIdentity) (map[string]int, error) {
		return ledger.Apply(identity, severity, category, now), nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info(ctx, "incident recorded",
		logger.String("identity_id", identityID),
		logger.Int("severity", severity),
		logger.Int("weighted_score", updated.WeightedScore),
		logger.String("risk_tier", string(updated.RiskTier)),
	)
	return updated, nil
}

// IncidentBreakdown returns the identity's category counts, omitting zeros.
func (r *IdentityResolver) IncidentBreakdown(ctx context.Context, identityID string) (map[string]int, error) {
	counts, err := r.identities.CategoryCounts(ctx, identityID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(counts))
	for _, c := range counts {
		if c.Count > 0 {
			out[c.Category] = c.Count
		}
	}
	return out, nil
}

// RecomputeCleanStreaks sets clean_streak_months on every identity to the whole
// months since its last incident, or since first seen when it has none. Re-running
// it is harmless.
func (r *IdentityResolver) RecomputeCleanStreaks(ctx context.Context, batchSize int) (scanned, updated int, err error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	now := r.clock.Now()
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return scanned, updated, err
		}
		page, err := r.identities.ListPage(ctx, cursor, batchSize)
		if err != nil {
			return scanned, updated, err
		}
		for _, identity := range page {
			scanned++
			since := identity.FirstSeenAt
			if identity.LastIncidentAt != nil {
				since = *identity.LastIncidentAt
			}
			months := CleanStreakMonths(since, now)
			if months == identity.CleanStreakMonths {
				continue
			}
			if err := r.identities.UpdateCleanStreak(ctx, identity.ID, months); err != nil {
				return scanned, updated, err
			}
			updated++
		}
		if len(page) < batchSize {
			break
		}
		cursor = page[len(page)-1].ID
	}
	r.log.Info(ctx, "clean streaks recomputed", logger.Int("scanned", scanned), logger.Int("updated", updated))
	return scanned, updated, nil
}

// MergeIdentities folds absorbID into keepID.
func (r *IdentityResolver) MergeIdentities(ctx context.Context, keepID, absorbID string) (*models.NetworkIdentity, []string, error) {
	if keepID == "" || absorbID == "" {
		return nil, nil, crnerrors.ErrMissingRequiredParameter("identity_id")
	}
	if keepID == absorbID {
		return nil, nil, crnerrors.ErrValidation("cannot merge an identity into itself")
	}
	ledger := r.Ledger()
	var staleKeys []string
	merged, err := r.identities.Merge(ctx, keepID, absorbID, func(keep, absorb *models.NetworkIdentity) error {
		staleKeys = append(IdentityCacheKeys(keep), IdentityCacheKeys(absorb)...)
		ledger.MergeInto(keep, absorb)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	r.log.Info(ctx, "network identities merged",
		logger.String("identity_id", keepID),
		logger.String("absorbed_identity_id", absorbID),
	)
	return merged, staleKeys, nil
}
