package service

import (
	"time"

	"github.com/turtacn/crn/internal/domain/models"
)

// IncidentLedger applies incidents to the network aggregates.
type IncidentLedger struct {
	cfg ScoringConfig
}

// NewIncidentLedger creates a ledger bound to cfg.
func NewIncidentLedger(cfg ScoringConfig) *IncidentLedger {
	return &IncidentLedger{cfg: cfg}
}

// Weight returns the convex incident weight: severity times the multiplier for its band.
func (l *IncidentLedger) Weight(severity int) int {
	if !models.ValidSeverity(severity) {
		return 0
	}
	return severity * l.cfg.SeverityWeightMultipliers[severity-1]
}

// IsNegative reports whether an incident of this severity counts against the identity.
func (l *IncidentLedger) IsNegative(severity int) bool {
	return severity >= l.cfg.NegativeSeverityMin
}

// Tier maps a weighted score to a risk tier. The mapping is exact and monotonic.
func (l *IncidentLedger) Tier(weightedScore int) models.RiskTier {
	switch {
	case weightedScore >= l.cfg.TierCriticalMin:
		return models.RiskTierCritical
	case weightedScore >= l.cfg.TierHighMin:
		return models.RiskTierHigh
	case weightedScore >= l.cfg.TierMediumMin:
		return models.RiskTierMedium
	case weightedScore > 0:
		return models.RiskTierLow
	default:
		return models.RiskTierUnknown
	}
}

// Apply mutates identity for one incident and returns the category deltas to persist.
func (l *IncidentLedger) Apply(identity *models.NetworkIdentity, severity int, category string, now time.Time) map[string]int {
	var deltas map[string]int
	if l.IsNegative(severity) {
		identity.WeightedScore += l.Weight(severity)
		identity.TotalIncidents++
		at := now
		identity.LastIncidentAt = &at
		identity.CleanStreakMonths = 0
		if category != "" {
			deltas = map[string]int{category: 1}
		}
	} else {
		identity.WeightedScore -= l.cfg.PositiveDecay
		if identity.WeightedScore < 0 {
			identity.WeightedScore = 0
		}
		identity.TotalPositiveEvents++
	}
	identity.RiskTier = l.Tier(identity.WeightedScore)
	identity.LastSeenAt = now
	return deltas
}

// MergeInto folds absorb's aggregates into keep and recomputes keep's tier.
func (l *IncidentLedger) MergeInto(keep, absorb *models.NetworkIdentity) {
	keep.WeightedScore += absorb.WeightedScore
	keep.TotalIncidents += absorb.TotalIncidents
	keep.TotalPositiveEvents += absorb.TotalPositiveEvents

	if absorb.FirstSeenAt.Before(keep.FirstSeenAt) {
		keep.FirstSeenAt = absorb.FirstSeenAt
	}
	if absorb.LastSeenAt.After(keep.LastSeenAt) {
		keep.LastSeenAt = absorb.LastSeenAt
	}
	if absorb.LastIncidentAt != nil && (keep.LastIncidentAt == nil || absorb.LastIncidentAt.After(*keep.LastIncidentAt)) {
		t := *absorb.LastIncidentAt
		keep.LastIncidentAt = &t
	}
	if absorb.CleanStreakMonths < keep.CleanStreakMonths {
		keep.CleanStreakMonths = absorb.CleanStreakMonths
	}

	for _, kind := range models.ResolutionOrder {
		if keep.Hash(kind) == "" {
			keep.SetHash(kind, absorb.Hash(kind))
		}
	}
	if keep.PhoneLast4 == "" {
		keep.PhoneLast4 = absorb.PhoneLast4
	}
	if keep.EmailDomain == "" {
		keep.EmailDomain = absorb.EmailDomain
	}
	if keep.AddressFragment == "" {
		keep.AddressFragment = absorb.AddressFragment
	}

	keep.Source = keep.Source.Merge(absorb.Source)
	keep.RiskTier = l.Tier(keep.WeightedScore)
}

// CleanStreakMonths counts whole calendar months elapsed between since and now.
func CleanStreakMonths(since, now time.Time) int {
	if !now.After(since) {
		return 0
	}
	since, now = since.UTC(), now.UTC()
	months := (now.Year()-since.Year())*12 + int(now.Month()-since.Month())
	// A month only counts once its day-of-month and time have been reached.
	anniversary := since.AddDate(0, months, 0)
	if anniversary.After(now) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
