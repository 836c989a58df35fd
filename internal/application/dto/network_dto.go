package dto

import (
	"time"

	"github.com/turtacn/crn/internal/domain/models"
)

// CleanBadgeMonths is the clean streak that earns the clean badge.
const CleanBadgeMonths = 12

// NetworkSearchRequest looks up the shared network.
type NetworkSearchRequest struct {
	Kind  string `form:"kind" json:"kind" validate:"required,oneof=phone email address"`
	Value string `form:"value" json:"value" validate:"required,max=512"`
}

// NetworkIdentityDTO is the privacy-safe view of a network identity. It never
// carries hashes.
type NetworkIdentityDTO struct {
	ID                  string          `json:"id"`
	RiskTier            models.RiskTier `json:"risk_tier"`
	WeightedScore       int             `json:"weighted_score"`
	TotalIncidents      int             `json:"total_incidents"`
	TotalPositiveEvents int             `json:"total_positive_events"`
	CleanStreakMonths   int             `json:"clean_streak_months"`
	CleanBadge          bool            `json:"clean_badge"`
	SeenByBusinessCount int             `json:"seen_by_business_count"`
	PhoneLast4          string          `json:"phone_last4,omitempty"`
	EmailDomain         string          `json:"email_domain,omitempty"`
	AddressFragment     string          `json:"address_fragment,omitempty"`
	Source              string          `json:"source"`
	FirstSeenAt         time.Time       `json:"first_seen_at"`
	LastSeenAt          time.Time       `json:"last_seen_at"`
	LastIncidentAt      *time.Time      `json:"last_incident_at,omitempty"`
	Breakdown           map[string]int  `json:"incident_breakdown,omitempty"`
}

// NewNetworkIdentityDTO converts an identity. breakdown may be nil.
func NewNetworkIdentityDTO(n *models.NetworkIdentity, breakdown map[string]int) *NetworkIdentityDTO {
	if n == nil {
		return nil
	}
	return &NetworkIdentityDTO{
		ID:                  n.ID,
		RiskTier:            n.RiskTier,
		WeightedScore:       n.WeightedScore,
		TotalIncidents:      n.TotalIncidents,
		TotalPositiveEvents: n.TotalPositiveEvents,
		CleanStreakMonths:   n.CleanStreakMonths,
		CleanBadge:          n.CleanStreakMonths >= CleanBadgeMonths,
		SeenByBusinessCount: n.SeenByBusinessCount,
		PhoneLast4:          n.PhoneLast4,
		EmailDomain:         n.EmailDomain,
		AddressFragment:     n.AddressFragment,
		Source:              string(n.Source),
		FirstSeenAt:         n.FirstSeenAt,
		LastSeenAt:          n.LastSeenAt,
		LastIncidentAt:      n.LastIncidentAt,
		Breakdown:           breakdown,
	}
}

// NetworkSearchResponse holds an identity for phone and email searches and
// property records for address searches. Found is false when nothing matched.
type NetworkSearchResponse struct {
	Kind       string                   `json:"kind"`
	Found      bool                     `json:"found"`
	Identity   *NetworkIdentityDTO      `json:"identity,omitempty"`
	Properties []*models.PropertyRecord `json:"properties,omitempty"`
}

// MergeIdentitiesRequest folds one identity into another.
type MergeIdentitiesRequest struct {
	KeepID   string `json:"keep_id" validate:"required,uuid"`
	AbsorbID string `json:"absorb_id" validate:"required,uuid,nefield=KeepID"`
}

// CleanStreakResult summarizes a clean streak run.
type CleanStreakResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}

// TierReport is the network risk tier distribution.
type TierReport struct {
	Tiers []models.TierCount `json:"tiers"`
	Total int64              `json:"total"`
}
