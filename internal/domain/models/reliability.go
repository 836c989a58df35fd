package models

import "time"

// RiskLevel is the tenant-local classification of a reliability score.
// It is distinct from the network RiskTier.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// Trend compares recent event severity against older event severity.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// ReliabilityProfile is the tenant-local view of one customer.
type ReliabilityProfile struct {
	CustomerID string         `json:"customer_id"`
	Score      int            `json:"score"`
	RiskLevel  RiskLevel      `json:"risk_level"`
	Trend      Trend          `json:"trend"`
	Percentile int            `json:"percentile"`
	Breakdown  map[string]int `json:"breakdown"`
	EventCount int            `json:"event_count"`
}

// NetworkIncidentEvent is published whenever an incident is recorded against a
// network identity. It carries no tenant identifier and no raw PII.
type NetworkIncidentEvent struct {
	EventID       string    `json:"event_id"`
	IdentityID    string    `json:"identity_id"`
	Severity      int       `json:"severity"`
	Category      string    `json:"category"`
	Negative      bool      `json:"negative"`
	WeightedScore int       `json:"weighted_score"`
	RiskTier      RiskTier  `json:"risk_tier"`
	// CacheKeys are the identity cache keys other instances must drop.
	CacheKeys  []string  `json:"cache_keys"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TierCount is one row of the risk tier distribution report.
type TierCount struct {
	Tier  RiskTier `json:"tier"`
	Count int64    `json:"count"`
}
