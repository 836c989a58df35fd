package models

import "time"

// RiskTier is the network-wide classification derived purely from WeightedScore.
type RiskTier string

const (
	RiskTierUnknown  RiskTier = "unknown"
	RiskTierLow      RiskTier = "low"
	RiskTierMedium   RiskTier = "medium"
	RiskTierHigh     RiskTier = "high"
	RiskTierCritical RiskTier = "critical"
)

// AllRiskTiers lists the tiers from least to most severe.
var AllRiskTiers = []RiskTier{RiskTierUnknown, RiskTierLow, RiskTierMedium, RiskTierHigh, RiskTierCritical}

// IdentitySource records how a NetworkIdentity entered the shared store.
type IdentitySource string

const (
	SourceNetwork            IdentitySource = "network"
	SourcePropertyEnrichment IdentitySource = "property_enrichment"
	SourceMerged             IdentitySource = "merged"
)

// Merge is the total transition function for sources: equal sources are kept,
// any two different sources become merged.
func (s IdentitySource) Merge(other IdentitySource) IdentitySource {
	if s == "" {
		return other
	}
	if other == "" || s == other {
		return s
	}
	return SourceMerged
}

// HashKind names the three exact-match lookup keys, in resolution priority order.
type HashKind string

const (
	HashKindPhone   HashKind = "phone"
	HashKindEmail   HashKind = "email"
	HashKindAddress HashKind = "address"
)

// ResolutionOrder is the priority in which hashes are looked up.
var ResolutionOrder = []HashKind{HashKindPhone, HashKindEmail, HashKindAddress}

// NetworkIdentity is the shared, tenant-agnostic record of one real-world contact.
// It never stores raw PII: only one-way hashes and lossy display fragments.
type NetworkIdentity struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	// Hashes are NULL until the fact is known; each is unique across the table.
	PhoneHash   *string `gorm:"type:varchar(64);uniqueIndex:uq_network_identities_phone_hash" json:"-"`
	EmailHash   *string `gorm:"type:varchar(64);uniqueIndex:uq_network_identities_email_hash" json:"-"`
	AddressHash *string `gorm:"type:varchar(64);uniqueIndex:uq_network_identities_address_hash" json:"-"`

	// Display fragments.
	PhoneLast4      string `gorm:"type:varchar(4)" json:"phone_last4,omitempty"`
	EmailDomain     string `gorm:"type:varchar(255)" json:"email_domain,omitempty"`
	AddressFragment string `gorm:"type:varchar(512)" json:"address_fragment,omitempty"`

	RiskTier            RiskTier `gorm:"type:varchar(16);not null;index" json:"risk_tier"`
	WeightedScore       int      `gorm:"not null" json:"weighted_score"`
	TotalIncidents      int      `gorm:"not null" json:"total_incidents"`
	TotalPositiveEvents int      `gorm:"not null" json:"total_positive_events"`
	CleanStreakMonths   int      `gorm:"not null" json:"clean_streak_months"`
	SeenByBusinessCount int      `gorm:"not null" json:"seen_by_business_count"`

	FirstSeenAt    time.Time  `gorm:"not null" json:"first_seen_at"`
	LastSeenAt     time.Time  `gorm:"not null" json:"last_seen_at"`
	LastIncidentAt *time.Time `json:"last_incident_at,omitempty"`

	Source IdentitySource `gorm:"type:varchar(32);not null" json:"source"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the gorm table name.
func (NetworkIdentity) TableName() string { return "network_identities" }

// Hash returns the stored hash for kind, or "" when unknown.
func (n *NetworkIdentity) Hash(kind HashKind) string {
	var p *string
	switch kind {
	case HashKindPhone:
		p = n.PhoneHash
	case HashKindEmail:
		p = n.EmailHash
	case HashKindAddress:
		p = n.AddressHash
	}
	if p == nil {
		return ""
	}
	return *p
}

// SetHash stores hash under kind. Empty hashes are ignored.
func (n *NetworkIdentity) SetHash(kind HashKind, hash string) {
	if hash == "" {
		return
	}
	h := hash
	switch kind {
	case HashKindPhone:
		n.PhoneHash = &h
	case HashKindEmail:
		n.EmailHash = &h
	case HashKindAddress:
		n.AddressHash = &h
	}
}

// IdentityFacts is the hashed, privacy-safe projection of a contact used to resolve
// a NetworkIdentity. Produced by the hashing layer; never contains raw values.
type IdentityFacts struct {
	PhoneHash   string
	EmailHash   string
	AddressHash string

	PhoneLast4      string
	EmailDomain     string
	AddressFragment string
}

// Hash returns the fact hash for kind.
func (f IdentityFacts) Hash(kind HashKind) string {
	switch kind {
	case HashKindPhone:
		return f.PhoneHash
	case HashKindEmail:
		return f.EmailHash
	case HashKindAddress:
		return f.AddressHash
	}
	return ""
}

// Empty reports whether no hash is present.
func (f IdentityFacts) Empty() bool {
	return f.PhoneHash == "" && f.EmailHash == "" && f.AddressHash == ""
}

// IncidentCategoryCount is the per (identity, category) aggregate, kept without
// recording which tenant filed which report.
type IncidentCategoryCount struct {
	IdentityID string    `gorm:"type:varchar(36);primaryKey" json:"-"`
	Category   string    `gorm:"type:varchar(64);primaryKey" json:"category"`
	Count      int       `gorm:"not null" json:"count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides the gorm table name.
func (IncidentCategoryCount) TableName() string { return "incident_category_counts" }

// IdentityReporter records that a tenant, identified only by a keyed hash, has
// reported against an identity. It backs SeenByBusinessCount.
type IdentityReporter struct {
	IdentityID  string    `gorm:"type:varchar(36);primaryKey"`
	ReporterKey string    `gorm:"type:varchar(64);primaryKey"`
	CreatedAt   time.Time
}

// TableName overrides the gorm table name.
func (IdentityReporter) TableName() string { return "identity_reporters" }
