package service

import (
	"fmt"
	"sync/atomic"
)

// ScoringConfig holds every heuristic constant used by the scoring, ledger and
// linkage algorithms. Slices indexed by severity use index severity-1.
type ScoringConfig struct {
	// Tenant-local reliability score.
	BaseScore          int   `mapstructure:"base_score"`
	SeverityDeductions []int `mapstructure:"severity_deductions"`
	LowRiskMinScore    int   `mapstructure:"low_risk_min_score"`
	MediumRiskMinScore int   `mapstructure:"medium_risk_min_score"`
	TrendWindow        int   `mapstructure:"trend_window"`

	// Network incident ledger.
	SeverityWeightMultipliers []int `mapstructure:"severity_weight_multipliers"`
	NegativeSeverityMin       int   `mapstructure:"negative_severity_min"`
	PositiveDecay             int   `mapstructure:"positive_decay"`
	TierCriticalMin           int   `mapstructure:"tier_critical_min"`
	TierHighMin               int   `mapstructure:"tier_high_min"`
	TierMediumMin             int   `mapstructure:"tier_medium_min"`

	// Record linkage.
	AddressBaseConfidence   float64 `mapstructure:"address_base_confidence"`
	AddressCityConfidence   float64 `mapstructure:"address_city_confidence"`
	AddressCountyConfidence float64 `mapstructure:"address_county_confidence"`
	NameBaseConfidence      float64 `mapstructure:"name_base_confidence"`
	NameCityBonus           float64 `mapstructure:"name_city_bonus"`
	NameCountyBonus         float64 `mapstructure:"name_county_bonus"`
	DefinitiveThreshold     float64 `mapstructure:"definitive_threshold"`
	CandidateLimit          int     `mapstructure:"candidate_limit"`
}

// DefaultScoringConfig returns the production constants.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		BaseScore:          100,
		SeverityDeductions: []int{1, 2, 12, 24, 30},
		LowRiskMinScore:    75,
		MediumRiskMinScore: 50,
		TrendWindow:        3,

		// severity>=4 weighs x6, severity 3 weighs x4, severity<=2 weighs x1.
		SeverityWeightMultipliers: []int{1, 1, 4, 6, 6},
		NegativeSeverityMin:       3,
		PositiveDecay:             1,
		TierCriticalMin:           50,
		TierHighMin:               30,
		TierMediumMin:             15,

		AddressBaseConfidence:   0.8,
		AddressCityConfidence:   0.95,
		AddressCountyConfidence: 0.9,
		NameBaseConfidence:      0.6,
		NameCityBonus:           0.2,
		NameCountyBonus:         0.1,
		DefinitiveThreshold:     0.7,
		CandidateLimit:          25,
	}
}

// Validate checks the table shapes and threshold ordering.
func (c ScoringConfig) Validate() error {
	if len(c.SeverityDeductions) != 5 {
		return fmt.Errorf("severity_deductions must have 5 entries, got %d", len(c.SeverityDeductions))
	}
	if len(c.SeverityWeightMultipliers) != 5 {
		return fmt.Errorf("severity_weight_multipliers must have 5 entries, got %d", len(c.SeverityWeightMultipliers))
	}
	if c.BaseScore <= 0 {
		return fmt.Errorf("base_score must be positive")
	}
	if c.MediumRiskMinScore > c.LowRiskMinScore {
		return fmt.Errorf("medium_risk_min_score must not exceed low_risk_min_score")
	}
	if c.TrendWindow < 1 {
		return fmt.Errorf("trend_window must be at least 1")
	}
	if !(c.TierMediumMin > 0 && c.TierMediumMin <= c.TierHighMin && c.TierHighMin <= c.TierCriticalMin) {
		return fmt.Errorf("tier thresholds must satisfy 0 < medium <= high <= critical")
	}
	if c.DefinitiveThreshold <= 0 || c.DefinitiveThreshold > 1 {
		return fmt.Errorf("definitive_threshold must be in (0, 1]")
	}
	if c.CandidateLimit <= 0 {
		return fmt.Errorf("candidate_limit must be positive")
	}
	return nil
}

// ScoringProvider hands out the current ScoringConfig. The config can be swapped at
// runtime by the config watcher; readers always see a complete snapshot.
type ScoringProvider struct {
	current atomic.Pointer[ScoringConfig]
}

// NewScoringProvider creates a provider seeded with cfg.
func NewScoringProvider(cfg ScoringConfig) *ScoringProvider {
	p := &ScoringProvider{}
	p.current.Store(&cfg)
	return p
}

// Get returns the current snapshot.
func (p *ScoringProvider) Get() ScoringConfig {
	return *p.current.Load()
}

// Replace swaps in cfg after validating it.
func (p *ScoringProvider) Replace(cfg ScoringConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.current.Store(&cfg)
	return nil
}
