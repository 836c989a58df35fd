package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScoringConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultScoringConfig().Validate())
}

func TestScoringConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScoringConfig)
	}{
		{"short deductions", func(c *ScoringConfig) { c.SeverityDeductions = []int{1, 2} }},
		{"short multipliers", func(c *ScoringConfig) { c.SeverityWeightMultipliers = nil }},
		{"zero base", func(c *ScoringConfig) { c.BaseScore = 0 }},
		{"risk bands inverted", func(c *ScoringConfig) { c.MediumRiskMinScore = 80 }},
		{"zero trend window", func(c *ScoringConfig) { c.TrendWindow = 0 }},
		{"tiers out of order", func(c *ScoringConfig) { c.TierHighMin = 60 }},
		{"threshold above one", func(c *ScoringConfig) { c.DefinitiveThreshold = 1.5 }},
		{"no candidates", func(c *ScoringConfig) { c.CandidateLimit = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScoringConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestScoringProviderReplace(t *testing.T) {
	p := NewScoringProvider(DefaultScoringConfig())

	bad := DefaultScoringConfig()
	bad.CandidateLimit = -1
	assert.Error(t, p.Replace(bad))
	assert.Equal(t, 25, p.Get().CandidateLimit)

	next := DefaultScoringConfig()
	next.TierCriticalMin = 60
	require.NoError(t, p.Replace(next))
	assert.Equal(t, 60, p.Get().TierCriticalMin)
	assert.Equal(t, "high", string(NewIncidentLedger(p.Get()).Tier(55)))
}
