package service

import (
	"math"
	"sort"

	"github.com/turtacn/crn/internal/domain/models"
)

// ReliabilityScorer computes tenant-local reliability from an event log.
// All methods are pure.
type ReliabilityScorer struct {
	cfg ScoringConfig
}

// NewReliabilityScorer creates a scorer bound to cfg.
func NewReliabilityScorer(cfg ScoringConfig) *ReliabilityScorer {
	return &ReliabilityScorer{cfg: cfg}
}

// Deduction returns the score deduction for one event of the given severity.
func (s *ReliabilityScorer) Deduction(severity int) int {
	if !models.ValidSeverity(severity) {
		return 0
	}
	return s.cfg.SeverityDeductions[severity-1]
}

// Score folds events into a score, clamping the running value to [0, BaseScore].
func (s *ReliabilityScorer) Score(events []*models.Event) int {
	score := s.cfg.BaseScore
	for _, e := range events {
		score -= s.Deduction(e.Severity)
		if score < 0 {
			score = 0
		}
		if score > s.cfg.BaseScore {
			score = s.cfg.BaseScore
		}
	}
	return score
}

// RiskLevel classifies a final score.
func (s *ReliabilityScorer) RiskLevel(score int) models.RiskLevel {
	switch {
	case score >= s.cfg.LowRiskMinScore:
		return models.RiskLevelLow
	case score >= s.cfg.MediumRiskMinScore:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelHigh
	}
}

// Trend compares the mean severity of the newest TrendWindow events against the
// mean of up to TrendWindow events immediately before them. Events must be ordered
// oldest first. With no older window the trend is stable.
func (s *ReliabilityScorer) Trend(events []*models.Event) models.Trend {
	w := s.cfg.TrendWindow
	n := len(events)
	if n <= w {
		return models.TrendStable
	}
	recent := events[n-w:]
	olderStart := n - 2*w
	if olderStart < 0 {
		olderStart = 0
	}
	older := events[olderStart : n-w]

	// Compare sums scaled to a common denominator to stay in integers.
	recentSum, olderSum := severitySum(recent), severitySum(older)
	lhs := recentSum * len(older)
	rhs := olderSum * len(recent)
	switch {
	case lhs < rhs:
		return models.TrendImproving
	case lhs > rhs:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func severitySum(events []*models.Event) int {
	sum := 0
	for _, e := range events {
		sum += e.Severity
	}
	return sum
}

// Percentile returns round(100 * |others with score <= mine| / |others|).
// A customer with no peers is at the 100th percentile.
func (s *ReliabilityScorer) Percentile(score int, others []int) int {
	if len(others) == 0 {
		return 100
	}
	atOrBelow := 0
	for _, o := range others {
		if o <= score {
			atOrBelow++
		}
	}
	return int(math.Round(100 * float64(atOrBelow) / float64(len(others))))
}

// Breakdown counts events per category.
func (s *ReliabilityScorer) Breakdown(events []*models.Event) map[string]int {
	out := make(map[string]int)
	for _, e := range events {
		out[e.Category]++
	}
	return out
}

// Profile assembles the full profile for one customer. peerScores are the scores of
// the tenant's other customers.
func (s *ReliabilityScorer) Profile(customerID string, events []*models.Event, peerScores []int) *models.ReliabilityProfile {
	score := s.Score(events)
	return &models.ReliabilityProfile{
		CustomerID: customerID,
		Score:      score,
		RiskLevel:  s.RiskLevel(score),
		Trend:      s.Trend(events),
		Percentile: s.Percentile(score, peerScores),
		Breakdown:  s.Breakdown(events),
		EventCount: len(events),
	}
}

// ScoresByCustomer folds a tenant-wide event log into per-customer scores.
// customerIDs without events score BaseScore.
func (s *ReliabilityScorer) ScoresByCustomer(customerIDs []string, events []*models.Event) map[string]int {
	grouped := make(map[string][]*models.Event, len(customerIDs))
	for _, e := range events {
		grouped[e.CustomerID] = append(grouped[e.CustomerID], e)
	}
	scores := make(map[string]int, len(customerIDs))
	for _, id := range customerIDs {
		evs := grouped[id]
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].CreatedAt.Before(evs[j].CreatedAt) })
		scores[id] = s.Score(evs)
	}
	return scores
}
