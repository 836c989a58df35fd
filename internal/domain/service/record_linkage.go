package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository"
)

const (
	// LinkagePassAddress labels candidates from the address pass in metrics.
	LinkagePassAddress = "address"
	// LinkagePassName labels candidates from the name pass in metrics.
	LinkagePassName = "name"
)

// LinkageSubject is what the linker knows about the person being matched.
type LinkageSubject struct {
	Name    string
	Address string
	City    string
	County  string
}

// RecordLinker ranks property records against a subject. The address pass runs
// first; the name pass runs only when the address pass finds nothing.
type RecordLinker struct {
	properties repository.PropertyRepository
	scoring    *ScoringProvider
	metrics    Metrics
}

// NewRecordLinker creates a linker reading its thresholds from scoring on every call.
func NewRecordLinker(properties repository.PropertyRepository, scoring *ScoringProvider, metrics Metrics) *RecordLinker {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &RecordLinker{properties: properties, scoring: scoring, metrics: metrics}
}

func (l *RecordLinker) cfg() ScoringConfig { return l.scoring.Get() }

// FindCandidates returns candidates sorted by confidence, highest first. Ties keep
// the order returned by the store.
func (l *RecordLinker) FindCandidates(ctx context.Context, subject LinkageSubject) ([]models.RankedCandidate, error) {
	candidates, err := l.addressPass(ctx, subject)
	if err != nil {
		return nil, err
	}
	pass := LinkagePassAddress
	if len(candidates) == 0 {
		pass = LinkagePassName
		candidates, err = l.namePass(ctx, subject)
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	confidences := make([]float64, len(candidates))
	for i := range candidates {
		candidates[i].Definitive = l.IsDefinitive(candidates[i].Confidence)
		confidences[i] = candidates[i].Confidence
	}
	if len(candidates) > 0 {
		l.metrics.RecordLinkageCandidates(pass, confidences)
	}
	return candidates, nil
}

// IsDefinitive reports whether a confidence is high enough to auto-link.
func (l *RecordLinker) IsDefinitive(confidence float64) bool {
	return confidence >= l.cfg().DefinitiveThreshold
}

// BestDefinitive returns the top candidate when it is definitive.
func BestDefinitive(candidates []models.RankedCandidate) (models.RankedCandidate, bool) {
	if len(candidates) == 0 || !candidates[0].Definitive {
		return models.RankedCandidate{}, false
	}
	return candidates[0], true
}

func (l *RecordLinker) addressPass(ctx context.Context, s LinkageSubject) ([]models.RankedCandidate, error) {
	pattern := NormalizeAddress(StreetLine(s.Address))
	if pattern == "" {
		return nil, nil
	}
	records, err := l.properties.SearchByAddress(ctx, pattern, l.cfg().CandidateLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.RankedCandidate, 0, len(records))
	for _, r := range records {
		out = append(out, models.RankedCandidate{
			Property:   r,
			MatchType:  models.MatchTypeAddress,
			Confidence: l.AddressConfidence(r, s.City, s.County),
		})
	}
	return out, nil
}

// AddressConfidence scores an address-pass hit.
func (l *RecordLinker) AddressConfidence(r *models.PropertyRecord, city, county string) float64 {
	conf := l.cfg().AddressBaseConfidence
	if textContains(r.Municipality, city) {
		conf = l.cfg().AddressCityConfidence
	}
	if sameText(r.County, county) && conf < l.cfg().AddressCountyConfidence {
		conf = l.cfg().AddressCountyConfidence
	}
	return roundConfidence(conf)
}

func (l *RecordLinker) namePass(ctx context.Context, s LinkageSubject) ([]models.RankedCandidate, error) {
	if strings.TrimSpace(s.Name) == "" || IsBusinessEntity(s.Name) {
		return nil, nil
	}
	parsed := ParseDisplayName(s.Name)
	if parsed.LastName == "" {
		return nil, nil
	}
	terms := []string{strings.ToLower(parsed.LastName)}
	if parsed.FirstName != "" {
		terms = append(terms, strings.ToLower(parsed.FirstName))
	}

	records, err := l.properties.SearchByOwner(ctx, terms, strings.TrimSpace(s.County), l.cfg().CandidateLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.RankedCandidate, 0, len(records))
	for _, r := range records {
		// Business owners never link to individuals.
		if IsBusinessEntity(r.OwnerName) || !r.IsResidential() {
			continue
		}
		out = append(out, models.RankedCandidate{
			Property:   r,
			MatchType:  models.MatchTypeName,
			Confidence: l.NameConfidence(r, s.City, s.County),
		})
	}
	return out, nil
}

// NameConfidence scores a name-pass hit.
func (l *RecordLinker) NameConfidence(r *models.PropertyRecord, city, county string) float64 {
	conf := l.cfg().NameBaseConfidence
	if textContains(r.Municipality, city) || textContains(city, r.Municipality) {
		conf += l.cfg().NameCityBonus
	}
	if sameText(r.County, county) {
		conf += l.cfg().NameCountyBonus
	}
	if conf > 1 {
		conf = 1
	}
	return roundConfidence(conf)
}

// textContains reports whether haystack contains a non-empty needle, ignoring case.
func textContains(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" || strings.TrimSpace(haystack) == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sameText(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func roundConfidence(c float64) float64 {
	return math.Round(c*1000) / 1000
}
