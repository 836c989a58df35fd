package service

import (
	"regexp"
	"strings"
)

// businessIndicators are whole-word markers of a non-individual owner.
var businessIndicators = map[string]struct{}{
	"LLC": {}, "L.L.C": {}, "INC": {}, "INCORPORATED": {}, "CORP": {}, "CORPORATION": {},
	"COMPANY": {}, "LTD": {}, "LP": {}, "LLP": {}, "PLLC": {}, "PC": {},
	"TRUST": {}, "TRUSTEE": {}, "TRUSTEES": {}, "ESTATE": {}, "REALTY": {},
	"PROPERTIES": {}, "PROPERTY": {}, "HOLDINGS": {}, "INVESTMENTS": {}, "PARTNERS": {},
	"PARTNERSHIP": {}, "ASSOCIATES": {}, "ASSOCIATION": {}, "ASSN": {}, "BANK": {},
	"MINISTRIES": {}, "FOUNDATION": {}, "ENTERPRISES": {},
	"MANAGEMENT": {}, "DEVELOPMENT": {}, "AUTHORITY": {}, "HOA": {}, "CONDOMINIUM": {},
	"COUNTY": {}, "TOWNSHIP": {}, "UNIVERSITY": {}, "SCHOOL": {},
}

// weakBusinessIndicators double as common surnames or given names ("Charlotte Church",
// "Tr Nguyen"). They only mark a business next to another indicator or before "OF",
// as in "CITY OF SPRINGFIELD" or "ACME CO INC".
var weakBusinessIndicators = map[string]struct{}{
	"CO": {}, "TR": {}, "CHURCH": {}, "CITY": {}, "STATE": {}, "GROUP": {},
}

// nameSuffixes are generational suffixes. "V" is left out: as a lone token it is far
// more often a middle initial.
var nameSuffixes = map[string]struct{}{
	"JR": {}, "SR": {}, "II": {}, "III": {}, "IV": {}, "2ND": {}, "3RD": {},
}

// streetTokens mark a query as an address rather than a name.
var streetTokens = map[string]struct{}{
	"st": {}, "street": {}, "ave": {}, "avenue": {}, "rd": {}, "road": {}, "dr": {}, "drive": {},
	"ln": {}, "lane": {}, "blvd": {}, "boulevard": {}, "ct": {}, "court": {}, "pl": {}, "place": {},
	"way": {}, "hwy": {}, "highway": {}, "pkwy": {}, "parkway": {}, "cir": {}, "circle": {},
	"ter": {}, "terrace": {}, "apt": {}, "apartment": {}, "ste": {}, "suite": {}, "unit": {},
}

var (
	tokenSplitter = regexp.MustCompile(`[^A-Z0-9.]+`)
	phoneLike     = regexp.MustCompile(`^[\d\s\-().+]+$`)
	zipPattern    = regexp.MustCompile(`\b\d{5}(-\d{4})?\b`)
	nameToken     = regexp.MustCompile(`^[A-Za-z][A-Za-z'\-.]*,?$`)
)

// ParsedName is the structured form of an owner or customer name.
type ParsedName struct {
	FirstName        string      `json:"first_name,omitempty"`
	LastName         string      `json:"last_name,omitempty"`
	MiddleInitial    string      `json:"middle_initial,omitempty"`
	Suffix           string      `json:"suffix,omitempty"`
	IsBusinessEntity bool        `json:"is_business_entity"`
	SecondaryName    *ParsedName `json:"secondary_name,omitempty"`
}

// IsBusinessEntity reports whether the uppercased name contains a business indicator
// as a whole word.
func IsBusinessEntity(name string) bool {
	var tokens []string
	for _, tok := range tokenSplitter.Split(strings.ToUpper(name), -1) {
		if tok = strings.TrimSuffix(tok, "."); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	for i, tok := range tokens {
		if _, ok := businessIndicators[tok]; ok {
			return true
		}
		if _, ok := weakBusinessIndicators[tok]; !ok {
			continue
		}
		if i+1 < len(tokens) && (tokens[i+1] == "OF" || isIndicator(tokens[i+1])) {
			return true
		}
		if i > 0 && isIndicator(tokens[i-1]) {
			return true
		}
	}
	return false
}

func isIndicator(tok string) bool {
	if _, ok := businessIndicators[tok]; ok {
		return true
	}
	_, ok := weakBusinessIndicators[tok]
	return ok
}

// ParseName parses a public-record owner name. Without a comma the record
// convention "LAST FIRST [MIDDLE]" is assumed; with one, "LAST, FIRST [MIDDLE]".
// A co-owner joined by '&' becomes SecondaryName; a bare first name there inherits
// the primary surname.
func ParseName(name string) ParsedName {
	upper := strings.Join(strings.Fields(strings.ToUpper(name)), " ")
	if upper == "" {
		return ParsedName{}
	}
	if IsBusinessEntity(upper) {
		return ParsedName{IsBusinessEntity: true}
	}

	primaryPart, secondaryPart, hasSecondary := strings.Cut(upper, "&")
	primary := parseRecordOrder(strings.TrimSpace(primaryPart))

	if hasSecondary {
		secondaryPart = strings.TrimSpace(secondaryPart)
		if secondaryPart != "" {
			var secondary ParsedName
			if tokens := strings.Fields(secondaryPart); len(tokens) == 1 {
				secondary = ParsedName{FirstName: cleanToken(tokens[0]), LastName: primary.LastName}
			} else {
				secondary = parseRecordOrder(secondaryPart)
			}
			primary.SecondaryName = &secondary
		}
	}
	return primary
}

// ParseDisplayName parses a name as a person would type it: "FIRST [MIDDLE] LAST"
// or "LAST, FIRST". Used for customer-entered names.
func ParseDisplayName(name string) ParsedName {
	upper := strings.Join(strings.Fields(strings.ToUpper(name)), " ")
	if upper == "" {
		return ParsedName{}
	}
	if IsBusinessEntity(upper) {
		return ParsedName{IsBusinessEntity: true}
	}
	primaryPart, _, _ := strings.Cut(upper, "&")
	primaryPart = strings.TrimSpace(primaryPart)
	if strings.Contains(primaryPart, ",") {
		return parseRecordOrder(primaryPart)
	}

	tokens, suffix := extractSuffix(strings.Fields(primaryPart))
	p := ParsedName{Suffix: suffix}
	switch len(tokens) {
	case 0:
	case 1:
		p.LastName = cleanToken(tokens[0])
	default:
		p.FirstName = cleanToken(tokens[0])
		p.LastName = cleanToken(tokens[len(tokens)-1])
		if len(tokens) > 2 {
			p.MiddleInitial = initial(tokens[1])
		}
	}
	return p
}

func parseRecordOrder(s string) ParsedName {
	var p ParsedName
	if last, rest, ok := strings.Cut(s, ","); ok {
		lastTokens, suffix := extractSuffix(strings.Fields(last))
		restTokens, restSuffix := extractSuffix(strings.Fields(rest))
		p.Suffix = suffix
		if p.Suffix == "" {
			p.Suffix = restSuffix
		}
		p.LastName = cleanToken(strings.Join(lastTokens, " "))
		if len(restTokens) > 0 {
			p.FirstName = cleanToken(restTokens[0])
		}
		if len(restTokens) > 1 {
			p.MiddleInitial = initial(restTokens[1])
		}
		return p
	}

	tokens, suffix := extractSuffix(strings.Fields(s))
	p.Suffix = suffix
	if len(tokens) > 0 {
		p.LastName = cleanToken(tokens[0])
	}
	if len(tokens) > 1 {
		p.FirstName = cleanToken(tokens[1])
	}
	if len(tokens) > 2 {
		p.MiddleInitial = initial(tokens[2])
	}
	return p
}

// extractSuffix removes the first suffix token found after the leading token.
func extractSuffix(tokens []string) ([]string, string) {
	for i := 1; i < len(tokens); i++ {
		if _, ok := nameSuffixes[cleanToken(tokens[i])]; ok {
			out := make([]string, 0, len(tokens)-1)
			out = append(out, tokens[:i]...)
			out = append(out, tokens[i+1:]...)
			return out, cleanToken(tokens[i])
		}
	}
	return tokens, ""
}

func cleanToken(t string) string {
	return strings.Trim(t, ".,")
}

func initial(t string) string {
	t = cleanToken(t)
	if t == "" {
		return ""
	}
	return t[:1]
}

// LooksLikeName is a conservative classifier routing free-text search: it rejects
// anything with a leading digit, an '@', a phone-like shape, a street-type token or
// a ZIP code, and accepts one to four alphabetic tokens.
func LooksLikeName(query string) bool {
	q := strings.TrimSpace(query)
	if q == "" || startsWithDigit(q) || strings.Contains(q, "@") {
		return false
	}
	if phoneLike.MatchString(q) || zipPattern.MatchString(q) {
		return false
	}
	tokens := strings.Fields(q)
	if len(tokens) < 1 || len(tokens) > 4 {
		return false
	}
	for _, tok := range tokens {
		if _, ok := streetTokens[strings.ToLower(cleanToken(tok))]; ok {
			return false
		}
		if !nameToken.MatchString(tok) {
			return false
		}
	}
	return true
}

// CalculateNameSimilarity is a heuristic score in [0, 1] biased toward surname
// agreement. It is not a probability. Business entities score 1 only against the
// identical business name and 0 against any individual.
func CalculateNameSimilarity(nameA, nameB string) float64 {
	a, b := ParseName(nameA), ParseName(nameB)
	if a.IsBusinessEntity != b.IsBusinessEntity {
		return 0
	}
	if a.IsBusinessEntity {
		if NormalizeName(nameA) == NormalizeName(nameB) {
			return 1
		}
		return 0
	}
	return individualSimilarity(a, b)
}

func individualSimilarity(a, b ParsedName) float64 {
	score := 0.0

	switch {
	case a.LastName == "" || b.LastName == "":
	case a.LastName == b.LastName:
		score += 0.5
	case strings.HasPrefix(a.LastName, b.LastName) || strings.HasPrefix(b.LastName, a.LastName):
		score += 0.3
	}

	switch {
	case a.FirstName == "" || b.FirstName == "":
	case a.FirstName == b.FirstName:
		score += 0.4
	case strings.HasPrefix(a.FirstName, b.FirstName) || strings.HasPrefix(b.FirstName, a.FirstName):
		score += 0.2
	case a.FirstName[0] == b.FirstName[0]:
		score += 0.1
	}

	if a.Suffix != "" && a.Suffix == b.Suffix {
		score += 0.1
	}

	if score > 1 {
		score = 1
	}
	return score
}
