package service

import (
	"strings"
	"unicode"
)

// addressAbbreviations maps long street-type words to their canonical short form.
var addressAbbreviations = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"boulevard": "blvd",
	"drive":     "dr",
	"road":      "rd",
	"lane":      "ln",
	"court":     "ct",
	"place":     "pl",
	"apartment": "apt",
	"suite":     "ste",
}

var addressPunctuation = strings.NewReplacer(".", "", ",", "", "#", "")

// NormalizePhone strips every non-digit character.
func NormalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeEmail lowercases and trims.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeAddress lowercases, strips punctuation, collapses whitespace and
// applies the abbreviation table word by word.
func NormalizeAddress(s string) string {
	s = addressPunctuation.Replace(strings.ToLower(s))
	fields := strings.Fields(s)
	for i, f := range fields {
		if short, ok := addressAbbreviations[f]; ok {
			fields[i] = short
		}
	}
	return strings.Join(fields, " ")
}

// NormalizeName lowercases and collapses whitespace. Used for owner-name search columns.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// StreetLine returns the text before the first comma of a free-form address.
func StreetLine(address string) string {
	if i := strings.Index(address, ","); i >= 0 {
		return strings.TrimSpace(address[:i])
	}
	return strings.TrimSpace(address)
}

// CanonicalAddress is the value hashed for the address key: the normalized street
// line followed by the normalized city. Customers and property records both go
// through this so their hashes agree.
func CanonicalAddress(address, city string) string {
	street := StreetLine(address)
	if street == "" {
		return ""
	}
	return NormalizeAddress(street + " " + city)
}

// startsWithDigit reports whether the first non-space rune is a digit.
func startsWithDigit(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		return unicode.IsDigit(r)
	}
	return false
}
