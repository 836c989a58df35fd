package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/turtacn/crn/internal/domain/models"
)

// Hasher derives one-way lookup keys: HMAC-SHA256 keyed by the pepper when one is
// configured, plain SHA-256 otherwise. Both are hex encoded and never decoded.
type Hasher struct {
	pepper []byte
}

// NewHasher creates a Hasher. An empty pepper selects plain SHA-256.
func NewHasher(pepper string) *Hasher {
	return &Hasher{pepper: []byte(pepper)}
}

// Hash digests an already-normalized value. Empty input yields "".
func (h *Hasher) Hash(normalized string) string {
	if normalized == "" {
		return ""
	}
	if len(h.pepper) == 0 {
		sum := sha256.Sum256([]byte(normalized))
		return hex.EncodeToString(sum[:])
	}
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}

// HashPhone normalizes and hashes a raw phone number.
func (h *Hasher) HashPhone(raw string) string { return h.Hash(NormalizePhone(raw)) }

// HashEmail normalizes and hashes a raw email.
func (h *Hasher) HashEmail(raw string) string { return h.Hash(NormalizeEmail(raw)) }

// HashAddress canonicalizes and hashes a raw street address with its city.
func (h *Hasher) HashAddress(address, city string) string {
	return h.Hash(CanonicalAddress(address, city))
}

// ReporterKey derives the opaque key under which a tenant is counted as a reporter.
func (h *Hasher) ReporterKey(tenantID string) string {
	return h.Hash("tenant:" + tenantID)
}

// IdentityFacts hashes the customer's raw facts and derives display fragments.
func (h *Hasher) IdentityFacts(phone, email, address, city string) models.IdentityFacts {
	facts := models.IdentityFacts{
		PhoneHash:   h.HashPhone(phone),
		EmailHash:   h.HashEmail(email),
		AddressHash: h.HashAddress(address, city),
	}
	if facts.PhoneHash != "" {
		facts.PhoneLast4 = PhoneLast4(phone)
	}
	if facts.EmailHash != "" {
		facts.EmailDomain = EmailDomain(email)
	}
	if facts.AddressHash != "" {
		facts.AddressFragment = AddressFragment(address)
	}
	return facts
}

// PhoneLast4 returns the last four digits of a phone number, or all of them when shorter.
func PhoneLast4(raw string) string {
	digits := NormalizePhone(raw)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// EmailDomain returns the lowercased part after the last '@', or "".
func EmailDomain(raw string) string {
	e := NormalizeEmail(raw)
	at := strings.LastIndex(e, "@")
	if at < 0 || at == len(e)-1 {
		return ""
	}
	return e[at+1:]
}

// AddressFragment drops a leading house-number token and keeps the rest of the
// address, including any city and state, as written.
func AddressFragment(raw string) string {
	trimmed := strings.TrimSpace(raw)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return ""
	}
	if !startsWithDigit(fields[0]) {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[1:], " ")
}
