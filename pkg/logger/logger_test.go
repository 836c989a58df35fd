package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		key   string
		value interface{}
		want  interface{}
	}{
		{"phone", "555-123-4567", "***REDACTED***"},
		{"customer_email", "a@b.com", "***REDACTED***"},
		{"phone_hash", "abcdef", "abcdef"},
		{"phone_last4", "4567", "4567"},
		{"email_domain", "b.com", "b.com"},
		{"address_fragment", "main st", "main st"},
		{"jwt_secret", "0123456789abcdef", "0123***cdef"},
		{"pepper", "short", "***"},
		{"customer_id", "c-1", "c-1"},
		{"severity", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeValue(tt.key, tt.value))
		})
	}
}

func TestHashPrefix(t *testing.T) {
	f := HashPrefix("phone_hash", "0123456789abcdefdeadbeef")
	assert.Equal(t, "0123456789ab", f.Value)

	short := HashPrefix("phone_hash", "abc")
	assert.Equal(t, "abc", short.Value)
}
