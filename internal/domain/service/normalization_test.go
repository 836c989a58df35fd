package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5551234567", NormalizePhone("(555) 123-4567"))
	assert.Equal(t, "15551234567", NormalizePhone("+1 555.123.4567"))
	assert.Equal(t, "", NormalizePhone("call me"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123 Main Street", "123 main st"},
		{"123  Main St.", "123 main st"},
		{"45 Oak Avenue, Apartment #4", "45 oak ave apt 4"},
		{"9 Sunset Boulevard Suite 200", "9 sunset blvd ste 200"},
		{"1 Elm Drive", "1 elm dr"},
		{"2 Mill Road", "2 mill rd"},
		{"3 Pine Lane", "3 pine ln"},
		{"4 King Court", "4 king ct"},
		{"5 Queen Place", "5 queen pl"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAddress(tt.in))
		})
	}
}

func TestNormalizationIsIdempotent(t *testing.T) {
	inputs := []string{"(555) 123-4567", " A@B.Com ", "123 Main Street, Springfield", "45 Oak Avenue #4", ""}
	for _, in := range inputs {
		p := NormalizePhone(in)
		assert.Equal(t, p, NormalizePhone(p))
		e := NormalizeEmail(in)
		assert.Equal(t, e, NormalizeEmail(e))
		a := NormalizeAddress(in)
		assert.Equal(t, a, NormalizeAddress(a))
	}
}

func TestCanonicalAddress(t *testing.T) {
	assert.Equal(t, "123 main st springfield", CanonicalAddress("123 Main Street, Apt 2", "Springfield"))
	assert.Equal(t, CanonicalAddress("123 Main St.", "springfield"), CanonicalAddress("123 main street", "SPRINGFIELD"))
	assert.Equal(t, "", CanonicalAddress("  ", "Springfield"))
}
