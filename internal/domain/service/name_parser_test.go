package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBusinessEntity(t *testing.T) {
	assert.True(t, IsBusinessEntity("Smith Family Trust"))
	assert.True(t, IsBusinessEntity("ACME HOLDINGS LLC"))
	assert.True(t, IsBusinessEntity("Oak Realty, Inc."))
	assert.True(t, IsBusinessEntity("estate of john doe"))
	assert.False(t, IsBusinessEntity("SMITH JOHN A"))
	// Whole words only.
	assert.False(t, IsBusinessEntity("TRUSTMAN ROBERT"))
	assert.False(t, IsBusinessEntity("COLLINS MARY"))

	// Tokens that are also surnames need a second indicator or "OF".
	assert.False(t, IsBusinessEntity("Charlotte Church"))
	assert.False(t, IsBusinessEntity("Mary State"))
	assert.False(t, IsBusinessEntity("Smith Co"))
	assert.False(t, IsBusinessEntity("Tr Nguyen"))
	assert.False(t, IsBusinessEntity("CITY JAMES"))
	assert.False(t, IsBusinessEntity("GROUP ALAN"))
	assert.True(t, IsBusinessEntity("CITY OF SPRINGFIELD"))
	assert.True(t, IsBusinessEntity("State of Illinois"))
	assert.True(t, IsBusinessEntity("FIRST BAPTIST CHURCH OF SPRINGFIELD"))
	assert.True(t, IsBusinessEntity("ACME CO INC"))
	assert.True(t, IsBusinessEntity("Oak Group LLC"))
}

func TestParseNameRecordOrder(t *testing.T) {
	p := ParseName("SMITH JOHN A")
	assert.Equal(t, "SMITH", p.LastName)
	assert.Equal(t, "JOHN", p.FirstName)
	assert.Equal(t, "A", p.MiddleInitial)
	assert.False(t, p.IsBusinessEntity)
}

func TestParseNameCommaOrder(t *testing.T) {
	p := ParseName("Smith, John Albert")
	assert.Equal(t, "SMITH", p.LastName)
	assert.Equal(t, "JOHN", p.FirstName)
	assert.Equal(t, "A", p.MiddleInitial)
}

func TestParseNameSuffix(t *testing.T) {
	p := ParseName("SMITH JR, JOHN")
	assert.Equal(t, "SMITH", p.LastName)
	assert.Equal(t, "JOHN", p.FirstName)
	assert.Equal(t, "JR", p.Suffix)

	q := ParseName("DOE JOHN III")
	assert.Equal(t, "DOE", q.LastName)
	assert.Equal(t, "JOHN", q.FirstName)
	assert.Equal(t, "III", q.Suffix)
	assert.Empty(t, q.MiddleInitial)
}

func TestParseNameSecondaryOwner(t *testing.T) {
	p := ParseName("SMITH JOHN & MARY")
	require.NotNil(t, p.SecondaryName)
	assert.Equal(t, "MARY", p.SecondaryName.FirstName)
	assert.Equal(t, "SMITH", p.SecondaryName.LastName)

	q := ParseName("SMITH JOHN & JONES MARY")
	require.NotNil(t, q.SecondaryName)
	assert.Equal(t, "JONES", q.SecondaryName.LastName)
	assert.Equal(t, "MARY", q.SecondaryName.FirstName)
}

func TestParseNameBusiness(t *testing.T) {
	p := ParseName("Smith Family Trust")
	assert.True(t, p.IsBusinessEntity)
	assert.Empty(t, p.LastName)
	assert.Empty(t, p.FirstName)
}

func TestParseDisplayName(t *testing.T) {
	p := ParseDisplayName("John A. Smith Jr.")
	assert.Equal(t, "JOHN", p.FirstName)
	assert.Equal(t, "SMITH", p.LastName)
	assert.Equal(t, "A", p.MiddleInitial)
	assert.Equal(t, "JR", p.Suffix)

	assert.Equal(t, "SMITH", ParseDisplayName("Smith").LastName)
	assert.Equal(t, "SMITH", ParseDisplayName("Smith, John").LastName)
}

func TestLooksLikeName(t *testing.T) {
	accept := []string{"John Smith", "smith", "Mary Ann O'Neil", "Smith, John", "Anne-Marie Dubois"}
	reject := []string{
		"", "123 Main St", "jane@example.com", "(555) 123-4567", "555-1234",
		"Main Street", "Springfield 62704", "a b c d e", "Oak Ave",
	}
	for _, q := range accept {
		assert.True(t, LooksLikeName(q), q)
	}
	for _, q := range reject {
		assert.False(t, LooksLikeName(q), q)
	}
}

func TestCalculateNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical individuals", "SMITH JOHN", "SMITH JOHN", 0.9},
		{"identical with suffix", "SMITH JOHN JR", "SMITH JOHN JR", 1.0},
		{"surname only", "SMITH JOHN", "SMITH MARY", 0.5},
		{"surname prefix", "SMITH JOHN", "SMITHSON JOHN", 0.7},
		{"first name prefix", "SMITH JON", "SMITH JONATHAN", 0.7},
		{"first initial only", "SMITH JOHN", "SMITH JANE", 0.6},
		{"nothing shared", "SMITH JOHN", "DOE MARY", 0},
		{"trust vs individual", "Smith Family Trust", "SMITH JOHN", 0},
		{"individual vs trust", "SMITH JOHN", "Smith Family Trust", 0},
		{"same business", "ACME LLC", "acme  llc", 1.0},
		{"different business", "ACME LLC", "ACME INC", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateNameSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
