package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"(555) 123-4567", "5551234567"},
		{"555-123-4567", "5551234567"},
		{"5551234567", "5551234567"},
		{"+1 555.123.4567", "15551234567"},
		{"call me", ""},
		{"", ""},
		{"\u0665\u0665\u0665", ""}, // non-ASCII digits are dropped
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("A@B.com"))
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM\n"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Ada", NormalizeName("  Ada  "))
	// Decomposed "e" + combining acute is composed to a single rune.
	assert.Equal(t, "Ren\u00e9", NormalizeName("Rene\u0301"))
}
