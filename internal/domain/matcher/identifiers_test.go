package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdentifiers(t *testing.T) {
	got := NormalizeIdentifiers([]string{" Ameli ", "", "SNCF"}, []string{"ameli", "Harmonie Mutuelle"}, nil)

	assert.Equal(t, []string{"ameli", "sncf", "harmonie mutuelle"}, got)
	assert.Empty(t, NormalizeIdentifiers())
}

func TestMatchesIdentifiers(t *testing.T) {
	ids := NormalizeIdentifiers([]string{"ameli", "harmonie mutuelle", "carrefour", "sncf"})

	tests := []struct {
		name     string
		label    string
		distance int
		want     bool
	}{
		{"substring ignores case", "VIR CPAM AMELI 0123", 0, true},
		{"multi-word substring", "PRLV HARMONIE MUTUELLE", 0, true},
		{"fuzzy token", "CB CAREFOUR 12/03", 1, true},
		{"fuzzy disabled", "CB CAREFOUR 12/03", 0, false},
		{"too far", "CB CARFUR 12/03", 1, false},
		{"short tokens never fuzzy", "TRAIN SNCB", 1, false},
		{"multi-word identifier is substring only", "PRLV HARMONIE MUTUELE", 1, false},
		{"empty label", "", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesIdentifiers(tt.label, ids, tt.distance))
		})
	}

	assert.False(t, MatchesIdentifiers("VIR AMELI", nil, 1))
}
