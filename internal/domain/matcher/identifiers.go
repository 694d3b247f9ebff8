package matcher

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Tokens shorter than this never match fuzzily; "sncf" vs "sncb" is a
// different company, not a typo.
const minFuzzyLength = 5

// NormalizeIdentifiers lowercases, trims and de-duplicates identifiers
// from all lists, dropping empty entries.
func NormalizeIdentifiers(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, id := range list {
			id = strings.ToLower(strings.TrimSpace(id))
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// MatchesIdentifiers reports whether label contains one of the normalized
// identifiers, or has a token within maxDistance edits of a single-word
// identifier.
func MatchesIdentifiers(label string, identifiers []string, maxDistance int) bool {
	if len(identifiers) == 0 || label == "" {
		return false
	}
	label = strings.ToLower(label)
	for _, id := range identifiers {
		if strings.Contains(label, id) {
			return true
		}
	}
	if maxDistance <= 0 {
		return false
	}

	tokens := strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, id := range identifiers {
		if len(id) < minFuzzyLength || strings.ContainsFunc(id, unicode.IsSpace) {
			continue
		}
		for _, tok := range tokens {
			if len(tok) < minFuzzyLength {
				continue
			}
			if levenshtein.ComputeDistance(tok, id) <= maxDistance {
				return true
			}
		}
	}
	return false
}
