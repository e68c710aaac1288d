package service

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/glewis05/configurations-toolkit/internal/domain"
)

// LocationMatcher resolves a location name from a parsed document to one
// of the known locations. Document names are frequently abbreviated or
// cased differently from the stored records, so implementations may be
// fuzzy; the import routine depends only on "give me a location for this
// name", not on the heuristic.
type LocationMatcher interface {
	// Match returns the best candidate for the name, or nil when no
	// candidate is close enough to trust.
	Match(name string, candidates []*domain.Location) *domain.Location
}

// FuzzyLocationMatcher matches exact first, then case-insensitive, then
// by word overlap with edit distance as the tiebreak. At least two
// overlapping words are required before a fuzzy match is trusted.
type FuzzyLocationMatcher struct{}

var _ LocationMatcher = FuzzyLocationMatcher{}

// Match implements LocationMatcher.Match
func (FuzzyLocationMatcher) Match(name string, candidates []*domain.Location) *domain.Location {
	for _, loc := range candidates {
		if loc.Name == name {
			return loc
		}
	}

	lower := strings.ToLower(name)
	for _, loc := range candidates {
		if strings.ToLower(loc.Name) == lower {
			return loc
		}
	}

	nameWords := wordSet(lower)
	var best *domain.Location
	bestOverlap := 0
	bestDistance := 0
	for _, loc := range candidates {
		overlap := 0
		for word := range wordSet(strings.ToLower(loc.Name)) {
			if nameWords[word] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		distance := levenshtein.ComputeDistance(lower, strings.ToLower(loc.Name))
		if overlap > bestOverlap || (overlap == bestOverlap && distance < bestDistance) {
			best = loc
			bestOverlap = overlap
			bestDistance = distance
		}
	}
	if bestOverlap >= 2 {
		return best
	}
	return nil
}

func wordSet(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		words[w] = true
	}
	return words
}
