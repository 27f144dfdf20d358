// Package match implements the name comparison rules shared by every theme
// lookup: names are compared in a normalized form that ignores case, spaces,
// hyphens and underscores.
package match

import (
	"strings"
	"unicode"
)

// Normalize returns the comparison form of name. Normalize is idempotent.
func Normalize(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

// Matches reports whether the normalized query is a substring of the
// normalized candidate. The relation is asymmetric: the query is always the
// partial side, so "tokyo" matches "Tokyo Night" but not the reverse.
func Matches(query, candidate string) bool {
	return strings.Contains(Normalize(candidate), Normalize(query))
}

// Equal reports whether a and b have the same normalized form.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Set is a membership set keyed by normalized name.
type Set map[string]struct{}

// NewSet builds a Set from names.
func NewSet(names []string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[Normalize(n)] = struct{}{}
	}
	return s
}

// Has reports whether a name with the same normalized form is in the set.
func (s Set) Has(name string) bool {
	_, ok := s[Normalize(name)]
	return ok
}
