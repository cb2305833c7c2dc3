package formatting

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases, strips diacritics and trims a free-text value so
// watched-substring matching survives the feed's inconsistent casing.
func Fold(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if out, _, err := transform.String(accentStripper, s); err == nil {
		return out
	}
	return s
}

// ContainsFold reports whether needle occurs in haystack under Fold
// normalization. An empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	needle = Fold(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(Fold(haystack), needle)
}
