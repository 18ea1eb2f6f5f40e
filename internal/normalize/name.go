// Package normalize canonicalizes the free-text values that flow through the
// catalog: names for duplicate matching, postal codes, and the field formats
// (phone, URL, email, price) enforced by the data-quality analyzer.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// CanonicalName lowercases via Unicode case folding, strips punctuation, and
// collapses runs of whitespace so cosmetic differences never defeat a
// comparison. Apostrophes vanish rather than split tokens, keeping "Joe's"
// and "Joes" identical.
func CanonicalName(raw string) string {
	folded := cases.Fold().String(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r == '\'' || r == '’':
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits a raw name into its canonical whitespace-delimited tokens.
func Tokens(raw string) []string {
	canonical := CanonicalName(raw)
	if canonical == "" {
		return nil
	}
	return strings.Fields(canonical)
}

// Jaccard calculates token-set similarity as intersection over union. Two
// empty sets are treated as identical.
func Jaccard(tokens1, tokens2 []string) float64 {
	if len(tokens1) == 0 && len(tokens2) == 0 {
		return 1.0
	}
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	set1 := make(map[string]struct{}, len(tokens1))
	for _, token := range tokens1 {
		set1[token] = struct{}{}
	}
	set2 := make(map[string]struct{}, len(tokens2))
	for _, token := range tokens2 {
		set2[token] = struct{}{}
	}

	overlap := 0
	for token := range set2 {
		if _, ok := set1[token]; ok {
			overlap++
		}
	}

	union := len(set1) + len(set2) - overlap
	if union == 0 {
		return 1.0
	}
	return float64(overlap) / float64(union)
}
