package normalize

import (
	"regexp"
	"strings"
)

var rePostalCode = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)

// ExtractPostalCode returns the first five-digit postal code found in the
// text, or "" when none is present. ZIP+4 suffixes are dropped.
func ExtractPostalCode(text string) string {
	m := rePostalCode.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// CanonicalPostalCode trims a bare postal code value down to its five-digit
// form, returning "" when the value does not contain one.
func CanonicalPostalCode(raw string) string {
	return ExtractPostalCode(strings.TrimSpace(raw))
}
