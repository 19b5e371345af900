// Package textnorm canonicalizes free text so spoken answers can be compared
// against target phrases regardless of case, accents or punctuation.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases text, strips diacritics and punctuation, and trims the
// ends. Internal whitespace is preserved as-is, so "el  perro" and "el perro"
// normalize differently.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lowered := strings.ToLower(text)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, lowered)
	if err != nil {
		stripped = lowered
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}

// Equal reports whether a and b normalize to the same text.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
