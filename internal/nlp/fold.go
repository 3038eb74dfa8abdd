package nlp

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips combining marks, so "Hipótesis" and
// "hipotesis" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

var accentClasses = map[rune]string{
	'a': "[aá]", 'á': "[aá]",
	'e': "[eé]", 'é': "[eé]",
	'i': "[ií]", 'í': "[ií]",
	'o': "[oó]", 'ó': "[oó]",
	'u': "[uúü]", 'ú': "[uúü]", 'ü': "[uúü]",
	'n': "[nñ]", 'ñ': "[nñ]",
}

// AccentInsensitive turns a literal phrase into a regexp fragment that matches
// it with or without Spanish diacritics and with any run of whitespace between
// words. Combine with (?i) for case-insensitivity.
func AccentInsensitive(phrase string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(phrase)) {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteString(`\s+`)
			}
			space = true
			continue
		}
		space = false
		if cls, ok := accentClasses[r]; ok {
			b.WriteString(cls)
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return b.String()
}
