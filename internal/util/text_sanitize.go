package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var pdfArtifacts = strings.NewReplacer(
	"\r\n", "\n",
	"\u00ad", "",
	"\ufb00", "ff",
	"\ufb01", "fi",
	"\ufb02", "fl",
	"\ufb03", "ffi",
	"\ufb04", "ffl",
)

// A lowercase word split across lines with a hyphen.
var hyphenBreak = regexp.MustCompile(`(\p{Ll})-\n[ \t]*(\p{Ll})`)

// SanitizeText cleans a PDF text layer: NUL and other control characters
// are dropped (Postgres text rejects NUL), ligatures and soft hyphens are
// undone, and words hyphenated at a line end are joined again.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = pdfArtifacts.Replace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return '\n'
		case r < 0x20 || r == 0x7f || r == utf8.RuneError:
			return -1
		}
		return r
	}, s)
	s = hyphenBreak.ReplaceAllString(s, "$1$2")
	return strings.TrimSpace(s)
}
