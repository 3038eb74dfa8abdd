package vector

import (
	"strings"
	"unicode/utf8"
)

// Context returns text when it fits in limit runes. Longer texts are cut down
// to the chunks most similar to question, best first, and to the first limit
// runes of text when no chunk matches. index is only called for long texts.
func Context(text, question string, limit int, index func() *Index) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	var b strings.Builder
	if idx := index(); idx.Len() > 0 {
		used := 0
		for _, m := range idx.Search(question, 0) {
			n := utf8.RuneCountInString(m.Text)
			if used+n > limit {
				break
			}
			b.WriteString(m.Text)
			b.WriteString("\n\n")
			used += n + 2
		}
	}
	if b.Len() == 0 {
		return string([]rune(text)[:limit])
	}
	return b.String()
}
