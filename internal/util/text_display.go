package util

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"tesisflow/internal/nlp"
)

const stemRunes = 6

var stopwords = map[string]struct{}{
	"el": {}, "la": {}, "los": {}, "las": {}, "un": {}, "una": {}, "de": {}, "del": {}, "que": {},
	"qué": {}, "con": {}, "por": {}, "para": {}, "como": {}, "cómo": {}, "cual": {}, "cuál": {},
	"cuales": {}, "cuáles": {}, "quien": {}, "quién": {}, "quienes": {}, "quiénes": {}, "son": {},
	"fue": {}, "fueron": {}, "este": {}, "esta": {}, "estos": {}, "estas": {}, "sus": {}, "hay": {},
	"cuanto": {}, "cuánto": {}, "cuantos": {}, "cuántos": {}, "cuanta": {}, "cuánta": {}, "cuantas": {},
	"cuántas": {}, "donde": {}, "dónde": {}, "cuando": {}, "cuándo": {}, "tiene": {}, "tienen": {},
	"the": {}, "and": {}, "what": {}, "which": {}, "with": {}, "from": {},
}

// IsStopword reports whether the lowercased word w carries no topical meaning.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// QueryTerms returns the lowercased content words of a question, without
// Spanish and English stopwords or words shorter than three runes.
func QueryTerms(s string) []string {
	seen := map[string]struct{}{}
	terms := make([]string, 0, 8)
	for _, tok := range nlp.Tokenize(strings.ToLower(s)) {
		w := tok.Text
		if utf8.RuneCountInString(w) < 3 || IsStopword(w) {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}

// QueryStems folds each query term and keeps its first six runes, so
// "objetivos" matches "Objetivo" and "hipótesis" matches "HIPOTESIS".
func QueryStems(s string) []string {
	terms := QueryTerms(s)
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		f := nlp.Fold(t)
		if utf8.RuneCountInString(f) > stemRunes {
			f = string([]rune(f)[:stemRunes])
		}
		out = append(out, f)
	}
	return out
}

// Stems that occur in almost any thesis. They add to a match but cannot make
// one on their own.
var genericStems = map[string]struct{}{
	"tesis": {}, "estudi": {}, "invest": {}, "trabaj": {}, "genera": {},
}

// KeyStems drops generic thesis vocabulary from stems. When nothing else is
// left the stems are returned unchanged.
func KeyStems(stems []string) []string {
	out := make([]string, 0, len(stems))
	for _, st := range stems {
		if _, ok := genericStems[st]; !ok {
			out = append(out, st)
		}
	}
	if len(out) == 0 {
		return stems
	}
	return out
}

// StemHits counts how many stems occur in the folded text.
func StemHits(folded string, stems []string) int {
	n := 0
	for _, st := range stems {
		if strings.Contains(folded, st) {
			n++
		}
	}
	return n
}

func DisplaySnippet(s string, maxRunes int) string {
	return clean(s, maxRunes)
}

// DisplayEvidenceSnippet narrows a chunk to the sentences that best match
// query. The two best scoring sentences are kept in reading order.
func DisplayEvidenceSnippet(chunkText, query string, maxRunes int) string {
	stems := QueryStems(query)
	sentences := nlp.Sentences(chunkText)
	if len(stems) == 0 || len(sentences) == 0 {
		return clean(chunkText, maxRunes)
	}

	type scored struct {
		idx   int
		text  string
		score int
	}
	list := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		list = append(list, scored{idx: i, text: s.Text, score: StemHits(nlp.Fold(s.Text), stems)})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].score == list[j].score {
			return len(list[i].text) < len(list[j].text)
		}
		return list[i].score > list[j].score
	})
	if list[0].score == 0 {
		return clean(chunkText, maxRunes)
	}

	keep := list[:1]
	if len(list) > 1 && list[1].score > 0 {
		keep = list[:2]
		if keep[1].idx < keep[0].idx {
			keep[0], keep[1] = keep[1], keep[0]
		}
	}
	parts := make([]string, 0, len(keep))
	for _, k := range keep {
		parts = append(parts, strings.TrimSpace(k.text))
	}
	return clean(strings.Join(parts, " "), maxRunes)
}

// SnippetAround returns a cleaned window of text centered on the byte range
// [start,end), widened by radius runes on each side.
func SnippetAround(text string, start, end, radius, maxRunes int) string {
	start = max(0, min(start, len(text)))
	end = max(start, min(end, len(text)))
	before := []rune(text[:start])
	after := []rune(text[end:])
	from := max(0, len(before)-radius)
	to := min(radius, len(after))
	return clean(string(before[from:])+text[start:end]+string(after[:to]), maxRunes)
}

// clean sanitizes s for display, splits words glued together by the PDF
// text layer, collapses whitespace and cuts to maxRunes with an ellipsis.
func clean(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 420
	}
	s = SanitizeText(s)

	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = b.Len() > 0
			prev = ' '
			continue
		}
		if !unicode.IsPrint(r) {
			continue
		}
		if space || (prev != ' ' && glued(prev, r)) {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
		prev = r
	}
	out := b.String()
	if utf8.RuneCountInString(out) > maxRunes {
		return strings.TrimSpace(string([]rune(out)[:maxRunes])) + "..."
	}
	return out
}

// glued reports a lower-to-upper or letter-to-digit transition, which in PDF
// text usually marks two words printed without a space.
func glued(a, b rune) bool {
	switch {
	case a == 0:
		return false
	case unicode.IsLower(a) && unicode.IsUpper(b):
		return true
	case unicode.IsLetter(a) && unicode.IsDigit(b):
		return true
	}
	return false
}
