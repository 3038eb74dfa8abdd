package nlp

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Token struct {
	Text  string
	Start int
	End   int
}

type Sentence struct {
	Text  string
	Start int
	End   int
}

// Tokenize splits s into runs of letters and digits. Offsets are byte offsets
// into s.
func Tokenize(s string) []Token {
	out := make([]Token, 0, len(s)/6)
	start := -1
	for i, r := range s {
		word := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case word && start < 0:
			start = i
		case !word && start >= 0:
			out = append(out, Token{Text: s[start:i], Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, Token{Text: s[start:], Start: start, End: len(s)})
	}
	return out
}

// Sentences splits on terminal punctuation and on blank lines. Single line
// breaks are kept inside a sentence because PDF text wraps mid-sentence.
func Sentences(s string) []Sentence {
	out := make([]Sentence, 0, 16)
	start := 0
	emit := func(end int) {
		text := strings.TrimSpace(s[start:end])
		if text != "" {
			lead := strings.Index(s[start:end], text)
			out = append(out, Sentence{Text: text, Start: start + lead, End: start + lead + len(text)})
		}
		start = end
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch r {
		case '.', '!', '?':
			emit(i + size)
		case '\n':
			rest := strings.TrimLeft(s[i+size:], " \t\r")
			if strings.HasPrefix(rest, "\n") {
				emit(i + size)
			}
		}
		i += size
	}
	emit(len(s))
	return out
}

func isCapitalized(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsUpper(r)
}
