package nlp

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

//go:embed data/es.dic
var defaultWords string

const spellAlphabet = "abcdefghijklmnopqrstuvwxyzáéíóúüñ"

// Dictionary is a ranked Spanish word list. Lower rank means more frequent.
type Dictionary struct {
	rank   map[string]int
	folded map[string]struct{}
}

func NewDictionary(words ...string) *Dictionary {
	d := &Dictionary{rank: map[string]int{}, folded: map[string]struct{}{}}
	d.Add(words...)
	return d
}

// LoadDictionary reads a word list in the es.dic format. Each entry expands
// to its affixed forms, all sharing the entry's rank.
func LoadDictionary(r io.Reader) (*Dictionary, error) {
	d := NewDictionary()
	lines := map[string][]string{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		var lineForms []string
		for _, tok := range fields {
			if isNumber(tok) {
				continue
			}
			var forms []string
			if compound, base, ok := strings.Cut(tok, "="); ok {
				baseForms, known := lines[strings.ToLower(base)]
				if !known || !strings.HasSuffix(compound, base) {
					return nil, fmt.Errorf("dictionary: bad compound %q", tok)
				}
				prefix := strings.ToLower(strings.TrimSuffix(compound, base))
				for _, f := range baseForms {
					forms = append(forms, prefix+f)
				}
			} else {
				forms = expand(tok)
			}
			d.addForms(forms)
			lineForms = append(lineForms, forms...)
		}
		head, _, _ := strings.Cut(fields[0], "/")
		head, _, _ = strings.Cut(head, "=")
		lines[strings.ToLower(head)] = lineForms
	}
	return d, sc.Err()
}

// DefaultDictionary returns the embedded word list, extended by the file at
// extraPath when it is non-empty. Extra entries rank after embedded ones.
func DefaultDictionary(extraPath string) (*Dictionary, error) {
	if extraPath == "" {
		return LoadDictionary(strings.NewReader(defaultWords))
	}
	f, err := os.Open(extraPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadDictionary(io.MultiReader(strings.NewReader(defaultWords), strings.NewReader("\n"), f))
}

func (d *Dictionary) Add(words ...string) {
	for _, w := range words {
		d.addForms([]string{w})
	}
}

// addForms registers forms under a single new rank.
func (d *Dictionary) addForms(forms []string) {
	r := len(d.rank)
	for _, w := range forms {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := d.rank[w]; !ok {
			d.rank[w] = r
		}
		d.folded[Fold(w)] = struct{}{}
	}
}

func isNumber(tok string) bool {
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return tok != ""
}

func (d *Dictionary) Len() int { return len(d.rank) }

// Known accepts exact entries, plural and gender inflections of entries, and
// accent-less spellings of entries. Missing accents are reported elsewhere.
func (d *Dictionary) Known(word string) bool {
	w := strings.ToLower(word)
	for _, v := range inflections(w) {
		if _, ok := d.rank[v]; ok {
			return true
		}
		if _, ok := d.folded[Fold(v)]; ok {
			return true
		}
	}
	return false
}

func inflections(w string) []string {
	out := []string{w}
	stem := w
	switch {
	case strings.HasSuffix(w, "es") && utf8.RuneCountInString(w) > 4:
		out = append(out, strings.TrimSuffix(w, "es"), strings.TrimSuffix(w, "s"))
		stem = strings.TrimSuffix(w, "s")
	case strings.HasSuffix(w, "s") && utf8.RuneCountInString(w) > 3:
		stem = strings.TrimSuffix(w, "s")
		out = append(out, stem)
	}
	switch {
	case strings.HasSuffix(stem, "a"):
		out = append(out, strings.TrimSuffix(stem, "a")+"o")
	case strings.HasSuffix(stem, "o"):
		out = append(out, strings.TrimSuffix(stem, "o")+"a")
	}
	return out
}

// Suggest returns the most frequent entry one edit away from word. Edits
// confined to the last rune are ignored: those are usually inflections the
// list does not spell out ("analiza" against "analizar"), not typos.
func (d *Dictionary) Suggest(word string) (string, bool) {
	w := strings.ToLower(word)
	best, bestRank := "", -1
	for _, cand := range edits1(w) {
		r, ok := d.rank[cand]
		if !ok || tailEdit(w, cand) {
			continue
		}
		if bestRank < 0 || r < bestRank {
			best, bestRank = cand, r
		}
	}
	return best, bestRank >= 0
}

func tailEdit(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	lcp := 0
	for lcp < n && ra[lcp] == rb[lcp] {
		lcp++
	}
	return lcp >= n-1
}

func edits1(w string) []string {
	rs := []rune(w)
	alpha := []rune(spellAlphabet)
	out := make([]string, 0, len(rs)*len(alpha)*2+len(rs)*2)
	for i := 0; i <= len(rs); i++ {
		left, right := rs[:i], rs[i:]
		if len(right) > 0 {
			out = append(out, string(left)+string(right[1:]))
		}
		if len(right) > 1 {
			out = append(out, string(left)+string(right[1])+string(right[0])+string(right[2:]))
		}
		for _, c := range alpha {
			if len(right) > 0 && c != right[0] {
				out = append(out, string(left)+string(c)+string(right[1:]))
			}
			out = append(out, string(left)+string(c)+string(right))
		}
	}
	return out
}

// SpellChecker flags lowercase words that are not in the dictionary but have a
// close dictionary neighbour. Capitalized words are treated as names.
type SpellChecker struct {
	dict   *Dictionary
	minLen int
}

func NewSpellChecker(d *Dictionary) *SpellChecker {
	return &SpellChecker{dict: d, minLen: 4}
}

func (s *SpellChecker) Check(word string) (string, bool) {
	if s == nil || s.dict == nil {
		return "", false
	}
	if utf8.RuneCountInString(word) < s.minLen || isCapitalized(word) || hasDigit(word) {
		return "", false
	}
	if s.dict.Known(word) {
		return "", false
	}
	return s.dict.Suggest(word)
}

func hasDigit(w string) bool {
	for _, r := range w {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
