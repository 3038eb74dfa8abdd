package nlp

import (
	"strings"
	"unicode/utf8"
)

// Affix expansion for the word list. Flags follow data/es.dic: S plural,
// G feminine, M adverb, V conjugation, E/O/I stem change.

const vowels = "aeiouáéíóúü"

var (
	unaccent = map[rune]rune{'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u'}
	accent   = map[rune]rune{'a': 'á', 'e': 'é', 'i': 'í', 'o': 'ó', 'u': 'ú'}
)

func isVowel(r rune) bool { return strings.ContainsRune(vowels, r) }

func expand(entry string) []string {
	word, flags, _ := strings.Cut(entry, "/")
	word = strings.ToLower(word)
	if word == "" {
		return nil
	}
	out := []string{word}
	if strings.ContainsRune(flags, 'V') {
		var change byte
		for _, c := range []byte("EOI") {
			if strings.IndexByte(flags, c) >= 0 {
				change = c
			}
		}
		out = append(out, conjugate(word, change)...)
	}
	bases := []string{word}
	if strings.ContainsRune(flags, 'G') {
		if f, ok := feminine(word); ok {
			bases = append(bases, f)
			out = append(out, f)
		}
	}
	if strings.ContainsRune(flags, 'S') {
		for _, b := range bases {
			out = append(out, plurals(b)...)
		}
	}
	if strings.ContainsRune(flags, 'M') {
		out = append(out, adverb(word))
	}
	return out
}

// vowelGroups returns the rune ranges of each run of vowels in w.
func vowelGroups(w []rune) [][2]int {
	var out [][2]int
	start := -1
	for i, r := range w {
		switch {
		case isVowel(r) && start < 0:
			start = i
		case !isVowel(r) && start >= 0:
			out = append(out, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, [2]int{start, len(w)})
	}
	return out
}

func hasAccent(rs []rune) bool {
	for _, r := range rs {
		if _, ok := unaccent[r]; ok {
			return true
		}
	}
	return false
}

func stripGroup(w []rune, g [2]int) string {
	out := append([]rune(nil), w...)
	for i := g[0]; i < g[1]; i++ {
		if r, ok := unaccent[out[i]]; ok {
			out[i] = r
		}
	}
	return string(out)
}

// stressGroup writes the accent on the first strong vowel of g, or on its
// last vowel when g has none.
func stressGroup(w []rune, g [2]int) string {
	out := append([]rune(nil), w...)
	at := g[1] - 1
	for i := g[0]; i < g[1]; i++ {
		if strings.ContainsRune("aeo", out[i]) {
			at = i
			break
		}
	}
	if r, ok := accent[out[at]]; ok {
		out[at] = r
	}
	return string(out)
}

// plurals follows the written-accent rules: canción > canciones,
// examen > exámenes, luz > luces; unstressed -s words stay invariant.
func plurals(word string) []string {
	w := []rune(word)
	if len(w) == 0 {
		return nil
	}
	last := w[len(w)-1]
	switch {
	case strings.ContainsRune("aeiouáéó", last):
		return []string{word + "s"}
	case last == 'í' || last == 'ú':
		return []string{word + "es", word + "s"}
	case last == 'y':
		return []string{word + "es"}
	case last == 'z':
		return []string{string(w[:len(w)-1]) + "ces"}
	}
	groups := vowelGroups(w)
	if len(groups) == 0 {
		return nil
	}
	final := groups[len(groups)-1]
	stressedEnd := hasAccent(w[final[0]:final[1]])
	switch {
	case last == 's' || last == 'x':
		if len(groups) == 1 {
			return []string{word + "es"}
		}
		if stressedEnd {
			return []string{stripGroup(w, final) + "es"}
		}
		return []string{word}
	case stressedEnd:
		return []string{stripGroup(w, final) + "es"}
	case last == 'n' && len(groups) >= 2 && !hasAccent(w):
		return []string{stressGroup(w, groups[len(groups)-2]) + "es"}
	}
	return []string{word + "es"}
}

func feminine(w string) (string, bool) {
	switch {
	case strings.HasSuffix(w, "o"):
		return strings.TrimSuffix(w, "o") + "a", true
	case strings.HasSuffix(w, "or"):
		return w + "a", true
	}
	for _, suf := range []string{"ón", "án", "ín", "és"} {
		if strings.HasSuffix(w, suf) {
			r, size := utf8.DecodeRuneInString(suf)
			return strings.TrimSuffix(w, suf) + string(unaccent[r]) + suf[size:] + "a", true
		}
	}
	return "", false
}

func adverb(w string) string {
	if strings.HasSuffix(w, "o") {
		return strings.TrimSuffix(w, "o") + "amente"
	}
	return w + "mente"
}

type stemSlot uint8

const (
	plainStem stemSlot = iota
	strongStem
	weakStem
)

type ending struct {
	suffix string
	stem   stemSlot
}

func endings(slot stemSlot, suffixes ...string) []ending {
	out := make([]ending, len(suffixes))
	for i, s := range suffixes {
		out[i] = ending{suffix: s, stem: slot}
	}
	return out
}

func join(parts ...[]ending) []ending {
	var out []ending
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// conjugation lists the endings of one verb class. Strong stems carry the
// stressed stem change (pienso, duermo, pido), weak stems the -ir change in
// unstressed slots (durmió, sintamos).
type conjugation struct {
	forms     []ending
	preterite []ending
	gerund    ending
}

var (
	erPreterite = join(
		endings(plainStem, "í", "iste"), endings(weakStem, "ió"),
		endings(plainStem, "imos", "isteis"), endings(weakStem, "ieron"),
		endings(weakStem, "iera", "ieras", "iéramos", "ierais", "ieran", "iese", "ieses", "iésemos", "ieseis", "iesen"),
	)

	conjugations = map[string]conjugation{
		"ar": {
			forms: join(
				endings(strongStem, "o", "as", "a"), endings(plainStem, "amos", "áis"), endings(strongStem, "an"),
				endings(plainStem, "aba", "abas", "ábamos", "abais", "aban"),
				endings(strongStem, "e", "es"), endings(plainStem, "emos", "éis"), endings(strongStem, "en"),
				endings(plainStem, "ad", "ado", "ada", "ados", "adas"),
			),
			preterite: endings(plainStem, "é", "aste", "ó", "amos", "asteis", "aron",
				"ara", "aras", "áramos", "arais", "aran", "ase", "ases", "ásemos", "aseis", "asen"),
			gerund: ending{"ando", plainStem},
		},
		"er": {
			forms: join(
				endings(strongStem, "o", "es", "e"), endings(plainStem, "emos", "éis"), endings(strongStem, "en"),
				endings(plainStem, "ía", "ías", "íamos", "íais", "ían"),
				endings(strongStem, "a", "as"), endings(weakStem, "amos", "áis"), endings(strongStem, "an"),
				endings(plainStem, "ed", "ido", "ida", "idos", "idas"),
			),
			preterite: erPreterite,
			gerund:    ending{"iendo", weakStem},
		},
		"ir": {
			forms: join(
				endings(strongStem, "o", "es", "e"), endings(plainStem, "imos", "ís"), endings(strongStem, "en"),
				endings(plainStem, "ía", "ías", "íamos", "íais", "ían"),
				endings(strongStem, "a", "as"), endings(weakStem, "amos", "áis"), endings(strongStem, "an"),
				endings(plainStem, "id", "ido", "ida", "idos", "idas"),
			),
			preterite: erPreterite,
			gerund:    ending{"iendo", weakStem},
		},
	}

	ducirPreterite = []string{"e", "iste", "o", "imos", "isteis", "eron",
		"era", "eras", "éramos", "erais", "eran", "ese", "eses", "ésemos", "eseis", "esen"}
	futureEndings = []string{"é", "ás", "á", "emos", "éis", "án", "ía", "ías", "íamos", "íais", "ían"}
	clitics       = []string{"se", "lo", "la", "los", "las", "le", "les"}
)

// conjugate returns the simple tenses, participles, gerund and the common
// enclitic forms of a verb with regular endings. change is 0, 'E', 'O' or 'I'.
func conjugate(inf string, change byte) []string {
	if len(inf) < 3 {
		return nil
	}
	class := inf[len(inf)-2:]
	table, ok := conjugations[class]
	if !ok {
		return nil
	}
	stem := inf[:len(inf)-2]
	slots := stemSlots(stem, class, change)

	out := make([]string, 0, 96)
	for _, e := range table.forms {
		out = append(out, attach(slots[e.stem], e.suffix, class))
	}
	if class == "ir" && strings.HasSuffix(stem, "duc") {
		base := strings.TrimSuffix(stem, "c") + "j"
		for _, s := range ducirPreterite {
			out = append(out, base+s)
		}
	} else {
		for _, e := range table.preterite {
			out = append(out, attach(slots[e.stem], e.suffix, class))
		}
	}
	for _, s := range futureEndings {
		out = append(out, inf+s)
	}
	gerund := attach(slots[table.gerund.stem], table.gerund.suffix, class)
	out = append(out, gerund)
	stressed := stressGerund(gerund)
	for _, c := range clitics {
		out = append(out, inf+c, stressed+c)
	}
	return out
}

func stemSlots(stem, class string, change byte) [3]string {
	s := [3]string{stem, stem, stem}
	switch change {
	case 'E':
		s[strongStem] = replaceLast(stem, "e", "ie")
		if class == "ir" {
			s[weakStem] = replaceLast(stem, "e", "i")
		}
	case 'O':
		s[strongStem] = replaceLast(stem, "o", "ue")
		if class == "ir" {
			s[weakStem] = replaceLast(stem, "o", "u")
		}
	case 'I':
		s[strongStem] = replaceLast(stem, "e", "i")
		if class == "ir" {
			s[weakStem] = s[strongStem]
		}
	}
	return s
}

func replaceLast(s, old, repl string) string {
	i := strings.LastIndex(s, old)
	if i < 0 {
		return s
	}
	return s[:i] + repl + s[i+len(old):]
}

// attach joins stem and ending with the spelling changes Spanish applies at
// the boundary: busqué, llegué, realicé, conozco, venzo, elijo, sigo,
// incluyo, leyó, leíste.
func attach(stem, end, class string) string {
	first, size := utf8.DecodeRuneInString(end)
	if class == "ar" {
		if first == 'e' || first == 'é' {
			switch {
			case strings.HasSuffix(stem, "gu"):
				stem = strings.TrimSuffix(stem, "gu") + "gü"
			case strings.HasSuffix(stem, "c"):
				stem = strings.TrimSuffix(stem, "c") + "qu"
			case strings.HasSuffix(stem, "g"):
				stem += "u"
			case strings.HasSuffix(stem, "z"):
				stem = strings.TrimSuffix(stem, "z") + "c"
			}
		}
		return stem + end
	}

	silent := strings.HasSuffix(stem, "gu") || strings.HasSuffix(stem, "qu")
	if first == 'o' || first == 'a' || first == 'á' {
		switch {
		case strings.HasSuffix(stem, "gu"):
			stem = strings.TrimSuffix(stem, "u")
		case strings.HasSuffix(stem, "qu"):
			stem = strings.TrimSuffix(stem, "qu") + "c"
		case strings.HasSuffix(stem, "g"):
			stem = strings.TrimSuffix(stem, "g") + "j"
		case strings.HasSuffix(stem, "c"):
			rs := []rune(stem)
			if len(rs) > 1 && isVowel(rs[len(rs)-2]) {
				stem = strings.TrimSuffix(stem, "c") + "zc"
			} else {
				stem = strings.TrimSuffix(stem, "c") + "z"
			}
		}
	}

	last, _ := utf8.DecodeLastRuneInString(stem)
	if silent || stem == "" || !isVowel(last) {
		return stem + end
	}
	rest := end[size:]
	next, _ := utf8.DecodeRuneInString(rest)
	switch {
	case class == "ir" && last == 'u' && strings.ContainsRune("oaeáé", first):
		return stem + "y" + end
	case first == 'i' && rest != "" && isVowel(next):
		return stem + "y" + rest
	case first == 'i' && strings.ContainsRune("aeo", last):
		return stem + "í" + rest
	}
	return stem + end
}

func stressGerund(g string) string {
	for _, p := range [][2]string{{"ando", "ándo"}, {"iendo", "iéndo"}, {"yendo", "yéndo"}} {
		if strings.HasSuffix(g, p[0]) {
			return strings.TrimSuffix(g, p[0]) + p[1]
		}
	}
	return g
}
