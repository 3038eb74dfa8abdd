package nlp

import (
	"regexp"
	"sort"
	"strings"
)

type EntityKind string

const (
	EntityPerson   EntityKind = "PER"
	EntityLocation EntityKind = "LOC"
	EntityDate     EntityKind = "DATE"
)

// Entity is a span of the input text. Value is the normalized form: the
// gazetteer literal for locations, the year for dates, the name itself for
// people.
type Entity struct {
	Kind  EntityKind
	Text  string
	Value string
	Start int
	End   int
}

var (
	personRe = regexp.MustCompile(`(?:(?:Dra|Dr|Mg|Mag|Lic|Ing|Mtro|Mtra|MSc|Msc|Econ|CPC|Abg)\.[ \t]*)?\p{Lu}\p{L}+(?:[ \t]+(?:(?:de la|de los|del|de)[ \t]+)?\p{Lu}\p{L}+){1,4}`)
	dateRe   = regexp.MustCompile(`(?i)(?:\d{1,2}\s+de\s+)?(?:enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)\s+(?:de[l]?\s+)?((?:19|20)\d{2})|\d{1,2}/\d{1,2}/((?:19|20)\d{2})`)
)

// Capitalized words that open headings and institution names rather than
// personal names.
var nonNameWords = map[string]struct{}{}

var honorifics = map[string]struct{}{
	"dr": {}, "dra": {}, "mg": {}, "mag": {}, "lic": {}, "ing": {}, "mtro": {}, "mtra": {},
	"msc": {}, "econ": {}, "cpc": {}, "abg": {},
}

func init() {
	for _, w := range strings.Fields(`universidad facultad escuela departamento nacional agraria selva tesis
		capitulo capítulo tabla figura grafico gráfico anexo indice índice resumen abstract introduccion introducción
		problema objetivo hipotesis hipótesis variable general especifico específico especifica específica marco
		metodologia metodología resultados discusion discusión conclusiones recomendaciones referencias
		peru perú lima huanuco huánuco region región provincia distrito republica república
		ciencias economicas económicas facultad profesional ingenieria ingeniería zootecnia agronomia agronomía
		cooperativa banco caja municipal ministerio gobierno regional asesor asesora jurado presidente miembro
		secretario vocal bachiller titulo título licenciado economista contador para optar el la los las del de
		en con por sobre segun según mediante`) {
		nonNameWords[Fold(w)] = struct{}{}
	}
}

type Recognizer struct {
	locations []locationPattern
}

type locationPattern struct {
	re    *regexp.Regexp
	value string
}

// NewRecognizer builds a recognizer whose location gazetteer maps a surface
// phrase (matched case- and accent-insensitively) to its canonical literal.
func NewRecognizer(locations map[string]string) *Recognizer {
	keys := make([]string, 0, len(locations))
	for k := range locations {
		keys = append(keys, k)
	}
	// Longer phrases first so "tingo maría" wins over "maría".
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	r := &Recognizer{}
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			continue
		}
		r.locations = append(r.locations, locationPattern{
			re:    regexp.MustCompile(`(?i)` + AccentInsensitive(k)),
			value: locations[k],
		})
	}
	return r
}

// Recognize returns entities ordered by position. Person spans that overlap a
// location are dropped.
func (r *Recognizer) Recognize(text string) []Entity {
	out := make([]Entity, 0, 16)
	taken := make([][2]int, 0, 8)

	for _, lp := range r.locations {
		for _, m := range lp.re.FindAllStringIndex(text, -1) {
			if overlaps(taken, m[0], m[1]) {
				continue
			}
			taken = append(taken, [2]int{m[0], m[1]})
			out = append(out, Entity{Kind: EntityLocation, Text: text[m[0]:m[1]], Value: lp.value, Start: m[0], End: m[1]})
		}
	}

	for _, m := range dateRe.FindAllStringSubmatchIndex(text, -1) {
		year := ""
		for g := 1; g*2+1 < len(m); g++ {
			if m[g*2] >= 0 {
				year = text[m[g*2]:m[g*2+1]]
				break
			}
		}
		out = append(out, Entity{Kind: EntityDate, Text: text[m[0]:m[1]], Value: year, Start: m[0], End: m[1]})
	}

	for _, m := range personRe.FindAllStringIndex(text, -1) {
		start, end, ok := trimNonNames(text, m[0], m[1])
		if !ok || overlaps(taken, start, end) {
			continue
		}
		span := text[start:end]
		out = append(out, Entity{Kind: EntityPerson, Text: span, Value: span, Start: start, End: end})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// trimNonNames rejects a candidate when any capitalized word in it is a known
// non-name word, and requires at least two capitalized words.
func trimNonNames(text string, start, end int) (int, int, bool) {
	caps := 0
	for _, tok := range Tokenize(text[start:end]) {
		if !isCapitalized(tok.Text) {
			continue
		}
		if _, title := honorifics[Fold(tok.Text)]; title {
			continue
		}
		if _, bad := nonNameWords[Fold(tok.Text)]; bad {
			return 0, 0, false
		}
		caps++
	}
	return start, end, caps >= 2
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

// Preceding returns up to n runes of text immediately before byte offset at.
func Preceding(text string, at, n int) string {
	if at > len(text) {
		at = len(text)
	}
	rs := []rune(text[:at])
	if len(rs) > n {
		rs = rs[len(rs)-n:]
	}
	return string(rs)
}
