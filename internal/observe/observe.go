package observe

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"tesisflow/internal/models"
	"tesisflow/internal/nlp"
	"tesisflow/internal/util"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

const (
	contextRadius   = 80
	maxContextRunes = 200
	grammarMinWords = 10
)

type Lexicon struct {
	Misspellings map[string]string `yaml:"misspellings"`
	Accents      map[string]string `yaml:"accents"`
}

// LoadLexicon reads the misspelling and accent tables at path, or the
// embedded tables when path is empty.
func LoadLexicon(path string) (*Lexicon, error) {
	b := defaultLexicon
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read lexicon: %w", err)
		}
		b = raw
	}
	var lex Lexicon
	if err := yaml.Unmarshal(b, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	lex.Misspellings = lowerKeys(lex.Misspellings)
	lex.Accents = lowerKeys(lex.Accents)
	// A word with a known correction is not also an accent hit.
	for k := range lex.Misspellings {
		delete(lex.Accents, k)
	}
	return &lex, nil
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// Checker holds the shared, read-only models. Build one per process and a
// Collector per document.
type Checker struct {
	lex   *Lexicon
	spell *nlp.SpellChecker
}

func NewChecker(lex *Lexicon, spell *nlp.SpellChecker) *Checker {
	if lex == nil {
		lex = &Lexicon{}
	}
	return &Checker{lex: lex, spell: spell}
}

func (c *Checker) NewCollector() *Collector {
	return &Collector{checker: c}
}

type Collector struct {
	checker *Checker
	items   []models.Observation
}

func (c *Collector) Add(obs ...models.Observation) {
	for _, o := range obs {
		// DisplaySnippet appends "..." when it truncates.
		o.Context = util.DisplaySnippet(o.Context, maxContextRunes-3)
		c.items = append(c.items, o)
	}
}

func (c *Collector) Processing(page int, msg string) {
	c.Add(models.Observation{Type: models.ObservationProcessing, Message: msg, Page: page})
}

var linkLike = regexp.MustCompile(`\S*(?:@|://|www\.)\S*`)

// ScanPage runs the spelling and grammar checks on one page of text. Each
// misspelled word is reported once per page.
func (c *Collector) ScanPage(page int, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	skip := linkLike.FindAllStringIndex(text, -1)
	seen := map[string]struct{}{}
	for _, tok := range nlp.Tokenize(text) {
		if inSpans(skip, tok.Start) {
			continue
		}
		lw := strings.ToLower(tok.Text)
		if _, dup := seen[lw]; dup {
			continue
		}
		msg := c.checker.spelling(tok.Text, lw)
		if msg == "" {
			continue
		}
		seen[lw] = struct{}{}
		c.Add(models.Observation{
			Type:    models.ObservationSpelling,
			Message: msg,
			Page:    page,
			Context: util.SnippetAround(text, tok.Start, tok.End, contextRadius, maxContextRunes),
		})
	}

	for _, s := range nlp.Sentences(text) {
		if !runOnSentence(s.Text) {
			continue
		}
		c.Add(models.Observation{
			Type:    models.ObservationGrammar,
			Message: "Oración extensa sin comas: revise la puntuación alrededor de la conjunción 'y'.",
			Page:    page,
			Context: s.Text,
		})
	}
}

func (ck *Checker) spelling(word, lower string) string {
	if fix, ok := ck.lex.Misspellings[lower]; ok {
		return fmt.Sprintf("Error ortográfico: '%s' debería ser '%s'.", lower, fix)
	}
	if fix, ok := ck.lex.Accents[lower]; ok {
		return fmt.Sprintf("Falta la tilde: '%s' debería escribirse '%s'.", lower, fix)
	}
	if sug, bad := ck.spell.Check(word); bad {
		return fmt.Sprintf("Posible error ortográfico: '%s' (¿quiso decir '%s'?).", lower, sug)
	}
	return ""
}

// runOnSentence flags long sentences that chain clauses with "y" and never
// use a comma.
func runOnSentence(s string) bool {
	if strings.Contains(s, ",") {
		return false
	}
	toks := nlp.Tokenize(s)
	if len(toks) <= grammarMinWords {
		return false
	}
	for _, t := range toks {
		if t.Text == "y" || t.Text == "Y" {
			return true
		}
	}
	return false
}

// Completeness adds one page-0 observation per field still holding the
// sentinel. messages overrides the default wording per field.
func (c *Collector) Completeness(r models.ExtractionResult, messages map[models.FieldKey]string) {
	for _, f := range r.Fields() {
		if !models.IsMissing(*f.Value) {
			continue
		}
		msg := messages[f.Key]
		if msg == "" {
			msg = fmt.Sprintf("No se identificó el campo '%s'.", f.Label)
		}
		c.Add(models.Observation{Type: models.ObservationCompleteness, Message: msg})
	}
}

// Sorted returns the observations ordered by page, then type. Insertion order
// is kept within a (page, type) group.
func (c *Collector) Sorted() []models.Observation {
	out := append([]models.Observation(nil), c.items...)
	Sort(out)
	return out
}

func Sort(obs []models.Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		if obs[i].Page != obs[j].Page {
			return obs[i].Page < obs[j].Page
		}
		return obs[i].Type < obs[j].Type
	})
}

func Render(o models.Observation) string {
	s := fmt.Sprintf("Página %d: [%s] %s", o.Page, o.Type, o.Message)
	if o.Context != "" {
		s += fmt.Sprintf(" (Contexto: %s)", o.Context)
	}
	return s
}

func RenderAll(obs []models.Observation) []string {
	out := make([]string, 0, len(obs))
	for _, o := range obs {
		out = append(out, Render(o))
	}
	return out
}

func inSpans(spans [][]int, at int) bool {
	for _, s := range spans {
		if at >= s[0] && at < s[1] {
			return true
		}
	}
	return false
}
