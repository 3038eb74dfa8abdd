package extract

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
)

//go:embed rules.yaml
var defaultRules []byte

type Mode string

const (
	ModeLine      Mode = "line"
	ModeParagraph Mode = "paragraph"
)

type EntityRole string

const (
	RoleAdvisor  EntityRole = "advisor"
	RoleJury     EntityRole = "jury"
	RoleLocation EntityRole = "location"
	RoleDate     EntityRole = "date"
)

type Keyword struct {
	Match string `yaml:"match"`
	Value string `yaml:"value"`

	re *regexp.Regexp
}

// FieldRule describes how one field is found. Only Key is required.
type FieldRule struct {
	Key            models.FieldKey `yaml:"key"`
	Labels         []string        `yaml:"labels"`
	Patterns       []string        `yaml:"patterns"`
	Mode           Mode            `yaml:"mode"`
	Entity         EntityRole      `yaml:"entity"`
	Question       string          `yaml:"question"`
	Threshold      float64         `yaml:"threshold"`
	Keywords       []Keyword       `yaml:"keywords"`
	MissingMessage string          `yaml:"missing_message"`

	labelRe    *regexp.Regexp
	patternRes []*regexp.Regexp
}

type Roles struct {
	Advisor []string `yaml:"advisor"`
	Jury    []string `yaml:"jury"`
}

type Rules struct {
	DefaultThreshold float64           `yaml:"default_threshold"`
	Roles            Roles             `yaml:"roles"`
	Locations        map[string]string `yaml:"locations"`
	Fields           []FieldRule       `yaml:"fields"`
	Auxiliary        []FieldRule       `yaml:"auxiliary"`

	byKey map[models.FieldKey]*FieldRule
}

// LoadRules reads the rule table at path, or the embedded table when path is
// empty.
func LoadRules(path string) (*Rules, error) {
	if strings.TrimSpace(path) == "" {
		return ParseRules(defaultRules)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(b)
}

func DefaultRules() *Rules {
	r, err := ParseRules(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded rules: %v", err))
	}
	return r
}

func ParseRules(b []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	schema := map[models.FieldKey]bool{}
	for _, k := range models.SchemaKeys() {
		schema[k] = true
	}
	r.byKey = map[models.FieldKey]*FieldRule{}
	for i := range r.Fields {
		f := &r.Fields[i]
		if !schema[f.Key] {
			return nil, fmt.Errorf("parse rules: unknown field %q", f.Key)
		}
		if err := r.register(f); err != nil {
			return nil, err
		}
	}
	for i := range r.Auxiliary {
		f := &r.Auxiliary[i]
		if schema[f.Key] {
			return nil, fmt.Errorf("parse rules: auxiliary rule %q shadows a schema field", f.Key)
		}
		if err := r.register(f); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func (r *Rules) register(f *FieldRule) error {
	if f.Key == "" {
		return fmt.Errorf("parse rules: rule without key")
	}
	if _, dup := r.byKey[f.Key]; dup {
		return fmt.Errorf("parse rules: duplicate rule %q", f.Key)
	}
	if err := f.compile(); err != nil {
		return fmt.Errorf("parse rules: %s: %w", f.Key, err)
	}
	r.byKey[f.Key] = f
	return nil
}

func (r *Rules) Rule(key models.FieldKey) (*FieldRule, bool) {
	f, ok := r.byKey[key]
	return f, ok
}

// Threshold is the minimum QA score for a field, exclusive.
func (r *Rules) Threshold(f *FieldRule) float64 {
	if f != nil && f.Threshold > 0 {
		return f.Threshold
	}
	return r.DefaultThreshold
}

func (f *FieldRule) compile() error {
	if f.Mode == "" {
		f.Mode = ModeLine
	}
	if f.Mode != ModeLine && f.Mode != ModeParagraph {
		return fmt.Errorf("unknown mode %q", f.Mode)
	}
	if len(f.Labels) > 0 {
		re, err := regexp.Compile(labelPattern(f.Labels, f.Mode))
		if err != nil {
			return err
		}
		f.labelRe = re
	}
	for _, p := range f.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return err
		}
		f.patternRes = append(f.patternRes, re)
	}
	for i := range f.Keywords {
		kw := &f.Keywords[i]
		re, err := regexp.Compile(`(?i)(?:\A|[^\p{L}])` + nlp.AccentInsensitive(kw.Match) + `(?:[^\p{L}]|\z)`)
		if err != nil {
			return err
		}
		kw.re = re
	}
	return nil
}

// labelPattern builds `label : value` with the value ending at the line end,
// or at a blank line in paragraph mode, or at the sentinel. Longer labels are
// tried first so "título de la tesis" beats "título".
func labelPattern(labels []string, mode Mode) string {
	sorted := append([]string(nil), labels...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	alts := make([]string, 0, len(sorted))
	for _, l := range sorted {
		if strings.TrimSpace(l) == "" {
			continue
		}
		alts = append(alts, nlp.AccentInsensitive(l))
	}
	end := `\n`
	if mode == ModeParagraph {
		end = `\n[ \t]*\n`
	}
	return `(?is)(?:\A|[^\p{L}])(?:` + strings.Join(alts, "|") + `)\s*:\s*(.+?)(?:` + end + `|` + models.NotIdentified + `|\z)`
}

// MissingMessages returns the custom completeness wording per field.
func (r *Rules) MissingMessages() map[models.FieldKey]string {
	out := map[models.FieldKey]string{}
	for _, f := range r.Fields {
		if f.MissingMessage != "" {
			out[f.Key] = f.MissingMessage
		}
	}
	return out
}
