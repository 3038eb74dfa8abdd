package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tesisflow/internal/models"
	"tesisflow/internal/nlp"
	"tesisflow/internal/providers"
	"tesisflow/internal/util"
	"tesisflow/internal/vector"
)

// QA is the part of providers.Manager the extractor needs.
type QA interface {
	Answer(ctx context.Context, req providers.QARequest) (providers.QAAnswer, providers.ProviderInfo, error)
}

type Options struct {
	ContextChars int
	ChunkSize    int
	ChunkOverlap int
	// QAThreshold replaces the rules' default_threshold when positive.
	// Per-field thresholds still win.
	QAThreshold float64
}

// Input is the analysed document: full text (text layer plus OCR) and the
// entities recognized in it.
type Input struct {
	Text     string
	Entities []nlp.Entity
}

type Outcome struct {
	Result       models.ExtractionResult
	Sources      map[models.FieldKey]string
	Observations []models.Observation
}

type Extractor struct {
	rules      *Rules
	qa         QA
	opts       Options
	log        *zap.Logger
	strategies []Strategy
}

func New(rules *Rules, qa QA, opts Options, log *zap.Logger) *Extractor {
	if rules == nil {
		rules = DefaultRules()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ContextChars <= 0 {
		opts.ContextChars = 12000
	}
	return &Extractor{
		rules:      rules,
		qa:         qa,
		opts:       opts,
		log:        log,
		strategies: []Strategy{regexStrategy{}, entityStrategy{}, qaStrategy{}, keywordStrategy{}},
	}
}

func (x *Extractor) Rules() *Rules { return x.rules }

// Threshold is the exclusive minimum QA score accepted for a field.
func (x *Extractor) Threshold(f *FieldRule) float64 {
	if f != nil && f.Threshold > 0 {
		return f.Threshold
	}
	if x.opts.QAThreshold > 0 {
		return x.opts.QAThreshold
	}
	return x.rules.Threshold(f)
}

// Extract fills every schema field it can. Fields without a rule, or whose
// strategies all miss, keep the sentinel. Strategy errors become processing
// observations and never abort the run.
func (x *Extractor) Extract(ctx context.Context, in Input) Outcome {
	r := x.newRun(in)
	out := Outcome{Sources: map[models.FieldKey]string{}}
	for _, f := range r.result.Fields() {
		rule, ok := x.rules.Rule(f.Key)
		if !ok {
			continue
		}
		v, source, errs := r.resolve(ctx, rule)
		for _, err := range errs {
			out.Observations = append(out.Observations, models.Observation{
				Type:    models.ObservationProcessing,
				Message: fmt.Sprintf("No se pudo consultar el modelo de preguntas para '%s': %v", f.Label, err),
			})
		}
		if source == "" {
			continue
		}
		*f.Value = v
		out.Sources[f.Key] = source
	}
	out.Result = r.result
	return out
}

// ExtractField re-derives one field, schema or auxiliary, against current
// values so entity assignment skips names already used elsewhere.
func (x *Extractor) ExtractField(ctx context.Context, key models.FieldKey, in Input, current models.ExtractionResult) (string, bool) {
	rule, ok := x.rules.Rule(key)
	if !ok {
		return "", false
	}
	r := x.newRun(in)
	r.result = current
	if cur, ok := current.Get(key); ok && !models.IsMissing(cur) {
		// Don't let the field's own stale value block re-assignment.
		r.result.Set(key, models.NotIdentified)
	}
	v, source, errs := r.resolve(ctx, rule)
	for _, err := range errs {
		x.log.Warn("field re-derivation failed", zap.String("field", string(key)), zap.Error(err))
	}
	return v, source != ""
}

func (x *Extractor) newRun(in Input) *run {
	return &run{
		x:        x,
		text:     in.Text,
		entities: in.Entities,
		result:   models.NewExtractionResult(),
	}
}

// run holds per-document state shared by strategies.
type run struct {
	x        *Extractor
	text     string
	entities []nlp.Entity
	result   models.ExtractionResult

	roles   []person
	rolesOK bool
	index   *vector.Index
}

type person struct {
	name string
	role EntityRole
}

func (r *run) resolve(ctx context.Context, rule *FieldRule) (string, string, []error) {
	var errs []error
	for _, s := range r.x.strategies {
		v, ok, err := s.Attempt(ctx, rule, r)
		if err != nil {
			r.x.log.Warn("extraction strategy failed",
				zap.String("field", string(rule.Key)),
				zap.String("strategy", s.Name()),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		if ok {
			return v, s.Name(), errs
		}
	}
	return "", "", errs
}

// people classifies each person entity by the role keyword nearest before it.
func (r *run) people() []person {
	if r.rolesOK {
		return r.roles
	}
	r.rolesOK = true
	for _, e := range r.entities {
		if e.Kind != nlp.EntityPerson {
			continue
		}
		window := nlp.Fold(nlp.Preceding(r.text, e.Start, roleWindowRunes))
		adv := lastIndexAny(window, r.x.rules.Roles.Advisor)
		jury := lastIndexAny(window, r.x.rules.Roles.Jury)
		switch {
		case adv < 0 && jury < 0:
			continue
		case adv > jury:
			r.roles = append(r.roles, person{name: e.Value, role: RoleAdvisor})
		default:
			r.roles = append(r.roles, person{name: e.Value, role: RoleJury})
		}
	}
	return r.roles
}

func (r *run) usedNames() map[string]struct{} {
	used := map[string]struct{}{}
	for _, k := range []models.FieldKey{models.FieldAdvisor, models.FieldJury1, models.FieldJury2, models.FieldJury3} {
		if v, ok := r.result.Get(k); ok && !models.IsMissing(v) {
			used[nlp.Fold(v)] = struct{}{}
		}
	}
	return used
}

// qaContext trims long documents to the chunks most similar to the question.
func (r *run) qaContext(question string) string {
	return vector.Context(r.text, question, r.x.opts.ContextChars, func() *vector.Index {
		if r.index == nil {
			r.index = vector.NewIndex(util.ChunkText(r.text, r.x.opts.ChunkSize, r.x.opts.ChunkOverlap))
		}
		return r.index
	})
}

func lastIndexAny(s string, words []string) int {
	best := -1
	for _, w := range words {
		if i := strings.LastIndex(s, nlp.Fold(w)); i > best {
			best = i
		}
	}
	return best
}
