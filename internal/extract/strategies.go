package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"tesisflow/internal/models"
	"tesisflow/internal/nlp"
	"tesisflow/internal/providers"
)

const (
	maxValueRunes   = 500
	roleWindowRunes = 50
)

// Strategy tries to resolve one field. An expected miss is ok=false with a nil
// error; err is reserved for failures worth reporting.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, rule *FieldRule, in *run) (string, bool, error)
}

type regexStrategy struct{}

func (regexStrategy) Name() string { return "regex" }

func (regexStrategy) Attempt(_ context.Context, rule *FieldRule, in *run) (string, bool, error) {
	if rule.labelRe != nil {
		if m := rule.labelRe.FindStringSubmatch(in.text); m != nil {
			if v, ok := cleanValue(m[1]); ok {
				return v, true, nil
			}
		}
	}
	for _, re := range rule.patternRes {
		m := re.FindStringSubmatch(in.text)
		if m == nil {
			continue
		}
		v := m[0]
		if len(m) > 1 && m[1] != "" {
			v = m[1]
		}
		if v, ok := cleanValue(v); ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

type entityStrategy struct{}

func (entityStrategy) Name() string { return "entity" }

func (entityStrategy) Attempt(_ context.Context, rule *FieldRule, in *run) (string, bool, error) {
	switch rule.Entity {
	case RoleAdvisor, RoleJury:
		used := in.usedNames()
		for _, p := range in.people() {
			if p.role != rule.Entity {
				continue
			}
			if _, taken := used[nlp.Fold(p.name)]; taken {
				continue
			}
			return p.name, true, nil
		}
	case RoleLocation:
		for _, e := range in.entities {
			if e.Kind == nlp.EntityLocation && e.Value != "" {
				return e.Value, true, nil
			}
		}
	case RoleDate:
		for _, e := range in.entities {
			if e.Kind == nlp.EntityDate && e.Value != "" {
				return e.Value, true, nil
			}
		}
	}
	return "", false, nil
}

type qaStrategy struct{}

func (qaStrategy) Name() string { return "qa" }

func (qaStrategy) Attempt(ctx context.Context, rule *FieldRule, in *run) (string, bool, error) {
	if rule.Question == "" || in.x.qa == nil || strings.TrimSpace(in.text) == "" {
		return "", false, nil
	}
	ans, _, err := in.x.qa.Answer(ctx, providers.QARequest{
		Operation: "extract:" + string(rule.Key),
		Question:  rule.Question,
		Context:   in.qaContext(rule.Question),
	})
	if err != nil {
		return "", false, err
	}
	if ans.Score <= in.x.Threshold(rule) {
		return "", false, nil
	}
	v, ok := cleanValue(ans.Text)
	return v, ok, nil
}

type keywordStrategy struct{}

func (keywordStrategy) Name() string { return "keyword" }

func (keywordStrategy) Attempt(_ context.Context, rule *FieldRule, in *run) (string, bool, error) {
	for _, kw := range rule.Keywords {
		if kw.re != nil && kw.re.MatchString(in.text) {
			return kw.Value, true, nil
		}
	}
	return "", false, nil
}

func cleanValue(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxValueRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxValueRunes]))
	}
	if models.IsMissing(s) {
		return "", false
	}
	return s, true
}
