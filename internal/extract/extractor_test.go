package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tesisflow/internal/models"
	"tesisflow/internal/nlp"
	"tesisflow/internal/providers"
)

const thesis = `UNIVERSIDAD NACIONAL AGRARIA DE LA SELVA
Título de la tesis: Morosidad y rentabilidad en la cooperativa
Presentado por: Ana Torres
Correo: ana.torres@unas.edu.pe
Asesor: Jane Doe
Jurados:
Presidente: Dr. Carlos Ramos Vela
Secretario: Mg. Rosa Diaz Leon
Vocal: Ing. Pedro Salas Ruiz

La investigación se realizó en Tingo María, marzo de 2021, dentro de la línea de finanzas.
El diseño de la investigación es no experimental y transversal.

Objetivo general: Determinar la relación entre la morosidad
y la rentabilidad de los socios.

Hipotesis general: Existe relación significativa.

Problema general: No identificado
`

func input(t *testing.T, rules *Rules, text string) Input {
	t.Helper()
	rec := nlp.NewRecognizer(rules.Locations)
	return Input{Text: text, Entities: rec.Recognize(text)}
}

func TestExtractLabelsEntitiesAndKeywords(t *testing.T) {
	rules := DefaultRules()
	x := New(rules, nil, Options{}, nil)
	out := x.Extract(context.Background(), input(t, rules, thesis))
	r := out.Result

	require.Equal(t, "Morosidad y rentabilidad en la cooperativa", r.Title)
	require.Equal(t, "ana.torres@unas.edu.pe", r.Email)
	require.Equal(t, "Jane Doe", r.Advisor)
	require.Equal(t, "regex", out.Sources[models.FieldAdvisor])

	require.Equal(t, "Dr. Carlos Ramos Vela", r.Jury1)
	require.Equal(t, "Mg. Rosa Diaz Leon", r.Jury2)
	require.Equal(t, "Ing. Pedro Salas Ruiz", r.Jury3)
	require.Equal(t, "entity", out.Sources[models.FieldJury2])

	require.Equal(t, "Tingo María, Perú", r.Place)
	require.Equal(t, "2021", r.PublicationDate)
	require.Equal(t, "Finanzas", r.ResearchLine)
	require.Equal(t, "keyword", out.Sources[models.FieldResearchLine])
	require.Equal(t, "No experimental", r.Design)

	require.Equal(t, "Determinar la relación entre la morosidad\ny la rentabilidad de los socios.", r.GeneralObjective)
	require.Equal(t, "Existe relación significativa.", r.GeneralHypothesis)
	require.Equal(t, models.NotIdentified, r.GeneralProblem)
	require.Equal(t, models.NotIdentified, r.DependentVariable)
	require.Empty(t, out.Observations)
}

func TestExtractEmptyTextIsAllSentinel(t *testing.T) {
	x := New(nil, providers.NewExtractiveProvider(), Options{}, nil)
	out := x.Extract(context.Background(), Input{})
	require.Equal(t, models.NewExtractionResult(), out.Result)
	require.Empty(t, out.Sources)
}

type scriptedQA struct {
	answers map[string]providers.QAAnswer
	errs    map[string]error
}

func (s scriptedQA) Answer(_ context.Context, req providers.QARequest) (providers.QAAnswer, providers.ProviderInfo, error) {
	if err := s.errs[req.Question]; err != nil {
		return providers.QAAnswer{}, providers.ProviderInfo{}, err
	}
	return s.answers[req.Question], providers.ProviderInfo{Name: "scripted"}, nil
}

func TestQAThresholdIsExclusiveAndErrorsBecomeObservations(t *testing.T) {
	rules := DefaultRules()
	dep, _ := rules.Rule(models.FieldDependentVariable)
	indep, _ := rules.Rule(models.FieldIndependentVariable)
	prob, _ := rules.Rule(models.FieldGeneralProblem)

	qa := scriptedQA{
		answers: map[string]providers.QAAnswer{
			dep.Question:   {Text: "Rentabilidad", Score: 0.3},
			indep.Question: {Text: "Morosidad", Score: 0.31},
		},
		errs: map[string]error{prob.Question: errors.New("503 service unavailable")},
	}
	x := New(rules, qa, Options{}, nil)
	out := x.Extract(context.Background(), Input{Text: "Texto sin etiquetas sobre la cooperativa."})

	require.Equal(t, models.NotIdentified, out.Result.DependentVariable)
	require.Equal(t, "Morosidad", out.Result.IndependentVariable)
	require.Equal(t, "qa", out.Sources[models.FieldIndependentVariable])

	require.Len(t, out.Observations, 1)
	require.Equal(t, models.ObservationProcessing, out.Observations[0].Type)
	require.Contains(t, out.Observations[0].Message, "Problema general")
	require.Zero(t, out.Observations[0].Page)
}

func TestOptionsQAThresholdOverridesRulesDefault(t *testing.T) {
	rules := DefaultRules()
	dep, _ := rules.Rule(models.FieldDependentVariable)
	size, _ := rules.Rule(models.FieldPopulationSize)
	qa := scriptedQA{answers: map[string]providers.QAAnswer{
		dep.Question:  {Text: "Rentabilidad", Score: 0.5},
		size.Question: {Text: "120 socios", Score: 0.55},
	}}
	in := Input{Text: "Texto sin etiquetas sobre la cooperativa."}

	strict := New(rules, qa, Options{QAThreshold: 0.6}, nil)
	out := strict.Extract(context.Background(), in)
	require.Equal(t, models.NotIdentified, out.Result.DependentVariable)
	require.Equal(t, "120 socios", out.Result.PopulationSize, "per-field threshold wins")

	lax := New(rules, qa, Options{QAThreshold: 0.4}, nil)
	out = lax.Extract(context.Background(), in)
	require.Equal(t, "Rentabilidad", out.Result.DependentVariable)
	require.InDelta(t, 0.3, New(rules, qa, Options{}, nil).Threshold(dep), 1e-9)
}

// Without labels, a sentence that only shares generic words such as "tesis"
// or "estudio" with a question must not be taken as the answer.
const unlabelled = `Esta tesis analiza la morosidad de los socios en la región.
Los resultados del estudio muestran una tendencia creciente.
El trabajo siguió un enfoque no experimental y transversal.
La investigación se realizó con socios de la cooperativa.
`

func TestExtractiveQAIgnoresGenericOverlap(t *testing.T) {
	rules := DefaultRules()
	x := New(rules, providers.NewExtractiveProvider(), Options{}, nil)
	out := x.Extract(context.Background(), input(t, rules, unlabelled))
	r := out.Result

	require.Equal(t, models.NotIdentified, r.Advisor)
	require.Equal(t, models.NotIdentified, r.Title)
	require.Equal(t, models.NotIdentified, r.Subjects)
	require.Equal(t, "No experimental", r.Design)
	require.Equal(t, "keyword", out.Sources[models.FieldDesign])
}

func TestExtractFieldAuxiliaryAndRederive(t *testing.T) {
	rules := DefaultRules()
	x := New(rules, nil, Options{}, nil)
	in := input(t, rules, thesis)

	author, ok := x.ExtractField(context.Background(), "author", in, models.NewExtractionResult())
	require.True(t, ok)
	require.Equal(t, "Ana Torres", author)

	current := models.NewExtractionResult()
	current.Jury1 = "Dr. Carlos Ramos Vela"
	j2, ok := x.ExtractField(context.Background(), models.FieldJury2, in, current)
	require.True(t, ok)
	require.Equal(t, "Mg. Rosa Diaz Leon", j2)

	_, ok = x.ExtractField(context.Background(), "nope", in, current)
	require.False(t, ok)
}

func TestValueIsCutTo500Runes(t *testing.T) {
	rules := DefaultRules()
	x := New(rules, nil, Options{}, nil)
	long := strings.Repeat("á", 700)
	out := x.Extract(context.Background(), Input{Text: "Enfoque: " + long + "\n"})
	require.Equal(t, 500, len([]rune(out.Result.Approach)))
}

func TestParseRulesValidation(t *testing.T) {
	_, err := ParseRules([]byte("fields:\n  - key: nonsense\n"))
	require.ErrorContains(t, err, "unknown field")

	_, err = ParseRules([]byte("auxiliary:\n  - key: advisor\n"))
	require.ErrorContains(t, err, "shadows")

	_, err = ParseRules([]byte("fields:\n  - key: title\n    mode: sideways\n"))
	require.ErrorContains(t, err, "unknown mode")

	r, err := ParseRules([]byte("default_threshold: 0.4\nfields:\n  - key: title\n    labels: [titulo]\n    threshold: 0.7\n  - key: email\n"))
	require.NoError(t, err)
	title, _ := r.Rule(models.FieldTitle)
	email, _ := r.Rule(models.FieldEmail)
	require.InDelta(t, 0.7, r.Threshold(title), 1e-9)
	require.InDelta(t, 0.4, r.Threshold(email), 1e-9)
}

func TestLoadRulesFromMissingFile(t *testing.T) {
	_, err := LoadRules("/does/not/exist.yaml")
	require.Error(t, err)
	r, err := LoadRules("")
	require.NoError(t, err)
	require.NotEmpty(t, r.Fields)
}
