package models

// NotIdentified marks a schema field that no extraction strategy resolved.
const NotIdentified = "No identificado"

type FieldKey string

const (
	FieldTimestamp            FieldKey = "timestamp"
	FieldEmail                FieldKey = "email"
	FieldTitle                FieldKey = "title"
	FieldLink                 FieldKey = "link"
	FieldAdvisor              FieldKey = "advisor"
	FieldJury1                FieldKey = "jury_1"
	FieldJury2                FieldKey = "jury_2"
	FieldJury3                FieldKey = "jury_3"
	FieldPlace                FieldKey = "place"
	FieldSubjects             FieldKey = "subjects"
	FieldDependentVariable    FieldKey = "dependent_variable"
	FieldIndependentVariable  FieldKey = "independent_variable"
	FieldApproach             FieldKey = "approach"
	FieldScope                FieldKey = "scope"
	FieldDesign               FieldKey = "design"
	FieldGeneralProblem       FieldKey = "general_problem"
	FieldSpecificProblem1     FieldKey = "specific_problem_1"
	FieldSpecificProblem2     FieldKey = "specific_problem_2"
	FieldSpecificProblem3     FieldKey = "specific_problem_3"
	FieldSpecificProblem4     FieldKey = "specific_problem_4"
	FieldGeneralObjective     FieldKey = "general_objective"
	FieldSpecificObjective1   FieldKey = "specific_objective_1"
	FieldSpecificObjective2   FieldKey = "specific_objective_2"
	FieldSpecificObjective3   FieldKey = "specific_objective_3"
	FieldSpecificObjective4   FieldKey = "specific_objective_4"
	FieldGeneralHypothesis    FieldKey = "general_hypothesis"
	FieldSpecificHypothesis1  FieldKey = "specific_hypothesis_1"
	FieldSpecificHypothesis2  FieldKey = "specific_hypothesis_2"
	FieldSpecificHypothesis3  FieldKey = "specific_hypothesis_3"
	FieldSpecificHypothesis4  FieldKey = "specific_hypothesis_4"
	FieldResearchLine         FieldKey = "research_line"
	FieldPopulationDesc       FieldKey = "population_description"
	FieldPopulationSize       FieldKey = "population_size"
	FieldSampleSize           FieldKey = "sample_size"
	FieldStatisticalTest      FieldKey = "statistical_test"
	FieldPublicationDate      FieldKey = "publication_date"
	FieldObservationType      FieldKey = "observation_type"
	FieldObservationDetail    FieldKey = "observation_detail"
	FieldObservationPage      FieldKey = "observation_page"
)

// ExtractionResult is the fixed thesis schema. JSON keys are the Spanish
// labels shown to users and written to the store.
type ExtractionResult struct {
	Timestamp           string `json:"Marca temporal"`
	Email               string `json:"Dirección de correo electrónico"`
	Title               string `json:"Título de la tesis"`
	Link                string `json:"Link de la tesis"`
	Advisor             string `json:"Asesor"`
	Jury1               string `json:"Jurado 1"`
	Jury2               string `json:"Jurado 2"`
	Jury3               string `json:"Jurado 3"`
	Place               string `json:"Lugar"`
	Subjects            string `json:"Quienes (Sujetos de estudio)"`
	DependentVariable   string `json:"Variable dependiente"`
	IndependentVariable string `json:"Variable independiente"`
	Approach            string `json:"Enfoque"`
	Scope               string `json:"Nivel o alcance"`
	Design              string `json:"Diseño de investigación"`
	GeneralProblem      string `json:"Problema general"`
	SpecificProblem1    string `json:"Problema específico 1"`
	SpecificProblem2    string `json:"Problema específico 2"`
	SpecificProblem3    string `json:"Problema específico 3"`
	SpecificProblem4    string `json:"Problema específico 4"`
	GeneralObjective    string `json:"Objetivo general"`
	SpecificObjective1  string `json:"Objetivo específico 1"`
	SpecificObjective2  string `json:"Objetivo específico 2"`
	SpecificObjective3  string `json:"Objetivo específico 3"`
	SpecificObjective4  string `json:"Objetivo específico 4"`
	GeneralHypothesis   string `json:"Hipótesis general"`
	SpecificHypothesis1 string `json:"Hipótesis específica 1"`
	SpecificHypothesis2 string `json:"Hipótesis específica 2"`
	SpecificHypothesis3 string `json:"Hipótesis específica 3"`
	SpecificHypothesis4 string `json:"Hipótesis específica 4"`
	ResearchLine        string `json:"Línea de investigación"`
	PopulationDesc      string `json:"Descripción de la población"`
	PopulationSize      string `json:"Cantidad de la población"`
	SampleSize          string `json:"Cantidad de la muestra"`
	StatisticalTest     string `json:"Prueba estadística"`
	PublicationDate     string `json:"Fecha de publicación"`
	ObservationType     string `json:"Tipo de observación"`
	ObservationDetail   string `json:"Detalle de la observación"`
	ObservationPage     string `json:"Número de página de la observación"`
}

type FieldRef struct {
	Key   FieldKey
	Label string
	Value *string
}

func NewExtractionResult() ExtractionResult {
	var r ExtractionResult
	for _, f := range r.Fields() {
		*f.Value = NotIdentified
	}
	return r
}

// Fields lists every schema field in display order.
func (r *ExtractionResult) Fields() []FieldRef {
	return []FieldRef{
		{FieldTimestamp, "Marca temporal", &r.Timestamp},
		{FieldEmail, "Dirección de correo electrónico", &r.Email},
		{FieldTitle, "Título de la tesis", &r.Title},
		{FieldLink, "Link de la tesis", &r.Link},
		{FieldAdvisor, "Asesor", &r.Advisor},
		{FieldJury1, "Jurado 1", &r.Jury1},
		{FieldJury2, "Jurado 2", &r.Jury2},
		{FieldJury3, "Jurado 3", &r.Jury3},
		{FieldPlace, "Lugar", &r.Place},
		{FieldSubjects, "Quienes (Sujetos de estudio)", &r.Subjects},
		{FieldDependentVariable, "Variable dependiente", &r.DependentVariable},
		{FieldIndependentVariable, "Variable independiente", &r.IndependentVariable},
		{FieldApproach, "Enfoque", &r.Approach},
		{FieldScope, "Nivel o alcance", &r.Scope},
		{FieldDesign, "Diseño de investigación", &r.Design},
		{FieldGeneralProblem, "Problema general", &r.GeneralProblem},
		{FieldSpecificProblem1, "Problema específico 1", &r.SpecificProblem1},
		{FieldSpecificProblem2, "Problema específico 2", &r.SpecificProblem2},
		{FieldSpecificProblem3, "Problema específico 3", &r.SpecificProblem3},
		{FieldSpecificProblem4, "Problema específico 4", &r.SpecificProblem4},
		{FieldGeneralObjective, "Objetivo general", &r.GeneralObjective},
		{FieldSpecificObjective1, "Objetivo específico 1", &r.SpecificObjective1},
		{FieldSpecificObjective2, "Objetivo específico 2", &r.SpecificObjective2},
		{FieldSpecificObjective3, "Objetivo específico 3", &r.SpecificObjective3},
		{FieldSpecificObjective4, "Objetivo específico 4", &r.SpecificObjective4},
		{FieldGeneralHypothesis, "Hipótesis general", &r.GeneralHypothesis},
		{FieldSpecificHypothesis1, "Hipótesis específica 1", &r.SpecificHypothesis1},
		{FieldSpecificHypothesis2, "Hipótesis específica 2", &r.SpecificHypothesis2},
		{FieldSpecificHypothesis3, "Hipótesis específica 3", &r.SpecificHypothesis3},
		{FieldSpecificHypothesis4, "Hipótesis específica 4", &r.SpecificHypothesis4},
		{FieldResearchLine, "Línea de investigación", &r.ResearchLine},
		{FieldPopulationDesc, "Descripción de la población", &r.PopulationDesc},
		{FieldPopulationSize, "Cantidad de la población", &r.PopulationSize},
		{FieldSampleSize, "Cantidad de la muestra", &r.SampleSize},
		{FieldStatisticalTest, "Prueba estadística", &r.StatisticalTest},
		{FieldPublicationDate, "Fecha de publicación", &r.PublicationDate},
		{FieldObservationType, "Tipo de observación", &r.ObservationType},
		{FieldObservationDetail, "Detalle de la observación", &r.ObservationDetail},
		{FieldObservationPage, "Número de página de la observación", &r.ObservationPage},
	}
}

func (r *ExtractionResult) field(key FieldKey) (FieldRef, bool) {
	for _, f := range r.Fields() {
		if f.Key == key {
			return f, true
		}
	}
	return FieldRef{}, false
}

func (r *ExtractionResult) Get(key FieldKey) (string, bool) {
	f, ok := r.field(key)
	if !ok {
		return "", false
	}
	return *f.Value, true
}

func (r *ExtractionResult) Set(key FieldKey, value string) bool {
	f, ok := r.field(key)
	if !ok {
		return false
	}
	*f.Value = value
	return true
}

func (r *ExtractionResult) Label(key FieldKey) string {
	if f, ok := r.field(key); ok {
		return f.Label
	}
	return string(key)
}

func (r *ExtractionResult) Missing() []FieldKey {
	out := make([]FieldKey, 0)
	for _, f := range r.Fields() {
		if IsMissing(*f.Value) {
			out = append(out, f.Key)
		}
	}
	return out
}

// IsMissing reports whether v carries no extracted value.
func IsMissing(v string) bool {
	return v == "" || v == NotIdentified
}

func SchemaKeys() []FieldKey {
	var r ExtractionResult
	fields := r.Fields()
	out := make([]FieldKey, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Key)
	}
	return out
}
