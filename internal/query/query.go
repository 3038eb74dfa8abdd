package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tesisflow/internal/extract"
	"tesisflow/internal/metrics"
	"tesisflow/internal/models"
	"tesisflow/internal/nlp"
	"tesisflow/internal/pipeline"
	"tesisflow/internal/providers"
	"tesisflow/internal/storage"
	"tesisflow/internal/util"
	"tesisflow/internal/vector"
)

const (
	StrategyAuthor   = "author"
	StrategyAdvisor  = "advisor"
	StrategyJury     = "jury"
	StrategyField    = "field"
	StrategyQA       = "qa"
	StrategyTFIDF    = "tfidf"
	StrategyNotFound = "not_found"
	StrategyError    = "error"
)

var (
	authorWords = []string{"estudiante", "autor", "alumno", "tesista"}
	advisorWord = "asesor"
	juryWord    = "jurado"
)

// Store is the read side of consultation persistence.
type Store interface {
	LatestConsultation(ctx context.Context, pdfName string) (models.StoredConsultation, error)
}

// Documents loads and processes an uploaded PDF. *pipeline.Pipeline
// implements it.
type Documents interface {
	Load(ctx context.Context, path string) (*pipeline.Corpus, error)
	Extract(ctx context.Context, c *pipeline.Corpus) pipeline.Report
}

type Options struct {
	UploadDir           string
	QAThreshold         float64
	SimilarityThreshold float64
	ContextChars        int
	ChunkSize           int
	ChunkOverlap        int
}

type Service struct {
	store     Store
	docs      Documents
	extractor *extract.Extractor
	qa        extract.QA
	opts      Options
	log       *zap.Logger
	metrics   *metrics.Recorder
}

func NewService(store Store, docs Documents, extractor *extract.Extractor, qa extract.QA, opts Options, log *zap.Logger, m *metrics.Recorder) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ContextChars <= 0 {
		opts.ContextChars = 12000
	}
	return &Service{store: store, docs: docs, extractor: extractor, qa: qa, opts: opts, log: log, metrics: m}
}

type Answer struct {
	Text     string `json:"answer"`
	Strategy string `json:"strategy"`
}

// Ask answers a free-text question about an uploaded PDF. It never fails:
// errors and panics come back as an "Error al procesar la pregunta" answer.
func (s *Service) Ask(ctx context.Context, pdfName, question string) (ans Answer) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("query panicked", zap.String("pdf", pdfName), zap.Any("panic", rec))
			ans = errorAnswer(fmt.Errorf("%v", rec))
		}
		s.metrics.Query(ans.Strategy)
	}()

	st := &state{s: s, ctx: ctx, pdfName: pdfName}
	ans, err := s.ask(st, question)
	if err != nil {
		s.log.Warn("query failed", zap.String("pdf", pdfName), zap.Error(err))
		return errorAnswer(err)
	}
	return ans
}

func errorAnswer(err error) Answer {
	return Answer{Text: "Error al procesar la pregunta: " + err.Error(), Strategy: StrategyError}
}

func (s *Service) ask(st *state, question string) (Answer, error) {
	q := nlp.Fold(question)

	// The author is not a schema field, so it always comes from the document.
	if containsAny(q, authorWords) {
		if _, err := st.corpus(); err != nil {
			return Answer{}, err
		}
		res, _ := st.result()
		author := st.derive("author", res)
		return Answer{Text: "El estudiante que realizó la tesis es: " + author, Strategy: StrategyAuthor}, nil
	}

	res, err := st.result()
	if err != nil {
		return Answer{}, err
	}

	if strings.Contains(q, advisorWord) {
		v := st.value(&res, models.FieldAdvisor)
		return Answer{Text: "El asesor de la tesis es: " + v, Strategy: StrategyAdvisor}, nil
	}

	if strings.Contains(q, juryWord) {
		j1 := st.value(&res, models.FieldJury1)
		j2 := st.value(&res, models.FieldJury2)
		j3 := st.value(&res, models.FieldJury3)
		return Answer{
			Text:     fmt.Sprintf("Los jurados son: Jurado 1: %s, Jurado 2: %s, Jurado 3: %s", j1, j2, j3),
			Strategy: StrategyJury,
		}, nil
	}

	if key, label, ok := matchLabel(q, &res); ok {
		if v := st.value(&res, key); !models.IsMissing(v) {
			return Answer{Text: label + ": " + v, Strategy: StrategyField}, nil
		}
	}

	if _, err := st.corpus(); err != nil {
		s.log.Info("document unavailable for open question", zap.String("pdf", st.pdfName), zap.Error(err))
		return notFound(question), nil
	}

	if s.qa != nil {
		a, _, err := s.qa.Answer(st.ctx, providers.QARequest{
			Operation: "query",
			Question:  question,
			Context:   st.qaContext(question),
		})
		switch {
		case err != nil:
			s.log.Warn("qa provider failed during query", zap.Error(err))
		case a.Score > s.opts.QAThreshold && strings.TrimSpace(a.Text) != "":
			return Answer{Text: strings.TrimSpace(a.Text), Strategy: StrategyQA}, nil
		}
	}

	if m, ok := st.index().Best(question, s.opts.SimilarityThreshold); ok {
		if snippet := util.DisplayEvidenceSnippet(m.Text, question, 500); snippet != "" {
			return Answer{Text: snippet, Strategy: StrategyTFIDF}, nil
		}
	}
	return notFound(question), nil
}

func notFound(question string) Answer {
	return Answer{
		Text:     fmt.Sprintf("No se encontró información relevante para la pregunta '%s'", question),
		Strategy: StrategyNotFound,
	}
}

// matchLabel finds the schema field whose label appears in the folded
// question. The longest label wins so "problema específico 2" beats a shorter
// overlap. Parenthesized label parts count as labels of their own.
func matchLabel(q string, res *models.ExtractionResult) (models.FieldKey, string, bool) {
	var (
		bestKey   models.FieldKey
		bestLabel string
		bestLen   int
	)
	for _, f := range res.Fields() {
		for _, variant := range labelVariants(f.Label) {
			v := nlp.Fold(variant)
			if v == "" || !strings.Contains(q, v) {
				continue
			}
			if len(v) > bestLen {
				bestKey, bestLabel, bestLen = f.Key, f.Label, len(v)
			}
		}
	}
	return bestKey, bestLabel, bestLen > 0
}

func labelVariants(label string) []string {
	out := []string{label}
	if i := strings.Index(label, "("); i > 0 {
		out = append(out, strings.TrimSpace(label[:i]))
		if j := strings.Index(label[i:], ")"); j > 1 {
			out = append(out, strings.TrimSpace(label[i+1:i+j]))
		}
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// state caches the stored result and the loaded corpus for one question.
type state struct {
	s       *Service
	ctx     context.Context
	pdfName string

	res     *models.ExtractionResult
	resErr  error
	resDone bool
	doc     *pipeline.Corpus
	docErr  error
	docDone bool
	idx     *vector.Index
}

// result prefers the stored consultation and falls back to processing the
// uploaded PDF without persisting anything.
func (st *state) result() (models.ExtractionResult, error) {
	if st.resDone {
		if st.resErr != nil {
			return models.ExtractionResult{}, st.resErr
		}
		return *st.res, nil
	}
	st.resDone = true

	if st.s.store != nil {
		c, err := st.s.store.LatestConsultation(st.ctx, st.pdfName)
		switch {
		case err == nil:
			st.res = &c.Results
			return c.Results, nil
		case !errors.Is(err, storage.ErrNotFound):
			st.s.log.Warn("stored consultation unavailable, reprocessing", zap.String("pdf", st.pdfName), zap.Error(err))
		}
	}

	doc, err := st.corpus()
	if err != nil {
		st.resErr = err
		return models.ExtractionResult{}, err
	}
	rep := st.s.docs.Extract(st.ctx, doc)
	st.res = &rep.Result
	return rep.Result, nil
}

func (st *state) corpus() (*pipeline.Corpus, error) {
	if st.docDone {
		return st.doc, st.docErr
	}
	st.docDone = true
	if st.s.docs == nil {
		st.docErr = errors.New("no document loader configured")
		return nil, st.docErr
	}
	path, err := util.SafeJoin(st.s.opts.UploadDir, st.pdfName)
	if err != nil {
		st.docErr = err
		return nil, err
	}
	st.doc, st.docErr = st.s.docs.Load(st.ctx, path)
	if st.docErr != nil {
		st.docErr = fmt.Errorf("load %s: %w", st.pdfName, st.docErr)
	}
	return st.doc, st.docErr
}

// value returns a stored field, re-deriving it from the document when it is
// missing. Re-derived values are written back into res so later fields skip
// names already used.
func (st *state) value(res *models.ExtractionResult, key models.FieldKey) string {
	v, _ := res.Get(key)
	if !models.IsMissing(v) {
		return v
	}
	if d := st.derive(key, *res); !models.IsMissing(d) {
		res.Set(key, d)
		return d
	}
	return models.NotIdentified
}

func (st *state) derive(key models.FieldKey, res models.ExtractionResult) string {
	if st.s.extractor == nil {
		return models.NotIdentified
	}
	doc, err := st.corpus()
	if err != nil {
		return models.NotIdentified
	}
	v, ok := st.s.extractor.ExtractField(st.ctx, key, doc.Input(), res)
	if !ok {
		return models.NotIdentified
	}
	return v
}

func (st *state) index() *vector.Index {
	if st.idx == nil {
		st.idx = vector.NewIndex(st.doc.Chunks(st.s.opts.ChunkSize, st.s.opts.ChunkOverlap))
	}
	return st.idx
}

func (st *state) qaContext(question string) string {
	return vector.Context(st.doc.Text, question, st.s.opts.ContextChars, st.index)
}
