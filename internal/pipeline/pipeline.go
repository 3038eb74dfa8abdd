package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tesisflow/internal/extract"
	"tesisflow/internal/ingest"
	"tesisflow/internal/metrics"
	"tesisflow/internal/models"
	"tesisflow/internal/nlp"
	"tesisflow/internal/observe"
	"tesisflow/internal/ocr"
	"tesisflow/internal/util"
)

// Deps are the long-lived models shared by every request. OCR may be nil.
type Deps struct {
	Reader     *ingest.Reader
	OCR        *ocr.Processor
	Recognizer *nlp.Recognizer
	Extractor  *extract.Extractor
	Checker    *observe.Checker
	Metrics    *metrics.Recorder
	Log        *zap.Logger
}

type Pipeline struct {
	d Deps
}

func New(d Deps) *Pipeline {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Reader == nil {
		d.Reader = ingest.NewReader(d.Log, d.OCR != nil)
	}
	if d.Recognizer == nil {
		d.Recognizer = nlp.NewRecognizer(nil)
	}
	if d.Extractor == nil {
		d.Extractor = extract.New(nil, nil, extract.Options{}, d.Log)
	}
	if d.Checker == nil {
		d.Checker = observe.NewChecker(nil, nil)
	}
	return &Pipeline{d: d}
}

func (p *Pipeline) Extractor() *extract.Extractor { return p.d.Extractor }

// Corpus is an ingested and analysed document, ready for extraction or
// question answering.
type Corpus struct {
	Name     string
	Hash     string
	Pages    []ingest.Page
	OCR      []ocr.Text
	Issues   []ingest.Issue
	Text     string
	Entities []nlp.Entity
}

func (c *Corpus) Input() extract.Input {
	return extract.Input{Text: c.Text, Entities: c.Entities}
}

// Chunks splits each page and each OCR text separately so a chunk never
// straddles two pages.
func (c *Corpus) Chunks(size, overlap int) []string {
	out := make([]string, 0, len(c.Pages)+len(c.OCR))
	for _, pg := range c.Pages {
		out = append(out, util.ChunkText(pg.Text, size, overlap)...)
	}
	for _, t := range c.OCR {
		out = append(out, util.ChunkText(t.Text, size, overlap)...)
	}
	return out
}

type Report struct {
	Name         string
	Hash         string
	Result       models.ExtractionResult
	Sources      map[models.FieldKey]string
	Observations []models.Observation
	Duration     time.Duration
}

// Load ingests the PDF at path and runs OCR and entity recognition. It does
// not extract fields.
func (p *Pipeline) Load(ctx context.Context, path string) (*Corpus, error) {
	doc, err := p.d.Reader.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.Analyze(ctx, doc), nil
}

func (p *Pipeline) Analyze(ctx context.Context, doc *ingest.Document) *Corpus {
	c := &Corpus{Name: doc.Name, Hash: doc.Hash, Pages: doc.Pages, Issues: append([]ingest.Issue(nil), doc.Issues...)}
	if p.d.OCR != nil && len(doc.Images) > 0 {
		texts, issues := p.d.OCR.Run(ctx, doc.Images)
		c.OCR = texts
		c.Issues = append(c.Issues, issues...)
	}
	c.Text = fullText(c.Pages, c.OCR)
	c.Entities = p.d.Recognizer.Recognize(c.Text)
	return c
}

// fullText joins each page's text with the OCR text of that page's images,
// one block per line. OCR text with no matching page goes last.
func fullText(pages []ingest.Page, texts []ocr.Text) string {
	byPage := map[int][]string{}
	for _, t := range texts {
		byPage[t.Page] = append(byPage[t.Page], t.Text)
	}
	var b strings.Builder
	for _, pg := range pages {
		b.WriteString(pg.Text)
		b.WriteString("\n")
		for _, t := range byPage[pg.Number] {
			b.WriteString(t)
			b.WriteString("\n")
		}
		delete(byPage, pg.Number)
	}
	for _, t := range texts {
		if _, orphan := byPage[t.Page]; orphan {
			b.WriteString(t.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Extract fills the schema and collects observations for a loaded corpus.
func (p *Pipeline) Extract(ctx context.Context, c *Corpus) Report {
	out := p.d.Extractor.Extract(ctx, c.Input())

	col := p.d.Checker.NewCollector()
	for _, is := range c.Issues {
		col.Processing(is.Page, is.Message)
	}
	col.Add(out.Observations...)
	for _, pg := range c.Pages {
		col.ScanPage(pg.Number, pg.Text)
	}
	for _, t := range c.OCR {
		col.ScanPage(t.Page, t.Text)
	}
	col.Completeness(out.Result, p.d.Extractor.Rules().MissingMessages())

	obs := col.Sorted()
	for _, o := range obs {
		p.d.Metrics.Observation(o.Type)
	}
	return Report{Name: c.Name, Hash: c.Hash, Result: out.Result, Sources: out.Sources, Observations: obs}
}

// Process runs the whole upload path. It never fails: a PDF that cannot be
// opened yields an all-sentinel result with a single processing observation.
func (p *Pipeline) Process(ctx context.Context, path string) Report {
	start := time.Now()
	doc, err := p.d.Reader.Open(ctx, path)
	if err != nil {
		p.d.Log.Warn("pdf could not be opened", zap.String("path", path), zap.Error(err))
		rep := Unreadable(err)
		rep.Duration = time.Since(start)
		return rep
	}
	rep := p.ProcessDocument(ctx, doc)
	rep.Duration = time.Since(start)
	return rep
}

func (p *Pipeline) ProcessDocument(ctx context.Context, doc *ingest.Document) Report {
	start := time.Now()
	rep := p.Extract(ctx, p.Analyze(ctx, doc))
	rep.Duration = time.Since(start)
	p.d.Metrics.PipelineSeconds(rep.Duration.Seconds())
	p.d.Log.Info("document processed",
		zap.String("pdf", doc.Name),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("missing_fields", len(rep.Result.Missing())),
		zap.Int("observations", len(rep.Observations)),
		zap.Duration("took", rep.Duration),
	)
	return rep
}

func Unreadable(err error) Report {
	return Report{
		Result: models.NewExtractionResult(),
		Observations: []models.Observation{{
			Type:    models.ObservationProcessing,
			Message: fmt.Sprintf("No se pudo abrir el PDF: %v", err),
		}},
	}
}
