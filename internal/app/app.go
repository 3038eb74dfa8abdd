package app

import (
	"fmt"

	"go.uber.org/zap"

	"tesisflow/internal/config"
	"tesisflow/internal/extract"
	"tesisflow/internal/ingest"
	"tesisflow/internal/metrics"
	"tesisflow/internal/nlp"
	"tesisflow/internal/observe"
	"tesisflow/internal/ocr"
	"tesisflow/internal/pipeline"
	"tesisflow/internal/providers"
	"tesisflow/internal/query"
)

// Components are the read-only models built once per process and shared by
// every request.
type Components struct {
	Pipeline  *pipeline.Pipeline
	Extractor *extract.Extractor
	QA        *providers.Manager
}

func Build(cfg config.Config, log *zap.Logger, rec *metrics.Recorder) (*Components, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rules, err := extract.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	lex, err := observe.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, err
	}
	dict, err := nlp.DefaultDictionary(cfg.DictionaryPath)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	qa, err := providers.NewManager(cfg, log)
	if err != nil {
		return nil, err
	}

	var proc *ocr.Processor
	if cfg.OCREnabled {
		engine := ocr.NewTesseract(ocr.Options{
			Language:    cfg.OCRLanguage,
			PageSegMode: cfg.OCRPageSegMode,
			DPI:         cfg.OCRDPI,
			MinWidth:    cfg.OCRMinWidth,
		})
		proc = ocr.NewProcessor(engine, cfg.OCRMinWidth, log, rec)
	}

	x := extract.New(rules, qa, extract.Options{
		ContextChars: cfg.QAContextChars,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		QAThreshold:  cfg.QAThreshold,
	}, log)

	p := pipeline.New(pipeline.Deps{
		Reader:     ingest.NewReader(log, cfg.OCREnabled),
		OCR:        proc,
		Recognizer: nlp.NewRecognizer(rules.Locations),
		Extractor:  x,
		Checker:    observe.NewChecker(lex, nlp.NewSpellChecker(dict)),
		Metrics:    rec,
		Log:        log,
	})
	log.Info("analyzer ready",
		zap.Int("qa_providers", qa.Count()),
		zap.Bool("ocr", cfg.OCREnabled),
		zap.Int("dictionary_words", dict.Len()),
	)
	return &Components{Pipeline: p, Extractor: x, QA: qa}, nil
}

// QueryService wires the question chain over these components. store may be
// nil, in which case every question re-processes the PDF.
func (c *Components) QueryService(cfg config.Config, store query.Store, log *zap.Logger, rec *metrics.Recorder) *query.Service {
	return query.NewService(store, c.Pipeline, c.Extractor, c.QA, query.Options{
		UploadDir:           cfg.UploadDir,
		QAThreshold:         cfg.QAThreshold,
		SimilarityThreshold: cfg.SimilarityThreshold,
		ContextChars:        cfg.QAContextChars,
		ChunkSize:           cfg.ChunkSize,
		ChunkOverlap:        cfg.ChunkOverlap,
	}, log, rec)
}
