package ocr

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tesisflow/internal/ingest"
	"tesisflow/internal/metrics"
)

// Engine turns a preprocessed PNG into text.
type Engine interface {
	Recognize(ctx context.Context, png []byte) (string, error)
}

// Text is the OCR output for one embedded image.
type Text struct {
	Page  int
	Image string
	Text  string
}

type Processor struct {
	engine   Engine
	minWidth int
	log      *zap.Logger
	metrics  *metrics.Recorder
}

func NewProcessor(engine Engine, minWidth int, log *zap.Logger, m *metrics.Recorder) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{engine: engine, minWidth: minWidth, log: log, metrics: m}
}

// Run recognizes every image in order. A failing image is reported as an
// issue on its page and the rest still run.
func (p *Processor) Run(ctx context.Context, images []ingest.Image) ([]Text, []ingest.Issue) {
	if p == nil || p.engine == nil {
		return nil, nil
	}
	var (
		texts  []Text
		issues []ingest.Issue
	)
	for _, img := range images {
		if ctx.Err() != nil {
			issues = append(issues, ingest.Issue{Page: img.Page, Message: fmt.Sprintf("OCR cancelado: %v", ctx.Err())})
			break
		}
		text, err := p.one(ctx, img)
		if err != nil {
			p.metrics.OCRImage("error")
			p.log.Warn("ocr failed", zap.Int("page", img.Page), zap.String("image", img.Name), zap.Error(err))
			issues = append(issues, ingest.Issue{Page: img.Page, Message: fmt.Sprintf("Error de OCR en la imagen %s: %v", img.Name, err)})
			continue
		}
		p.metrics.OCRImage("ok")
		if text == "" {
			continue
		}
		texts = append(texts, Text{Page: img.Page, Image: img.Name, Text: text})
	}
	return texts, issues
}

func (p *Processor) one(ctx context.Context, img ingest.Image) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("panic: %v", rec)
		}
	}()
	prepared, err := Preprocess(img.Data, p.minWidth)
	if err != nil {
		return "", err
	}
	return p.engine.Recognize(ctx, prepared)
}
