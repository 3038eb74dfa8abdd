package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

type Options struct {
	Language    string
	PageSegMode int
	DPI         int
	MinWidth    int
}

// Tesseract runs gosseract with a fresh client per image so concurrent
// callers never share Tesseract state.
type Tesseract struct {
	opts          Options
	clientFactory func() *gosseract.Client
}

func NewTesseract(opts Options) *Tesseract {
	if opts.Language == "" {
		opts.Language = "spa"
	}
	return &Tesseract{opts: opts, clientFactory: gosseract.NewClient}
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) Recognize(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := t.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(t.opts.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if t.opts.PageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(t.opts.PageSegMode)); err != nil {
			return "", fmt.Errorf("set psm: %w", err)
		}
	}
	if t.opts.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(t.opts.DPI)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
