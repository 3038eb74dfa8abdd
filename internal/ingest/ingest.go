package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"tesisflow/internal/util"
)

// Page is the text layer of one PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Image is an embedded raster image as stored in the PDF.
type Image struct {
	Page     int
	Name     string
	FileType string
	Data     []byte
}

// Issue is a recoverable problem met while reading the document. Page 0 means
// the document as a whole.
type Issue struct {
	Page    int
	Message string
}

type Document struct {
	Name   string
	Hash   string
	Pages  []Page
	Images []Image
	Issues []Issue
}

type Reader struct {
	log           *zap.Logger
	extractImages bool
}

func NewReader(log *zap.Logger, extractImages bool) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{log: log, extractImages: extractImages}
}

// Open reads the file at path. It fails only when the file cannot be read or
// is not a parseable PDF; per-page failures become Issues.
func (r *Reader) Open(ctx context.Context, path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return r.Parse(ctx, filepath.Base(path), raw)
}

func (r *Reader) Parse(ctx context.Context, name string, raw []byte) (doc *Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("open pdf: %v", rec)
		}
	}()

	pr, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	doc = &Document{Name: name, Hash: util.SHA256Hex(raw)}
	for i := 1; i <= pr.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, perr := pageText(pr, i)
		if perr != nil {
			r.log.Warn("page text extraction failed", zap.String("pdf", name), zap.Int("page", i), zap.Error(perr))
			doc.Issues = append(doc.Issues, Issue{Page: i, Message: fmt.Sprintf("No se pudo extraer el texto de la página: %v", perr)})
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Text: text})
	}

	if r.extractImages {
		imgs, ierr := extractImages(bytes.NewReader(raw))
		if ierr != nil {
			r.log.Warn("image extraction failed", zap.String("pdf", name), zap.Error(ierr))
			doc.Issues = append(doc.Issues, Issue{Page: 0, Message: fmt.Sprintf("No se pudieron extraer las imágenes: %v", ierr)})
		}
		doc.Images = imgs
	}

	r.log.Debug("pdf parsed",
		zap.String("pdf", name),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("images", len(doc.Images)),
		zap.Int("issues", len(doc.Issues)),
	)
	return doc, nil
}

func pageText(pr *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%v", rec)
		}
	}()
	p := pr.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return util.SanitizeText(strings.TrimSpace(text)), nil
}

func extractImages(rs io.ReadSeeker) (out []Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.ExtractImagesRaw(rs, nil, conf)
	if err != nil {
		return nil, err
	}
	for _, byObj := range pages {
		for _, img := range byObj {
			if img.Reader == nil {
				continue
			}
			data, rerr := io.ReadAll(img)
			if rerr != nil || len(data) == 0 {
				continue
			}
			out = append(out, Image{Page: img.PageNr, Name: img.Name, FileType: img.FileType, Data: data})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out, nil
}
