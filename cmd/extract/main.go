// Command extract analyses one thesis PDF offline: it prints the extracted
// fields and observations and optionally answers a question. Nothing is
// persisted.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"tesisflow/internal/app"
	"tesisflow/internal/config"
	"tesisflow/internal/logging"
	"tesisflow/internal/observe"
	"tesisflow/internal/util"
)

type output struct {
	PDFName      string   `json:"pdf_name"`
	Results      any      `json:"results"`
	Observations []string `json:"observations"`
	Question     string   `json:"question,omitempty"`
	Answer       string   `json:"answer,omitempty"`
	Strategy     string   `json:"strategy,omitempty"`
}

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	pdfPath := pflag.String("pdf", "", "Path to the thesis PDF")
	question := pflag.String("question", "", "Optional question to answer about the PDF")
	out := pflag.String("out", "", "Write results JSON here instead of stdout")
	obsOut := pflag.String("observations-out", "", "Write rendered observations, one per line, to this file")
	ocrEnabled := pflag.Bool("ocr", cfg.OCREnabled, "Run OCR on embedded images")
	logLevel := pflag.String("loglevel", "warn", "Log level (debug, info, warn, error)")
	pflag.Parse()

	if strings.TrimSpace(*pdfPath) == "" {
		fmt.Fprintln(os.Stderr, "usage: extract --pdf FILE [--question Q] [--out results.json] [--observations-out obs.txt] [--ocr]")
		os.Exit(2)
	}
	cfg.OCREnabled = *ocrEnabled

	logger, err := logging.New(*logLevel, "console")
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *pdfPath, *question, *out, *obsOut); err != nil {
		logger.Error("extract failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger, pdfPath, question, out, obsOut string) error {
	abs, err := filepath.Abs(pdfPath)
	if err != nil {
		return fmt.Errorf("resolve pdf path: %w", err)
	}
	cfg.UploadDir = filepath.Dir(abs)

	comps, err := app.Build(cfg, logger, nil)
	if err != nil {
		return err
	}
	ctx := context.Background()
	rep := comps.Pipeline.Process(ctx, abs)

	res := output{
		PDFName:      filepath.Base(abs),
		Results:      rep.Result,
		Observations: observe.RenderAll(rep.Observations),
	}
	if q := strings.TrimSpace(question); q != "" {
		ans := comps.QueryService(cfg, nil, logger, nil).Ask(ctx, res.PDFName, q)
		res.Question, res.Answer, res.Strategy = q, ans.Text, ans.Strategy
	}

	if obsOut != "" {
		if err := util.WriteTextAtomic(obsOut, strings.Join(res.Observations, "\n")+"\n"); err != nil {
			return err
		}
	}
	if out != "" {
		return util.WriteJSONAtomic(out, res)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}
