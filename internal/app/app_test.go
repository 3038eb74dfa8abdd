package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tesisflow/internal/config"
	"tesisflow/internal/models"
	"tesisflow/internal/query"
	"tesisflow/internal/testpdf"
)

func testConfig(dir string) config.Config {
	return config.Config{
		UploadDir:           dir,
		QAProviders:         "extractive",
		QAThreshold:         0.3,
		QAContextChars:      12000,
		SimilarityThreshold: 0.1,
		ChunkSize:           600,
		ChunkOverlap:        100,
	}
}

func TestBuildProcessesAndAnswersWithoutStore(t *testing.T) {
	path := testpdf.Write(t, "tesis.pdf", []string{"Asesor: Jane Doe\nLugar: Tingo Maria"})
	cfg := testConfig(filepath.Dir(path))

	c, err := Build(cfg, nil, nil)
	require.NoError(t, err)

	rep := c.Pipeline.Process(context.Background(), path)
	require.Equal(t, "Jane Doe", rep.Result.Advisor)

	svc := c.QueryService(cfg, nil, nil, nil)
	ans := svc.Ask(context.Background(), "tesis.pdf", "¿Quién es el asesor?")
	require.Equal(t, query.StrategyAdvisor, ans.Strategy)
	require.Equal(t, "El asesor de la tesis es: Jane Doe", ans.Text)
}

func TestBuildRejectsBadRulesPath(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.RulesPath = "/does/not/exist.yaml"
	_, err := Build(cfg, nil, nil)
	require.Error(t, err)
}

func TestBuildWithEmptyProviderListFallsBackToExtractive(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.QAProviders = ""
	c, err := Build(cfg, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, c.QA.Count())
	require.Len(t, c.Extractor.Rules().Fields, len(models.SchemaKeys()))
}

func TestBuildPassesQAThresholdToExtractor(t *testing.T) {
	t.Setenv("TESIS_QA_THRESHOLD", "0.8")
	cfg := testConfig(t.TempDir())
	cfg.QAThreshold = config.Load().QAThreshold

	c, err := Build(cfg, nil, nil)
	require.NoError(t, err)

	design, ok := c.Extractor.Rules().Rule(models.FieldDesign)
	require.True(t, ok)
	require.InDelta(t, 0.8, c.Extractor.Threshold(design), 1e-9)

	size, ok := c.Extractor.Rules().Rule(models.FieldPopulationSize)
	require.True(t, ok)
	require.InDelta(t, 0.5, c.Extractor.Threshold(size), 1e-9)
}
