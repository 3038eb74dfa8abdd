package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tesisflow/internal/testpdf"
)

func TestOpenReadsPagesInOrder(t *testing.T) {
	path := testpdf.Write(t, "tesis.pdf", []string{"Asesor: Jane Doe", "", "Objetivo general: Medir"})
	doc, err := NewReader(zap.NewNop(), false).Open(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "tesis.pdf", doc.Name)
	require.Len(t, doc.Hash, 64)
	require.Len(t, doc.Pages, 3)
	require.Equal(t, 1, doc.Pages[0].Number)
	require.Contains(t, doc.Pages[0].Text, "Jane Doe")
	require.Empty(t, doc.Pages[1].Text)
	require.Contains(t, doc.Pages[2].Text, "Objetivo general")
}

func TestOpenWithImageExtractionTolerant(t *testing.T) {
	path := testpdf.Write(t, "vacio.pdf", []string{""})
	doc, err := NewReader(zap.NewNop(), true).Open(context.Background(), path)
	require.NoError(t, err)
	require.Empty(t, doc.Images)
	require.Len(t, doc.Pages, 1)
}

func TestOpenRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roto.pdf")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a pdf"), 0o644))
	_, err := NewReader(nil, false).Open(context.Background(), path)
	require.Error(t, err)

	_, err = NewReader(nil, false).Open(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}
