package util

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeJoinKeepsBaseName(t *testing.T) {
	p, err := SafeJoin("/uploads", "../../etc/tesis.pdf")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/uploads", "tesis.pdf"), p)

	for _, bad := range []string{"", "..", "/"} {
		_, err := SafeJoin("/uploads", bad)
		require.True(t, errors.Is(err, ErrInvalidName), bad)
	}
}

func TestAtomicWriters(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out", "res.json")
	require.NoError(t, WriteJSONAtomic(jsonPath, map[string]string{"Asesor": "Jane <Doe>"}))
	b, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.Contains(t, string(b), `"Asesor": "Jane <Doe>"`)

	txtPath := filepath.Join(dir, "obs.txt")
	require.NoError(t, WriteTextAtomic(txtPath, "uno\ndos\n"))
	b, err = os.ReadFile(txtPath)
	require.NoError(t, err)
	require.Equal(t, "uno\ndos\n", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasPrefix(e.Name(), "tmp-"), e.Name())
	}
}

func TestDigestReader(t *testing.T) {
	d := NewDigestReader(strings.NewReader("hola"))
	b, err := io.ReadAll(d)
	require.NoError(t, err)
	require.Equal(t, "hola", string(b))
	require.Equal(t, SHA256Hex([]byte("hola")), d.Hex())
}
