package vector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextShortTextSkipsIndex(t *testing.T) {
	got := Context("Texto breve.", "¿algo?", 100, func() *Index {
		t.Fatal("index built for a short text")
		return nil
	})
	require.Equal(t, "Texto breve.", got)
}

func TestContextKeepsBestChunksWithinLimit(t *testing.T) {
	chunks := []string{
		"Agradecimientos a la familia y a los docentes.",
		"La población está conformada por 120 socios de la cooperativa.",
		"El diseño de la investigación es no experimental.",
	}
	text := strings.Join(chunks, " ")
	got := Context(text, "¿Cuántos socios tiene la población?", 70, func() *Index { return NewIndex(chunks) })
	require.Equal(t, chunks[1]+"\n\n", got)
}

func TestContextFallsBackToPrefix(t *testing.T) {
	text := strings.Repeat("ñandú ", 20)
	limit := 10

	got := Context(text, "satélite marciano", limit, func() *Index { return NewIndex([]string{text}) })
	require.Equal(t, string([]rune(text)[:limit]), got)

	got = Context(text, "ñandú", limit, func() *Index { return nil })
	require.Equal(t, "ñandú ñand", got)
}
