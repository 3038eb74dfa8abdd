package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisplaySnippet(t *testing.T) {
	in := "Hello\x00   world \n\t C\\u0001"
	out := DisplaySnippet(in, 100)
	if out == "" {
		t.Fatalf("expected non-empty snippet")
	}
	require.Equal(t, "Tabla 2 resultados", DisplaySnippet("Tabla2\n\n  resultados", 100))
	require.Equal(t, "abc...", DisplaySnippet("abcdef", 3))
}

func TestDisplayEvidenceSnippet(t *testing.T) {
	chunk := "La tesis estudia la morosidad de los socios. La muestra estuvo conformada por 120 socios de la cooperativa. Anexos sin relación."
	q := "¿Cuál fue la muestra de socios?"
	out := DisplayEvidenceSnippet(chunk, q, 200)
	if !strings.Contains(strings.ToLower(out), "muestra") {
		t.Fatalf("expected relevance to muestra in snippet, got: %q", out)
	}
	require.NotContains(t, out, "Anexos")
	require.True(t, strings.HasPrefix(out, "La tesis estudia"), out)
}

func TestDisplayEvidenceSnippetIgnoresAccents(t *testing.T) {
	chunk := "Introducción general. LA HIPOTESIS GENERAL es que la morosidad depende del ingreso."
	out := DisplayEvidenceSnippet(chunk, "¿Cuál es la hipótesis?", 200)
	require.Equal(t, "LA HIPOTESIS GENERAL es que la morosidad depende del ingreso.", out)
}

func TestQueryStems(t *testing.T) {
	require.Equal(t, []string{"objeti", "especi"}, QueryStems("¿Cuáles son los objetivos específicos?"))
	require.Empty(t, QueryTerms("¿Qué es la?"))
}

func TestSnippetAround(t *testing.T) {
	text := strings.Repeat("a ", 200) + "retaso" + strings.Repeat(" b", 200)
	start := strings.Index(text, "retaso")
	out := SnippetAround(text, start, start+len("retaso"), 80, 200)
	if !strings.Contains(out, "retaso") {
		t.Fatalf("expected match inside snippet, got %q", out)
	}
	if n := len([]rune(out)); n > 203 {
		t.Fatalf("snippet too long: %d", n)
	}
	require.Equal(t, "", SnippetAround("", 5, 9, 10, 50))
}
