package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeTextRemovesNulAndControls(t *testing.T) {
	in := "ab\x00cd\x01\x02\n\txy"
	out := SanitizeText(in)
	if out != "abcd\n\txy" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestSanitizeTextUndoesPDFArtifacts(t *testing.T) {
	require.Equal(t, "la investigación", SanitizeText("la inves-\ntigación"))
	require.Equal(t, "confianza financiera", SanitizeText("con\ufb01anza \ufb01nan\u00adciera"))
	require.Equal(t, "a\nb\nc", SanitizeText("a\r\nb\rc"))
	require.Equal(t, "Perú-\nChile", SanitizeText("Perú-\nChile"))
}
