package util

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := ChunkText(text, 10, 2)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != "abcdefghij" {
		t.Fatalf("unexpected first chunk: %s", chunks[0])
	}
}

func TestChunkTextPrefersWordBoundaries(t *testing.T) {
	chunks := ChunkText("uno dos tres cuatro cinco seis siete ocho", 12, 0)
	require.Equal(t, "uno dos tres", chunks[0])
	for _, c := range chunks {
		require.LessOrEqual(t, utf8.RuneCountInString(c), 12)
	}
	require.Empty(t, ChunkText("   ", 10, 0))
}
