package util

import (
	"strings"
	"unicode"
)

// ChunkText splits text into windows of at most chunkSize runes, each
// starting overlap runes before the previous one ended. A window that would
// cut a word is pulled back to the last space in its final fifth.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 600
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	runes := []rune(text)
	out := make([]string, 0, len(runes)/chunkSize+1)
	for i := 0; i < len(runes); {
		end := i + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			floor := end - chunkSize/5
			back := end
			for back > floor && !unicode.IsSpace(runes[back]) {
				back--
			}
			if back > floor {
				end = back
			}
		}
		if part := strings.TrimSpace(string(runes[i:end])); part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= i {
			next = end
		}
		i = next
	}
	return out
}
