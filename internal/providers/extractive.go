package providers

import (
	"context"
	"strings"

	"tesisflow/internal/nlp"
	"tesisflow/internal/util"
)

// ExtractiveProvider scores each sentence of the context by how many question
// terms it contains and returns the best one. A sentence only qualifies when
// it holds at least half of the key terms, so "tesis" or "estudio" alone never
// produce an answer. It needs no network and is deterministic, which makes it
// the default and the last fallback.
type ExtractiveProvider struct{}

func NewExtractiveProvider() *ExtractiveProvider { return &ExtractiveProvider{} }

func (e *ExtractiveProvider) Answer(ctx context.Context, req QARequest) (QAAnswer, ProviderInfo, error) {
	info := ProviderInfo{Name: "extractive", Model: "lexical-overlap"}
	if err := ctx.Err(); err != nil {
		return QAAnswer{}, info, err
	}
	stems := util.QueryStems(req.Question)
	if len(stems) == 0 || strings.TrimSpace(req.Context) == "" {
		return QAAnswer{}, info, nil
	}
	keys := util.KeyStems(stems)

	var (
		best      string
		bestScore float64
	)
	for _, s := range nlp.Sentences(req.Context) {
		folded := nlp.Fold(s.Text)
		if 2*util.StemHits(folded, keys) < len(keys) {
			continue
		}
		score := float64(util.StemHits(folded, stems)) / float64(len(stems))
		if score > bestScore || (score == bestScore && score > 0 && len(s.Text) < len(best)) {
			best, bestScore = s.Text, score
		}
	}
	if bestScore == 0 {
		return QAAnswer{}, info, nil
	}
	return QAAnswer{Text: afterLabel(best, stems), Score: bestScore}, info, nil
}

// afterLabel drops a leading "Label:" when the label holds a question term,
// and keeps only the first line of what follows.
func afterLabel(sentence string, stems []string) string {
	i := strings.Index(sentence, ":")
	if i <= 0 {
		return strings.TrimSpace(sentence)
	}
	label := nlp.Fold(sentence[:i])
	for _, st := range stems {
		if strings.Contains(label, st) {
			rest := strings.TrimSpace(sentence[i+1:])
			if j := strings.Index(rest, "\n"); j > 0 {
				rest = strings.TrimSpace(rest[:j])
			}
			if rest != "" {
				return rest
			}
			break
		}
	}
	return strings.TrimSpace(sentence)
}
