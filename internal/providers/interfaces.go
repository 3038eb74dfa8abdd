package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

// QARequest asks for a span of Context that answers Question.
type QARequest struct {
	Operation string `json:"operation"`
	Question  string `json:"question"`
	Context   string `json:"context"`
}

// QAAnswer carries the answer text and a confidence in [0, 1].
type QAAnswer struct {
	Text  string  `json:"answer"`
	Score float64 `json:"score"`
}

type QAProvider interface {
	Answer(ctx context.Context, req QARequest) (QAAnswer, ProviderInfo, error)
}
