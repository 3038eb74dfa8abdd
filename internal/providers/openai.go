package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const qaSystemPrompt = `Eres un asistente que responde preguntas sobre una tesis universitaria.
Responde solo con texto copiado del contexto. Si el contexto no contiene la respuesta, deja "answer" vacío.
Devuelve un objeto JSON con las claves "answer" (string) y "score" (número entre 0 y 1 que indica tu confianza).`

// OpenAIProvider answers with a chat completion constrained to a JSON object.
// OPENAI_BASE_URL points it at any OpenAI-compatible endpoint.
type OpenAIProvider struct {
	keyName string
	apiKey  string
	model   string
	client  *openai.Client
}

func NewOpenAIProvider(keyName string) *OpenAIProvider {
	apiKey := resolveOpenAIKey(keyName)
	cfg := openai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}
	model := strings.TrimSpace(os.Getenv("TESIS_OPENAI_MODEL"))
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{
		keyName: keyName,
		apiKey:  apiKey,
		model:   model,
		client:  openai.NewClientWithConfig(cfg),
	}
}

func (o *OpenAIProvider) Answer(ctx context.Context, req QARequest) (QAAnswer, ProviderInfo, error) {
	info := ProviderInfo{Name: "openai", Model: o.model, Key: o.keyName}
	if o.apiKey == "" {
		return QAAnswer{}, info, fmt.Errorf("openai key missing for alias %q", o.keyName)
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: qaSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Pregunta: " + req.Question + "\n\nContexto:\n" + req.Context},
		},
	})
	if err != nil {
		return QAAnswer{}, info, fmt.Errorf("openai qa request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return QAAnswer{}, info, fmt.Errorf("openai returned empty choices")
	}
	ans, err := parseQAJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return QAAnswer{}, info, fmt.Errorf("decode openai answer: %w", err)
	}
	return ans, info, nil
}

func resolveOpenAIKey(alias string) string {
	if alias != "" {
		k := os.Getenv("TESIS_OPENAI_KEY_" + sanitizeEnvToken(alias))
		if k != "" {
			return k
		}
	}
	return os.Getenv("OPENAI_API_KEY")
}

func sanitizeEnvToken(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}

// parseQAJSON accepts {"answer": "...", "score": 0.8}. Models sometimes wrap
// the object in a code fence; that is stripped first.
func parseQAJSON(raw string) (QAAnswer, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	var parsed struct {
		Answer string   `json:"answer"`
		Score  *float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return QAAnswer{}, err
	}
	ans := QAAnswer{Text: strings.TrimSpace(parsed.Answer)}
	if parsed.Score != nil {
		ans.Score = *parsed.Score
	} else if ans.Text != "" {
		ans.Score = 0.5
	}
	if ans.Score < 0 {
		ans.Score = 0
	}
	if ans.Score > 1 {
		ans.Score = 1
	}
	return ans, nil
}
