package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tesisflow/internal/config"
)

type NamedQAProvider struct {
	Ref      ProviderRef
	Provider QAProvider
}

// Manager holds the configured QA providers and answers with the first one
// that succeeds. The extractive provider is always tried last.
type Manager struct {
	providers []NamedQAProvider
	log       *zap.Logger
}

func NewManager(cfg config.Config, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{log: log}
	for _, ref := range ParseProviderList(cfg.QAProviders) {
		p, err := buildProvider(ref)
		if err != nil {
			return nil, err
		}
		m.providers = append(m.providers, NamedQAProvider{Ref: ref, Provider: p})
	}
	if len(m.providers) == 0 {
		m.providers = []NamedQAProvider{{Ref: extractiveRef, Provider: NewExtractiveProvider()}}
	}
	return m, nil
}

// NewManagerWith wires explicit providers, mostly for tests.
func NewManagerWith(log *zap.Logger, providers ...NamedQAProvider) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{providers: providers, log: log}
}

func (m *Manager) Count() int {
	return len(m.providers)
}

func (m *Manager) ProviderByIndex(i int) (QAProvider, ProviderRef) {
	if len(m.providers) == 0 {
		return NewExtractiveProvider(), extractiveRef
	}
	if i < 0 || i >= len(m.providers) {
		i = 0
	}
	return m.providers[i].Provider, m.providers[i].Ref
}

func (m *Manager) PreferredOrder() []int {
	return preferredOrder(len(m.providers), func(i int) string { return strings.ToLower(m.providers[i].Ref.Name) })
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "extractive" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "extractive" {
			out = append(out, i)
		}
	}
	return out
}

// Answer walks providers in preferred order. Context-length failures are not
// retried on the next provider because the input would fail there too.
func (m *Manager) Answer(ctx context.Context, req QARequest) (QAAnswer, ProviderInfo, error) {
	if m == nil || len(m.providers) == 0 {
		return NewExtractiveProvider().Answer(ctx, req)
	}
	var errs []error
	for _, i := range m.PreferredOrder() {
		p, ref := m.ProviderByIndex(i)
		ans, info, err := p.Answer(ctx, req)
		if err == nil {
			return ans, info, nil
		}
		kind := ClassifyError(err)
		m.log.Warn("qa provider failed",
			zap.String("provider", ref.Raw),
			zap.String("operation", req.Operation),
			zap.String("error_type", string(kind)),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w: %w", ref.Raw, kind.Sentinel(), err))
		if kind == ErrorContext || ctx.Err() != nil {
			break
		}
	}
	return QAAnswer{}, ProviderInfo{}, errors.Join(errs...)
}

func buildProvider(ref ProviderRef) (QAProvider, error) {
	switch strings.ToLower(ref.Name) {
	case "extractive":
		return NewExtractiveProvider(), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
