package backend

import (
	"fmt"
	"strings"

	"github.com/brainstem-ai/brainstem/internal/config"
)

// New builds one backend from an llm config profile.
func New(id string, cfg config.LLMConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.ProviderAnthropic:
		return newAnthropicBackend(id, cfg)
	case config.ProviderOpenAI:
		return newOpenAIBackend(id, cfg)
	case config.ProviderLocal:
		return newLocalBackend(id, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider %q for llm profile %q", cfg.Provider, id)
	}
}

// NewSet builds every backend referenced by the degradation ladder, keyed by
// profile name. Profiles the ladder never names are skipped.
func NewSet(cfg *config.Config) (map[string]Backend, error) {
	needed := map[string]struct{}{}
	for _, tier := range cfg.Ladder {
		needed[tier.Backend] = struct{}{}
	}

	out := make(map[string]Backend, len(needed))
	for id := range needed {
		profile, ok := cfg.LLM[id]
		if !ok {
			return nil, fmt.Errorf("ladder references unknown llm profile %q", id)
		}
		b, err := New(id, profile)
		if err != nil {
			return nil, err
		}
		out[id] = b
	}
	return out, nil
}
