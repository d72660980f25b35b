package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks structural config invariants that hold for every command.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if len(cfg.LLM) == 0 {
		return errors.New("at least one llm profile is required")
	}
	for name, profile := range cfg.LLM {
		switch strings.ToLower(strings.TrimSpace(profile.Provider)) {
		case ProviderAnthropic, ProviderOpenAI, ProviderLocal:
		default:
			return fmt.Errorf("llm profile %q: unsupported provider %q", name, profile.Provider)
		}
		if strings.TrimSpace(profile.Model) == "" {
			return fmt.Errorf("llm profile %q: model is required", name)
		}
	}

	if len(cfg.Ladder) == 0 {
		return errors.New("degradation ladder must have at least one tier")
	}
	for i, tier := range cfg.Ladder {
		if strings.TrimSpace(tier.Backend) == "" {
			return fmt.Errorf("ladder tier %d: backend is required", i)
		}
		if _, ok := cfg.LLM[tier.Backend]; !ok {
			return fmt.Errorf("ladder tier %d (%s): unknown llm profile %q", i, tier.Label, tier.Backend)
		}
		if tier.TextOnly && len(tier.Tools) > 0 {
			return fmt.Errorf("ladder tier %d (%s): text_only tier cannot list tools", i, tier.Label)
		}
	}
	last := cfg.Ladder[len(cfg.Ladder)-1]
	if !last.TextOnly {
		return fmt.Errorf("terminal ladder tier %q must be text_only", last.Label)
	}

	if cfg.Context.MaxRecent <= 0 {
		return errors.New("context.max_recent must be positive")
	}
	if cfg.Context.MaxToolIterations <= 0 {
		return errors.New("context.max_tool_iterations must be positive")
	}
	return nil
}

// ValidateStartup checks invariants that only matter when a chat surface runs.
func ValidateStartup(cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	for _, tier := range cfg.Ladder {
		profile := cfg.LLM[tier.Backend]
		if profile.Provider != ProviderLocal && strings.TrimSpace(profile.APIKey) == "" {
			return fmt.Errorf("llm profile %q used by tier %q has no api_key", tier.Backend, tier.Label)
		}
	}
	telegram := cfg.Channels["telegram"]
	if telegram.Enabled && strings.TrimSpace(telegram.Token) == "" {
		return errors.New("telegram channel is enabled but has no token")
	}
	return nil
}
