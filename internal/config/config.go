// Package config loads brainstem runtime configuration from a TOML file and
// environment variables, exposing typed structs and accessors for all sections.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Backend provider names accepted in llm profiles.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderLocal     = "local"
)

// Config is the runtime configuration loaded from defaults, config.toml, and env vars.
type Config struct {
	// HomeDir is runtime-resolved from BRAINSTEM_HOME and not read from config.
	HomeDir   string                   `mapstructure:"-"`
	LLM       map[string]LLMConfig     `mapstructure:"llm"`
	Ladder    []TierConfig             `mapstructure:"ladder"`
	Context   ContextConfig            `mapstructure:"context"`
	Channels  map[string]ChannelConfig `mapstructure:"channels"`
	Scheduler SchedulerConfig          `mapstructure:"scheduler"`
}

// LLMConfig configures one backend profile.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	BaseURL        string        `mapstructure:"base_url"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// ComplexTimeout replaces RequestTimeout for requests flagged as complex.
	ComplexTimeout time.Duration `mapstructure:"complex_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

// TierConfig is one rung of the degradation ladder.
type TierConfig struct {
	Label   string `mapstructure:"label"`
	Backend string `mapstructure:"backend"`
	// Tools restricts the tool set at this tier. Empty means the full set
	// unless TextOnly is set.
	Tools    []string `mapstructure:"tools"`
	TextOnly bool     `mapstructure:"text_only"`
}

// ContextConfig controls the conversation window and loop guard.
type ContextConfig struct {
	MaxRecent         int `mapstructure:"max_recent"`
	MaxToolIterations int `mapstructure:"max_tool_iterations"`
}

// ChannelConfig configures one inbound/outbound channel.
type ChannelConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	ChatID  int64  `mapstructure:"chat_id"`
}

// SchedulerConfig controls the nudge scheduler.
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Essential and minimal tool subsets used by the default ladder.
var (
	essentialTools = []string{
		"add_task_to_list",
		"list_current_tasks",
		"remove_task_from_list",
		"update_task_status",
		"update_task_priority",
		"get_current_datetime",
	}
	minimalTools = []string{
		"add_task_to_list",
		"list_current_tasks",
		"get_current_datetime",
	}
)

var defaultConfig = Config{
	LLM: map[string]LLMConfig{
		"cloud": {
			Provider:       ProviderAnthropic,
			APIKey:         "",
			Model:          "claude-sonnet-4-5",
			MaxTokens:      4096,
			RequestTimeout: 30 * time.Second,
			ComplexTimeout: 2 * time.Minute,
		},
		"ondevice": {
			Provider:       ProviderLocal,
			BaseURL:        "http://127.0.0.1:11434/v1/chat/completions",
			Model:          "llama3.2:3b",
			MaxTokens:      1024,
			RequestTimeout: 20 * time.Second,
			RetryAttempts:  2,
			RetryDelay:     500 * time.Millisecond,
		},
	},
	Ladder: []TierConfig{
		{Label: "cloud-full", Backend: "cloud"},
		{Label: "on-device-full", Backend: "ondevice"},
		{Label: "on-device-essential", Backend: "ondevice", Tools: essentialTools},
		{Label: "on-device-minimal", Backend: "ondevice", Tools: minimalTools},
		{Label: "text-only", Backend: "ondevice", TextOnly: true},
	},
	Context: ContextConfig{
		MaxRecent:         10,
		MaxToolIterations: 8,
	},
	Channels: map[string]ChannelConfig{
		"telegram": {
			Enabled: false,
			Token:   "",
		},
	},
	Scheduler: SchedulerConfig{
		Enabled: false,
	},
}

// Load merges defaults, the config file, and env var overrides.
func Load() (*Config, error) {
	homeDir, err := resolveHomeDir()
	if err != nil {
		return nil, err
	}
	return loadFrom(homeDir)
}

func loadFrom(homeDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(homeDir)

	v.SetEnvPrefix("BRAINSTEM")
	v.AutomaticEnv()

	if err := setDefaults(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.HomeDir = homeDir
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) error {
	defaults := map[string]any{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &defaults,
		TagName: "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("build defaults decoder: %w", err)
	}
	if err := decoder.Decode(defaultConfig); err != nil {
		return fmt.Errorf("decode default config: %w", err)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return nil
}

// applyEnvOverrides maps well-known env vars onto config fields that viper's
// AutomaticEnv cannot reach inside map sections.
func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("BRAINSTEM_CLOUD_API_KEY"); key != "" {
		profile := cfg.LLM["cloud"]
		profile.APIKey = key
		cfg.LLM["cloud"] = profile
	}
	if token := os.Getenv("BRAINSTEM_TELEGRAM_TOKEN"); token != "" {
		channel := cfg.Channels["telegram"]
		channel.Token = token
		cfg.Channels["telegram"] = channel
	}
}

func resolveHomeDir() (string, error) {
	if custom := os.Getenv("BRAINSTEM_HOME"); custom != "" {
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home directory: %w", err)
	}
	return filepath.Join(home, ".brainstem"), nil
}

// Write renders the merged configuration (defaults plus any config file) as
// TOML without applying env overrides, so secrets from the environment never
// end up on stdout.
func Write(w io.Writer) error {
	if w == nil {
		return errors.New("writer is required")
	}

	homeDir, err := resolveHomeDir()
	if err != nil {
		return err
	}

	v := viper.New()
	if err := setDefaults(v); err != nil {
		return err
	}
	v.SetConfigFile(filepath.Join(homeDir, "config.toml"))
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	// Keep duration fields human-readable in generated TOML.
	for profile := range v.GetStringMap("llm") {
		for _, field := range []string{"request_timeout", "complex_timeout", "retry_delay"} {
			key := "llm." + profile + "." + field
			if d := v.GetDuration(key); d > 0 {
				v.Set(key, d.String())
			}
		}
	}

	if err := v.WriteConfigTo(w); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// WriteDefaultConfigFile renders the default config as TOML for first-run setup.
func WriteDefaultConfigFile(path string) error {
	v := viper.New()
	v.SetConfigType("toml")
	if err := setDefaults(v); err != nil {
		return err
	}
	return v.SafeWriteConfigAs(path)
}
