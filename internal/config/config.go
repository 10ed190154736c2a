// Package config loads and validates server configuration from a file
// and environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config contains all configuration for the concierge server.
type Config struct {
	// Server
	Port int `mapstructure:"port" validate:"min=1,max=65535"`

	// LLM
	LLM LLMConfig `mapstructure:"llm" validate:"required"`

	// Data files
	Data DataConfig `mapstructure:"data" validate:"required"`

	// Google Calendar mirroring (optional)
	Google GoogleConfig `mapstructure:"google"`

	// Memory
	Memory MemoryConfig `mapstructure:"memory"`
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider        string `mapstructure:"provider" validate:"required,oneof=gemini claude"`
	Model           string `mapstructure:"model"`
	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
}

// DataConfig points at the CSV and JSON data files.
type DataConfig struct {
	CatalogPath   string `mapstructure:"catalog_path" validate:"required"`
	EvidencePath  string `mapstructure:"evidence_path" validate:"required"`
	ProfilesPath  string `mapstructure:"profiles_path" validate:"required"`
	RemindersPath string `mapstructure:"reminders_path" validate:"required"`
}

// GoogleConfig configures calendar mirroring. Empty CredentialsFile
// disables it.
type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
	CalendarID      string `mapstructure:"calendar_id"`
	Timezone        string `mapstructure:"timezone"`
}

// MemoryConfig configures conversation memory.
type MemoryConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	RetrieveLimit int  `mapstructure:"retrieve_limit" validate:"min=0,max=50"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Port: 8080,
		LLM: LLMConfig{
			Provider: "gemini",
		},
		Data: DataConfig{
			CatalogPath:   "data/products.csv",
			EvidencePath:  "data/evidence.csv",
			ProfilesPath:  "data/profiles.json",
			RemindersPath: "data/reminders.json",
		},
		Google: GoogleConfig{
			CalendarID: "primary",
			Timezone:   "UTC",
		},
		Memory: MemoryConfig{
			Enabled:       true,
			RetrieveLimit: 5,
		},
	}
}

// Load reads configuration from an optional file, overlaying environment
// variables prefixed with SKINBUDDY_ (SKINBUDDY_LLM_GEMINI_API_KEY, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SKINBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("port", def.Port)
	v.SetDefault("llm.provider", def.LLM.Provider)
	v.SetDefault("data.catalog_path", def.Data.CatalogPath)
	v.SetDefault("data.evidence_path", def.Data.EvidencePath)
	v.SetDefault("data.profiles_path", def.Data.ProfilesPath)
	v.SetDefault("data.reminders_path", def.Data.RemindersPath)
	v.SetDefault("google.calendar_id", def.Google.CalendarID)
	v.SetDefault("google.timezone", def.Google.Timezone)
	v.SetDefault("memory.enabled", def.Memory.Enabled)
	v.SetDefault("memory.retrieve_limit", def.Memory.RetrieveLimit)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("llm.gemini_api_key is required for the gemini provider")
		}
	case "claude":
		if c.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("llm.anthropic_api_key is required for the claude provider")
		}
	}
	if c.Google.CredentialsFile != "" && c.Google.TokenFile == "" {
		return fmt.Errorf("google.token_file is required when google.credentials_file is set")
	}
	return nil
}

// APIKey returns the key for the selected provider.
func (c *LLMConfig) APIKey() string {
	if c.Provider == "claude" {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}
