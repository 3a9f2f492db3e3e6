package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Gemini    GeminiConfig
	Freshdesk FreshdeskConfig
	Matching  MatchingConfig
	Cache     CacheConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DataConfig holds catalog data source configuration
type DataConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

// GeminiConfig holds text-generation API configuration
type GeminiConfig struct {
	APIKey           string `mapstructure:"api_key"`
	BaseURL          string `mapstructure:"base_url"`
	FileSearchStore  string `mapstructure:"file_search_store"`
	FlashModel       string `mapstructure:"flash_model"`
	ReasoningModel   string `mapstructure:"reasoning_model"`
	MaxSearchResults int    `mapstructure:"max_search_results"`
}

// FreshdeskConfig holds ticketing integration configuration. Both fields
// empty means the integration is disabled.
type FreshdeskConfig struct {
	Domain string `mapstructure:"domain"`
	APIKey string `mapstructure:"api_key"`
}

// MatchingConfig holds resolver configuration
type MatchingConfig struct {
	EnableNearMiss     bool    `mapstructure:"enable_near_miss"`
	NearMissConfidence float64 `mapstructure:"near_miss_confidence"`
	MinPrefixLength    int     `mapstructure:"min_prefix_length"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// CacheConfig holds answer-cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/agentassist/")

	// Environment variable settings
	v.SetEnvPrefix("AGENTASSIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost:3000",
		"http://localhost:8000",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8000",
	})

	// Data defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.watch", false)

	// Gemini defaults. Keys without a meaningful default still get an empty
	// one registered so AutomaticEnv values reach Unmarshal.
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.file_search_store", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.flash_model", "gemini-2.5-flash")
	v.SetDefault("gemini.reasoning_model", "gemini-2.5-pro")
	v.SetDefault("gemini.max_search_results", 5)

	// Freshdesk defaults (integration disabled until both are set)
	v.SetDefault("freshdesk.domain", "")
	v.SetDefault("freshdesk.api_key", "")

	// Matching defaults
	v.SetDefault("matching.enable_near_miss", false)
	v.SetDefault("matching.near_miss_confidence", 0.7)
	v.SetDefault("matching.min_prefix_length", 6)
	v.SetDefault("matching.enable_debug_logging", false)

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key is required (set AGENTASSIST_GEMINI_API_KEY)")
	}

	if config.Data.Dir == "" {
		return fmt.Errorf("data directory is required (set AGENTASSIST_DATA_DIR)")
	}

	if c := config.Matching.NearMissConfidence; c < 0 || c >= 1 {
		return fmt.Errorf("near-miss confidence must be in [0, 1), got: %v", c)
	}

	if (config.Freshdesk.Domain == "") != (config.Freshdesk.APIKey == "") {
		return fmt.Errorf("Freshdesk domain and API key must be set together")
	}

	return nil
}
