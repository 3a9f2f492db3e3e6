package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("AGENTASSIST_SERVER_PORT")
		os.Unsetenv("AGENTASSIST_SERVER_ENVIRONMENT")
		os.Unsetenv("AGENTASSIST_DATA_DIR")
		os.Unsetenv("AGENTASSIST_DATA_WATCH")
		os.Unsetenv("AGENTASSIST_GEMINI_API_KEY")
		os.Unsetenv("AGENTASSIST_GEMINI_BASE_URL")
		os.Unsetenv("AGENTASSIST_GEMINI_FILE_SEARCH_STORE")
		os.Unsetenv("AGENTASSIST_FRESHDESK_DOMAIN")
		os.Unsetenv("AGENTASSIST_FRESHDESK_API_KEY")
		os.Unsetenv("AGENTASSIST_MATCHING_ENABLE_NEAR_MISS")
		os.Unsetenv("AGENTASSIST_MATCHING_NEAR_MISS_CONFIDENCE")
		os.Unsetenv("AGENTASSIST_CACHE_TTL")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		// Set required API key
		os.Setenv("AGENTASSIST_GEMINI_API_KEY", "test-key")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Data.Dir != "data" {
			t.Errorf("Data.Dir = %s, want data", cfg.Data.Dir)
		}
		if cfg.Gemini.BaseURL != "https://generativelanguage.googleapis.com" {
			t.Errorf("Gemini.BaseURL = %s", cfg.Gemini.BaseURL)
		}
		if cfg.Gemini.FlashModel != "gemini-2.5-flash" {
			t.Errorf("Gemini.FlashModel = %s", cfg.Gemini.FlashModel)
		}
		if cfg.Matching.EnableNearMiss {
			t.Error("Matching.EnableNearMiss = true, want false by default")
		}
		if cfg.Matching.NearMissConfidence != 0.7 {
			t.Errorf("Matching.NearMissConfidence = %v, want 0.7", cfg.Matching.NearMissConfidence)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("AGENTASSIST_GEMINI_API_KEY", "test-key")
		os.Setenv("AGENTASSIST_SERVER_PORT", "9090")
		os.Setenv("AGENTASSIST_DATA_DIR", "/srv/catalog")
		os.Setenv("AGENTASSIST_MATCHING_ENABLE_NEAR_MISS", "true")
		os.Setenv("AGENTASSIST_CACHE_TTL", "30m")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Data.Dir != "/srv/catalog" {
			t.Errorf("Data.Dir = %s, want /srv/catalog", cfg.Data.Dir)
		}
		if !cfg.Matching.EnableNearMiss {
			t.Error("Matching.EnableNearMiss = false, want true")
		}
		if cfg.Cache.TTL != 30*time.Minute {
			t.Errorf("Cache.TTL = %v, want 30m", cfg.Cache.TTL)
		}
	})

	t.Run("fails without the generation API key", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() succeeded without an API key")
		}
	})

	t.Run("fails with an out-of-range near-miss confidence", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("AGENTASSIST_GEMINI_API_KEY", "test-key")
		os.Setenv("AGENTASSIST_MATCHING_NEAR_MISS_CONFIDENCE", "1.5")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() accepted a near-miss confidence outside [0, 1)")
		}
	})

	t.Run("fails with half-configured ticketing", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("AGENTASSIST_GEMINI_API_KEY", "test-key")
		os.Setenv("AGENTASSIST_FRESHDESK_DOMAIN", "example")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() accepted a Freshdesk domain without an API key")
		}
	})
}
