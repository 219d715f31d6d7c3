package config

import (
	"testing"
	"time"
)

func defaultTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := defaultTestConfig(t)

	if cfg.AI.Provider != "gemini" {
		t.Errorf("AI provider = %q, want gemini", cfg.AI.Provider)
	}
	if cfg.AI.PremiumModel != "gemini-2.5-pro" {
		t.Errorf("premium model = %q, want gemini-2.5-pro", cfg.AI.PremiumModel)
	}
	if cfg.AI.StandardModel != "gemini-2.0-flash" {
		t.Errorf("standard model = %q, want gemini-2.0-flash", cfg.AI.StandardModel)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("server port = %q, want 8080", cfg.Server.Port)
	}
	if !cfg.Server.RateLimit.Enabled {
		t.Error("rate limiting should be enabled by default")
	}
	if cfg.Server.RateLimit.Backend != "memory" {
		t.Errorf("rate limit backend = %q, want memory", cfg.Server.RateLimit.Backend)
	}
	if cfg.Server.RateLimit.Window != time.Hour {
		t.Errorf("rate limit window = %v, want 1h", cfg.Server.RateLimit.Window)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("RESUMELENS_SERVER_PORT", "9999")
	t.Setenv("RESUMELENS_AI_STANDARDMODEL", "gemini-1.5-flash")

	cfg := defaultTestConfig(t)

	if cfg.Server.Port != "9999" {
		t.Errorf("server port = %q, want 9999", cfg.Server.Port)
	}
	if cfg.AI.StandardModel != "gemini-1.5-flash" {
		t.Errorf("standard model = %q, want gemini-1.5-flash", cfg.AI.StandardModel)
	}
}

func TestLegacyEnvFallbacks(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "legacy-key")
	t.Setenv("DATABASE_URL", "postgres://localhost/resumelens")

	cfg := defaultTestConfig(t)

	if cfg.AI.APIKey != "legacy-key" {
		t.Errorf("AI API key = %q, want legacy-key", cfg.AI.APIKey)
	}
	if cfg.Database.URL != "postgres://localhost/resumelens" {
		t.Errorf("database URL = %q, want postgres://localhost/resumelens", cfg.Database.URL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{
			name:    "zero AI timeout",
			mutate:  func(c *Config) { c.AI.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "missing premium model",
			mutate:  func(c *Config) { c.AI.PremiumModel = "" },
			wantErr: true,
		},
		{
			name:    "empty port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: true,
		},
		{
			name:    "unknown rate limit backend",
			mutate:  func(c *Config) { c.Server.RateLimit.Backend = "etcd" },
			wantErr: true,
		},
		{
			name: "zero quota with limiting enabled",
			mutate: func(c *Config) {
				c.Server.RateLimit.Enabled = true
				c.Server.RateLimit.MaxRequests = 0
			},
			wantErr: true,
		},
		{
			name:    "unknown default format",
			mutate:  func(c *Config) { c.App.DefaultFormat = "yaml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultTestConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestOperationConfigFallbacks(t *testing.T) {
	cfg := defaultTestConfig(t)
	cfg.AI.APIKey = "global-key"
	cfg.AI.Tailor.APIKey = ""

	tailor := cfg.GetTailorConfig()
	if tailor.APIKey != "global-key" {
		t.Errorf("tailor API key = %q, want global fallback", tailor.APIKey)
	}
	if tailor.Timeout == nil || *tailor.Timeout != 90*time.Second {
		t.Errorf("tailor timeout = %v, want 90s operation default", tailor.Timeout)
	}
	if tailor.Temperature == nil || *tailor.Temperature != 0.3 {
		t.Errorf("tailor temperature = %v, want 0.3", tailor.Temperature)
	}

	score := cfg.GetScoreConfig()
	if score.Temperature == nil || *score.Temperature != 0.1 {
		t.Errorf("score temperature = %v, want 0.1", score.Temperature)
	}
	if !score.CircuitBreaker.Enabled {
		t.Error("score circuit breaker should default to enabled")
	}
}

func TestOperationPromptFallback(t *testing.T) {
	cfg := defaultTestConfig(t)
	cfg.AI.CustomPrompts.ScoreResume = "global score prompt"

	score := cfg.GetScoreConfig()
	if score.CustomPrompts.ScoreResume != "global score prompt" {
		t.Errorf("score prompt = %q, want global fallback", score.CustomPrompts.ScoreResume)
	}

	cfg.AI.Score.CustomPrompts.ScoreResume = "operation score prompt"
	score = cfg.GetScoreConfig()
	if score.CustomPrompts.ScoreResume != "operation score prompt" {
		t.Errorf("score prompt = %q, operation setting should win", score.CustomPrompts.ScoreResume)
	}
}
