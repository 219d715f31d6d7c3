package ai

import (
	"strings"
	"testing"
	"time"

	"resumelens/internal/billing"
	"resumelens/internal/config"
	"resumelens/internal/errors"
	"resumelens/internal/types"
)

var testGate = ModelGate{
	PremiumModel:  "gemini-2.5-pro",
	StandardModel: "gemini-2.0-flash",
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		name         string
		requested    string
		plan         billing.Plan
		forcePremium bool
		want         string
	}{
		{
			name: "free plan gets standard model",
			plan: billing.PlanFree,
			want: "gemini-2.0-flash",
		},
		{
			name: "pro plan gets premium model",
			plan: billing.PlanPro,
			want: "gemini-2.5-pro",
		},
		{
			name:         "force premium overrides free plan",
			plan:         billing.PlanFree,
			forcePremium: true,
			want:         "gemini-2.5-pro",
		},
		{
			name:      "free plan cannot request premium",
			requested: "gemini-2.5-pro",
			plan:      billing.PlanFree,
			want:      "gemini-2.0-flash",
		},
		{
			name:      "pro plan ignores requested downgrade",
			requested: "gemini-2.0-flash",
			plan:      billing.PlanPro,
			want:      "gemini-2.5-pro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testGate.ResolveModel(tt.requested, tt.plan, tt.forcePremium)
			if got != tt.want {
				t.Errorf("ResolveModel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectCredential(t *testing.T) {
	opCfg := func(serverKey string) *config.OperationAIConfig {
		return &config.OperationAIConfig{Provider: "gemini", APIKey: serverKey}
	}

	tests := []struct {
		name      string
		cfg       *config.OperationAIConfig
		keys      []types.ApiKey
		want      string
		wantError bool
	}{
		{
			name: "caller key for matching provider wins",
			cfg:  opCfg("server-key"),
			keys: []types.ApiKey{{Service: "gemini", Key: "caller-key"}},
			want: "caller-key",
		},
		{
			name: "provider match is case insensitive",
			cfg:  opCfg(""),
			keys: []types.ApiKey{{Service: "Gemini", Key: "caller-key"}},
			want: "caller-key",
		},
		{
			name: "mismatched provider falls back to server key",
			cfg:  opCfg("server-key"),
			keys: []types.ApiKey{{Service: "openai", Key: "other-key"}},
			want: "server-key",
		},
		{
			name: "server key used when no caller keys",
			cfg:  opCfg("server-key"),
			want: "server-key",
		},
		{
			name:      "no usable credential",
			cfg:       opCfg(""),
			keys:      []types.ApiKey{{Service: "openai", Key: "other-key"}},
			wantError: true,
		},
		{
			name:      "empty caller key is not usable",
			cfg:       opCfg(""),
			keys:      []types.ApiKey{{Service: "gemini", Key: ""}},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectCredential(tt.cfg, tt.keys)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.IsCode(err, errors.ErrCodeMissingCredential) {
					t.Errorf("expected MISSING_CREDENTIAL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SelectCredential() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewServiceRejectsUnknownProvider(t *testing.T) {
	timeout := time.Second
	retries := 1
	temp := float32(0.1)
	cfg := &config.OperationAIConfig{
		Provider:    "clippy",
		Model:       "clippy-1",
		APIKey:      "key",
		Timeout:     &timeout,
		MaxRetries:  &retries,
		Temperature: &temp,
	}

	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	_, err = NewService(cfg, "score", nil, logger)
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "Unsupported AI provider") {
		t.Errorf("error = %v, want unsupported provider", err)
	}
}

func TestNewServiceMissingCredential(t *testing.T) {
	timeout := time.Second
	retries := 1
	temp := float32(0.1)
	cfg := &config.OperationAIConfig{
		Provider:    "gemini",
		Model:       "gemini-2.0-flash",
		Timeout:     &timeout,
		MaxRetries:  &retries,
		Temperature: &temp,
	}

	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	_, err = NewService(cfg, "score", nil, logger)
	if !errors.IsCode(err, errors.ErrCodeMissingCredential) {
		t.Errorf("expected MISSING_CREDENTIAL, got %v", err)
	}
}
