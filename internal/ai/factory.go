package ai

import (
	"context"
	"fmt"
	"strings"

	"resumelens/internal/billing"
	"resumelens/internal/config"
	"resumelens/internal/errors"
	"resumelens/internal/types"
)

// ModelGate holds the model identifiers each tier is allowed to run
type ModelGate struct {
	PremiumModel  string
	StandardModel string
}

// GateFromConfig builds the model gate from application configuration
func GateFromConfig(cfg *config.AIConfig) ModelGate {
	return ModelGate{
		PremiumModel:  cfg.PremiumModel,
		StandardModel: cfg.StandardModel,
	}
}

// ResolveModel picks the model a request runs on. The decision is made here,
// never from client input: pro plans and forcePremium get the premium model,
// everyone else gets the standard model, regardless of what was requested.
func (g ModelGate) ResolveModel(requested string, plan billing.Plan, forcePremium bool) string {
	_ = requested // client model requests are advisory at most

	if forcePremium || plan.IsPro() {
		return g.PremiumModel
	}
	return g.StandardModel
}

// SelectCredential chooses the API key an operation will use. Caller-supplied
// keys for the matching provider win; otherwise the server-held key is used
// when one is configured. No usable credential is a MissingCredential error.
func SelectCredential(opCfg *config.OperationAIConfig, callerKeys []types.ApiKey) (string, error) {
	for _, key := range callerKeys {
		if strings.EqualFold(key.Service, opCfg.Provider) && key.Key != "" {
			return key.Key, nil
		}
	}

	if opCfg.APIKey != "" {
		return opCfg.APIKey, nil
	}

	return "", errors.NewMissingCredential(
		fmt.Sprintf("no API key available for provider %s", opCfg.Provider))
}

// Service handles AI operations for resume processing
type Service struct {
	Provider AIProvider // Exported for access from server package
	config   *config.OperationAIConfig
	logger   *errors.Logger
}

// NewService creates a new AI service instance with configuration for a
// specific operation. The model in cfg must already be resolved through the
// gate; callerKeys may be nil for server-credentialed operations.
func NewService(cfg *config.OperationAIConfig, operationType string, callerKeys []types.ApiKey, logger *errors.Logger) (*Service, error) {
	apiKey, err := SelectCredential(cfg, callerKeys)
	if err != nil {
		return nil, err
	}

	// Work on a copy so the caller's key never leaks into shared config
	opCfg := *cfg
	opCfg.APIKey = apiKey

	logger.Debug("Initializing AI service",
		"provider", opCfg.Provider,
		"operation_type", operationType,
		"model", opCfg.Model,
		"temperature", *opCfg.Temperature,
		"timeout", *opCfg.Timeout,
		"max_retries", *opCfg.MaxRetries)

	var provider AIProvider
	switch opCfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(&opCfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", opCfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return &Service{
		Provider: provider,
		config:   &opCfg,
		logger:   logger,
	}, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// Close releases the underlying provider
func (s *Service) Close() error {
	return s.Provider.Close()
}
