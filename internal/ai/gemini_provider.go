package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"resumelens/internal/config"
	apperrors "resumelens/internal/errors"
	"resumelens/internal/types"
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.OperationAIConfig
	circuitBreaker *Breaker[*genai.GenerateContentResponse]
	modelBreaker   *Breaker[*genai.Model]
	logger         *apperrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *apperrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, apperrors.NewAIError(apperrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:         cfg,
		circuitBreaker: NewBreaker[*genai.GenerateContentResponse](operationType, cfg, logger),
		modelBreaker:   NewBreaker[*genai.Model](operationType+"-model", cfg, logger),
		logger:         logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// modelCheckTimeout bounds model availability probes
const modelCheckTimeout = 10 * time.Second

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if !g.isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
		// Other network errors (e.g., connection refused) are also retryable
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// generateStructured is a generic helper to run AI operations with common
// tracing, circuit breaker, and parsing logic.
func generateStructured[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("resumelens.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, apperrors.NewGenerationFailure("Failed to generate content for "+operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, apperrors.NewSchemaViolation("Failed to parse AI response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// ScoreResume implements AIProvider interface for resume scoring
func (g *GeminiProvider) ScoreResume(ctx context.Context, input types.ScoreRequest) (types.ResumeScore, *TokenUsage, error) {
	systemPrompt, userPrompt, err := g.buildScorePrompts(input)
	if err != nil {
		return types.ResumeScore{}, nil, err
	}
	cfg := g.buildScoreSchema()

	output, tokenUsage, err := generateStructured[types.ResumeScore](
		g,
		ctx,
		"score_resume",
		userPrompt,
		systemPrompt,
		cfg,
		attribute.Int("input.resume_length", len(input.Resume.RawText)),
		attribute.Bool("input.has_job", input.Job != nil),
	)

	if err != nil {
		return types.ResumeScore{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Float64("score.overall", output.OverallScore.Score),
			attribute.Bool("score.tailored", output.IsTailoredResume),
		)
	}

	return output, tokenUsage, nil
}

// FormatJobListing implements AIProvider interface for job listing extraction
func (g *GeminiProvider) FormatJobListing(ctx context.Context, input types.FormatJobInput) (types.SimplifiedJob, *TokenUsage, error) {
	systemPrompt := resolvePrompt(
		config.GetLoadedPrompts().FormatJob,
		g.config.CustomPrompts.FormatJob,
		DefaultSystemPrompts.FormatJob,
	)
	userPrompt := fmt.Sprintf(DefaultUserPrompts.FormatJob, input.Text)
	cfg := g.buildFormatJobSchema()

	output, tokenUsage, err := generateStructured[types.SimplifiedJob](
		g,
		ctx,
		"format_job",
		userPrompt,
		systemPrompt,
		cfg,
		attribute.Int("input.listing_length", len(input.Text)),
	)

	if err != nil {
		return types.SimplifiedJob{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.keywords_count", len(output.Keywords)),
		)
	}

	return output, tokenUsage, nil
}

// TailorResume implements AIProvider interface for resume tailoring
func (g *GeminiProvider) TailorResume(ctx context.Context, input types.TailorResumeInput) (types.SimplifiedResume, *TokenUsage, error) {
	systemPrompt := resolvePrompt(
		config.GetLoadedPrompts().TailorResume,
		g.config.CustomPrompts.TailorResume,
		DefaultSystemPrompts.TailorResume,
	)

	resumeJSON, err := json.MarshalIndent(input.Resume, "", "  ")
	if err != nil {
		return types.SimplifiedResume{}, nil, apperrors.NewSchemaViolation("failed to encode resume for tailoring", err)
	}
	jobJSON, err := json.MarshalIndent(input.Job, "", "  ")
	if err != nil {
		return types.SimplifiedResume{}, nil, apperrors.NewSchemaViolation("failed to encode job for tailoring", err)
	}
	userPrompt := fmt.Sprintf(DefaultUserPrompts.TailorResume, resumeJSON, jobJSON)
	cfg := g.buildTailorSchema()

	output, tokenUsage, err := generateStructured[types.SimplifiedResume](
		g,
		ctx,
		"tailor_resume",
		userPrompt,
		systemPrompt,
		cfg,
		attribute.Int("input.experience_count", len(input.Resume.WorkExperience)),
		attribute.Int("input.job_keywords", len(input.Job.Keywords)),
	)

	if err != nil {
		return types.SimplifiedResume{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.experience_count", len(output.WorkExperience)),
		)
	}

	return output, tokenUsage, nil
}

// buildScorePrompts assembles the system and user prompts for a scoring
// request. The user prompt always carries the resume JSON and ends with the
// addendum matching whether a job description was supplied.
func (g *GeminiProvider) buildScorePrompts(input types.ScoreRequest) (string, string, error) {
	systemPrompt := resolvePrompt(
		config.GetLoadedPrompts().ScoreResume,
		g.config.CustomPrompts.ScoreResume,
		DefaultSystemPrompts.ScoreResume,
	)

	resumeJSON, err := json.Marshal(input.Resume)
	if err != nil {
		return "", "", apperrors.NewSchemaViolation("failed to encode resume for scoring", err)
	}

	userPrompt := fmt.Sprintf(DefaultUserPrompts.ScoreResume, resumeJSON)
	if input.Job != nil {
		jobJSON, err := json.Marshal(input.Job)
		if err != nil {
			return "", "", apperrors.NewSchemaViolation("failed to encode job for scoring", err)
		}
		userPrompt += fmt.Sprintf(scoreTailoredAddendum, jobJSON)
	} else {
		userPrompt += scoreBaseAddendum
	}

	return systemPrompt, userPrompt, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
	}
	stats["overall_healthy"] = g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy()
	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// The genai client holds no long-lived connections in single-shot usage
	return nil
}

// scoreMetricSchema is the shared {score, reason} shape
func scoreMetricSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":  {Type: genai.TypeNumber},
			"reason": {Type: genai.TypeString},
		},
		Required: []string{"score", "reason"},
	}
}

func stringArraySchema() *genai.Schema {
	return &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}
}

// buildScoreSchema creates the response schema for scoring requests
func (g *GeminiProvider) buildScoreSchema() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"overallScore": scoreMetricSchema(),
				"completeness": scoreMetricSchema(),
				"impactScore":  scoreMetricSchema(),
				"roleMatch":    scoreMetricSchema(),
				"jobAlignment": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"keywordMatch": {
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"score":           {Type: genai.TypeNumber},
								"matchedKeywords": stringArraySchema(),
								"missingKeywords": stringArraySchema(),
								"reason":          {Type: genai.TypeString},
							},
							Required: []string{"score", "matchedKeywords", "missingKeywords"},
						},
						"skillsMatch": {
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"score":      {Type: genai.TypeNumber},
								"hardSkills": stringArraySchema(),
								"softSkills": stringArraySchema(),
								"reason":     {Type: genai.TypeString},
							},
							Required: []string{"score", "hardSkills", "softSkills"},
						},
						"experienceRelevance": {
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"score":         {Type: genai.TypeNumber},
								"topAlignments": stringArraySchema(),
								"gaps":          stringArraySchema(),
								"reason":        {Type: genai.TypeString},
							},
							Required: []string{"score", "topAlignments", "gaps"},
						},
					},
					Required: []string{"keywordMatch", "skillsMatch", "experienceRelevance"},
				},
				// Free-form metric map; entry shape is enforced after parsing
				"miscellaneous":           {Type: genai.TypeObject},
				"overallImprovements":     stringArraySchema(),
				"jobSpecificImprovements": stringArraySchema(),
				"isTailoredResume":        {Type: genai.TypeBoolean},
			},
			Required: []string{"overallScore", "completeness", "impactScore", "roleMatch", "miscellaneous", "overallImprovements", "isTailoredResume"},
		},
	}

	if *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	return cfg
}

// buildFormatJobSchema creates the response schema for job extraction requests
func (g *GeminiProvider) buildFormatJobSchema() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"company":       {Type: genai.TypeString},
				"positionTitle": {Type: genai.TypeString},
				"jobUrl":        {Type: genai.TypeString},
				"location":      {Type: genai.TypeString},
				"salaryRange":   {Type: genai.TypeString},
				"workLocation": {
					Type: genai.TypeString,
					Enum: []string{"remote", "in_person", "hybrid", ""},
				},
				"employmentType": {
					Type: genai.TypeString,
					Enum: []string{"full_time", "part_time", "co_op", "internship", ""},
				},
				"description": {Type: genai.TypeString},
				"keywords":    stringArraySchema(),
			},
			Required: []string{"company", "positionTitle", "description", "keywords"},
		},
	}

	if *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	return cfg
}

// buildTailorSchema creates the response schema for tailoring requests
func (g *GeminiProvider) buildTailorSchema() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"targetRole": {Type: genai.TypeString},
				"workExperience": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"company":  {Type: genai.TypeString},
							"position": {Type: genai.TypeString},
							"location": {Type: genai.TypeString},
							"dates":    {Type: genai.TypeString},
							"bullets":  stringArraySchema(),
						},
						Required: []string{"company", "position", "bullets"},
					},
				},
				"education": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"school": {Type: genai.TypeString},
							"degree": {Type: genai.TypeString},
							"field":  {Type: genai.TypeString},
							"dates":  {Type: genai.TypeString},
						},
						Required: []string{"school"},
					},
				},
				"skills": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"category": {Type: genai.TypeString},
							"items":    stringArraySchema(),
						},
						Required: []string{"category", "items"},
					},
				},
				"projects": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"name":         {Type: genai.TypeString},
							"description":  {Type: genai.TypeString},
							"technologies": stringArraySchema(),
							"dates":        {Type: genai.TypeString},
						},
						Required: []string{"name"},
					},
				},
			},
			Required: []string{"workExperience", "education", "skills", "projects"},
		},
	}

	if *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	return cfg
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from a Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
