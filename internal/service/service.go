// Package service orchestrates the AI operations: input validation, rate
// limiting, plan-based model resolution, provider calls, and output
// validation happen here so HTTP handlers and CLI commands stay thin.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"resumelens/internal/ai"
	"resumelens/internal/billing"
	"resumelens/internal/config"
	"resumelens/internal/errors"
	"resumelens/internal/ratelimit"
	"resumelens/internal/schema"
	"resumelens/internal/types"
)

// JobStore persists formatted job listings.
type JobStore interface {
	CreateJob(ctx context.Context, userID uuid.UUID, job *types.SimplifiedJob) (*types.Job, error)
}

// AIFactory builds a provider-backed AI service for one operation.
// Swappable in tests so no real provider client is constructed.
type AIFactory func(cfg *config.OperationAIConfig, operationType string, callerKeys []types.ApiKey, logger *errors.Logger) (*ai.Service, error)

// Options carries the collaborators a Service needs. Limiter, Billing and
// Jobs may be nil: a nil limiter disables quota checks, a nil billing
// resolver treats every caller as free tier, a nil job store disables
// persistence. A nil Factory uses the real provider constructor.
type Options struct {
	Config  *config.Config
	Limiter ratelimit.Limiter
	Billing *billing.Resolver
	Jobs    JobStore
	Logger  *errors.Logger
	Factory AIFactory
}

// Service runs the scoring, job formatting and tailoring pipelines.
type Service struct {
	cfg        *config.Config
	gate       ai.ModelGate
	limiter    ratelimit.Limiter
	billing    *billing.Resolver
	jobs       JobStore
	logger     *errors.Logger
	newService AIFactory
}

func New(opts Options) *Service {
	factory := opts.Factory
	if factory == nil {
		factory = ai.NewService
	}
	return &Service{
		cfg:        opts.Config,
		gate:       ai.GateFromConfig(&opts.Config.AI),
		limiter:    opts.Limiter,
		billing:    opts.Billing,
		jobs:       opts.Jobs,
		logger:     opts.Logger,
		newService: factory,
	}
}

// checkQuota consumes one request from the caller's fixed-window quota.
func (s *Service) checkQuota(ctx context.Context, identity string) error {
	if s.limiter == nil {
		return nil
	}

	allowed, err := s.limiter.Allow(ctx, identity)
	if err != nil {
		// Limiter backend failures fail open: an unavailable Redis must not
		// take the API down with it.
		s.logger.Warn("Rate limiter unavailable, allowing request", "error", err)
		return nil
	}
	if !allowed {
		return errors.NewRateLimitExceeded(
			fmt.Sprintf("rate limit exceeded, try again within %s", s.cfg.Server.RateLimit.Window))
	}
	return nil
}

// resolveModel picks the model tier for a caller and pins it onto a copy of
// the operation config.
func (s *Service) resolveModel(ctx context.Context, opCfg *config.OperationAIConfig, userID uuid.UUID, requested string, forcePremium bool) {
	plan := billing.PlanFree
	if s.billing != nil {
		plan = s.billing.PlanFor(ctx, userID)
	}
	opCfg.Model = s.gate.ResolveModel(requested, plan, forcePremium)
}

// ScoreRequestOptions are the per-call knobs for a scoring call. ForcePremium
// is a server-side override only; handlers must never populate it from
// request bodies, or callers could skip the plan gate.
type ScoreRequestOptions struct {
	Identity     string // rate limit identity (user ID or client fingerprint)
	UserID       uuid.UUID
	AIConfig     *types.AIConfig
	ForcePremium bool
}

// ScoreResume validates the request, runs the AI scoring pipeline and
// validates the produced score before returning it.
func (s *Service) ScoreResume(ctx context.Context, req *types.ScoreRequest, opts ScoreRequestOptions) (*types.ResumeScore, *ai.TokenUsage, error) {
	if err := schema.ValidateScoreRequest(req); err != nil {
		return nil, nil, err
	}
	if err := s.checkQuota(ctx, opts.Identity); err != nil {
		return nil, nil, err
	}

	opCfg := s.cfg.GetScoreConfig()
	s.resolveModel(ctx, &opCfg, opts.UserID, requestedModel(opts.AIConfig), opts.ForcePremium)

	svc, err := s.newService(&opCfg, "score", callerKeys(opts.AIConfig), s.logger)
	if err != nil {
		return nil, nil, err
	}
	defer svc.Close()

	score, usage, err := svc.Provider.ScoreResume(ctx, *req)
	if err != nil {
		return nil, usage, err
	}
	if err := schema.ValidateResumeScore(&score); err != nil {
		return nil, usage, err
	}

	s.logger.Info("Resume scored",
		"model", opCfg.Model,
		"overall_score", score.OverallScore.Score,
		"tailored", score.IsTailoredResume)
	return &score, usage, nil
}

// FormatJobOptions are the per-call knobs for a job formatting call.
// ForcePremium carries the same server-side-only rule as ScoreRequestOptions.
type FormatJobOptions struct {
	Identity     string
	UserID       uuid.UUID
	AIConfig     *types.AIConfig
	ForcePremium bool
}

// FormatJobListing extracts a structured job from free text.
func (s *Service) FormatJobListing(ctx context.Context, input types.FormatJobInput, opts FormatJobOptions) (*types.SimplifiedJob, *ai.TokenUsage, error) {
	if input.Text == "" {
		return nil, nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"job listing text must not be empty", nil)
	}
	if err := s.checkQuota(ctx, opts.Identity); err != nil {
		return nil, nil, err
	}

	opCfg := s.cfg.GetFormatJobConfig()
	s.resolveModel(ctx, &opCfg, opts.UserID, requestedModel(opts.AIConfig), opts.ForcePremium)

	svc, err := s.newService(&opCfg, "format-job", callerKeys(opts.AIConfig), s.logger)
	if err != nil {
		return nil, nil, err
	}
	defer svc.Close()

	job, usage, err := svc.Provider.FormatJobListing(ctx, input)
	if err != nil {
		return nil, usage, err
	}
	if err := schema.ValidateSimplifiedJob(&job); err != nil {
		return nil, usage, err
	}

	s.logger.Info("Job listing formatted",
		"model", opCfg.Model,
		"company", job.Company,
		"position", job.PositionTitle)
	return &job, usage, nil
}

// FormatAndSaveJob runs FormatJobListing and persists the result for the
// user. Requires a job store.
func (s *Service) FormatAndSaveJob(ctx context.Context, input types.FormatJobInput, opts FormatJobOptions) (*types.Job, *ai.TokenUsage, error) {
	if s.jobs == nil {
		return nil, nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"job persistence is not configured", nil)
	}

	job, usage, err := s.FormatJobListing(ctx, input, opts)
	if err != nil {
		return nil, usage, err
	}

	saved, err := s.jobs.CreateJob(ctx, opts.UserID, job)
	if err != nil {
		return nil, usage, err
	}
	return saved, usage, nil
}

// TailorOptions are the per-call knobs for a tailoring call. ForcePremium
// carries the same server-side-only rule as ScoreRequestOptions.
type TailorOptions struct {
	Identity     string
	UserID       uuid.UUID
	AIConfig     *types.AIConfig
	ForcePremium bool
}

// TailorResume rewrites a base resume against a target job.
func (s *Service) TailorResume(ctx context.Context, input types.TailorResumeInput, opts TailorOptions) (*types.SimplifiedResume, *ai.TokenUsage, error) {
	if err := schema.ValidateSimplifiedResume(&input.Resume); err != nil {
		return nil, nil, err
	}
	if err := schema.ValidateSimplifiedJob(&input.Job); err != nil {
		return nil, nil, err
	}
	if err := s.checkQuota(ctx, opts.Identity); err != nil {
		return nil, nil, err
	}

	opCfg := s.cfg.GetTailorConfig()
	s.resolveModel(ctx, &opCfg, opts.UserID, requestedModel(opts.AIConfig), opts.ForcePremium)

	svc, err := s.newService(&opCfg, "tailor", callerKeys(opts.AIConfig), s.logger)
	if err != nil {
		return nil, nil, err
	}
	defer svc.Close()

	tailored, usage, err := svc.Provider.TailorResume(ctx, input)
	if err != nil {
		return nil, usage, err
	}
	if err := schema.ValidateSimplifiedResume(&tailored); err != nil {
		return nil, usage, err
	}

	s.logger.Info("Resume tailored",
		"model", opCfg.Model,
		"company", input.Job.Company,
		"experience_entries", len(tailored.WorkExperience))
	return &tailored, usage, nil
}

func requestedModel(cfg *types.AIConfig) string {
	if cfg == nil {
		return ""
	}
	return cfg.Model
}

func callerKeys(cfg *types.AIConfig) []types.ApiKey {
	if cfg == nil {
		return nil
	}
	return cfg.APIKeys
}
