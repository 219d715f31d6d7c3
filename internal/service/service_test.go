package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"resumelens/internal/ai"
	"resumelens/internal/billing"
	"resumelens/internal/config"
	apperrors "resumelens/internal/errors"
	"resumelens/internal/types"
)

type fakeProvider struct {
	score    types.ResumeScore
	job      types.SimplifiedJob
	resume   types.SimplifiedResume
	err      error
	scoreIn  *types.ScoreRequest
	tailorIn *types.TailorResumeInput
}

func (f *fakeProvider) ScoreResume(ctx context.Context, input types.ScoreRequest) (types.ResumeScore, *ai.TokenUsage, error) {
	f.scoreIn = &input
	return f.score, &ai.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}, f.err
}

func (f *fakeProvider) FormatJobListing(ctx context.Context, input types.FormatJobInput) (types.SimplifiedJob, *ai.TokenUsage, error) {
	return f.job, &ai.TokenUsage{TotalTokens: 5}, f.err
}

func (f *fakeProvider) TailorResume(ctx context.Context, input types.TailorResumeInput) (types.SimplifiedResume, *ai.TokenUsage, error) {
	f.tailorIn = &input
	return f.resume, &ai.TokenUsage{TotalTokens: 7}, f.err
}

func (f *fakeProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo { return nil }
func (f *fakeProvider) Close() error                                   { return nil }

type fakeLimiter struct {
	allowed   bool
	err       error
	lastIdent string
	calls     int
}

func (f *fakeLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	f.calls++
	f.lastIdent = identity
	return f.allowed, f.err
}

func (f *fakeLimiter) Stats(ctx context.Context) map[string]any { return nil }
func (f *fakeLimiter) Close() error                             { return nil }

type fakePlans struct {
	plan string
	err  error
}

func (f *fakePlans) GetSubscriptionPlan(ctx context.Context, userID uuid.UUID) (string, error) {
	return f.plan, f.err
}

type fakeJobStore struct {
	saved *types.Job
	err   error
}

func (f *fakeJobStore) CreateJob(ctx context.Context, userID uuid.UUID, job *types.SimplifiedJob) (*types.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = &types.Job{ID: uuid.New(), UserID: userID, SimplifiedJob: *job, IsActive: true, CreatedAt: time.Now()}
	return f.saved, nil
}

func testLogger() *apperrors.Logger {
	logger, _ := apperrors.New("error")
	return logger
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.AI.Provider = "gemini"
	cfg.AI.PremiumModel = "gemini-2.5-pro"
	cfg.AI.StandardModel = "gemini-2.0-flash"
	cfg.AI.Timeout = 60 * time.Second
	cfg.AI.APIKey = "server-key"
	cfg.AI.MaxRetries = 1
	cfg.AI.Temperature = 0.1
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, MaxRequests: 20, Window: time.Hour}
	return cfg
}

// newTestService wires a Service whose AI factory hands back the fake
// provider and records the resolved operation config.
func newTestService(cfg *config.Config, provider *fakeProvider, opts Options) (*Service, *config.OperationAIConfig) {
	opts.Config = cfg
	opts.Logger = testLogger()

	var captured config.OperationAIConfig
	svc := New(opts)
	capturedPtr := &captured
	svc.newService = func(opCfg *config.OperationAIConfig, operationType string, callerKeys []types.ApiKey, logger *apperrors.Logger) (*ai.Service, error) {
		*capturedPtr = *opCfg
		if _, err := ai.SelectCredential(opCfg, callerKeys); err != nil {
			return nil, err
		}
		return &ai.Service{Provider: provider}, nil
	}
	return svc, capturedPtr
}

func validScore() types.ResumeScore {
	return types.ResumeScore{
		OverallScore:        types.ScoreMetric{Score: 82, Reason: "solid"},
		Completeness:        types.ScoreMetric{Score: 90},
		ImpactScore:         types.ScoreMetric{Score: 75},
		RoleMatch:           types.ScoreMetric{Score: 80},
		OverallImprovements: []string{"quantify results"},
		IsTailoredResume:    false,
	}
}

func validJob() types.SimplifiedJob {
	return types.SimplifiedJob{
		Company:        "Acme",
		PositionTitle:  "Engineer",
		WorkLocation:   types.WorkLocationRemote,
		EmploymentType: types.EmploymentFullTime,
		Description:    "Build things",
		Keywords:       []string{"go"},
	}
}

func validResume() types.SimplifiedResume {
	return types.SimplifiedResume{
		WorkExperience: []types.WorkExperience{{Company: "Acme", Position: "Engineer", Bullets: []string{"Shipped things"}}},
		Education:      []types.Education{{School: "State University"}},
		Skills:         []types.SkillGroup{{Category: "Languages", Items: []string{"Go"}}},
	}
}

func TestScoreResume(t *testing.T) {
	provider := &fakeProvider{score: validScore()}
	limiter := &fakeLimiter{allowed: true}
	svc, captured := newTestService(testConfig(), provider, Options{Limiter: limiter})

	req := &types.ScoreRequest{Resume: types.ScoreResumeInput{RawText: "plain text resume"}}
	score, usage, err := svc.ScoreResume(context.Background(), req, ScoreRequestOptions{Identity: "ip:198.51.100.7"})
	if err != nil {
		t.Fatalf("ScoreResume failed: %v", err)
	}
	if score.OverallScore.Score != 82 {
		t.Errorf("expected overall score 82, got %v", score.OverallScore.Score)
	}
	if usage == nil || usage.TotalTokens != 30 {
		t.Errorf("expected token usage to be propagated, got %+v", usage)
	}
	if limiter.lastIdent != "ip:198.51.100.7" {
		t.Errorf("limiter saw identity %q", limiter.lastIdent)
	}
	if captured.Model != "gemini-2.0-flash" {
		t.Errorf("anonymous caller should run the standard model, got %q", captured.Model)
	}
}

func TestScoreResumeRejectsInvalidRequest(t *testing.T) {
	provider := &fakeProvider{score: validScore()}
	limiter := &fakeLimiter{allowed: true}
	svc, _ := newTestService(testConfig(), provider, Options{Limiter: limiter})

	_, _, err := svc.ScoreResume(context.Background(), &types.ScoreRequest{}, ScoreRequestOptions{Identity: "x"})
	if !apperrors.IsCode(err, apperrors.ErrCodeSchemaViolation) {
		t.Fatalf("expected SCHEMA_VIOLATION, got %v", err)
	}
	if limiter.calls != 0 {
		t.Error("invalid requests must not consume quota")
	}
}

func TestScoreResumeRateLimited(t *testing.T) {
	provider := &fakeProvider{score: validScore()}
	svc, _ := newTestService(testConfig(), provider, Options{Limiter: &fakeLimiter{allowed: false}})

	req := &types.ScoreRequest{Resume: types.ScoreResumeInput{RawText: "resume"}}
	_, _, err := svc.ScoreResume(context.Background(), req, ScoreRequestOptions{Identity: "x"})
	if !apperrors.IsCode(err, apperrors.ErrCodeRateLimitExceeded) {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED, got %v", err)
	}
}

func TestScoreResumeFailsOpenOnLimiterError(t *testing.T) {
	provider := &fakeProvider{score: validScore()}
	limiter := &fakeLimiter{allowed: false, err: errors.New("redis down")}
	svc, _ := newTestService(testConfig(), provider, Options{Limiter: limiter})

	req := &types.ScoreRequest{Resume: types.ScoreResumeInput{RawText: "resume"}}
	if _, _, err := svc.ScoreResume(context.Background(), req, ScoreRequestOptions{Identity: "x"}); err != nil {
		t.Fatalf("limiter backend failure should not block requests: %v", err)
	}
}

func TestScoreResumeRejectsInvalidModelOutput(t *testing.T) {
	bad := validScore()
	bad.OverallScore.Score = 147
	provider := &fakeProvider{score: bad}
	svc, _ := newTestService(testConfig(), provider, Options{Limiter: &fakeLimiter{allowed: true}})

	req := &types.ScoreRequest{Resume: types.ScoreResumeInput{RawText: "resume"}}
	_, _, err := svc.ScoreResume(context.Background(), req, ScoreRequestOptions{Identity: "x"})
	if !apperrors.IsCode(err, apperrors.ErrCodeSchemaViolation) {
		t.Fatalf("out-of-range model output must fail validation, got %v", err)
	}
}

func TestModelResolutionByPlan(t *testing.T) {
	tests := []struct {
		name         string
		plan         string
		userID       uuid.UUID
		forcePremium bool
		requested    string
		wantModel    string
	}{
		{name: "free user standard", plan: "free", userID: uuid.New(), wantModel: "gemini-2.0-flash"},
		{name: "pro user premium", plan: "pro", userID: uuid.New(), wantModel: "gemini-2.5-pro"},
		{name: "anonymous standard", plan: "pro", userID: uuid.Nil, wantModel: "gemini-2.0-flash"},
		{name: "force premium", plan: "free", userID: uuid.New(), forcePremium: true, wantModel: "gemini-2.5-pro"},
		{name: "requested model ignored", plan: "free", userID: uuid.New(), requested: "gemini-2.5-pro", wantModel: "gemini-2.0-flash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{score: validScore()}
			resolver := billing.NewResolver(&fakePlans{plan: tt.plan}, testLogger())
			svc, captured := newTestService(testConfig(), provider, Options{
				Limiter: &fakeLimiter{allowed: true},
				Billing: resolver,
			})

			req := &types.ScoreRequest{Resume: types.ScoreResumeInput{RawText: "resume"}}
			opts := ScoreRequestOptions{
				Identity:     "x",
				UserID:       tt.userID,
				ForcePremium: tt.forcePremium,
			}
			if tt.requested != "" {
				opts.AIConfig = &types.AIConfig{Model: tt.requested}
			}
			if _, _, err := svc.ScoreResume(context.Background(), req, opts); err != nil {
				t.Fatalf("ScoreResume failed: %v", err)
			}
			if captured.Model != tt.wantModel {
				t.Errorf("expected model %q, got %q", tt.wantModel, captured.Model)
			}
		})
	}
}

func TestFormatJobListing(t *testing.T) {
	provider := &fakeProvider{job: validJob()}
	svc, _ := newTestService(testConfig(), provider, Options{Limiter: &fakeLimiter{allowed: true}})

	job, _, err := svc.FormatJobListing(context.Background(), types.FormatJobInput{Text: "some listing"}, FormatJobOptions{Identity: "u"})
	if err != nil {
		t.Fatalf("FormatJobListing failed: %v", err)
	}
	if job.Company != "Acme" {
		t.Errorf("expected company Acme, got %q", job.Company)
	}
}

func TestFormatJobListingEmptyText(t *testing.T) {
	provider := &fakeProvider{job: validJob()}
	svc, _ := newTestService(testConfig(), provider, Options{Limiter: &fakeLimiter{allowed: true}})

	_, _, err := svc.FormatJobListing(context.Background(), types.FormatJobInput{}, FormatJobOptions{Identity: "u"})
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest) {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestFormatAndSaveJob(t *testing.T) {
	provider := &fakeProvider{job: validJob()}
	store := &fakeJobStore{}
	userID := uuid.New()
	svc, _ := newTestService(testConfig(), provider, Options{
		Limiter: &fakeLimiter{allowed: true},
		Jobs:    store,
	})

	saved, _, err := svc.FormatAndSaveJob(context.Background(), types.FormatJobInput{Text: "listing"}, FormatJobOptions{Identity: "u", UserID: userID})
	if err != nil {
		t.Fatalf("FormatAndSaveJob failed: %v", err)
	}
	if saved.UserID != userID {
		t.Errorf("job saved under wrong user: %s", saved.UserID)
	}
	if store.saved == nil {
		t.Fatal("job was not persisted")
	}
}

func TestFormatAndSaveJobWithoutStore(t *testing.T) {
	provider := &fakeProvider{job: validJob()}
	svc, _ := newTestService(testConfig(), provider, Options{Limiter: &fakeLimiter{allowed: true}})

	_, _, err := svc.FormatAndSaveJob(context.Background(), types.FormatJobInput{Text: "listing"}, FormatJobOptions{Identity: "u"})
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestTailorResume(t *testing.T) {
	provider := &fakeProvider{resume: validResume()}
	svc, captured := newTestService(testConfig(), provider, Options{Limiter: &fakeLimiter{allowed: true}})

	input := types.TailorResumeInput{Resume: validResume(), Job: validJob()}
	tailored, _, err := svc.TailorResume(context.Background(), input, TailorOptions{Identity: "u"})
	if err != nil {
		t.Fatalf("TailorResume failed: %v", err)
	}
	if len(tailored.WorkExperience) != 1 {
		t.Errorf("expected 1 experience entry, got %d", len(tailored.WorkExperience))
	}
	if captured.Model != "gemini-2.0-flash" {
		t.Errorf("expected standard model, got %q", captured.Model)
	}
	if provider.tailorIn == nil || provider.tailorIn.Job.Company != "Acme" {
		t.Error("tailor input was not forwarded to the provider")
	}
}

func TestTailorResumeRejectsInvalidJob(t *testing.T) {
	provider := &fakeProvider{resume: validResume()}
	svc, _ := newTestService(testConfig(), provider, Options{Limiter: &fakeLimiter{allowed: true}})

	input := types.TailorResumeInput{Resume: validResume(), Job: types.SimplifiedJob{}}
	_, _, err := svc.TailorResume(context.Background(), input, TailorOptions{Identity: "u"})
	if !apperrors.IsCode(err, apperrors.ErrCodeSchemaViolation) {
		t.Fatalf("expected SCHEMA_VIOLATION, got %v", err)
	}
}

func TestMissingCredentialSurfaces(t *testing.T) {
	cfg := testConfig()
	cfg.AI.APIKey = ""
	provider := &fakeProvider{score: validScore()}
	svc, _ := newTestService(cfg, provider, Options{Limiter: &fakeLimiter{allowed: true}})

	req := &types.ScoreRequest{Resume: types.ScoreResumeInput{RawText: "resume"}}
	_, _, err := svc.ScoreResume(context.Background(), req, ScoreRequestOptions{Identity: "x"})
	if !apperrors.IsCode(err, apperrors.ErrCodeMissingCredential) {
		t.Fatalf("expected MISSING_CREDENTIAL, got %v", err)
	}

	// A caller-supplied key fills the gap
	opts := ScoreRequestOptions{Identity: "x", AIConfig: &types.AIConfig{
		APIKeys: []types.ApiKey{{Service: "gemini", Key: "caller-key"}},
	}}
	if _, _, err := svc.ScoreResume(context.Background(), req, opts); err != nil {
		t.Fatalf("caller key should satisfy the credential check: %v", err)
	}
}
