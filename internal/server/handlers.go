package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"resumelens/internal/ai"
	"resumelens/internal/config"
	"resumelens/internal/observability"
	"resumelens/internal/schema"
	"resumelens/internal/service"
	"resumelens/internal/types"
)

// scoreHandler serves the public resume scoring endpoint. No authentication;
// callers are identified by client IP for quota purposes.
func (s *Server) scoreHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := s.Obs.Tracer("resumelens.api")
	ctx, span := tracer.Start(ctx, "api.score")
	defer span.End()

	var req ScoreAPIRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.Int("request.resume_length", len(req.Resume.RawText)),
		attribute.Bool("request.has_job", req.Job != nil),
		attribute.String("operation", "score"),
	)

	scoreReq := &types.ScoreRequest{Resume: req.Resume, Job: req.Job}
	opts := service.ScoreRequestOptions{
		Identity: "ip:" + getClientIP(r),
		AIConfig: req.AIConfig,
	}

	metrics := s.Obs.GetMetrics()
	var result *types.ResumeScore
	err := metrics.TrackAIOperationWithTokens(ctx, "score", func(ctx context.Context) *observability.AIOperationResult {
		score, tokenUsage, aiErr := s.Service.ScoreResume(ctx, scoreReq, opts)
		result = score
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "ai_processing"))
		metrics.RecordBusinessMetric(ctx, "resume_scored", false)
		s.writeAppError(w, err)
		return
	}

	metrics.RecordBusinessMetric(ctx, "resume_scored", true,
		attribute.Float64("score.overall", result.OverallScore.Score),
		attribute.Bool("score.tailored", result.IsTailoredResume))

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Float64("score.overall", result.OverallScore.Score),
		attribute.Bool("score.tailored", result.IsTailoredResume),
	)

	s.writeJSON(w, http.StatusOK, result)
}

// formatJobHandler extracts a structured job listing from free text and
// optionally persists it for the caller.
func (s *Server) formatJobHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := s.Obs.Tracer("resumelens.api")
	ctx, span := tracer.Start(ctx, "api.format_job")
	defer span.End()

	identity := identityFrom(ctx)

	var req FormatJobAPIRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.Int("request.text_length", len(req.Text)),
		attribute.Bool("request.save", req.Save),
		attribute.String("operation", "format-job"),
	)

	opts := service.FormatJobOptions{
		Identity: "user:" + identity.UserID.String(),
		UserID:   identity.UserID,
		AIConfig: req.AIConfig,
	}

	metrics := s.Obs.GetMetrics()
	var formatted *types.SimplifiedJob
	var saved *types.Job
	err := metrics.TrackAIOperationWithTokens(ctx, "format-job", func(ctx context.Context) *observability.AIOperationResult {
		var tokenUsage *ai.TokenUsage
		var aiErr error
		if req.Save {
			saved, tokenUsage, aiErr = s.Service.FormatAndSaveJob(ctx, types.FormatJobInput{Text: req.Text}, opts)
		} else {
			formatted, tokenUsage, aiErr = s.Service.FormatJobListing(ctx, types.FormatJobInput{Text: req.Text}, opts)
		}
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "ai_processing"))
		metrics.RecordBusinessMetric(ctx, "job_formatted", false)
		s.writeAppError(w, err)
		return
	}

	metrics.RecordBusinessMetric(ctx, "job_formatted", true,
		attribute.Bool("saved", req.Save))
	span.SetAttributes(attribute.Bool("success", true))

	if req.Save {
		s.writeJSON(w, http.StatusCreated, saved)
		return
	}
	s.writeJSON(w, http.StatusOK, formatted)
}

// tailorHandler rewrites a structured resume against a target job.
func (s *Server) tailorHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := s.Obs.Tracer("resumelens.api")
	ctx, span := tracer.Start(ctx, "api.tailor")
	defer span.End()

	identity := identityFrom(ctx)

	var req TailorAPIRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.Int("request.experience_entries", len(req.Resume.WorkExperience)),
		attribute.String("operation", "tailor"),
	)

	input := types.TailorResumeInput{Resume: req.Resume, Job: req.Job}
	opts := service.TailorOptions{
		Identity: "user:" + identity.UserID.String(),
		UserID:   identity.UserID,
		AIConfig: req.AIConfig,
	}

	metrics := s.Obs.GetMetrics()
	var result *types.SimplifiedResume
	err := metrics.TrackAIOperationWithTokens(ctx, "tailor", func(ctx context.Context) *observability.AIOperationResult {
		tailored, tokenUsage, aiErr := s.Service.TailorResume(ctx, input, opts)
		result = tailored
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "ai_processing"))
		metrics.RecordBusinessMetric(ctx, "resume_tailored", false)
		s.writeAppError(w, err)
		return
	}

	metrics.RecordBusinessMetric(ctx, "resume_tailored", true,
		attribute.Int("output.experience_entries", len(result.WorkExperience)))
	span.SetAttributes(attribute.Bool("success", true))

	s.writeJSON(w, http.StatusOK, result)
}

// createJobHandler persists a job record supplied directly by the caller.
// Accepts the legacy company_name field from older clients.
func (s *Server) createJobHandler(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	if !s.requireStore(w) {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		writeErrorResponse(w, "Invalid request body", "content-type must be application/json", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	job, err := schema.NormalizeJobRecord(body)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if err := schema.ValidateSimplifiedJob(job); err != nil {
		s.writeAppError(w, err)
		return
	}

	created, err := s.Store.CreateJob(r.Context(), identity.UserID, job)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, created)
}

// createEmptyJobHandler creates a placeholder job the client fills in later.
func (s *Server) createEmptyJobHandler(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	if !s.requireStore(w) {
		return
	}

	created, err := s.Store.CreateEmptyJob(r.Context(), identity.UserID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, created)
}

// listJobsHandler returns the caller's active jobs, paginated and filtered.
func (s *Server) listJobsHandler(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	if !s.requireStore(w) {
		return
	}

	params := types.JobListingParams{}
	query := r.URL.Query()
	if v := query.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.Page = n
		}
	}
	if v := query.Get("pageSize"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.PageSize = n
		}
	}

	filters := &types.JobListingFilters{}
	hasFilters := false
	if v := query.Get("workLocation"); v != "" {
		filters.WorkLocation = types.WorkLocation(v)
		hasFilters = true
	}
	if v := query.Get("employmentType"); v != "" {
		filters.EmploymentType = types.EmploymentType(v)
		hasFilters = true
	}
	if v := query.Get("keywords"); v != "" {
		for _, keyword := range strings.Split(v, ",") {
			if keyword = strings.TrimSpace(keyword); keyword != "" {
				filters.Keywords = append(filters.Keywords, keyword)
			}
		}
		hasFilters = len(filters.Keywords) > 0 || hasFilters
	}
	if hasFilters {
		params.Filters = filters
	}

	page, err := s.Store.ListJobs(r.Context(), identity.UserID, params)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, page)
}

// deleteJobHandler permanently removes a job record.
func (s *Server) deleteJobHandler(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	if !s.requireStore(w) {
		return
	}

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeErrorResponse(w, "Invalid job id", err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Store.DeleteJob(r.Context(), identity.UserID, jobID); err != nil {
		s.writeAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deactivateJobHandler soft deletes a job so history survives but listings
// no longer include it.
func (s *Server) deactivateJobHandler(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	if !s.requireStore(w) {
		return
	}

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeErrorResponse(w, "Invalid job id", err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Store.DeactivateJob(r.Context(), identity.UserID, jobID); err != nil {
		s.writeAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.Store == nil {
		writeErrorResponse(w, "Persistence not configured",
			"job endpoints require a database connection", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// healthCheckTimeout bounds the AI availability probes in the health check.
const healthCheckTimeout = 10 * time.Second

// healthHandler provides a health check endpoint including AI model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumelens",
		"version": s.Version,
	}

	aiStatus := s.checkAIModelsHealth()
	response["ai_models"] = aiStatus

	overallHealthy := true
	for _, modelStatus := range aiStatus {
		if modelInfo, ok := modelStatus.(map[string]any); ok {
			if available, exists := modelInfo["available"]; exists {
				if avail, ok := available.(bool); ok && !avail {
					overallHealthy = false
					break
				}
			}
		}
	}

	if s.Store != nil {
		if err := s.Store.Ping(r.Context()); err != nil {
			response["database"] = map[string]any{"healthy": false, "error": err.Error()}
			overallHealthy = false
		} else {
			response["database"] = map[string]any{"healthy": true}
		}
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.Logger.Warn("Failed to encode health response", "error", err)
	}
}

// checkAIModelsHealth checks the models each operation is configured to use
func (s *Server) checkAIModelsHealth() map[string]any {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	configs := map[string]config.OperationAIConfig{
		"score":      s.AppConfig.GetScoreConfig(),
		"format-job": s.AppConfig.GetFormatJobConfig(),
		"tailor":     s.AppConfig.GetTailorConfig(),
	}

	aiStatus := make(map[string]any)
	for name, cfg := range configs {
		aiService, err := ai.NewService(&cfg, name, nil, s.Logger)
		if err != nil {
			aiStatus[name] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", name, err),
			}
			continue
		}
		aiStatus[name] = aiService.GetModelInfo(ctx)
		_ = aiService.Close()
	}

	return aiStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumelens",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.Quota != nil {
		response["quota"] = s.Quota.Stats(r.Context())
	} else {
		response["quota"] = map[string]any{"enabled": false}
	}

	if s.Smoother != nil {
		response["smoothing"] = s.Smoother.GetStats()
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"max_requests":     s.RateLimit.MaxRequests,
			"window_seconds":   int(s.RateLimit.Window.Seconds()),
			"backend":          s.RateLimit.Backend,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.Logger.Warn("Failed to encode stats response", "error", err)
	}
}
