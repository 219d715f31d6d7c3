// Package server provides the HTTP API: a public scoring endpoint and the
// JWT-protected job and resume endpoints.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"resumelens/internal/auth"
	"resumelens/internal/config"
	apperrors "resumelens/internal/errors"
	"resumelens/internal/observability"
	"resumelens/internal/ratelimit"
	"resumelens/internal/service"
	"resumelens/internal/store"
	"resumelens/internal/types"
)

// ScoreAPIRequest is the body of the public scoring endpoint. Model tier is
// resolved from the caller's plan alone; no request field can raise it.
type ScoreAPIRequest struct {
	Resume   types.ScoreResumeInput `json:"resume"`
	Job      *types.ScoreJobInput   `json:"job,omitempty"`
	AIConfig *types.AIConfig        `json:"aiConfig,omitempty"`
}

// FormatJobAPIRequest is the body of the job formatting endpoint
type FormatJobAPIRequest struct {
	Text     string          `json:"text"`
	Save     bool            `json:"save,omitempty"`
	AIConfig *types.AIConfig `json:"aiConfig,omitempty"`
}

// TailorAPIRequest is the body of the resume tailoring endpoint
type TailorAPIRequest struct {
	Resume   types.SimplifiedResume `json:"resume"`
	Job      types.SimplifiedJob    `json:"job"`
	AIConfig *types.AIConfig        `json:"aiConfig,omitempty"`
}

// ErrorResponse is the error envelope every failing endpoint returns
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration and collaborators for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config

	JWT     *auth.JWTService
	Service *service.Service
	Store   *store.DB
	Quota   ratelimit.Limiter
	Obs     *observability.Manager

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit *config.RateLimitConfig
	Smoother  *LimiterManager

	Logger *apperrors.Logger
}

// Deps carries the collaborators NewServer wires into a Server
type Deps struct {
	Version string
	JWT     *auth.JWTService
	Service *service.Service
	Store   *store.DB
	Quota   ratelimit.Limiter
	Obs     *observability.Manager
}

// NewServer creates a Server from application configuration
func NewServer(cfg *config.Config, deps Deps, logger *apperrors.Logger) *Server {
	rl := &cfg.Server.RateLimit

	var smoother *LimiterManager
	if rl.Enabled && rl.RequestsPerMin > 0 {
		smoother = NewLimiterManager(rl.RequestsPerMin, rl.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        deps.Version,
		AppConfig:      cfg,
		JWT:            deps.JWT,
		Service:        deps.Service,
		Store:          deps.Store,
		Quota:          deps.Quota,
		Obs:            deps.Obs,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxBodyBytes,
		RateLimit:      rl,
		Smoother:       smoother,
		Logger:         logger,
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// statusForError maps an application error code onto an HTTP status
func statusForError(err error) int {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case apperrors.ErrCodeSchemaViolation,
		apperrors.ErrCodeInvalidRequest,
		apperrors.ErrCodeInvalidFormat,
		apperrors.ErrCodeMissingCredential:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeGenerationFailed, apperrors.ErrCodeAIServiceFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError maps an application error to its HTTP shape
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	status := statusForError(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		writeErrorResponseCode(w, appErr.Message, appErr.Code, "", status)
		return
	}
	writeErrorResponse(w, "Internal server error", err.Error(), status)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeErrorResponseCode(w, error, "", message, statusCode)
}

func writeErrorResponseCode(w http.ResponseWriter, error, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Code:    code,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// writeJSON writes a success payload. AI results are never cacheable.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Resumelens-Version", s.Version)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to encode response", "error", err)
	}
}
