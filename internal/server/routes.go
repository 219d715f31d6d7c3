package server

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"resumelens/internal/auth"
)

type identityKeyType struct{}

var identityKey identityKeyType

// identityFrom returns the authenticated identity stored by authMiddleware.
func identityFrom(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityKey).(*auth.Identity)
	return identity
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	smooth := s.smoothingMiddleware()
	sizeLimit := s.requestSizeLimitMiddleware()
	rateLimitObs := s.rateLimitObservability()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	// Public surface: anonymous scoring, throttled by client IP
	mux.HandleFunc("POST /api/public/resume-score",
		rateLimitObs(smooth(sizeLimit(s.scoreHandler))),
	)

	// Authenticated surface
	mux.HandleFunc("POST /api/jobs",
		rateLimitObs(smooth(s.authMiddleware(sizeLimit(s.createJobHandler)))),
	)
	mux.HandleFunc("POST /api/jobs/empty",
		s.authMiddleware(s.createEmptyJobHandler),
	)
	mux.HandleFunc("GET /api/jobs",
		s.authMiddleware(s.listJobsHandler),
	)
	mux.HandleFunc("DELETE /api/jobs/{id}",
		s.authMiddleware(s.deleteJobHandler),
	)
	mux.HandleFunc("POST /api/jobs/{id}/deactivate",
		s.authMiddleware(s.deactivateJobHandler),
	)
	mux.HandleFunc("POST /api/jobs/format",
		rateLimitObs(smooth(s.authMiddleware(sizeLimit(s.formatJobHandler)))),
	)
	mux.HandleFunc("POST /api/resumes/tailor",
		rateLimitObs(smooth(s.authMiddleware(sizeLimit(s.tailorHandler)))),
	)

	return mux
}

// authMiddleware verifies the bearer token and stores the caller identity on
// the request context.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			s.Logger.Info("Authentication failed: missing bearer token",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			s.writeAppError(w, err)
			return
		}

		identity, err := s.JWT.ValidateToken(token)
		if err != nil {
			s.Logger.Info("Authentication failed: invalid token",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			s.writeAppError(w, err)
			return
		}

		s.Logger.Debug("Authentication successful",
			"endpoint", r.URL.Path,
			"user_id", identity.UserID.String())

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next(w, r.WithContext(ctx))
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// rateLimitObservability records a metric whenever a request is turned away
// with 429, whichever layer rejected it.
func (s *Server) rateLimitObservability() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := s.Obs.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		}
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
