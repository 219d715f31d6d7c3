package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start runs the HTTP server and blocks until a shutdown signal arrives or
// the listener fails.
func (s *Server) Start() error {
	mux := s.setupRoutes()
	handler := s.Obs.HTTPMiddleware()(mux)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())
		return s.performGracefulShutdown(server)
	}
}

// httpShutdowner is the slice of *http.Server that graceful shutdown uses
type httpShutdowner interface {
	Shutdown(ctx context.Context) error
	Close() error
}

// performGracefulShutdown drains in-flight requests, then releases the
// resources those requests were still using. Closing the store or limiter
// first would fail requests inside the drain window.
func (s *Server) performGracefulShutdown(server httpShutdowner) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.Logger.Info("Shutting down HTTP server...")
	err := server.Shutdown(shutdownCtx)
	if err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		err = server.Close()
	}

	s.releaseResources()

	if err == nil {
		s.Logger.Info("Server shutdown completed successfully")
	}
	return err
}

func (s *Server) releaseResources() {
	if s.Smoother != nil {
		s.Smoother.Close()
	}
	if s.Quota != nil {
		if err := s.Quota.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close rate limiter")
		}
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                        - Health check")
	fmt.Println("  GET    /stats                         - Server statistics")
	fmt.Println("  POST   /api/public/resume-score       - Score resume (anonymous)")
	fmt.Println("  POST   /api/jobs                      - Create job (requires bearer token)")
	fmt.Println("  POST   /api/jobs/empty                - Create placeholder job (requires bearer token)")
	fmt.Println("  GET    /api/jobs                      - List jobs (requires bearer token)")
	fmt.Println("  DELETE /api/jobs/{id}                 - Delete job (requires bearer token)")
	fmt.Println("  POST   /api/jobs/{id}/deactivate      - Deactivate job (requires bearer token)")
	fmt.Println("  POST   /api/jobs/format               - Format job listing (requires bearer token)")
	fmt.Println("  POST   /api/resumes/tailor            - Tailor resume (requires bearer token)")

	if s.JWT != nil {
		fmt.Println("Authentication: bearer tokens (HS256)")
	} else {
		fmt.Println("Authentication: DISABLED")
		fmt.Println("WARNING: authenticated endpoints will reject all requests!")
	}

	if s.Store != nil {
		fmt.Println("Persistence: PostgreSQL connected")
	} else {
		fmt.Println("Persistence: DISABLED (job endpoints unavailable)")
	}

	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n",
			s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Quota: ENABLED (%d requests per %s, backend: %s)\n",
			s.RateLimit.MaxRequests, s.RateLimit.Window, s.RateLimit.Backend)
		if s.Smoother != nil {
			fmt.Printf("Smoothing: ENABLED (%d requests/min, burst: %d)\n",
				s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
