package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resumelens/internal/auth"
	"resumelens/internal/billing"
	"resumelens/internal/config"
	"resumelens/internal/errors"
	"resumelens/internal/observability"
	"resumelens/internal/ratelimit"
	"resumelens/internal/server"
	"resumelens/internal/service"
	"resumelens/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for resume scoring, job formatting and tailoring",
	Long: `Start an HTTP server that provides REST API endpoints for resume scoring,
job listing extraction and resume tailoring.

Available endpoints:
- POST /api/public/resume-score: Score a resume (anonymous, throttled by IP)
- POST /api/jobs: Create a job record (bearer token)
- POST /api/jobs/format: Extract and optionally save a job record (bearer token)
- POST /api/resumes/tailor: Tailor a resume for a job (bearer token)
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

Job persistence requires a PostgreSQL connection; without one the server
still serves the scoring, formatting and tailoring pipelines.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("database-url", "", "PostgreSQL connection string (overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("database.url", "database-url")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	obs, err := observability.NewManager(&cfg.Observability)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	jwtService, err := auth.NewJWTService(&cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token verification: %w", err)
	}

	var db *store.DB
	if cfg.Database.URL != "" {
		db, err = store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to ensure database schema: %w", err)
		}
		logger.Info("Database connected")
	} else {
		logger.Warn("No database configured, job persistence disabled")
	}

	quota, err := buildQuotaLimiter(ctx, cfg, logger)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return err
	}

	var jobs service.JobStore
	if db != nil {
		jobs = db
	}

	svc := service.New(service.Options{
		Config:  cfg,
		Limiter: quota,
		Billing: billing.NewResolver(subscriptionSource(db), logger),
		Jobs:    jobs,
		Logger:  logger,
	})

	srv := server.NewServer(cfg, server.Deps{
		Version: Version,
		JWT:     jwtService,
		Service: svc,
		Store:   db,
		Quota:   quota,
		Obs:     obs,
	}, logger)

	return srv.Start()
}

// buildQuotaLimiter constructs the fixed-window quota backend named in the
// configuration. A disabled rate limit section yields no limiter at all.
func buildQuotaLimiter(ctx context.Context, cfg *config.Config, logger *errors.Logger) (ratelimit.Limiter, error) {
	rl := cfg.Server.RateLimit
	if !rl.Enabled || rl.MaxRequests <= 0 {
		return nil, nil
	}

	quota := ratelimit.Quota{MaxRequests: rl.MaxRequests, Window: rl.Window}

	switch rl.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter, err := ratelimit.NewRedisLimiter(ctx, client, quota, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis rate limiter: %w", err)
		}
		return limiter, nil
	case "", "memory":
		return ratelimit.NewMemoryLimiter(quota, logger), nil
	default:
		return nil, fmt.Errorf("unsupported rate limit backend: %s", rl.Backend)
	}
}

// subscriptionSource adapts an optional database handle to the billing
// lookup interface without turning a nil *store.DB into a non-nil interface.
func subscriptionSource(db *store.DB) billing.SubscriptionSource {
	if db == nil {
		return nil
	}
	return db
}
