package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/counsel/counsel/internal/config"
	"github.com/counsel/counsel/internal/domain/agent"
	"github.com/counsel/counsel/internal/domain/aireport"
	"github.com/counsel/counsel/internal/domain/audit"
	"github.com/counsel/counsel/internal/domain/billing"
	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/domain/consent"
	"github.com/counsel/counsel/internal/domain/report"
	"github.com/counsel/counsel/internal/domain/session"
	"github.com/counsel/counsel/internal/domain/subscription"
	"github.com/counsel/counsel/internal/domain/user"
	"github.com/counsel/counsel/internal/platform/ai"
	"github.com/counsel/counsel/internal/platform/auth"
	"github.com/counsel/counsel/internal/platform/blobstore"
	"github.com/counsel/counsel/internal/platform/db"
	"github.com/counsel/counsel/internal/platform/middleware"
	"github.com/counsel/counsel/internal/platform/notification"
	"github.com/counsel/counsel/internal/platform/payments"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "counsel-server",
		Short: "Counseling practice API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			lazy, err := openPool()
			if err != nil {
				return err
			}
			defer lazy.Close()

			ctx := context.Background()
			pool, err := lazy.Get(ctx)
			if err != nil {
				return err
			}

			migrator := db.NewMigrator(pool, dir)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			lazy, err := openPool()
			if err != nil {
				return err
			}
			defer lazy.Close()

			ctx := context.Background()
			pool, err := lazy.Get(ctx)
			if err != nil {
				return err
			}

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage practice tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			dir, _ := cmd.Flags().GetString("dir")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			lazy, err := openPool()
			if err != nil {
				return err
			}
			defer lazy.Close()

			ctx := context.Background()
			pool, err := lazy.Get(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Creating tenant schema: tenant_%s\n", name)
			if err := db.CreateTenantSchema(ctx, pool, name, dir); err != nil {
				return err
			}
			fmt.Println("Tenant created successfully.")
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant identifier (alphanumeric)")
	createCmd.Flags().String("dir", "./migrations", "Path to migrations directory")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	lazy := db.NewLazyPool(cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	defer lazy.Close()
	pool, err := lazy.Get(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
	}))

	// Shared infrastructure
	blobs := blobstore.NewInMemoryBlobStore()
	notify := notification.NewManager(&notification.LogEmailSender{Logger: logger}, nil, notification.NewTemplateEngine())
	processor := payments.NewStripeProcessor(cfg.StripeAPIKey, logger)
	generator := ai.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)

	// Audit trail, wired into the request middleware below
	auditSvc := audit.NewService(audit.NewRepoPG(pool), logger)

	authMW := auth.DevAuthMiddleware()
	if !cfg.IsDev() {
		authMW = auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		})
	}
	e.Use(skipPublic(authMW))
	e.Use(db.TenantMiddleware(pool, cfg.DefaultTenant))
	e.Use(middleware.Audit(logger, auditSvc))

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// -- Domain wiring --

	clientRepo := client.NewRepoPG(pool)
	clientSvc := client.NewService(clientRepo)
	client.NewHandler(clientSvc).RegisterRoutes(apiV1)

	sessionRepo := session.NewRepoPG(pool)
	sessionSvc := session.NewService(sessionRepo)
	session.NewHandler(sessionSvc).RegisterRoutes(apiV1)

	aiReportRepo := aireport.NewRepoPG(pool)

	agentSvc := agent.NewService(generator, aiReportRepo, clientRepo, sessionRepo, logger)
	agent.NewHandler(agentSvc).RegisterRoutes(apiV1)

	aggregator := report.NewAggregator(clientRepo, sessionRepo, aiReportRepo)
	reportSvc := report.NewService(report.NewRepoPG(pool), aggregator, clientRepo, logger)
	report.NewHandler(reportSvc).RegisterRoutes(apiV1)

	billingSvc := billing.NewService(billing.NewRepoPG(pool), clientRepo, blobs, processor, notify, cfg.DefaultTenant, logger)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	subscriptionSvc := subscription.NewService(subscription.NewRepoPG(pool), processor, subscription.PlanPrices{
		subscription.PlanStarter:      cfg.StripePriceStarter,
		subscription.PlanProfessional: cfg.StripePriceProfessional,
		subscription.PlanPractice:     cfg.StripePricePractice,
	}, cfg.DefaultTenant, logger)
	subscription.NewHandler(subscriptionSvc).RegisterRoutes(apiV1)

	consentSvc := consent.NewService(consent.NewRepoPG(pool), clientRepo, blobs, notify, auditSvc,
		cfg.BaseURL, cfg.PracticeName, time.Duration(cfg.ConsentTokenTTL)*time.Hour, logger)
	consentHandler := consent.NewHandler(consentSvc)
	consentHandler.RegisterRoutes(apiV1)
	consentHandler.RegisterPublicRoutes(e)

	userSvc := user.NewService(user.NewRepoPG(pool))
	user.NewHandler(userSvc).RegisterRoutes(apiV1)

	audit.NewHandler(auditSvc).RegisterRoutes(apiV1)

	blobstore.NewBlobHandler(blobs).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// openPool loads configuration and returns the shared lazy pool. The pool
// dials on first Get, so a command that fails earlier never opens a
// database connection.
func openPool() (*db.LazyPool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return db.NewLazyPool(cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns), nil
}

// skipPublic bypasses the wrapped middleware for routes that must stay
// reachable without credentials: health probes and the token-addressed
// consent signing pages, where the signature token is the capability.
func skipPublic(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		wrapped := mw(next)
		return func(c echo.Context) error {
			p := c.Request().URL.Path
			if p == "/health" || p == "/health/db" || strings.HasPrefix(p, "/consent/sign/") {
				return next(c)
			}
			return wrapped(c)
		}
	}
}
