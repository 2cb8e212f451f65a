package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/drmas001/wardtrack/internal/config"
	"github.com/drmas001/wardtrack/internal/domain/census"
	"github.com/drmas001/wardtrack/internal/domain/dailyreport"
	"github.com/drmas001/wardtrack/internal/domain/scheduling"
	"github.com/drmas001/wardtrack/internal/platform/auth"
	"github.com/drmas001/wardtrack/internal/platform/blobstore"
	"github.com/drmas001/wardtrack/internal/platform/db"
	"github.com/drmas001/wardtrack/internal/platform/middleware"
	"github.com/drmas001/wardtrack/internal/platform/notify"
	"github.com/drmas001/wardtrack/internal/platform/report"
	"github.com/drmas001/wardtrack/internal/platform/telemetry"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "wardtrack-server",
		Short: "Ward census and patient tracking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the census API server",
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
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	logger = logger.Level(logLevel(cfg.LogLevel))

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Report archive storage
	store, err := blobstore.FromConfig(ctx, blobstore.Config{
		Driver:      cfg.ArchiveDriver,
		FSRoot:      cfg.ArchiveFSRoot,
		S3Bucket:    cfg.ArchiveS3Bucket,
		S3Region:    cfg.ArchiveS3Region,
		S3Endpoint:  cfg.ArchiveS3Endpoint,
		S3PathStyle: cfg.ArchiveS3PathStyle,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open archive store")
	}
	logger.Info().Str("driver", string(store.Driver())).Msg("archive store ready")

	// Metrics and discharge webhooks
	metrics := telemetry.NewMetrics()
	notifier := notify.NewNotifier(cfg.WebhookURL, cfg.WebhookSecret, logger)
	defer notifier.Close()
	if notifier.Enabled() {
		logger.Info().Str("url", cfg.WebhookURL).Msg("discharge webhooks enabled")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		key, err := resolveSigningKey(cfg.JWTSigningKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid JWT signing key")
		}
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.JWTIssuer,
			Audience:   cfg.JWTAudience,
			SigningKey: key,
		}))
	}

	// Audit middleware
	e.Use(middleware.Audit(logger))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Census domain: admissions, consultations, unified view, discharge
	admissionRepo := census.NewAdmissionRepo(pool)
	consultationRepo := census.NewConsultationRepo(pool)
	censusSvc := census.NewService(admissionRepo, consultationRepo, census.Config{
		Location:        loc,
		DischargeWindow: cfg.DischargeWindow(),
		Metrics:         metrics,
		Notifier:        notifier,
	})
	census.NewHandler(censusSvc).RegisterRoutes(apiV1)

	// Outpatient clinic appointments
	appointmentRepo := scheduling.NewAppointmentRepo(pool)
	schedulingSvc := scheduling.NewService(appointmentRepo)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)

	// Daily progress reports
	reportRepo := dailyreport.NewReportRepo(pool)
	dailyreportSvc := dailyreport.NewService(reportRepo)
	dailyreport.NewHandler(dailyreportSvc).RegisterRoutes(apiV1)

	// Census report documents and archive
	reportSvc := report.NewService(censusSvc, schedulingSvc, store)
	report.NewHandler(reportSvc).RegisterRoutes(apiV1)

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler())

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("timezone", cfg.Timezone).Msg("starting server")
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

// logLevel parses the configured level, falling back to info rather than
// failing startup on a typo.
func logLevel(value string) zerolog.Level {
	level, err := zerolog.ParseLevel(value)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// resolveSigningKey decodes JWT_SIGNING_KEY. Hex-encoded values are decoded
// to raw bytes; anything else is used verbatim so plain passphrase keys keep
// working.
func resolveSigningKey(value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("JWT signing key is empty")
	}
	if decoded, err := hex.DecodeString(value); err == nil {
		return decoded, nil
	}
	return []byte(value), nil
}
