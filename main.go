package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/greda-gbc/assessment-engine/pkg/auth"
	"github.com/greda-gbc/assessment-engine/pkg/config"
	"github.com/greda-gbc/assessment-engine/pkg/database"
	"github.com/greda-gbc/assessment-engine/pkg/handlers"
	"github.com/greda-gbc/assessment-engine/pkg/logging"
	"github.com/greda-gbc/assessment-engine/pkg/middleware"
	"github.com/greda-gbc/assessment-engine/pkg/notify"
	"github.com/greda-gbc/assessment-engine/pkg/repositories"
	"github.com/greda-gbc/assessment-engine/pkg/retry"
	"github.com/greda-gbc/assessment-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Host),
		zap.Int("retention_days", cfg.Retention.Days))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database. The pool is retried with backoff so restarts survive a
	// PostgreSQL instance that is still coming up.
	db, err := retry.DoWithResult(ctx, nil, func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
			MinConnections: cfg.Database.MinConnections,
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	// Migrations use a direct database/sql connection.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection",
			zap.String("error", logging.SanitizeError(err)))
	}
	if err := database.RunMigrations(sqlDB, "migrations", logger); err != nil {
		logger.Fatal("Failed to run migrations",
			zap.String("error", logging.SanitizeError(err)))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	assessmentRepo := repositories.NewAssessmentRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	mediaRepo := repositories.NewMediaRepository(db)
	invitationRepo := repositories.NewInvitationRepository(db)

	// Services
	activityService := services.NewActivityService(activityRepo, notify.NopNotifier{}, logger)
	assessmentService := services.NewAssessmentService(assessmentRepo, mediaRepo, userRepo, activityService, logger)
	userService := services.NewUserService(userRepo, invitationRepo, activityService, logger)
	retentionService := services.NewRetentionService(mediaRepo, invitationRepo, cfg.Retention.Days, logger)

	retentionService.RunScheduler(ctx, time.Duration(cfg.Retention.SweepIntervalHours)*time.Hour)

	// Authentication
	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authMiddleware := auth.NewMiddleware(jwksClient, userRepo, logger)

	// HTTP routes
	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAssessmentsHandler(assessmentService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewActivityHandler(activityService, assessmentService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Starting assessment-engine",
		zap.String("addr", server.Addr),
		zap.String("version", cfg.Version))

	if cfg.TLSCertPath != "" {
		err = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a production logger outside local development.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
