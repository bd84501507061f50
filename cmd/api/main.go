package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/auth"
	"github.com/dohyunkim-dev/marketgate/internal/background"
	"github.com/dohyunkim-dev/marketgate/internal/config"
	"github.com/dohyunkim-dev/marketgate/internal/database"
	"github.com/dohyunkim-dev/marketgate/internal/handlers"
	middlewareCustom "github.com/dohyunkim-dev/marketgate/internal/middleware"
	"github.com/dohyunkim-dev/marketgate/internal/models"
	"github.com/dohyunkim-dev/marketgate/internal/repositories"
	"github.com/dohyunkim-dev/marketgate/internal/routes"
	"github.com/dohyunkim-dev/marketgate/internal/services"
	"github.com/dohyunkim-dev/marketgate/migrations"
	pkgauth "github.com/dohyunkim-dev/marketgate/pkg/auth"
	pkghttp "github.com/dohyunkim-dev/marketgate/pkg/http"
	pkglogger "github.com/dohyunkim-dev/marketgate/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before opening the pool
	if err := database.Migrate(cfg.Database.DSN(), migrations.FS); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	loginEventRepo := repositories.NewLoginEventRepository(db)
	adminLogRepo := repositories.NewAdminLogRepository(db)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// AWS SES mail service
	mailService, err := services.NewAWSSESMailService(
		cfg.Mail.AWSRegion,
		cfg.Mail.FromAddress,
		cfg.Mail.LinkBaseURL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize mail service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	eligibility := services.NewEligibilityChecker(accountRepo, loginEventRepo, logger)
	lockout := services.NewLockoutPolicy(accountRepo, services.LockoutConfig{
		MaxFail:      cfg.Security.MaxLoginFail,
		LockDuration: cfg.Security.LockDuration,
	}, logger)

	sessionService := services.NewSessionService(accountRepo, loginEventRepo, eligibility, lockout, tokenManager, logger, auditLogger)
	accountService := services.NewAccountService(accountRepo, mailService, logger, auditLogger, cfg.Security.ActionTokenTTL)
	adminService := services.NewAdminService(accountRepo, loginEventRepo, adminLogRepo, logger, auditLogger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(sessionService, ipConfig)
	accountHandler := handlers.NewAccountHandler(accountService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Cleanup task for expired action tokens and aged login events
	cleanupManager := background.NewCleanupManager(
		accountRepo,
		loginEventRepo,
		logger,
		cfg.Security.CleanupInterval,
		cfg.Security.LoginEventRetention,
	)

	// Bootstrap first admin account if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminAccount(ctx, accountRepo, logger); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, accountHandler, adminHandler, tokenManager, cfg.Security.AuthRateLimit)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminAccount creates the first admin account if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminAccount(ctx context.Context, accountRepo *repositories.AccountRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin account creation")
		return nil
	}

	_, err := accountRepo.FindByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin account already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.Account{
		Email:        adminEmail,
		PasswordHash: &hashedPassword,
		FullName:     "Admin",
		Provider:     models.ProviderLocal,
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
	}

	if err := accountRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("admin account created successfully")
	return nil
}
