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

	"github.com/apvaldes/healthcenter/internal/auth"
	"github.com/apvaldes/healthcenter/internal/background"
	"github.com/apvaldes/healthcenter/internal/config"
	"github.com/apvaldes/healthcenter/internal/database"
	"github.com/apvaldes/healthcenter/internal/handlers"
	middlewareCustom "github.com/apvaldes/healthcenter/internal/middleware"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/apvaldes/healthcenter/internal/repositories"
	"github.com/apvaldes/healthcenter/internal/routes"
	"github.com/apvaldes/healthcenter/internal/services"
	pkgauth "github.com/apvaldes/healthcenter/pkg/auth"
	"github.com/apvaldes/healthcenter/pkg/cache"
	pkghttp "github.com/apvaldes/healthcenter/pkg/http"
	pkglogger "github.com/apvaldes/healthcenter/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Optional content cache; the service degrades to direct reads without it.
	var contentCache *cache.Cache
	if cfg.Cache.RedisAddr != "" {
		contentCache, err = cache.New(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL, logger)
		if err != nil {
			logger.Error("failed to connect to redis, continuing without cache", slog.Any("error", err))
			contentCache = nil
		} else {
			defer contentCache.Close()
		}
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	attemptRepo := repositories.NewLoginAttemptRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	aboutRepo := repositories.NewAboutRepository(db)
	homeRepo := repositories.NewHomePageRepository(db)
	contentRepo := repositories.NewContentRepository(db)
	portfolioRepo := repositories.NewPortfolioRepository(db)
	categoryRepo := repositories.NewPortfolioCategoryRepository(db)

	cleanupManager := background.NewCleanupManager(
		attemptRepo,
		sessionRepo,
		logger,
		cfg.Auth.CleanupInterval,
		cfg.Auth.AttemptRetention,
		cfg.Auth.SessionIdleTimeout,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)
	totpManager := auth.NewTOTPManager(cfg.Auth.TOTPIssuer)
	timingDelay := auth.NewTimingDelay(100*time.Millisecond, 100*time.Millisecond)

	lockout := services.LockoutPolicy{
		Threshold:    cfg.Auth.LockoutThreshold,
		LockDuration: cfg.Auth.LockoutDuration,
	}

	// Services
	authService := services.NewAuthService(
		userRepo,
		attemptRepo,
		sessionRepo,
		lockout,
		totpManager,
		timingDelay,
		cfg.Auth.RememberMeDuration,
		cfg.Auth.PasswordMaxAge,
		logger,
		auditLogger,
	)
	contentService := services.NewContentService(
		aboutRepo, homeRepo, contentRepo, portfolioRepo, categoryRepo,
		contentCache, logger,
	)

	// Handlers
	cookieConfig := auth.CookieConfig{
		Domain: cfg.Server.CookieDomain,
		Secure: cfg.Server.CookieSecure,
	}
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	handlerSet := routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cookieConfig, ipConfig),
		About:     handlers.NewAboutHandler(contentService),
		Home:      handlers.NewHomeHandler(contentService),
		Content:   handlers.NewContentHandler(contentService),
		Portfolio: handlers.NewPortfolioHandler(contentService),
	}

	// Bootstrap the first staff user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middlewareCustom.EnsureCSRFCookie(cfg.Server.CookieSecure))
	router.Use(middlewareCustom.CSRFProtection(logger))

	routes.RegisterRoutes(router, handlerSet, sessionRepo, userRepo)

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

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

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

// ensureAdminUser creates the first admin user if ADMIN_USERNAME, ADMIN_EMAIL
// and ADMIN_PASSWORD are set.
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminUsername == "" || adminEmail == "" || adminPassword == "" {
		logger.Info("no admin credentials configured, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByUsername(ctx, adminUsername)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Username:     adminUsername,
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		FirstName:    "Admin",
		Role:         models.RoleAdmin,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
