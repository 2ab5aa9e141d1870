package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DukeRupert/drapery/internal"
	"github.com/DukeRupert/drapery/internal/ai"
	"github.com/DukeRupert/drapery/internal/ai/anthropic"
	"github.com/DukeRupert/drapery/internal/ai/compositor"
	"github.com/DukeRupert/drapery/internal/ai/mock"
	"github.com/DukeRupert/drapery/internal/csrf"
	"github.com/DukeRupert/drapery/internal/email"
	"github.com/DukeRupert/drapery/internal/handler"
	"github.com/DukeRupert/drapery/internal/metrics"
	"github.com/DukeRupert/drapery/internal/middleware"
	"github.com/DukeRupert/drapery/internal/report"
	"github.com/DukeRupert/drapery/internal/repository"
	"github.com/DukeRupert/drapery/internal/service"
	"github.com/DukeRupert/drapery/internal/session"
	"github.com/DukeRupert/drapery/internal/storage"
	"github.com/DukeRupert/drapery/web"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	isDev := cfg.Env == "development"
	isSecure := cfg.IsProduction()

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize storage
	store, err := storage.New(storage.Config{
		Provider: cfg.StorageProvider,
		Local: storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
			Region:          "auto",
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize AI providers
	advisor, err := newAdviceProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("ai provider initialization failed: %w", err)
	}
	logger.Info("AI provider ready", "provider", cfg.AIProvider)

	// Initialize session codec
	codec := session.NewCodec(cfg.SessionSecret, cfg.Env, logger)
	if cfg.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD is not set, admin login is disabled")
	}

	// Initialize services
	money, err := service.NewMoneyFormatter(cfg.Currency, cfg.StoreLanguage)
	if err != nil {
		return fmt.Errorf("money formatter initialization failed: %w", err)
	}
	whatsapp := service.NewWhatsAppLinker(cfg.WhatsAppNumber, cfg.StoreName, money)

	// Templates and static files
	templateFS := web.Templates()
	staticFS := web.Static()
	if isDev {
		// Read from disk so template and asset edits show up without a rebuild
		templateFS = os.DirFS("web/templates")
		staticFS = os.DirFS("web/static")
	}

	// Initialize order notifications
	var notifier email.Notifier
	if cfg.NotificationsEnabled() {
		fromName := cfg.SMTPFromName
		if fromName == "" {
			fromName = cfg.StoreName
		}
		smtpService, err := email.NewSMTPEmailService(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: fromName,
			To:       cfg.OrderNotifyEmail,
		}, templateFS, logger)
		if err != nil {
			return fmt.Errorf("email service initialization failed: %w", err)
		}
		notifier = smtpService
		logger.Info("Order notifications enabled", "to", cfg.OrderNotifyEmail)
	}

	catalogService := service.NewCatalogService(repo, logger)
	orderService := service.NewOrderService(repo, whatsapp, notifier, cfg.BaseURL, logger)
	designService := service.NewDesignService(catalogService, advisor, compositor.New(), store, logger)
	adminAuthService := service.NewAdminAuthService(cfg.AdminPassword, codec, logger)

	// Initialize template renderer
	renderer, err := handler.NewRenderer(handler.RendererConfig{
		FS:     templateFS,
		Funcs:  handler.TemplateFuncs(cfg.StoreName),
		Logger: logger,
		IsDev:  isDev,
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	// Initialize middleware
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	guard := middleware.NewAdminGuard(codec, logger)
	csrfMw := csrf.NewMiddleware(isAdminPath, logger)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, !isSecure)

	designLimiter := middleware.NewRateLimiter(cfg.AIRateLimit, cfg.AIRateWindow, logger)
	defer designLimiter.Stop()
	designLimit := middleware.NewRateLimitMiddleware(designLimiter, logger, cfg.TrustProxyHeaders)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, logger)
	catalogHandler := handler.NewCatalogHandler(catalogService, money, store, renderer, logger)
	checkoutHandler := handler.NewCheckoutHandler(orderService, renderer, logger)
	designHandler := handler.NewDesignHandler(designService, catalogService, money, renderer, logger)
	authHandler := handler.NewAuthHandler(adminAuthService, renderer, logger, isSecure)
	adminHandler := handler.NewAdminHandler(orderService, money, report.NewPDFGenerator(), cfg.StoreName, renderer, logger, isSecure)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Locally stored fabric images and mockups. R2 serves its own URLs.
	if local, ok := store.(*storage.LocalStorage); ok {
		mux.Handle("GET /files/", http.StripPrefix("/files/", http.FileServerFS(noDirListing{os.DirFS(local.Root())})))
	}

	// Health check and metrics
	healthHandler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Storefront
	catalogHandler.RegisterRoutes(mux)
	checkoutHandler.RegisterRoutes(mux)
	designHandler.RegisterRoutes(mux, designLimit.Limit)

	// Admin. The guard below protects everything under /admin except the
	// login page.
	authHandler.RegisterRoutes(mux)
	adminHandler.RegisterRoutes(mux)

	stack := middleware.Stack(
		securityMw.Handler,
		loggingMw.Handler,
		metrics.Middleware,
		guard.Handler,
		csrfMw.Handler,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           stack(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a failed listener
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newAdviceProvider returns the configured design advice provider.
func newAdviceProvider(cfg *internal.Config, logger *slog.Logger) (ai.AdviceProvider, error) {
	if cfg.AIProvider != "anthropic" {
		return mock.New(logger), nil
	}
	return anthropic.New(anthropic.Config{
		APIKey: cfg.AnthropicAPIKey,
		Model:  cfg.AnthropicModel,
		ProviderConfig: ai.ProviderConfig{
			MaxRetries:     cfg.AIMaxRetries,
			RetryBaseDelay: cfg.AIRetryBaseDelay,
			RequestTimeout: cfg.AIRequestTimeout,
		},
	}, logger)
}

// isAdminPath scopes CSRF checks to the admin area, login included.
func isAdminPath(path string) bool {
	return path == middleware.AdminPrefix || strings.HasPrefix(path, middleware.AdminPrefix+"/")
}

// noDirListing hides directories from the file server.
type noDirListing struct {
	fs.FS
}

func (n noDirListing) Open(name string) (fs.File, error) {
	f, err := n.FS.Open(name)
	if err != nil {
		return nil, err
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
