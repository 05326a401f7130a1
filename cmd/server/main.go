package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/firstaid/internal"
	"github.com/DukeRupert/firstaid/internal/ai"
	"github.com/DukeRupert/firstaid/internal/ai/anthropic"
	"github.com/DukeRupert/firstaid/internal/ai/gemini"
	"github.com/DukeRupert/firstaid/internal/ai/mock"
	"github.com/DukeRupert/firstaid/internal/ai/openai"
	"github.com/DukeRupert/firstaid/internal/csrf"
	"github.com/DukeRupert/firstaid/internal/handler"
	"github.com/DukeRupert/firstaid/internal/metrics"
	"github.com/DukeRupert/firstaid/internal/middleware"
	"github.com/DukeRupert/firstaid/internal/notify"
	"github.com/DukeRupert/firstaid/internal/prompt"
	"github.com/DukeRupert/firstaid/internal/service"
	"github.com/DukeRupert/firstaid/internal/session"
	"github.com/DukeRupert/firstaid/web"
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

	// Initialize model provider
	model, err := newModel(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("ai provider initialization failed: %w", err)
	}
	logger.Info("AI provider ready", "provider", model.Name())

	// Initialize session store
	store, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("session store initialization failed: %w", err)
	}
	defer store.Close()

	// Initialize template renderer
	templatesFS, staticFS := web.Templates(), web.Static()
	if cfg.IsDevelopment() {
		templatesFS = os.DirFS("web/templates")
		staticFS = os.DirFS("web/static")
	}
	renderer, err := handler.NewRenderer(handler.RendererConfig{
		FS:     templatesFS,
		Logger: logger,
		IsDev:  cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	// Initialize services
	invoker := prompt.NewInvoker(model, logger)
	analysisService := service.NewAnalysisService(invoker, logger)
	translationService := service.NewTranslationService(invoker, logger)
	assistant := service.NewAssistant(analysisService, translationService, store, logger, service.AssistantConfig{
		TurnTimeout: cfg.AITurnTimeout,
	})
	videoService := service.NewVideoGuideService(cfg.VideoSearchDelay, logger)
	notificationService := service.NewNotificationService(notify.NewLogNotifier(logger), service.NotificationConfig{
		Delay:    cfg.NotifyDelay,
		Contacts: cfg.EmergencyContacts,
	}, logger)

	// Initialize middleware
	isSecure := !cfg.IsDevelopment()
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(middleware.SecurityConfig{
		HSTS:       isSecure,
		ImageHosts: middleware.ThumbnailHosts,
	})
	sessionMw := middleware.NewSessionMiddleware(logger, isSecure, cfg.SessionTTL)
	metricsAuthMw := middleware.NewMetricsAuth(cfg.MetricsUsername, cfg.MetricsPassword, logger)
	chatLimiter := middleware.NewRateLimiter(cfg.RateLimitChat, time.Minute)
	defer chatLimiter.Close()
	limit := middleware.RateLimit(chatLimiter, logger)

	// Initialize handlers
	chatHandler := handler.NewChatHandler(assistant, renderer, logger, isSecure)
	videoHandler := handler.NewVideoHandler(videoService, renderer, logger, isSecure)
	notificationHandler := handler.NewNotificationHandler(notificationService, renderer, logger, isSecure)
	apiHandler := handler.NewAPIHandler(analysisService, translationService, assistant, videoService, notificationService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when credentials are configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Pages
	chatHandler.RegisterRoutes(mux, limit)
	videoHandler.RegisterRoutes(mux)
	notificationHandler.RegisterRoutes(mux, limit)

	// JSON API
	apiHandler.RegisterRoutes(mux, limit)
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	app := middleware.Stack(
		loggingMw.Handler,
		securityMw.Handler,
		metrics.Middleware,
		sessionMw.Handler,
		csrf.Protect(logger),
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app(mux),
		ReadHeaderTimeout: 10 * time.Second,
		// A chat turn may take up to AITurnTimeout before the page renders.
		WriteTimeout: cfg.AITurnTimeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "base_url", cfg.BaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// In-flight turns finish within AITurnTimeout; give them that long.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AITurnTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newModel builds the configured hosted model client.
func newModel(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (ai.Model, error) {
	providerCfg := ai.ProviderConfig{RequestTimeout: cfg.AIRequestTimeout}

	switch cfg.AIProvider {
	case "gemini":
		return gemini.New(ctx, gemini.Config{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			ProviderConfig: providerCfg,
		}, logger)
	case "openai":
		return openai.New(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIModel,
			ProviderConfig: providerCfg,
		}, logger)
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:         cfg.AnthropicAPIKey,
			Model:          cfg.AnthropicModel,
			ProviderConfig: providerCfg,
		}, logger)
	case "mock":
		logger.Warn("Using mock AI provider; answers are canned")
		return mock.New(logger).WithDelay(500 * time.Millisecond), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

// newSessionStore builds the configured transcript store.
func newSessionStore(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (session.Store, error) {
	switch cfg.SessionStore {
	case "redis":
		return session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL, logger)
	default:
		return session.NewMemoryStore(cfg.SessionTTL, logger), nil
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
