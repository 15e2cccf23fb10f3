package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatinfra "github.com/gestorcoop/gestorcoop-bff-go/internal/chat/infra"
	chatport "github.com/gestorcoop/gestorcoop-bff-go/internal/chat/port"
	chatservice "github.com/gestorcoop/gestorcoop-bff-go/internal/chat/service"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/config"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/handler"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/cache"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/markdown"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/observability"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/resilience"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/supabase"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, cfg.ServiceName)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("supabase_url", cfg.SupabaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("dev_auth", cfg.DevAuth),
		zap.Bool("gemini", cfg.GeminiAPIKey != ""),
		zap.Strings("cors_origins", cfg.AllowedOrigins),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache (dashboard snapshots and chat rosters) ---
	userCache := cache.New[any](cfg.CacheTTL)
	defer userCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	supabaseCB := resilience.NewCircuitBreaker("supabase", logger)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		supabaseCB,
		resilienceCfg,
		logger,
	)

	var model chatport.ModelCaller
	if cfg.GeminiAPIKey != "" {
		logger.Info("using Gemini model", zap.String("model", cfg.GeminiModel))
		model = chatinfra.NewGeminiClient(
			httpClient,
			cfg.GeminiBaseURL,
			cfg.GeminiAPIKey,
			cfg.GeminiModel,
			resilience.NewCircuitBreaker("gemini", logger),
			resilienceCfg,
			resilience.NewBulkhead(cfg.MaxConcurrency),
		)
	} else {
		logger.Warn("GEMINI_API_KEY not set, using simulated model")
		model = chatinfra.NewSimulatedModel(800 * time.Millisecond)
	}

	// --- Services ---
	cooperadoSvc := service.NewCooperadoService(store, userCache, logger)
	interacaoSvc := service.NewInteracaoService(store, store, userCache, time.Now, logger)
	oportunidadeSvc := service.NewOportunidadeService(store, store, userCache, logger)
	produtoSvc := service.NewProdutoService(store, logger)
	tarefaSvc := service.NewTarefaService(store, store, store, userCache, time.Now, logger)
	dashboardSvc := service.NewDashboardService(store, store, store, userCache, metrics, time.Now, cfg.ChurnWindowDays, logger)
	insightsSvc := service.NewInsightsService(store, store, userCache, metrics, time.Now, cfg.ChurnWindowDays, logger)
	authSvc := service.NewAuthService(store, cfg.SupabaseJWTSecret, cfg.JWTAccessTTL, service.DevUser{
		Enabled:      cfg.DevAuth,
		Email:        cfg.DevUserEmail,
		UserID:       cfg.DevUserID,
		PasswordHash: cfg.DevUserPasswordHash,
	}, logger)

	chatSvc := chatservice.NewChatService(
		model,
		store,
		insightsSvc,
		markdown.NewRenderer(),
		chatservice.DefaultStrategies(insightsSvc, logger),
		metrics,
		logger,
	)

	// --- Jobs ---
	jobsCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()

	sweeper := service.NewOverdueSweeper(store, metrics, cfg.OverdueSweepInterval, time.Now, logger)
	if err := sweeper.Start(jobsCtx); err != nil {
		logger.Fatal("failed to start overdue sweep", zap.Error(err))
	}

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Cooperados:     cooperadoSvc,
		Interacoes:     interacaoSvc,
		Oportunidades:  oportunidadeSvc,
		Produtos:       produtoSvc,
		Tarefas:        tarefaSvc,
		Dashboard:      dashboardSvc,
		Insights:       insightsSvc,
		Auth:           authSvc,
		Chat:           chatSvc,
		Health:         store,
		Sweep:          sweeper,
		Metrics:        metrics,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	stopJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
