package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/doughjo-app/doughjo/internal/accounts"
	"github.com/doughjo-app/doughjo/internal/aggregator"
	"github.com/doughjo-app/doughjo/internal/app"
	"github.com/doughjo-app/doughjo/internal/auth"
	"github.com/doughjo-app/doughjo/internal/goals"
	"github.com/doughjo-app/doughjo/internal/observability"
	"github.com/doughjo-app/doughjo/internal/platform/cache"
	"github.com/doughjo-app/doughjo/internal/platform/db"
	"github.com/doughjo-app/doughjo/internal/profile"
	"github.com/doughjo-app/doughjo/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	// The pool is nil when PG_DSN is unset. The managers then serve demo
	// data instead of refusing to start.
	pool, err := db.NewOptional(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	if pool == nil {
		logger.Warn("data store not configured, serving demo data")
	} else {
		defer pool.Close()
	}

	// Sessions live in Redis, so an unreachable Redis is fatal here.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "doughjo_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	var authRepo auth.Repository
	var accountsRepo accounts.RepositoryPort
	var goalsRepo goals.RepositoryPort
	var profileRepo profile.RepositoryPort
	if pool != nil {
		authRepo = auth.NewRepository(pool)
		accountsRepo = accounts.NewRepository(pool)
		goalsRepo = goals.NewRepository(pool)
		profileRepo = profile.NewRepository(pool)
	}

	var agg aggregator.Client
	if cfg.AggregatorBaseURL != "" {
		agg = aggregator.NewHTTPClient(cfg.AggregatorBaseURL, cfg.AggregatorSecret)
	} else {
		agg = aggregator.NewSandbox()
	}

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	accountsRegistry := accounts.NewRegistry(logger, accountsRepo)
	profileRegistry := profile.NewRegistry(logger, profileRepo)

	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, accountsRegistry, profileRegistry)
	accountsHandler := accounts.NewHandler(logger, accountsRegistry, agg, queue)
	goalsService := goals.NewService(goalsRepo)
	goalsHandler := goals.NewHandler(logger, goalsService)
	profileHandler := profile.NewHandler(logger, profileRegistry)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		AuthHandler:     authHandler,
		AccountsHandler: accountsHandler,
		GoalsHandler:    goalsHandler,
		ProfileHandler:  profileHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
