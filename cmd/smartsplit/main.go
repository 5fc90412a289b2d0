package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"smartsplit/internal/adapters"
	"smartsplit/internal/backend"
	"smartsplit/internal/cache"
	"smartsplit/internal/cli"
	apphttp "smartsplit/internal/http"
	applog "smartsplit/internal/log"
	"smartsplit/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.DefaultConfig().Level, applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger.Logger)
	logger = cli.SetupLogger(cfg.SlogLevel(), applog.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	categories := adapters.NewCachedCategories(result.Backend, cfg.CategoryCacheTTL)
	caches := cache.NewManager()
	caches.Register(categories.Cleaner())
	caches.StartCleanup(10 * time.Minute)

	budgets := services.NewBudgetService(result.Backend, categories, result.Backend, result.Publisher())

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Budgets:            budgets,
		Ready:              result.Ready,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(context.Background(), logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting smartsplit server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", result.AMQP != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
