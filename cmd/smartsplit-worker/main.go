package main

import (
	"context"
	"errors"
	"os"
	"time"

	"smartsplit/internal/backend"
	"smartsplit/internal/cli"
	applog "smartsplit/internal/log"
	"smartsplit/internal/services"
	"smartsplit/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.DefaultConfig().Level, applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger.Logger)
	logger = cli.SetupLogger(cfg.SlogLevel(), applog.ComponentWorker)

	logger.Info("Starting smartsplit-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

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
	if result.AMQP == nil {
		logger.Error("AMQP broker unreachable", "url_set", cfg.AMQPURL != "")
		_ = result.Close()
		os.Exit(1)
	}

	exports := services.NewExportService(result.Backend, result.Exporter, result.Backend)
	exportWorker := worker.NewExportWorker(exports, result.Backend, cfg.ExportBatchSize)
	processor := services.NewExportProcessor(result.Backend, exports, services.ExportProcessorConfig{
		PollInterval: cfg.ExportInterval,
		BatchSize:    cfg.ExportBatchSize,
	})

	parent, stop := context.WithCancel(context.Background())
	defer stop()

	ctx, done := cli.GracefulShutdown(parent, logger.Logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Export processor stop error", "error", err)
		}
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Performing startup export check...")
	if err := exportWorker.StartupExportCheck(ctx); err != nil {
		logger.Error("Failed startup export check", "error", err)
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start export processor", "error", err)
	}

	go func() {
		err := result.AMQP.ConsumeBudgetSaved(ctx, exportWorker.HandleBudgetSaved)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			stop()
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
