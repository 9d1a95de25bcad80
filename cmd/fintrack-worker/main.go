package main

import (
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger(os.Getenv("FINTRACK_LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)

	logger.Info("Starting fintrack-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	exporter, err := backend.NewExporter(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize exporter", log.FieldError, err, "exporter", cfg.Exporter)
		os.Exit(1)
	}

	amqpClient, closeAMQP, err := backend.NewAMQPClient(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer func() { _ = closeAMQP() }()

	var consumer worker.Consumer
	if amqpClient != nil {
		consumer = amqpClient
	} else {
		logger.Info("Running sweep only, no AMQP consumer configured")
	}

	w := worker.NewExportWorker(repo, exporter, consumer, worker.Config{
		Interval:    cfg.ExportInterval,
		BatchSize:   cfg.ExportBatchSize,
		MaxAttempts: cfg.ExportMaxAttempts,
	}, logger)

	if err := w.Run(ctx); err != nil {
		logger.Error("Export worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
