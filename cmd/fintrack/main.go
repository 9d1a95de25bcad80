package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/services"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = time.Minute
)

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger(os.Getenv("FINTRACK_LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, closeAMQP, err := backend.NewAMQPClient(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer func() { _ = closeAMQP() }()

	dashboards := cache.NewLRUCache[services.Dashboard](cfg.AnalyticsCacheSize, cfg.AnalyticsCacheTTL)
	caches := cache.NewManager()
	caches.Register(dashboards)
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	svc := services.New(repo,
		services.WithLogger(logger),
		services.WithDashboardCache(dashboards),
		backend.PublisherOption(amqpClient),
	)

	opts := apphttp.DefaultOptions()
	opts.Logger = logger.WithComponent(log.ComponentHTTP)
	opts.RateLimit = ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}
	opts.Ready = repo
	srv := apphttp.NewServer(cfg.Addr(), svc, opts)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting fintrack server", "addr", cfg.Addr(), "amqp", cfg.AMQPEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "addr", cfg.Addr())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
