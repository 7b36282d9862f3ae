package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/odyssey-erp/salesrecon/internal/app"
	jobmetrics "github.com/odyssey-erp/salesrecon/internal/jobs"
	"github.com/odyssey-erp/salesrecon/internal/masterdata"
	"github.com/odyssey-erp/salesrecon/internal/platform/cache"
	"github.com/odyssey-erp/salesrecon/internal/platform/db"
	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
	"github.com/odyssey-erp/salesrecon/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "worker")

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Without Redis there is neither a queue nor a shared cache to warm.
	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	referenceClient, err := masterdata.NewClient(masterdata.ClientConfig{
		BaseURL: cfg.ReferenceBaseURL,
		APIKey:  cfg.ReferenceAPIKey,
		Timeout: cfg.ReferenceTimeout,
	})
	if err != nil {
		logger.Error("configure reference client", slog.Any("error", err))
		os.Exit(1)
	}
	reference := masterdata.NewCachedProvider(referenceClient, referenceClient, redisClient, cfg.ReferenceCacheTTL, logger)

	warmupJob := jobs.NewReferenceWarmupJob(salesrecon.NewRepository(pool), reference, reference, logger, jobmetrics.NewMetrics(nil))
	warmupJob.BatchSize = cfg.FetchBatchSize
	warmupJob.Concurrency = cfg.HydrationConcurrency

	warmupTask, err := jobs.NewReferenceWarmupTask(jobs.ReferenceWarmupPayload{
		Days:      cfg.WarmupDays,
		MaxOrders: cfg.WarmupMaxOrders,
	})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReferenceWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler(), ReadTimeout: cfg.AppReadTimeout}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() { _ = metricsServer.Close() }()
	}

	logger.Info("starting worker", slog.String("warmup_cron", cfg.WarmupCron))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
