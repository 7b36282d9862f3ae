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
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/salesrecon/internal/app"
	"github.com/odyssey-erp/salesrecon/internal/masterdata"
	"github.com/odyssey-erp/salesrecon/internal/observability"
	"github.com/odyssey-erp/salesrecon/internal/platform/cache"
	"github.com/odyssey-erp/salesrecon/internal/platform/db"
	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
	"github.com/odyssey-erp/salesrecon/internal/salesrecon/derive"
	saleshttp "github.com/odyssey-erp/salesrecon/internal/salesrecon/http"
	"github.com/odyssey-erp/salesrecon/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping console startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "console")

	rules, err := derive.LoadRules(cfg.RulesFile)
	if err != nil {
		logger.Error("load derivation rules", slog.String("path", cfg.RulesFile), slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// The console keeps serving without Redis; reference lookups then go
	// straight to the master service.
	var redisClient *redis.Client
	redisClient, err = cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Warn("redis unavailable, reference cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

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

	metrics := observability.NewMetrics()
	orders := salesrecon.NewRepository(dbpool)
	caches := salesrecon.NewCaches()
	fetcher := salesrecon.NewFetcher(reference, reference, caches, salesrecon.FetcherConfig{
		BatchSize: cfg.FetchBatchSize,
		Logger:    logger,
		Recorder:  metrics,
	})
	enricher := salesrecon.NewEnricher(orders, fetcher, caches, salesrecon.EnricherConfig{
		Brands:               rules.Brands,
		HydrationConcurrency: cfg.HydrationConcurrency,
		Logger:               logger,
		Recorder:             metrics,
	})
	service := salesrecon.NewService(orders, enricher, logger)
	salesLineHandler := saleshttp.NewHandler(logger, service, derive.NewEngine(rules))

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("configure job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SalesLineHandler: salesLineHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
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
