package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/salesrecon/internal/jobs"
	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
)

const (
	defaultWarmupDays      = 1
	defaultWarmupMaxOrders = 500
	warmupPageSize         = 100
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// WarmupResult summarises a warm-up run.
type WarmupResult struct {
	Orders      int
	Products    int
	Departments int
}

// ReferenceWarmupJob walks recent orders and resolves their products and
// departments through the providers. With a Redis-backed provider this leaves
// the shared cache warm for the console.
type ReferenceWarmupJob struct {
	Source      salesrecon.OrderSource
	Products    salesrecon.ProductProvider
	Departments salesrecon.DepartmentProvider
	BatchSize   int
	Concurrency int
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	clock       func() time.Time
}

// NewReferenceWarmupJob wires dependencies for the warm-up handler.
func NewReferenceWarmupJob(source salesrecon.OrderSource, products salesrecon.ProductProvider, departments salesrecon.DepartmentProvider, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReferenceWarmupJob {
	return &ReferenceWarmupJob{
		Source:      source,
		Products:    products,
		Departments: departments,
		Logger:      logger,
		Metrics:     metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes reference warm-up tasks.
func (j *ReferenceWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("reference warmup: handler not configured")
	}
	var payload ReferenceWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("reference warmup: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	_, err := j.Run(ctx, payload)
	return err
}

// Run executes one warm-up pass.
func (j *ReferenceWarmupJob) Run(ctx context.Context, payload ReferenceWarmupPayload) (result WarmupResult, err error) {
	if j.Source == nil {
		return result, errors.New("reference warmup: order source not configured")
	}
	if payload.Days <= 0 {
		payload.Days = defaultWarmupDays
	}
	if payload.MaxOrders <= 0 {
		payload.MaxOrders = defaultWarmupMaxOrders
	}

	tracker := j.metrics().Track(TaskReferenceWarmup)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(
		slog.String("run_id", uuid.NewString()),
		slog.Int("days", payload.Days),
		slog.String("branch_code", payload.BranchCode),
	)
	logger.Info("starting reference warmup")

	now := j.now()
	filter := salesrecon.Filter{
		From:       now.AddDate(0, 0, -payload.Days),
		To:         now,
		BranchCode: payload.BranchCode,
	}

	// Fresh in-process caches per run so every code is looked up through
	// the providers and lands in the shared cache.
	caches := salesrecon.NewCaches()
	fetcher := salesrecon.NewFetcher(j.Products, j.Departments, caches, salesrecon.FetcherConfig{
		BatchSize: j.BatchSize,
		Logger:    logger,
	})
	enricher := salesrecon.NewEnricher(j.Source, fetcher, caches, salesrecon.EnricherConfig{
		HydrationConcurrency: j.Concurrency,
		Logger:               logger,
	})

	for page := 0; result.Orders < payload.MaxOrders; page++ {
		if err = ctx.Err(); err != nil {
			logger.Warn("reference warmup interrupted", slog.Any("error", err))
			return result, err
		}
		orders, _, listErr := j.Source.ListOrders(ctx, filter, page, warmupPageSize)
		if listErr != nil {
			err = fmt.Errorf("reference warmup: list orders: %w", listErr)
			logger.Error("list orders", slog.Int("page", page), slog.Any("error", listErr))
			return result, err
		}
		if remaining := payload.MaxOrders - result.Orders; len(orders) > remaining {
			orders = orders[:remaining]
		}
		enricher.EnrichPage(ctx, orders)
		result.Orders += len(orders)
		if len(orders) < warmupPageSize {
			break
		}
	}

	result.Products = caches.Products.Len()
	result.Departments = caches.Departments.Len()
	j.metrics().AddPrefetched(salesrecon.KindProduct, result.Products)
	j.metrics().AddPrefetched(salesrecon.KindDepartment, result.Departments)

	logger.Info("completed reference warmup",
		slog.Int("orders", result.Orders),
		slog.Int("products", result.Products),
		slog.Int("departments", result.Departments),
		slog.Duration("duration", j.now().Sub(now)),
	)
	return result, nil
}

func (j *ReferenceWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReferenceWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReferenceWarmup))
}

func (j *ReferenceWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReferenceWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
