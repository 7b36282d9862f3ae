package masterdata

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
)

const (
	productKeyPrefix    = "salesrecon:ref:product:"
	departmentKeyPrefix = "salesrecon:ref:department:"

	// DefaultCacheTTL is used when CachedProvider is given a non-positive TTL.
	DefaultCacheTTL = 6 * time.Hour
)

// CachedProvider shares reference data between console and worker
// processes through Redis. Only successful lookups are stored; a miss or an
// error always reaches the upstream provider. Redis failures are logged and
// bypassed.
type CachedProvider struct {
	products    salesrecon.ProductProvider
	departments salesrecon.DepartmentProvider
	client      *redis.Client
	ttl         time.Duration
	logger      *slog.Logger
}

// NewCachedProvider decorates products and departments. A nil client turns
// the decorator into a pass-through.
func NewCachedProvider(products salesrecon.ProductProvider, departments salesrecon.DepartmentProvider, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProvider{
		products:    products,
		departments: departments,
		client:      client,
		ttl:         ttl,
		logger:      logger,
	}
}

// ProductByCode implements salesrecon.ProductProvider.
func (c *CachedProvider) ProductByCode(ctx context.Context, code string) (salesrecon.Product, error) {
	return readThrough(ctx, c, productKeyPrefix+code, func(ctx context.Context) (salesrecon.Product, error) {
		return c.products.ProductByCode(ctx, code)
	})
}

// DepartmentByBranchCode implements salesrecon.DepartmentProvider.
func (c *CachedProvider) DepartmentByBranchCode(ctx context.Context, branchCode string) (salesrecon.Department, error) {
	return readThrough(ctx, c, departmentKeyPrefix+branchCode, func(ctx context.Context) (salesrecon.Department, error) {
		return c.departments.DepartmentByBranchCode(ctx, branchCode)
	})
}

func readThrough[T any](ctx context.Context, c *CachedProvider, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn("masterdata cache entry unreadable", slog.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("masterdata cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("masterdata cache write failed", slog.String("key", key), slog.Any("error", err))
	}
	return value, nil
}
