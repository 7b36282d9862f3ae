package salesrecon

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize bounds the number of reference calls in flight at once.
const DefaultBatchSize = 50

// Reference kinds and fetch outcomes reported to a FetchRecorder.
const (
	KindProduct    = "product"
	KindDepartment = "department"

	OutcomeResolved = "resolved"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// ProductProvider resolves a product by item code. A missing product must
// be reported as ErrNotFound.
type ProductProvider interface {
	ProductByCode(ctx context.Context, code string) (Product, error)
}

// DepartmentProvider resolves a department by branch code. A missing
// department must be reported as ErrNotFound.
type DepartmentProvider interface {
	DepartmentByBranchCode(ctx context.Context, branchCode string) (Department, error)
}

// FetchRecorder receives one call per reference lookup.
type FetchRecorder interface {
	ReferenceFetch(kind, outcome string)
}

// FetcherConfig tunes a Fetcher.
type FetcherConfig struct {
	BatchSize int
	Logger    *slog.Logger
	Recorder  FetchRecorder
}

// FetchStats summarises one Prefetch call.
type FetchStats struct {
	ProductsRequested    int
	ProductsResolved     int
	DepartmentsRequested int
	DepartmentsResolved  int
}

// Fetcher loads missing reference data into the caches in bounded batches.
type Fetcher struct {
	products    ProductProvider
	departments DepartmentProvider
	caches      *Caches
	batchSize   int
	logger      *slog.Logger
	recorder    FetchRecorder
}

// NewFetcher constructs a Fetcher. Either provider may be nil, in which case
// that kind of reference data is never fetched.
func NewFetcher(products ProductProvider, departments DepartmentProvider, caches *Caches, cfg FetcherConfig) *Fetcher {
	if caches == nil {
		caches = NewCaches()
	}
	size := cfg.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		products:    products,
		departments: departments,
		caches:      caches,
		batchSize:   size,
		logger:      logger,
		recorder:    cfg.Recorder,
	}
}

// Prefetch resolves every item and branch code referenced by orders that is
// not cached yet. Failures are logged and skipped; nothing is returned as an
// error and nothing is written for a code that did not resolve.
func (f *Fetcher) Prefetch(ctx context.Context, orders []Order) FetchStats {
	itemCodes, branchCodes := f.missingCodes(orders)
	stats := FetchStats{
		ProductsRequested:    len(itemCodes),
		DepartmentsRequested: len(branchCodes),
	}
	if f.products != nil {
		stats.ProductsResolved = runBatches(ctx, itemCodes, f.batchSize, f.fetchProduct)
	}
	if f.departments != nil {
		stats.DepartmentsResolved = runBatches(ctx, branchCodes, f.batchSize, f.fetchDepartment)
	}
	if stats.ProductsRequested+stats.DepartmentsRequested > 0 {
		f.logger.Debug("reference prefetch finished",
			slog.Int("products_requested", stats.ProductsRequested),
			slog.Int("products_resolved", stats.ProductsResolved),
			slog.Int("departments_requested", stats.DepartmentsRequested),
			slog.Int("departments_resolved", stats.DepartmentsResolved),
		)
	}
	return stats
}

func (f *Fetcher) missingCodes(orders []Order) (items, branches []string) {
	seenItems := make(map[string]struct{})
	seenBranches := make(map[string]struct{})
	for _, order := range orders {
		for _, line := range order.SaleLines {
			if code := normalizeCode(line.ItemCode); code != "" && !f.caches.Products.Has(code) {
				seenItems[code] = struct{}{}
			}
			if code := order.EffectiveBranchCode(line); code != "" && !f.caches.Departments.Has(code) {
				seenBranches[code] = struct{}{}
			}
		}
	}
	return sortedKeys(seenItems), sortedKeys(seenBranches)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// runBatches calls fetch for every code, size codes at a time. Each batch
// runs in parallel and must finish before the next starts.
func runBatches(ctx context.Context, codes []string, size int, fetch func(context.Context, string) bool) int {
	var resolved atomic.Int64
	for start := 0; start < len(codes); start += size {
		if ctx.Err() != nil {
			break
		}
		end := min(start+size, len(codes))
		var g errgroup.Group
		for _, code := range codes[start:end] {
			g.Go(func() error {
				if fetch(ctx, code) {
					resolved.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	return int(resolved.Load())
}

func (f *Fetcher) fetchProduct(ctx context.Context, code string) bool {
	product, err := f.products.ProductByCode(ctx, code)
	if !f.observe(KindProduct, code, err) {
		return false
	}
	product.Code = code
	f.caches.Products.Put(code, product)
	return true
}

func (f *Fetcher) fetchDepartment(ctx context.Context, code string) bool {
	dept, err := f.departments.DepartmentByBranchCode(ctx, code)
	if !f.observe(KindDepartment, code, err) {
		return false
	}
	dept.BranchCode = code
	f.caches.Departments.Put(code, dept)
	return true
}

func (f *Fetcher) observe(kind, code string, err error) bool {
	outcome := OutcomeResolved
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = OutcomeNotFound
		f.logger.Debug("reference not found", slog.String("kind", kind), slog.String("code", code))
	default:
		outcome = OutcomeError
		f.logger.Warn("reference fetch failed",
			slog.String("kind", kind),
			slog.String("code", code),
			slog.Any("error", err),
		)
	}
	if f.recorder != nil {
		f.recorder.ReferenceFetch(kind, outcome)
	}
	return err == nil
}
