package salesrecon

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultHydrationConcurrency bounds parallel order-detail fetches.
	DefaultHydrationConcurrency = 8
	// DefaultDetailTimeout bounds one shared order-detail fetch.
	DefaultDetailTimeout = 30 * time.Second
)

// Hydration outcomes reported to a HydrationRecorder.
const (
	HydrationCached  = "cached"
	HydrationFetched = "fetched"
	HydrationFailed  = "failed"
)

// DefaultBrands maps department company tags to customer brands.
var DefaultBrands = map[string]string{
	"F3":        "f3",
	"FACIALBAR": "f3",
	"MENARD":    "menard",
	"CHANDO":    "chando",
	"LABHAIR":   "labhair",
	"YAMAN":     "yaman",
}

// OrderSource is the upstream store of sale orders. ListOrders may return
// headers without lines; OrderDetail returns the full order.
type OrderSource interface {
	ListOrders(ctx context.Context, filter Filter, page, limit int) ([]Order, int, error)
	OrderDetail(ctx context.Context, docCode string) (Order, error)
}

// HydrationRecorder receives one call per order that needed its lines.
type HydrationRecorder interface {
	Hydration(outcome string)
}

// EnricherConfig tunes an Enricher.
type EnricherConfig struct {
	// Brands extends or replaces entries of DefaultBrands. Keys are company tags.
	Brands               map[string]string
	HydrationConcurrency int
	// DetailTimeout bounds a detail fetch shared by concurrent callers.
	DetailTimeout time.Duration
	Logger        *slog.Logger
	Recorder      HydrationRecorder
}

// Enricher hydrates lazy orders, prefetches reference data and merges it
// into every sale line.
type Enricher struct {
	source   OrderSource
	fetcher  *Fetcher
	caches   *Caches
	brands   map[string]string
	limit    int
	timeout  time.Duration
	logger   *slog.Logger
	recorder HydrationRecorder
	group    singleflight.Group
}

// NewEnricher wires an Enricher. source may be nil, in which case orders
// without lines are used as they are.
func NewEnricher(source OrderSource, fetcher *Fetcher, caches *Caches, cfg EnricherConfig) *Enricher {
	if caches == nil {
		caches = NewCaches()
	}
	if fetcher == nil {
		fetcher = NewFetcher(nil, nil, caches, FetcherConfig{Logger: cfg.Logger})
	}
	brands := maps.Clone(DefaultBrands)
	for company, brand := range cfg.Brands {
		brands[strings.ToUpper(strings.TrimSpace(company))] = brand
	}
	limit := cfg.HydrationConcurrency
	if limit <= 0 {
		limit = DefaultHydrationConcurrency
	}
	timeout := cfg.DetailTimeout
	if timeout <= 0 {
		timeout = DefaultDetailTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		source:   source,
		fetcher:  fetcher,
		caches:   caches,
		brands:   brands,
		limit:    limit,
		timeout:  timeout,
		logger:   logger,
		recorder: cfg.Recorder,
	}
}

// Caches exposes the stores the Enricher reads from.
func (e *Enricher) Caches() *Caches { return e.caches }

// EnrichPage returns enriched copies of orders in the same order. The input
// is never modified. Running it again on its own output changes nothing.
func (e *Enricher) EnrichPage(ctx context.Context, orders []Order) []Order {
	hydrated := e.hydrate(ctx, orders)
	e.fetcher.Prefetch(ctx, hydrated)
	out := make([]Order, len(hydrated))
	for i, order := range hydrated {
		out[i] = e.enrichOrder(order)
	}
	return out
}

func (e *Enricher) hydrate(ctx context.Context, orders []Order) []Order {
	out := make([]Order, len(orders))
	var g errgroup.Group
	g.SetLimit(e.limit)
	for i, order := range orders {
		if len(order.SaleLines) > 0 || order.DocCode == "" {
			out[i] = order.Clone()
			continue
		}
		g.Go(func() error {
			out[i] = e.hydrateOrder(ctx, order)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Enricher) hydrateOrder(ctx context.Context, summary Order) Order {
	key := normalizeCode(summary.DocCode)
	if cached, ok := e.caches.Orders.Get(key); ok {
		e.record(HydrationCached)
		return cached.Clone()
	}
	if e.source == nil {
		return summary.Clone()
	}
	// The flight outlives any single caller: a cancelled request must not
	// fail the requests that joined it. Each caller stops waiting on its own ctx.
	flight := e.group.DoChan(key, func() (any, error) {
		if cached, ok := e.caches.Orders.Get(key); ok {
			return cached, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		detail, err := e.source.OrderDetail(fetchCtx, key)
		if err != nil {
			return nil, err
		}
		detail = normalizeDetail(summary, detail)
		e.caches.Orders.Put(key, detail.Clone())
		return detail, nil
	})
	var res singleflight.Result
	select {
	case res = <-flight:
	case <-ctx.Done():
		e.logger.Debug("order detail wait abandoned",
			slog.String("doc_code", key),
			slog.Any("error", ctx.Err()),
		)
		return summary.Clone()
	}
	if res.Err != nil {
		e.record(HydrationFailed)
		e.logger.Warn("order detail hydration failed",
			slog.String("doc_code", key),
			slog.Any("error", res.Err),
		)
		return summary.Clone()
	}
	e.record(HydrationFetched)
	return res.Val.(Order).Clone()
}

func (e *Enricher) record(outcome string) {
	if e.recorder != nil {
		e.recorder.Hydration(outcome)
	}
}

// normalizeDetail fills header fields the detail call left empty from the
// listing summary and trims the codes used as cache keys.
func normalizeDetail(summary, detail Order) Order {
	if detail.DocCode == "" {
		detail.DocCode = summary.DocCode
	}
	detail.DocCode = normalizeCode(detail.DocCode)
	if detail.DocDate.IsZero() {
		detail.DocDate = summary.DocDate
	}
	if detail.BranchCode == "" {
		detail.BranchCode = summary.BranchCode
	}
	if detail.SourceType == "" {
		detail.SourceType = summary.SourceType
	}
	if detail.Customer == (Customer{}) {
		detail.Customer = summary.Customer
	}
	if detail.Payment.Method == "" && detail.Payment.CashIn.IsZero() {
		detail.Payment = summary.Payment
	}
	for i := range detail.SaleLines {
		line := &detail.SaleLines[i]
		line.ItemCode = normalizeCode(line.ItemCode)
		line.BranchCode = normalizeCode(line.BranchCode)
	}
	if len(detail.SaleLines) > 0 {
		detail.TotalItems = len(detail.SaleLines)
	} else if detail.TotalItems == 0 {
		detail.TotalItems = summary.TotalItems
	}
	return detail
}

func (e *Enricher) enrichOrder(order Order) Order {
	for i, line := range order.SaleLines {
		product, hasProduct := e.caches.Products.Get(normalizeCode(line.ItemCode))
		dept, hasDept := e.caches.Departments.Get(order.EffectiveBranchCode(line))
		var productRef *Product
		if hasProduct {
			productRef = &product
		}
		var deptRef *Department
		if hasDept {
			deptRef = &dept
		}
		order.SaleLines[i] = MergeLine(line, productRef, deptRef)
	}
	if len(order.SaleLines) > 0 {
		if dept := order.SaleLines[0].Department; dept != nil {
			if brand, ok := e.brandFor(dept.Company); ok {
				order.Customer.Brand = brand
			}
		}
	}
	return order
}

func (e *Enricher) brandFor(company string) (string, bool) {
	tag := strings.TrimSpace(company)
	if tag == "" {
		return "", false
	}
	if brand, ok := e.brands[strings.ToUpper(tag)]; ok {
		return brand, true
	}
	return strings.ToLower(tag), true
}

// MergeLine copies reference data onto a sale line. The protected override
// fields are captured first and restored afterwards, so a value the source
// supplied always survives; reference data only fills the empty ones.
// A nil product or department keeps the line's existing snapshot.
func MergeLine(line SaleLine, product *Product, dept *Department) SaleLine {
	protected := line.Overrides
	line = line.clone()
	if product != nil {
		p := *product
		line.Product = &p
	}
	if dept != nil {
		d := *dept
		line.Department = &d
		line.Overrides.DepartmentCode = d.Code
		line.Overrides.DepartmentType = d.Type
		line.Overrides.WarehouseCode = d.WarehouseCode
	}
	line.Overrides = protected.over(line.Overrides)
	return line
}

// over returns base with every non-empty field of o applied on top.
func (o LineOverrides) over(base LineOverrides) LineOverrides {
	pick := func(keep, fallback string) string {
		if strings.TrimSpace(keep) != "" {
			return keep
		}
		return fallback
	}
	base.WarehouseCode = pick(o.WarehouseCode, base.WarehouseCode)
	base.GiftPromCode = pick(o.GiftPromCode, base.GiftPromCode)
	base.VIPDiscountCode = pick(o.VIPDiscountCode, base.VIPDiscountCode)
	base.BatchCode = pick(o.BatchCode, base.BatchCode)
	base.DepartmentCode = pick(o.DepartmentCode, base.DepartmentCode)
	base.DepartmentType = pick(o.DepartmentType, base.DepartmentType)
	if !o.VIPDiscountAmount.IsZero() {
		base.VIPDiscountAmount = o.VIPDiscountAmount
	}
	return base
}
