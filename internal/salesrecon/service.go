package salesrecon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Filter narrows the orders listed by an OrderSource.
type Filter struct {
	From       time.Time
	To         time.Time
	BranchCode string
	SourceType string
	Search     string
}

// MaxRowWindow is the deepest row position a page may reach. Deeper pages
// are rejected with ErrPageOutOfRange instead of listing every order above them.
const MaxRowWindow = 100_000

// ErrPageOutOfRange reports a page whose window ends past MaxRowWindow.
var ErrPageOutOfRange = errors.New("salesrecon: page out of range")

// PageRequest selects a zero-based page of sale-line rows.
type PageRequest struct {
	Filter Filter
	Page   int
	Limit  int
}

// Service produces enriched sale-line pages.
type Service struct {
	source   OrderSource
	enricher *Enricher
	logger   *slog.Logger
}

// NewService constructs the service.
func NewService(source OrderSource, enricher *Enricher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, enricher: enricher, logger: logger}
}

// Page lists enough orders to cover the requested row window, enriches the
// orders that fall inside it and returns the window. Only a listing failure
// or a page past MaxRowWindow is returned as an error.
func (s *Service) Page(ctx context.Context, req PageRequest) (Page, error) {
	page, limit := normalizeWindow(req.Page, req.Limit)
	if page >= MaxRowWindow/limit {
		return Page{}, fmt.Errorf("%w: page %d with limit %d", ErrPageOutOfRange, page, limit)
	}
	start, end := page*limit, (page+1)*limit
	// Every order yields at least one row, so this many orders always
	// reaches the end of the window.
	orders, total, err := s.source.ListOrders(ctx, req.Filter, 0, end)
	if err != nil {
		return Page{}, fmt.Errorf("salesrecon: list orders: %w", errors.Join(ErrSourceUnavailable, err))
	}

	// Hydration can change an order's row span, which shifts the window.
	// Repeat until every order inside the window has been enriched.
	enriched := make([]bool, len(orders))
	count := 0
	if s.enricher != nil {
		orders = slices.Clone(orders)
		for ctx.Err() == nil {
			pending := visibleOrders(orders, start, end, enriched)
			if len(pending) == 0 {
				break
			}
			batch := make([]Order, len(pending))
			for j, idx := range pending {
				batch[j] = orders[idx]
			}
			out := s.enricher.EnrichPage(ctx, batch)
			for j, idx := range pending {
				orders[idx] = out[j]
				enriched[idx] = true
			}
			count += len(pending)
		}
	}

	s.logger.Debug("sales line page built",
		slog.Int("page", page),
		slog.Int("limit", limit),
		slog.Int("orders", len(orders)),
		slog.Int("enriched", count),
		slog.Int("total", total),
	)
	return FlattenAndPaginate(orders, page, limit, total), nil
}

// visibleOrders returns the indexes of orders overlapping rows [start, end)
// that are not yet marked done.
func visibleOrders(orders []Order, start, end int, done []bool) []int {
	var idx []int
	offset := 0
	for i := range orders {
		if offset >= end {
			break
		}
		span := orders[i].RowSpan()
		if offset+span > start && !done[i] {
			idx = append(idx, i)
		}
		offset += span
	}
	return idx
}
