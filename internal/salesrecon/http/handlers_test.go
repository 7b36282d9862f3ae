package saleshttp

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
	"github.com/odyssey-erp/salesrecon/internal/salesrecon/derive"
)

type stubService struct {
	orders []salesrecon.Order
	total  int
	err    error
	last   salesrecon.PageRequest
	calls  int
}

func (s *stubService) Page(_ context.Context, req salesrecon.PageRequest) (salesrecon.Page, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return salesrecon.Page{}, s.err
	}
	return salesrecon.FlattenAndPaginate(s.orders, req.Page, req.Limit, s.total), nil
}

func sampleOrders() []salesrecon.Order {
	return []salesrecon.Order{
		{
			DocCode:  "SO-001",
			DocDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			Customer: salesrecon.Customer{Code: "KH01", Name: "Lan", Brand: "menard"},
			SaleLines: []salesrecon.SaleLine{
				{ItemCode: "SERUM", Qty: salesrecon.NewAmount(2), LineTotal: salesrecon.NewAmount(300000), Revenue: salesrecon.NewAmount(300000)},
				{ItemCode: "GIFTBAG", Qty: salesrecon.NewAmount(1)},
			},
		},
		{DocCode: "SO-002", TotalItems: 1},
	}
}

func newTestRouter(service PageService) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), service, derive.NewEngine(derive.DefaultRules()))
	r := chi.NewRouter()
	r.Route("/sales-lines", h.MountRoutes)
	return r
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestListDefaults(t *testing.T) {
	service := &stubService{orders: sampleOrders(), total: 3}
	rr := get(t, newTestRouter(service), "/sales-lines")

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, salesrecon.PageRequest{Page: 0, Limit: 50}, service.last)

	var resp struct {
		Columns    []derive.ColumnInfo `json:"columns"`
		Rows       []map[string]any    `json:"rows"`
		Pagination map[string]int      `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Columns, len(derive.AllColumns()))
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, "SO-001", resp.Rows[0]["doc_code"])
	assert.Equal(t, false, resp.Rows[0]["placeholder"])
	assert.Equal(t, true, resp.Rows[2]["placeholder"])
	assert.Equal(t, map[string]int{"page": 1, "per_page": 50, "total": 3, "total_pages": 1}, resp.Pagination)
}

func TestListParsesFilters(t *testing.T) {
	service := &stubService{orders: sampleOrders(), total: 3}
	rr := get(t, newTestRouter(service), "/sales-lines?from=2026-03-01&to=2026-03-31&branch=HN01&source=shopee&q=lan&page=2&limit=2&columns=doc_code,unit_price,is_gift")

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, salesrecon.PageRequest{
		Filter: salesrecon.Filter{
			From:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			To:         time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			BranchCode: "HN01",
			SourceType: "shopee",
			Search:     "lan",
		},
		Page:  1,
		Limit: 2,
	}, service.last)

	var resp struct {
		Columns []derive.ColumnInfo `json:"columns"`
		Rows    []struct {
			DocCode string `json:"doc_code"`
			Values  []any  `json:"values"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Columns, 3)
	assert.Equal(t, derive.ColUnitPrice, resp.Columns[1].ID)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "SO-002", resp.Rows[0].DocCode)
	assert.Equal(t, []any{"SO-002", nil, nil}, resp.Rows[0].Values)
}

func TestListRejectsInvalidQuery(t *testing.T) {
	cases := []string{
		"/sales-lines?page=0",
		"/sales-lines?page=abc",
		"/sales-lines?page=10001",
		"/sales-lines?limit=0",
		"/sales-lines?limit=501",
		"/sales-lines?from=01-03-2026",
		"/sales-lines?to=2026-02-30",
		"/sales-lines?from=2026-03-05&to=2026-03-01",
		"/sales-lines?columns=doc_code,nope",
		"/sales-lines?columns=doc_code,,brand",
		"/sales-lines?branch=" + strings.Repeat("X", 33),
	}
	for _, target := range cases {
		t.Run(target, func(t *testing.T) {
			service := &stubService{}
			rr := get(t, newTestRouter(service), target)

			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Equal(t, 0, service.calls)
		})
	}
}

func TestListSameDayRange(t *testing.T) {
	service := &stubService{}
	rr := get(t, newTestRouter(service), "/sales-lines?from=2026-03-05&to=2026-03-05")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), service.last.Filter.To)
}

func TestListPageOutOfRange(t *testing.T) {
	service := &stubService{err: fmt.Errorf("%w: page 250 with limit 500", salesrecon.ErrPageOutOfRange)}
	rr := get(t, newTestRouter(service), "/sales-lines?page=251&limit=500")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "page out of range")
}

func TestListSourceUnavailable(t *testing.T) {
	service := &stubService{err: fmt.Errorf("salesrecon: list orders: %w", errors.Join(salesrecon.ErrSourceUnavailable, errors.New("dial tcp")))}
	rr := get(t, newTestRouter(service), "/sales-lines")

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NotContains(t, rr.Body.String(), "dial tcp")
}

func TestListUnexpectedError(t *testing.T) {
	service := &stubService{err: errors.New("boom")}
	rr := get(t, newTestRouter(service), "/sales-lines")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestListCancelledRequestWritesNothing(t *testing.T) {
	service := &stubService{err: context.Canceled}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sales-lines", nil).WithContext(ctx)
	newTestRouter(service).ServeHTTP(rr, req)

	assert.Empty(t, rr.Body.String())
}

func TestExportCSV(t *testing.T) {
	service := &stubService{orders: sampleOrders(), total: 3}
	rr := get(t, newTestRouter(service), "/sales-lines/export.csv?columns=doc_code,item_code,is_gift")

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "sales-lines-p1.csv")

	records, err := csv.NewReader(strings.NewReader(rr.Body.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Document", "Item code", "Gift"},
		{"SO-001", "SERUM", "0"},
		{"SO-001", "GIFTBAG", "1"},
		{"SO-002", "", ""},
	}, records)
}

func TestColumnsCatalogue(t *testing.T) {
	rr := get(t, newTestRouter(&stubService{}), "/sales-lines/columns")

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Columns []derive.ColumnInfo `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Columns, len(derive.AllColumns()))
	assert.Equal(t, derive.ColDocCode, resp.Columns[0].ID)
	assert.True(t, resp.Columns[0].OrderLevel)
}
