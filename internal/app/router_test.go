package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/salesrecon/internal/observability"
	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
	saleshttp "github.com/odyssey-erp/salesrecon/internal/salesrecon/http"
	"github.com/odyssey-erp/salesrecon/jobs"
	_ "github.com/odyssey-erp/salesrecon/testing"
)

type emptyService struct{}

func (emptyService) Page(_ context.Context, req salesrecon.PageRequest) (salesrecon.Page, error) {
	return salesrecon.FlattenAndPaginate(nil, req.Page, req.Limit, 0), nil
}

func testRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(RouterParams{
		Logger:           logger,
		Config:           &Config{AppEnv: "test", RateLimitPerMinute: 1000},
		SalesLineHandler: saleshttp.NewHandler(logger, emptyService{}, nil),
		JobHandler:       jobs.NewHandler(nil, nil, logger),
		Metrics:          observability.NewMetrics(),
	})
}

func TestRouterServesConsoleRoutes(t *testing.T) {
	router := testRouter()
	for _, path := range []string{"/healthz", "/sales-lines", "/sales-lines/columns", "/jobs/health", "/metrics"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestRouterSetsSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	testRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Ratelimit-Limit"))
}

func TestRouterRecordsRequestMetrics(t *testing.T) {
	router := testRouter()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sales-lines/columns", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	metrics := httptest.NewRecorder()
	router.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(metrics.Body.String(), `route="/sales-lines/columns"`), metrics.Body.String())
}
