// Package saleshttp serves enriched sale-line pages as JSON and CSV.
package saleshttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/salesrecon/internal/platform/httpx"
	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
	"github.com/odyssey-erp/salesrecon/internal/salesrecon/derive"
	"github.com/odyssey-erp/salesrecon/internal/salesrecon/export"
	"github.com/odyssey-erp/salesrecon/internal/shared"
)

const (
	dateLayout   = "2006-01-02"
	defaultLimit = salesrecon.DefaultPageLimit
)

// PageService produces enriched sale-line pages.
type PageService interface {
	Page(ctx context.Context, req salesrecon.PageRequest) (salesrecon.Page, error)
}

// Handler coordinates HTTP requests for the sale-line console.
type Handler struct {
	logger    *slog.Logger
	service   PageService
	engine    *derive.Engine
	validator *validator.Validate
	csvPool   sync.Pool
}

// NewHandler constructs the sale-line HTTP handler.
func NewHandler(logger *slog.Logger, service PageService, engine *derive.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = derive.NewEngine(derive.DefaultRules())
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		engine:    engine,
		validator: validator.New(),
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// listQuery mirrors the accepted query string. Page is one-based.
type listQuery struct {
	From    string   `validate:"omitempty,datetime=2006-01-02"`
	To      string   `validate:"omitempty,datetime=2006-01-02"`
	Branch  string   `validate:"omitempty,max=32"`
	Source  string   `validate:"omitempty,max=32"`
	Search  string   `validate:"omitempty,max=100"`
	Page    int      `validate:"min=1,max=10000"`
	Limit   int      `validate:"min=1,max=500"`
	Columns []string `validate:"dive,required"`
}

type listResponse struct {
	Columns    []derive.ColumnInfo `json:"columns"`
	Rows       []derive.TableRow   `json:"rows"`
	Pagination shared.Pagination   `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	req, cols, err := h.parseRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	table, page, ok := h.load(w, r, req, cols)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Columns:    table.Columns,
		Rows:       table.Rows,
		Pagination: shared.NewPagination(page.Page+1, page.Limit, page.Total),
	})
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	req, cols, err := h.parseRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	table, page, ok := h.load(w, r, req, cols)
	if !ok {
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()
	if err := export.WriteTableCSV(buf, table); err != nil {
		h.handleServerError(w, "write sale lines csv", err)
		return
	}

	filename := fmt.Sprintf("sales-lines-p%d.csv", page.Page+1)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handleColumns(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"columns": h.engine.Catalogue()})
}

// load runs the page request and evaluates the table. It writes the error
// response itself and reports whether the caller should continue.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, req salesrecon.PageRequest, cols []derive.Column) (derive.Table, salesrecon.Page, bool) {
	if h.service == nil {
		h.handleServerError(w, "page service", errors.New("page service not configured"))
		return derive.Table{}, salesrecon.Page{}, false
	}
	page, err := h.service.Page(r.Context(), req)
	if err != nil {
		if r.Context().Err() != nil {
			// Superseded by a newer request; nobody is waiting for this one.
			h.logger.Debug("sale line request cancelled", slog.Any("error", err))
			return derive.Table{}, salesrecon.Page{}, false
		}
		if errors.Is(err, salesrecon.ErrPageOutOfRange) {
			httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrValidation, err))
			return derive.Table{}, salesrecon.Page{}, false
		}
		if errors.Is(err, salesrecon.ErrSourceUnavailable) {
			h.logger.Error("list sale lines", slog.Any("error", err))
			httpx.RespondError(w, errors.Join(httpx.ErrUnavailable, err))
			return derive.Table{}, salesrecon.Page{}, false
		}
		h.handleServerError(w, "list sale lines", err)
		return derive.Table{}, salesrecon.Page{}, false
	}
	return h.engine.Table(page, cols), page, true
}

func (h *Handler) parseRequest(r *http.Request) (salesrecon.PageRequest, []derive.Column, error) {
	q := r.URL.Query()
	query := listQuery{
		From:   strings.TrimSpace(q.Get("from")),
		To:     strings.TrimSpace(q.Get("to")),
		Branch: strings.TrimSpace(q.Get("branch")),
		Source: strings.TrimSpace(q.Get("source")),
		Search: strings.TrimSpace(q.Get("q")),
	}
	var err error
	if query.Page, err = intParam(q.Get("page"), 1); err != nil {
		return salesrecon.PageRequest{}, nil, fmt.Errorf("%w: page must be a number", httpx.ErrValidation)
	}
	if query.Limit, err = intParam(q.Get("limit"), defaultLimit); err != nil {
		return salesrecon.PageRequest{}, nil, fmt.Errorf("%w: limit must be a number", httpx.ErrValidation)
	}
	if raw := strings.TrimSpace(q.Get("columns")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			query.Columns = append(query.Columns, strings.TrimSpace(id))
		}
	}
	if err := h.validator.Struct(query); err != nil {
		return salesrecon.PageRequest{}, nil, validationFailure(err)
	}

	filter := salesrecon.Filter{
		BranchCode: query.Branch,
		SourceType: query.Source,
		Search:     query.Search,
	}
	if query.From != "" {
		filter.From, _ = time.Parse(dateLayout, query.From)
	}
	if query.To != "" {
		to, _ := time.Parse(dateLayout, query.To)
		// The upper bound is inclusive for callers, exclusive for sources.
		filter.To = to.AddDate(0, 0, 1)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return salesrecon.PageRequest{}, nil, fmt.Errorf("%w: from must not be after to", httpx.ErrValidation)
	}

	cols := derive.AllColumns()
	if len(query.Columns) > 0 {
		cols = make([]derive.Column, 0, len(query.Columns))
		for _, id := range query.Columns {
			info, ok := h.engine.Lookup(id)
			if !ok {
				return salesrecon.PageRequest{}, nil, fmt.Errorf("%w: unknown column %q", httpx.ErrValidation, id)
			}
			cols = append(cols, info.ID)
		}
	}

	return salesrecon.PageRequest{
		Filter: filter,
		Page:   query.Page - 1,
		Limit:  query.Limit,
	}, cols, nil
}

func intParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func validationFailure(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fieldErr.StructField()), fieldErr.Tag()))
	}
	sort.Strings(fields)
	return fmt.Errorf("%w: %s", httpx.ErrValidation, strings.Join(fields, "; "))
}

func (h *Handler) handleServerError(w http.ResponseWriter, action string, err error) {
	h.logError(action, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(action string, err error) {
	if h.logger != nil {
		h.logger.Error(action, slog.Any("error", err))
	}
}
