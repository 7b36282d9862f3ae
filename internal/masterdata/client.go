// Package masterdata talks to the product and branch master service and
// caches its answers in Redis.
package masterdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
)

// ErrUpstream wraps non-success responses from the master service.
var ErrUpstream = errors.New("masterdata: upstream error")

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is an HTTP ProductProvider and DepartmentProvider.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

// NewClient validates cfg and builds a client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("masterdata: invalid base url %q", cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, apiKey: cfg.APIKey, http: httpClient}, nil
}

// ProductByCode fetches GET /products/{code}.
func (c *Client) ProductByCode(ctx context.Context, code string) (salesrecon.Product, error) {
	var payload productPayload
	if err := c.get(ctx, "products", code, &payload); err != nil {
		return salesrecon.Product{}, err
	}
	if payload.Code == "" && payload.Name == "" {
		return salesrecon.Product{}, salesrecon.ErrNotFound
	}
	return payload.toProduct(), nil
}

// DepartmentByBranchCode fetches GET /departments/{branchCode}.
func (c *Client) DepartmentByBranchCode(ctx context.Context, branchCode string) (salesrecon.Department, error) {
	var payload departmentPayload
	if err := c.get(ctx, "departments", branchCode, &payload); err != nil {
		return salesrecon.Department{}, err
	}
	if payload.BranchCode == "" && payload.Code == "" {
		return salesrecon.Department{}, salesrecon.ErrNotFound
	}
	return payload.toDepartment(), nil
}

func (c *Client) get(ctx context.Context, resource, code string, target any) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return salesrecon.ErrNotFound
	}
	endpoint := c.baseURL.JoinPath(resource, url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("masterdata: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("masterdata: get %s: %w", resource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("masterdata: read %s: %w", resource, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return salesrecon.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrUpstream, resource, code, resp.StatusCode, snippet(body))
	}
	return decodeEnvelope(body, target)
}

// decodeEnvelope accepts both {"data": {...}} and a bare object.
func decodeEnvelope(body []byte, target any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return salesrecon.ErrNotFound
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		if bytes.Equal(bytes.TrimSpace(envelope.Data), []byte("null")) {
			return salesrecon.ErrNotFound
		}
		body = envelope.Data
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("masterdata: decode: %w", err)
	}
	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}

// flag decodes the booleans the master service sends as true, 1 or "1".
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.ParseBool(s)
	if err != nil {
		*f = false
		return nil
	}
	*f = flag(v)
	return nil
}

type productPayload struct {
	Code             string `json:"ma_vt"`
	Unit             string `json:"dvt"`
	Name             string `json:"ten_vt"`
	Type             string `json:"loai_vt"`
	MaterialCode     string `json:"ma_vt_goc"`
	TrackInventory   flag   `json:"theo_doi_ton_kho"`
	TrackBatch       flag   `json:"theo_doi_lo"`
	TrackSerial      flag   `json:"theo_doi_serial"`
	RetailRevenue    string `json:"tk_dt"`
	RetailCost       string `json:"tk_gv"`
	WholesaleRevenue string `json:"tk_dt_buon"`
	WholesaleCost    string `json:"tk_gv_buon"`
}

func (p productPayload) toProduct() salesrecon.Product {
	return salesrecon.Product{
		Code:           strings.TrimSpace(p.Code),
		Unit:           strings.TrimSpace(p.Unit),
		Name:           strings.TrimSpace(p.Name),
		Type:           strings.TrimSpace(p.Type),
		MaterialCode:   strings.TrimSpace(p.MaterialCode),
		TrackInventory: bool(p.TrackInventory),
		TrackBatch:     bool(p.TrackBatch),
		TrackSerial:    bool(p.TrackSerial),
		Accounts: salesrecon.Accounts{
			RetailRevenue:    strings.TrimSpace(p.RetailRevenue),
			RetailCost:       strings.TrimSpace(p.RetailCost),
			WholesaleRevenue: strings.TrimSpace(p.WholesaleRevenue),
			WholesaleCost:    strings.TrimSpace(p.WholesaleCost),
		},
	}
}

type departmentPayload struct {
	BranchCode    string `json:"branch_code"`
	ShortCode     string `json:"ma_dvcs"`
	Code          string `json:"ma_bp"`
	Name          string `json:"ten_bp"`
	Type          string `json:"loai"`
	Company       string `json:"company"`
	WarehouseCode string `json:"ma_kho"`
}

func (d departmentPayload) toDepartment() salesrecon.Department {
	return salesrecon.Department{
		BranchCode:    strings.TrimSpace(d.BranchCode),
		ShortCode:     strings.TrimSpace(d.ShortCode),
		Code:          strings.TrimSpace(d.Code),
		Name:          strings.TrimSpace(d.Name),
		Type:          strings.TrimSpace(d.Type),
		Company:       strings.TrimSpace(d.Company),
		WarehouseCode: strings.TrimSpace(d.WarehouseCode),
	}
}
