// Package salesrecon enriches raw sale orders with product and department
// reference data and flattens them into sale-line rows for reconciliation
// against the accounting backend.
package salesrecon

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by providers and sources when a record does not exist.
	ErrNotFound = errors.New("salesrecon: not found")
	// ErrSourceUnavailable marks a failure to list orders; it is fatal for a page.
	ErrSourceUnavailable = errors.New("salesrecon: order source unavailable")
)

// Product types recognised by the derivation rules. Tags are compared upper-cased.
const (
	ProductTypeService = "SERVICE"
	ProductTypeVoucher = "VOUCHER"
	ProductTypeTPCN    = "TPCN"
	ProductTypeSkin    = "SKIN"
	ProductTypeGift    = "GIFT"
)

// Customer identifies the buyer of an order.
type Customer struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Payment is the order-level settlement breakdown.
type Payment struct {
	Method string `json:"method"`
	CashIn Amount `json:"cash_in"`
}

// Accounts holds the product's account codes split by sales channel.
type Accounts struct {
	RetailRevenue    string `json:"retail_revenue"`
	RetailCost       string `json:"retail_cost"`
	WholesaleRevenue string `json:"wholesale_revenue"`
	WholesaleCost    string `json:"wholesale_cost"`
}

// Product is the product master record keyed by item code.
type Product struct {
	Code           string   `json:"code"`
	Unit           string   `json:"unit"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	MaterialCode   string   `json:"material_code"`
	TrackInventory bool     `json:"track_inventory"`
	TrackBatch     bool     `json:"track_batch"`
	TrackSerial    bool     `json:"track_serial"`
	Accounts       Accounts `json:"accounts"`
}

// Department is the branch master record keyed by branch code.
type Department struct {
	BranchCode    string `json:"branch_code"`
	ShortCode     string `json:"short_code"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Company       string `json:"company"`
	WarehouseCode string `json:"warehouse_code"`
}

// LineOverrides are values the upstream source already decided for a line.
// Reference data may fill an empty field but never replaces a set one.
type LineOverrides struct {
	WarehouseCode     string `json:"warehouse_code,omitempty"`
	GiftPromCode      string `json:"gift_prom_code,omitempty"`
	VIPDiscountCode   string `json:"vip_discount_code,omitempty"`
	VIPDiscountAmount Amount `json:"vip_discount_amount"`
	BatchCode         string `json:"batch_code,omitempty"`
	DepartmentCode    string `json:"department_code,omitempty"`
	DepartmentType    string `json:"department_type,omitempty"`
}

// SaleLine is one item of an order. Product and Department are snapshots
// merged in by the Enricher; nil means no reference data was available.
type SaleLine struct {
	ItemCode               string `json:"item_code"`
	ItemName               string `json:"item_name"`
	Qty                    Amount `json:"qty"`
	Price                  Amount `json:"price"`
	LineTotal              Amount `json:"line_total"`
	Revenue                Amount `json:"revenue"`
	OtherDiscount          Amount `json:"other_discount"`
	VIPDiscount            Amount `json:"vip_discount"`
	VoucherPaid            Amount `json:"voucher_paid"`
	ReserveVoucherDiscount Amount `json:"reserve_voucher_discount"`
	EcoinDiscount          Amount `json:"ecoin_discount"`
	PromCode               string `json:"prom_code"`
	PackageCode            string `json:"package_code"`
	OrderType              string `json:"order_type"`
	BranchCode             string `json:"branch_code"`
	Serial                 string `json:"serial"`
	TaxCode                string `json:"tax_code"`
	DebitAccount           string `json:"debit_account"`

	Overrides  LineOverrides `json:"overrides"`
	Product    *Product      `json:"product,omitempty"`
	Department *Department   `json:"department,omitempty"`
}

// Order is a sale document. SaleLines may be empty when the source only
// returned the header; TotalItems then hints how many lines exist.
type Order struct {
	DocCode    string     `json:"doc_code"`
	DocDate    time.Time  `json:"doc_date"`
	BranchCode string     `json:"branch_code"`
	SourceType string     `json:"source_type"`
	Customer   Customer   `json:"customer"`
	Payment    Payment    `json:"payment"`
	TotalItems int        `json:"total_items"`
	SaleLines  []SaleLine `json:"sale_lines"`
}

// Clone returns a deep copy that shares no slices or pointers with o.
func (o Order) Clone() Order {
	out := o
	if o.SaleLines != nil {
		out.SaleLines = make([]SaleLine, len(o.SaleLines))
		for i, line := range o.SaleLines {
			out.SaleLines[i] = line.clone()
		}
	}
	return out
}

func (l SaleLine) clone() SaleLine {
	if l.Product != nil {
		p := *l.Product
		l.Product = &p
	}
	if l.Department != nil {
		d := *l.Department
		l.Department = &d
	}
	return l
}

// EffectiveBranchCode is the line's branch, falling back to the order's.
func (o Order) EffectiveBranchCode(line SaleLine) string {
	if code := normalizeCode(line.BranchCode); code != "" {
		return code
	}
	return normalizeCode(o.BranchCode)
}

// RowSpan is the number of flattened rows the order occupies.
func (o Order) RowSpan() int {
	if n := len(o.SaleLines); n > 0 {
		return n
	}
	return max(1, o.TotalItems)
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}
