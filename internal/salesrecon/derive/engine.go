// Package derive computes the accounting and promotion columns of a sale
// line. Every column is a pure function of the enriched order and line;
// none of them fail.
package derive

import (
	"strings"

	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
)

// Facts are per-row values shared by several columns. They are computed
// once per row so that e.g. gift detection is consistent across columns.
type Facts struct {
	UnitPrice      salesrecon.Amount
	Gift           bool
	Kind           OrderKind
	Brand          string
	VIPAmount      salesrecon.Amount
	Ecoin          bool
	ReserveVoucher bool
	MainVoucher    bool
}

// Input is what a derivation function sees.
type Input struct {
	Order *salesrecon.Order
	Line  *salesrecon.SaleLine
	Facts Facts
}

type deriveFunc func(e *Engine, in Input) Value

// ColumnInfo describes a column in the catalogue.
type ColumnInfo struct {
	ID    Column `json:"id"`
	Title string `json:"title"`
	// OrderLevel columns are also filled on placeholder rows.
	OrderLevel bool `json:"order_level"`
}

type columnDef struct {
	ColumnInfo
	fn deriveFunc
}

// Engine evaluates columns with a fixed rule set. It is safe for concurrent use.
type Engine struct {
	rules   Rules
	columns map[Column]columnDef
}

// NewEngine builds an engine over rules.
func NewEngine(rules Rules) *Engine {
	columns := make(map[Column]columnDef, len(catalogue))
	for _, def := range catalogue {
		columns[def.ID] = def
	}
	return &Engine{rules: rules, columns: columns}
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() Rules { return e.rules }

// Catalogue lists every known column in display order.
func (e *Engine) Catalogue() []ColumnInfo {
	out := make([]ColumnInfo, len(catalogue))
	for i, def := range catalogue {
		out[i] = def.ColumnInfo
	}
	return out
}

// AllColumns lists every column id in display order.
func AllColumns() []Column {
	out := make([]Column, len(catalogue))
	for i, def := range catalogue {
		out[i] = def.ID
	}
	return out
}

// Lookup reports whether id names a known column.
func (e *Engine) Lookup(id string) (ColumnInfo, bool) {
	def, ok := e.columns[Column(strings.TrimSpace(id))]
	return def.ColumnInfo, ok
}

// Facts computes the shared per-row values. line may be nil.
func (e *Engine) Facts(order *salesrecon.Order, line *salesrecon.SaleLine) Facts {
	if order == nil {
		order = &salesrecon.Order{}
	}
	f := Facts{Brand: strings.ToLower(strings.TrimSpace(order.Customer.Brand))}
	if line == nil {
		return f
	}
	f.UnitPrice = unitPrice(line)
	f.Gift = f.UnitPrice.IsZero() && line.LineTotal.IsZero() && line.Revenue.IsZero()
	f.Kind = ParseOrderKind(line.OrderType)
	f.VIPAmount = line.VIPDiscount
	if line.Overrides.VIPDiscountAmount.IsPositive() {
		f.VIPAmount = line.Overrides.VIPDiscountAmount
	}
	f.Ecoin = line.EcoinDiscount.IsPositive() ||
		(strings.EqualFold(strings.TrimSpace(order.Payment.Method), e.rules.EcoinCode) && order.Payment.CashIn.IsPositive())
	if !f.Ecoin && line.VoucherPaid.IsPositive() {
		f.ReserveVoucher = line.ReserveVoucherDiscount.IsPositive() ||
			e.rules.isReserveSource(order.SourceType) ||
			(strings.TrimSpace(line.PromCode) != "" && strings.TrimSpace(line.PackageCode) == "")
		f.MainVoucher = !f.ReserveVoucher
	}
	return f
}

// DeriveColumn computes one column. Unknown columns and line-level columns
// of placeholder rows (nil line) are Blank.
func (e *Engine) DeriveColumn(col Column, order *salesrecon.Order, line *salesrecon.SaleLine) Value {
	def, ok := e.columns[col]
	if !ok {
		return Blank
	}
	return e.derive(def, order, line, e.Facts(order, line))
}

func (e *Engine) derive(def columnDef, order *salesrecon.Order, line *salesrecon.SaleLine, facts Facts) Value {
	if order == nil {
		order = &salesrecon.Order{}
	}
	if line == nil && !def.OrderLevel {
		return Blank
	}
	return def.fn(e, Input{Order: order, Line: line, Facts: facts})
}

// Evaluate derives cols for one row, computing the row facts once.
func (e *Engine) Evaluate(row salesrecon.Row, cols []Column) []Value {
	facts := e.Facts(row.Order, row.Line)
	out := make([]Value, len(cols))
	for i, col := range cols {
		def, ok := e.columns[col]
		if !ok {
			continue
		}
		out[i] = e.derive(def, row.Order, row.Line, facts)
	}
	return out
}

// TableRow is one evaluated row.
type TableRow struct {
	Index       int     `json:"index"`
	DocCode     string  `json:"doc_code"`
	Placeholder bool    `json:"placeholder"`
	Values      []Value `json:"values"`
}

// Table is an evaluated page.
type Table struct {
	Columns []ColumnInfo `json:"columns"`
	Rows    []TableRow   `json:"rows"`
}

// Table evaluates every row of page. Unknown column ids are dropped.
func (e *Engine) Table(page salesrecon.Page, cols []Column) Table {
	known := make([]Column, 0, len(cols))
	infos := make([]ColumnInfo, 0, len(cols))
	for _, col := range cols {
		if def, ok := e.columns[col]; ok {
			known = append(known, col)
			infos = append(infos, def.ColumnInfo)
		}
	}
	rows := make([]TableRow, len(page.Rows))
	for i, row := range page.Rows {
		docCode := ""
		if row.Order != nil {
			docCode = row.Order.DocCode
		}
		rows[i] = TableRow{
			Index:       row.Index,
			DocCode:     docCode,
			Placeholder: row.Placeholder(),
			Values:      e.Evaluate(row, known),
		}
	}
	return Table{Columns: infos, Rows: rows}
}
