package salesrecon

// DefaultPageLimit applies when a caller passes a non-positive limit.
const DefaultPageLimit = 50

// Row is one display row: a sale line of an order, or a placeholder for an
// order whose lines are unknown.
type Row struct {
	Order *Order
	Line  *SaleLine
	// Index is the row's position in the full flattened sequence.
	Index int
}

// Placeholder reports whether the row stands in for missing lines.
func (r Row) Placeholder() bool { return r.Line == nil }

// Page is a window of rows.
type Page struct {
	Rows  []Row
	Page  int
	Limit int
	// Total is the row count reported by the source, in sale-line units.
	Total int
}

// Flatten expands orders into rows. An order without lines contributes
// max(1, TotalItems) placeholder rows. Rows point into orders.
func Flatten(orders []Order) []Row {
	size := 0
	for i := range orders {
		size += orders[i].RowSpan()
	}
	rows := make([]Row, 0, size)
	for i := range orders {
		order := &orders[i]
		if len(order.SaleLines) == 0 {
			for range order.RowSpan() {
				rows = append(rows, Row{Order: order, Index: len(rows)})
			}
			continue
		}
		for j := range order.SaleLines {
			rows = append(rows, Row{Order: order, Line: &order.SaleLines[j], Index: len(rows)})
		}
	}
	return rows
}

// Paginate returns rows[page*limit : (page+1)*limit], clamped to the slice.
// page is zero-based.
func Paginate(rows []Row, page, limit int) []Row {
	page, limit = normalizeWindow(page, limit)
	// Compare by division so page*limit cannot overflow.
	if page > (len(rows)-1)/limit || len(rows) == 0 {
		return []Row{}
	}
	start := page * limit
	end := start + min(limit, len(rows)-start)
	return rows[start:end]
}

// FlattenAndPaginate flattens orders and re-slices the result to the
// requested zero-based page. totalRowCount is passed through; a negative
// value is replaced by the number of flattened rows.
func FlattenAndPaginate(orders []Order, page, limit, totalRowCount int) Page {
	page, limit = normalizeWindow(page, limit)
	rows := Flatten(orders)
	total := totalRowCount
	if total < 0 {
		total = len(rows)
	}
	return Page{
		Rows:  Paginate(rows, page, limit),
		Page:  page,
		Limit: limit,
		Total: total,
	}
}

func normalizeWindow(page, limit int) (int, int) {
	if page < 0 {
		page = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return page, limit
}
