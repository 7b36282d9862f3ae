package salesrecon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/salesrecon/internal/platform/db"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository reads the raw sale-line store populated by the sync jobs
// (tables sale_orders and sale_lines). Listing returns headers only; lines
// are loaded per order by OrderDetail.
type Repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds a Repository over pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

const orderColumns = `o.doc_code, o.doc_date, o.branch_code, o.source_type,
	o.customer_code, o.customer_name, COALESCE(o.customer_brand, ''),
	COALESCE(o.customer_phone, ''), COALESCE(o.customer_email, ''),
	COALESCE(o.payment_method, ''), COALESCE(o.cash_in::text, ''), o.total_items`

const lineColumns = `item_code, COALESCE(item_name, ''), COALESCE(qty::text, ''),
	COALESCE(price::text, ''), COALESCE(line_total::text, ''), COALESCE(revenue::text, ''),
	COALESCE(other_discount::text, ''), COALESCE(vip_discount::text, ''),
	COALESCE(voucher_paid::text, ''), COALESCE(reserve_voucher_discount::text, ''),
	COALESCE(ecoin_discount::text, ''), COALESCE(prom_code, ''), COALESCE(package_code, ''),
	COALESCE(order_type, ''), COALESCE(branch_code, ''), COALESCE(serial, ''),
	COALESCE(tax_code, ''), COALESCE(debit_account, ''), COALESCE(warehouse_code, ''),
	COALESCE(gift_prom_code, ''), COALESCE(vip_discount_code, ''),
	COALESCE(vip_discount_amount::text, ''), COALESCE(batch_code, '')`

// ListOrders returns order headers newest first plus the total row count of
// the filter in sale-line units.
func (r *Repository) ListOrders(ctx context.Context, filter Filter, page, limit int) ([]Order, int, error) {
	page, limit = normalizeWindow(page, limit)
	where, args := buildOrderFilter(filter)

	countQuery := fmt.Sprintf("SELECT COALESCE(SUM(GREATEST(o.total_items, 1)), 0) FROM sale_orders o %s", where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("salesrecon: count orders: %w", err)
	}

	argPos := len(args) + 1
	query := fmt.Sprintf(`
		SELECT %s
		FROM sale_orders o
		%s
		ORDER BY o.doc_date DESC, o.doc_code DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, where, argPos, argPos+1)
	args = append(args, limit, page*limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("salesrecon: list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("salesrecon: scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("salesrecon: list orders: %w", err)
	}
	return orders, total, nil
}

// OrderDetail loads one order with all of its lines in a single read-only
// snapshot.
func (r *Repository) OrderDetail(ctx context.Context, docCode string) (Order, error) {
	var order Order
	err := db.WithReadTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		order, err = loadOrder(ctx, tx, docCode)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

func loadOrder(ctx context.Context, q dbtx, docCode string) (Order, error) {
	row := q.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM sale_orders o WHERE o.doc_code = $1", orderColumns), docCode)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("salesrecon: get order: %w", err)
	}

	rows, err := q.Query(ctx, fmt.Sprintf("SELECT %s FROM sale_lines WHERE doc_code = $1 ORDER BY line_no", lineColumns), docCode)
	if err != nil {
		return Order{}, fmt.Errorf("salesrecon: get order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return Order{}, fmt.Errorf("salesrecon: scan order line: %w", err)
		}
		order.SaleLines = append(order.SaleLines, line)
	}
	if err := rows.Err(); err != nil {
		return Order{}, fmt.Errorf("salesrecon: get order lines: %w", err)
	}
	return order, nil
}

// buildOrderFilter renders the WHERE clause for filter with positional
// arguments starting at $1.
func buildOrderFilter(filter Filter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if !filter.From.IsZero() {
		add("o.doc_date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("o.doc_date < $%d", filter.To)
	}
	if code := strings.TrimSpace(filter.BranchCode); code != "" {
		add("o.branch_code = $%d", code)
	}
	if source := strings.TrimSpace(filter.SourceType); source != "" {
		add("UPPER(o.source_type) = UPPER($%d)", source)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(o.doc_code ILIKE $%d OR o.customer_name ILIKE $%d)", len(args), len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var cashIn string
	err := row.Scan(
		&o.DocCode, &o.DocDate, &o.BranchCode, &o.SourceType,
		&o.Customer.Code, &o.Customer.Name, &o.Customer.Brand,
		&o.Customer.Phone, &o.Customer.Email,
		&o.Payment.Method, &cashIn, &o.TotalItems,
	)
	if err != nil {
		return Order{}, err
	}
	o.Payment.CashIn = ParseAmount(cashIn)
	return o, nil
}

func scanLine(row pgx.Row) (SaleLine, error) {
	var l SaleLine
	var qty, price, lineTotal, revenue, otherDiscount, vipDiscount string
	var voucherPaid, reserveDiscount, ecoinDiscount, vipOverride string
	err := row.Scan(
		&l.ItemCode, &l.ItemName, &qty,
		&price, &lineTotal, &revenue,
		&otherDiscount, &vipDiscount,
		&voucherPaid, &reserveDiscount,
		&ecoinDiscount, &l.PromCode, &l.PackageCode,
		&l.OrderType, &l.BranchCode, &l.Serial,
		&l.TaxCode, &l.DebitAccount, &l.Overrides.WarehouseCode,
		&l.Overrides.GiftPromCode, &l.Overrides.VIPDiscountCode,
		&vipOverride, &l.Overrides.BatchCode,
	)
	if err != nil {
		return SaleLine{}, err
	}
	l.Qty = ParseAmount(qty)
	l.Price = ParseAmount(price)
	l.LineTotal = ParseAmount(lineTotal)
	l.Revenue = ParseAmount(revenue)
	l.OtherDiscount = ParseAmount(otherDiscount)
	l.VIPDiscount = ParseAmount(vipDiscount)
	l.VoucherPaid = ParseAmount(voucherPaid)
	l.ReserveVoucherDiscount = ParseAmount(reserveDiscount)
	l.EcoinDiscount = ParseAmount(ecoinDiscount)
	l.Overrides.VIPDiscountAmount = ParseAmount(vipOverride)
	return l, nil
}
