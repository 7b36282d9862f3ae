package derive

import "strings"

// Column identifies a derived output column.
type Column string

const (
	ColDocCode              Column = "doc_code"
	ColDocDate              Column = "doc_date"
	ColCustomerCode         Column = "customer_code"
	ColCustomerName         Column = "customer_name"
	ColBrand                Column = "brand"
	ColItemCode             Column = "item_code"
	ColItemName             Column = "item_name"
	ColUnit                 Column = "unit"
	ColQty                  Column = "qty"
	ColUnitPrice            Column = "unit_price"
	ColLineTotal            Column = "line_total"
	ColRevenue              Column = "revenue"
	ColOtherDiscount        Column = "other_discount"
	ColIsGift               Column = "is_gift"
	ColPromoFlag            Column = "promo_flag"
	ColGiftPromoCode        Column = "gift_promo_code"
	ColWarehouseCode        Column = "warehouse_code"
	ColDepartmentCode       Column = "department_code"
	ColBatchCode            Column = "batch_code"
	ColSerialNo             Column = "serial_no"
	ColVIPDiscountCode      Column = "vip_discount_code"
	ColVIPDiscountAmount    Column = "vip_discount_amount"
	ColVoucherCode          Column = "voucher_code"
	ColVoucherAmount        Column = "voucher_amount"
	ColReserveVoucherCode   Column = "reserve_voucher_code"
	ColReserveVoucherAmount Column = "reserve_voucher_amount"
	ColEcoinCode            Column = "ecoin_code"
	ColEcoinAmount          Column = "ecoin_amount"
	ColRevenueAccount       Column = "revenue_account"
	ColCostAccount          Column = "cost_account"
	ColTaxCode              Column = "tax_code"
	ColDebitAccount         Column = "debit_account"
)

func orderCol(id Column, title string, fn deriveFunc) columnDef {
	return columnDef{ColumnInfo: ColumnInfo{ID: id, Title: title, OrderLevel: true}, fn: fn}
}

func lineCol(id Column, title string, fn deriveFunc) columnDef {
	return columnDef{ColumnInfo: ColumnInfo{ID: id, Title: title}, fn: fn}
}

var catalogue = []columnDef{
	orderCol(ColDocCode, "Document", docCode),
	orderCol(ColDocDate, "Date", docDate),
	orderCol(ColCustomerCode, "Customer code", customerCode),
	orderCol(ColCustomerName, "Customer name", customerName),
	orderCol(ColBrand, "Brand", brand),
	lineCol(ColItemCode, "Item code", itemCode),
	lineCol(ColItemName, "Item name", itemName),
	lineCol(ColUnit, "Unit", unit),
	lineCol(ColQty, "Quantity", qty),
	lineCol(ColUnitPrice, "Unit price", unitPriceCol),
	lineCol(ColLineTotal, "Line total", lineTotal),
	lineCol(ColRevenue, "Revenue", revenue),
	lineCol(ColOtherDiscount, "Other discount", otherDiscount),
	lineCol(ColIsGift, "Gift", isGift),
	lineCol(ColPromoFlag, "Promotion", promoFlag),
	lineCol(ColGiftPromoCode, "Gift promotion code", giftPromoCode),
	lineCol(ColWarehouseCode, "Warehouse", warehouseCode),
	lineCol(ColDepartmentCode, "Department", departmentCode),
	lineCol(ColBatchCode, "Batch/lot", batchCode),
	lineCol(ColSerialNo, "Serial", serialNo),
	lineCol(ColVIPDiscountCode, "VIP discount code", vipDiscountCode),
	lineCol(ColVIPDiscountAmount, "VIP discount", vipDiscountAmount),
	lineCol(ColVoucherCode, "Voucher code", voucherCode),
	lineCol(ColVoucherAmount, "Voucher amount", voucherAmount),
	lineCol(ColReserveVoucherCode, "Reserve voucher code", reserveVoucherCode),
	lineCol(ColReserveVoucherAmount, "Reserve voucher amount", reserveVoucherAmount),
	lineCol(ColEcoinCode, "ECOIN code", ecoinCode),
	lineCol(ColEcoinAmount, "ECOIN amount", ecoinAmount),
	lineCol(ColRevenueAccount, "Revenue account", revenueAccount),
	lineCol(ColCostAccount, "Cost account", costAccount),
	lineCol(ColTaxCode, "Tax code", taxCode),
	lineCol(ColDebitAccount, "Debit account", debitAccount),
}

func docCode(_ *Engine, in Input) Value { return TextValue(in.Order.DocCode) }

func docDate(_ *Engine, in Input) Value {
	if in.Order.DocDate.IsZero() {
		return Blank
	}
	return TextValue(in.Order.DocDate.Format("2006-01-02"))
}

func customerCode(_ *Engine, in Input) Value { return TextValue(in.Order.Customer.Code) }

func customerName(_ *Engine, in Input) Value { return TextValue(in.Order.Customer.Name) }

func brand(_ *Engine, in Input) Value { return TextValue(in.Facts.Brand) }

func itemCode(_ *Engine, in Input) Value { return TextValue(in.Line.ItemCode) }

func itemName(_ *Engine, in Input) Value {
	if p := in.Line.Product; p != nil && strings.TrimSpace(p.Name) != "" {
		return TextValue(p.Name)
	}
	return TextValue(in.Line.ItemName)
}

func unit(_ *Engine, in Input) Value {
	if p := in.Line.Product; p != nil {
		return TextValue(p.Unit)
	}
	return Blank
}

func qty(_ *Engine, in Input) Value { return NumberValue(in.Line.Qty) }

func lineTotal(_ *Engine, in Input) Value { return NumberValue(in.Line.LineTotal) }

func revenue(_ *Engine, in Input) Value { return NumberValue(in.Line.Revenue) }

func otherDiscount(_ *Engine, in Input) Value { return NumberValue(in.Line.OtherDiscount) }

func warehouseCode(_ *Engine, in Input) Value { return TextValue(in.Line.Overrides.WarehouseCode) }

func departmentCode(_ *Engine, in Input) Value { return TextValue(in.Line.Overrides.DepartmentCode) }

func taxCode(e *Engine, in Input) Value {
	if v := TextValue(in.Line.TaxCode); !v.IsBlank() {
		return v
	}
	return TextValue(e.rules.TaxCode)
}

func debitAccount(e *Engine, in Input) Value {
	if v := TextValue(in.Line.DebitAccount); !v.IsBlank() {
		return v
	}
	return TextValue(e.rules.DebitAccount)
}
