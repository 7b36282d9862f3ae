package derive

import (
	"strings"

	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
)

func vipDiscountAmount(_ *Engine, in Input) Value {
	if in.Facts.Gift {
		return Blank
	}
	return PositiveValue(in.Facts.VIPAmount)
}

func vipDiscountCode(e *Engine, in Input) Value {
	if in.Facts.Gift || !in.Facts.VIPAmount.IsPositive() {
		return Blank
	}
	if v := TextValue(in.Line.Overrides.VIPDiscountCode); !v.IsBlank() {
		return v
	}
	return TextValue(e.vipBucket(in))
}

func (e *Engine) vipBucket(in Input) string {
	r := e.rules.VIP
	ptype := productType(in.Line)
	if in.Facts.Brand == "f3" {
		if ptype == salesrecon.ProductTypeService {
			return r.F3Service
		}
		return r.F3Merchandise
	}
	switch ptype {
	case salesrecon.ProductTypeService:
		return r.Service
	case salesrecon.ProductTypeVoucher:
		return r.Voucher
	}
	if e.isVoucherItem(in.Line) {
		return r.Voucher
	}
	return r.Merchandise
}

// isVoucherItem recognises vouchers sold as ordinary items: by item or
// material code, or by being serial tracked without quantity tracking.
func (e *Engine) isVoucherItem(l *salesrecon.SaleLine) bool {
	codes := []string{l.ItemCode}
	if p := l.Product; p != nil {
		codes = append(codes, p.MaterialCode)
		if !p.TrackInventory && p.TrackSerial {
			return true
		}
	}
	prefix, marker := e.rules.VIP.VoucherItemPrefix, e.rules.VIP.VoucherItemMarker
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if prefix != "" && strings.HasPrefix(code, prefix) {
			return true
		}
		if marker != "" && strings.Contains(code, marker) {
			return true
		}
	}
	return false
}

func voucherCode(e *Engine, in Input) Value {
	if !in.Facts.MainVoucher {
		return Blank
	}
	return TextValue(e.rules.Voucher.MainCode)
}

func voucherAmount(_ *Engine, in Input) Value {
	if !in.Facts.MainVoucher {
		return Blank
	}
	return PositiveValue(in.Line.VoucherPaid)
}

func reserveVoucherCode(e *Engine, in Input) Value {
	if !in.Facts.ReserveVoucher {
		return Blank
	}
	return TextValue(e.rules.Voucher.ReserveCode)
}

func reserveVoucherAmount(_ *Engine, in Input) Value {
	if !in.Facts.ReserveVoucher {
		return Blank
	}
	if in.Line.ReserveVoucherDiscount.IsPositive() {
		return NumberValue(in.Line.ReserveVoucherDiscount)
	}
	return PositiveValue(in.Line.VoucherPaid)
}

func ecoinCode(e *Engine, in Input) Value {
	if !in.Facts.Ecoin {
		return Blank
	}
	return TextValue(e.rules.EcoinCode)
}

func ecoinAmount(_ *Engine, in Input) Value {
	if !in.Facts.Ecoin {
		return Blank
	}
	if in.Line.EcoinDiscount.IsPositive() {
		return NumberValue(in.Line.EcoinDiscount)
	}
	return PositiveValue(in.Order.Payment.CashIn)
}

func revenueAccount(_ *Engine, in Input) Value {
	p := in.Line.Product
	if p == nil {
		return Blank
	}
	switch departmentChannel(in.Line) {
	case channelRetail:
		return TextValue(p.Accounts.RetailRevenue)
	case channelWholesale:
		return TextValue(p.Accounts.WholesaleRevenue)
	}
	return Blank
}

func costAccount(_ *Engine, in Input) Value {
	p := in.Line.Product
	if p == nil {
		return Blank
	}
	switch departmentChannel(in.Line) {
	case channelRetail:
		return TextValue(p.Accounts.RetailCost)
	case channelWholesale:
		return TextValue(p.Accounts.WholesaleCost)
	}
	return Blank
}

type channel int

const (
	channelUnknown channel = iota
	channelRetail
	channelWholesale
)

// departmentChannel classifies the merged department type. Anything other
// than retail or wholesale resolves no account.
func departmentChannel(l *salesrecon.SaleLine) channel {
	t := strings.TrimSpace(l.Overrides.DepartmentType)
	if t == "" && l.Department != nil {
		t = strings.TrimSpace(l.Department.Type)
	}
	switch {
	case strings.EqualFold(t, "retail"):
		return channelRetail
	case strings.EqualFold(t, "wholesale"):
		return channelWholesale
	default:
		return channelUnknown
	}
}
