package derive

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// OrderKind classifies the free-text order-type tag of a sale line.
type OrderKind int

const (
	OrderOther OrderKind = iota
	OrderNormal
	OrderInvestment
	OrderSellAccount
	OrderMarketplace
)

func (k OrderKind) String() string {
	switch k {
	case OrderNormal:
		return "normal"
	case OrderInvestment:
		return "investment"
	case OrderSellAccount:
		return "sell_account"
	case OrderMarketplace:
		return "marketplace"
	default:
		return "other"
	}
}

// giftPromotional reports whether zero-priced lines of this kind carry a
// promotion marker and a converted give-product code.
func (k OrderKind) giftPromotional() bool {
	return k == OrderNormal || k == OrderSellAccount || k == OrderMarketplace
}

var kindByNumber = map[int]OrderKind{
	1: OrderNormal,
	6: OrderInvestment,
	7: OrderSellAccount,
	9: OrderMarketplace,
}

var kindByLabel = map[string]OrderKind{
	"thuong":        OrderNormal,
	"normal":        OrderNormal,
	"dau tu":        OrderInvestment,
	"investment":    OrderInvestment,
	"ban tai khoan": OrderSellAccount,
	"sell account":  OrderSellAccount,
	"sell e-coin":   OrderSellAccount,
	"ban ecoin":     OrderSellAccount,
	"san tmdt":      OrderMarketplace,
	"marketplace":   OrderMarketplace,
}

// ParseOrderKind reads tags like "01.Thường", "01. Normal" or "9. Marketplace".
// A numeric prefix decides on its own; otherwise the label is matched after
// removing diacritics and case.
func ParseOrderKind(tag string) OrderKind {
	s := strings.TrimSpace(tag)
	digits := s
	for i, r := range s {
		if r < '0' || r > '9' {
			digits = s[:i]
			break
		}
	}
	if digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil {
			return OrderOther
		}
		if kind, ok := kindByNumber[n]; ok {
			return kind
		}
		return OrderOther
	}
	if kind, ok := kindByLabel[foldText(s)]; ok {
		return kind
	}
	return OrderOther
}

// foldText lower-cases s, strips Vietnamese diacritics and collapses spaces.
func foldText(s string) string {
	s = strings.NewReplacer("đ", "d", "Đ", "D").Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = cases.Fold().String(out)
	return strings.Join(strings.Fields(out), " ")
}
