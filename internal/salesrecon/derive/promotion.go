package derive

import (
	"strings"

	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
)

// unitPrice is lineTotal/qty for a positive quantity, else the line's own price.
func unitPrice(l *salesrecon.SaleLine) salesrecon.Amount {
	if l.Qty.IsPositive() {
		return l.LineTotal.Div(l.Qty)
	}
	return l.Price
}

func unitPriceCol(_ *Engine, in Input) Value { return NumberValue(in.Facts.UnitPrice) }

func isGift(_ *Engine, in Input) Value { return FlagValue(in.Facts.Gift) }

func promoFlag(e *Engine, in Input) Value {
	if in.Facts.Gift {
		return Blank
	}
	if in.Facts.UnitPrice.IsZero() && in.Facts.Kind.giftPromotional() {
		return TextValue(e.rules.PromoFlag)
	}
	return Blank
}

func giftPromoCode(e *Engine, in Input) Value {
	if !in.Facts.Gift {
		return Blank
	}
	if v := TextValue(in.Line.Overrides.GiftPromCode); !v.IsBlank() {
		return v
	}
	switch {
	case in.Facts.Kind == OrderInvestment:
		return TextValue(e.rules.InvestmentGiftCode)
	case in.Facts.Kind.giftPromotional():
		if code := e.giveProductCode(in.Line.PromCode); code != "" {
			return TextValue(code)
		}
	}
	return TextValue(promoCodeSegment(in.Line.PromCode))
}

// promoCodeSegment returns the Code part of a "Code-Name" promotion.
func promoCodeSegment(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "-"); i >= 0 {
		return strings.TrimSpace(raw[:i])
	}
	return raw
}

// giveProductCode converts a promotion whose code carries the give-product
// marker ("TANGSP_PR02", "Tặng SP PR03") into "<base>.TANGSP". It returns
// "" when the marker is absent.
func (e *Engine) giveProductCode(raw string) string {
	marker := e.rules.GiveProductMarker
	segment := promoCodeSegment(raw)
	if marker == "" || segment == "" {
		return ""
	}
	folded := strings.ToUpper(strings.ReplaceAll(foldText(segment), " ", ""))
	i := strings.Index(folded, marker)
	if i < 0 {
		return ""
	}
	base := strings.Trim(folded[:i]+folded[i+len(marker):], "._-/")
	if base == "" {
		return marker
	}
	return base + "." + marker
}
