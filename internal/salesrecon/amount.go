package salesrecon

import (
	"bytes"
	"encoding/json"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary or quantity value taken from upstream payloads.
// The zero value is zero.
type Amount struct {
	d decimal.Decimal
}

// NewAmount converts a float. NaN and infinities become zero.
func NewAmount(v float64) Amount {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{}
	}
	return Amount{d: decimal.NewFromFloat(v)}
}

// AmountFromInt converts an integer.
func AmountFromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// AmountFromDecimal wraps an existing decimal.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// ParseAmount coerces anything an upstream system may send for a number.
// Missing, malformed or non-finite input yields zero; it never fails.
func ParseAmount(v any) Amount {
	switch t := v.(type) {
	case nil:
		return Amount{}
	case Amount:
		return t
	case *Amount:
		if t == nil {
			return Amount{}
		}
		return *t
	case decimal.Decimal:
		return Amount{d: t}
	case float64:
		return NewAmount(t)
	case float32:
		return NewAmount(float64(t))
	case int:
		return AmountFromInt(int64(t))
	case int32:
		return AmountFromInt(int64(t))
	case int64:
		return AmountFromInt(t)
	case uint:
		return Amount{d: decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(t)), 0)}
	case uint32:
		return AmountFromInt(int64(t))
	case uint64:
		return Amount{d: decimal.NewFromBigInt(new(big.Int).SetUint64(t), 0)}
	case json.Number:
		return parseAmountString(t.String())
	case string:
		return parseAmountString(t)
	case []byte:
		return parseAmountString(string(t))
	default:
		return Amount{}
	}
}

func parseAmountString(raw string) Amount {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Amount{}
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return Amount{d: d}
}

// Decimal exposes the underlying decimal.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// IsZero reports whether the amount equals zero.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool { return a.d.IsPositive() }

// Equal compares by value, so 1.50 equals 1.5.
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// Div divides a by b. Division by zero yields zero.
func (a Amount) Div(b Amount) Amount {
	if b.d.IsZero() {
		return Amount{}
	}
	return Amount{d: a.d.Div(b.d)}
}

func (a Amount) String() string { return a.d.String() }

// MarshalJSON renders the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null. Anything else
// decodes to zero instead of failing the surrounding document.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = Amount{}
			return nil
		}
		*a = parseAmountString(s)
		return nil
	}
	*a = parseAmountString(string(data))
	return nil
}
