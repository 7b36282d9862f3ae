package derive

import (
	"encoding/json"
	"strings"

	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
)

// ValueKind tells how a derived Value should be rendered.
type ValueKind int

const (
	KindBlank ValueKind = iota
	KindText
	KindNumber
	KindFlag
)

// Value is the result of deriving one column for one row.
type Value struct {
	Kind   ValueKind
	Text   string
	Number salesrecon.Amount
	Flag   bool
}

// Blank is the empty cell.
var Blank = Value{}

// TextValue wraps s; whitespace-only text is Blank.
func TextValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Blank
	}
	return Value{Kind: KindText, Text: s}
}

// NumberValue wraps an amount.
func NumberValue(a salesrecon.Amount) Value {
	return Value{Kind: KindNumber, Number: a}
}

// PositiveValue wraps a only when it is greater than zero.
func PositiveValue(a salesrecon.Amount) Value {
	if !a.IsPositive() {
		return Blank
	}
	return NumberValue(a)
}

// FlagValue wraps a boolean.
func FlagValue(b bool) Value {
	return Value{Kind: KindFlag, Flag: b}
}

// IsBlank reports whether the cell is empty.
func (v Value) IsBlank() bool { return v.Kind == KindBlank }

// String renders the value for CSV and logs.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return v.Number.String()
	case KindFlag:
		if v.Flag {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

// MarshalJSON renders blank as null, numbers as JSON numbers and flags as booleans.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Text)
	case KindNumber:
		return v.Number.MarshalJSON()
	case KindFlag:
		return json.Marshal(v.Flag)
	default:
		return []byte("null"), nil
	}
}
