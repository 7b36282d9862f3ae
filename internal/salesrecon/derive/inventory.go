package derive

import (
	"strings"

	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
)

func batchCode(e *Engine, in Input) Value {
	l := in.Line
	if v := TextValue(l.Overrides.BatchCode); !v.IsBlank() {
		return v
	}
	serial := strings.TrimSpace(l.Serial)
	if serial == "" {
		return Blank
	}
	if i := strings.Index(serial, "_"); i >= 0 {
		return TextValue(serial[i+1:])
	}
	if l.Product == nil || !l.Product.TrackBatch {
		return Blank
	}
	return TextValue(lastRunes(serial, e.rules.batchSuffixLen(l.Product.Type)))
}

// serialNo is filled only for serial-tracked items that are not batch
// tracked and whose serial is not in the underscore batch format.
func serialNo(_ *Engine, in Input) Value {
	l := in.Line
	serial := strings.TrimSpace(l.Serial)
	if l.Product == nil || !l.Product.TrackSerial || l.Product.TrackBatch {
		return Blank
	}
	if strings.Contains(serial, "_") {
		return Blank
	}
	return TextValue(serial)
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func productType(l *salesrecon.SaleLine) string {
	if l.Product == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(l.Product.Type))
}
