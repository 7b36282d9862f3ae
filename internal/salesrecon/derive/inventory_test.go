package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odyssey-erp/salesrecon/internal/salesrecon"
)

func TestBatchCode(t *testing.T) {
	batchTracked := func(ptype string) *salesrecon.Product {
		return &salesrecon.Product{Type: ptype, TrackBatch: true}
	}
	withOverride := salesrecon.SaleLine{Serial: "ABC_123", Overrides: salesrecon.LineOverrides{BatchCode: "LOT-OVR"}}

	cases := []struct {
		name string
		line salesrecon.SaleLine
		want Value
	}{
		{"override", withOverride, TextValue("LOT-OVR")},
		{"after first underscore", salesrecon.SaleLine{Serial: "SN01_LOT2024_A"}, TextValue("LOT2024_A")},
		{"underscore without product", salesrecon.SaleLine{Serial: "X_L1"}, TextValue("L1")},
		{"tpcn trailing eight", salesrecon.SaleLine{Serial: "89350012345678", Product: batchTracked("TPCN")}, TextValue("12345678")},
		{"skin trailing four", salesrecon.SaleLine{Serial: "8935001230424", Product: batchTracked("Skin")}, TextValue("0424")},
		{"gift trailing four", salesrecon.SaleLine{Serial: "GIFT99887766", Product: batchTracked("GIFT")}, TextValue("7766")},
		{"default trailing four", salesrecon.SaleLine{Serial: "MISC0001", Product: batchTracked("OTHER")}, TextValue("0001")},
		{"short serial kept whole", salesrecon.SaleLine{Serial: "12", Product: batchTracked("TPCN")}, TextValue("12")},
		{"not batch tracked", salesrecon.SaleLine{Serial: "89350012345678", Product: &salesrecon.Product{Type: "TPCN"}}, Blank},
		{"no product", salesrecon.SaleLine{Serial: "89350012345678"}, Blank},
		{"no serial", salesrecon.SaleLine{Product: batchTracked("TPCN")}, Blank},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, deriveOne(t, ColBatchCode, salesrecon.Order{}, tc.line))
		})
	}
}

func TestSerialNoExcludesBatchFormat(t *testing.T) {
	serialOnly := &salesrecon.Product{TrackSerial: true}
	both := &salesrecon.Product{TrackSerial: true, TrackBatch: true}

	assert.Equal(t, TextValue("SN123456"), deriveOne(t, ColSerialNo, salesrecon.Order{}, salesrecon.SaleLine{Serial: "SN123456", Product: serialOnly}))
	assert.True(t, deriveOne(t, ColSerialNo, salesrecon.Order{}, salesrecon.SaleLine{Serial: "SN_LOT", Product: serialOnly}).IsBlank())
	assert.True(t, deriveOne(t, ColSerialNo, salesrecon.Order{}, salesrecon.SaleLine{Serial: "SN123456", Product: both}).IsBlank())
	assert.True(t, deriveOne(t, ColSerialNo, salesrecon.Order{}, salesrecon.SaleLine{Serial: "SN123456"}).IsBlank())
}

func TestBatchSuffixFromRules(t *testing.T) {
	rules := DefaultRules()
	rules.BatchSuffix["SKIN"] = 6
	e := NewEngine(rules)
	line := salesrecon.SaleLine{Serial: "8935001230424", Product: &salesrecon.Product{Type: "SKIN", TrackBatch: true}}
	assert.Equal(t, TextValue("230424"), e.DeriveColumn(ColBatchCode, &salesrecon.Order{}, &line))
}
