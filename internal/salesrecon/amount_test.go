package salesrecon

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "0"},
		{"int", 200000, "200000"},
		{"float", 12.5, "12.5"},
		{"nan", math.NaN(), "0"},
		{"inf", math.Inf(1), "0"},
		{"numeric string", " 1500.25 ", "1500.25"},
		{"thousands separators", "1,250,000", "1250000"},
		{"empty string", "", "0"},
		{"garbage", "abc", "0"},
		{"nan string", "NaN", "0"},
		{"json number", json.Number("42"), "42"},
		{"decimal", decimal.RequireFromString("3.14"), "3.14"},
		{"bool", true, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseAmount(tc.in).String())
		})
	}
}

func TestAmountUnmarshalJSONNeverFails(t *testing.T) {
	var payload struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
		D Amount `json:"d"`
		E Amount `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 10, "b": "20.5", "c": null, "d": "", "e": "n/a"}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, "10", payload.A.String())
	assert.Equal(t, "20.5", payload.B.String())
	assert.True(t, payload.C.IsZero())
	assert.True(t, payload.D.IsZero())
	assert.True(t, payload.E.IsZero())
}

func TestAmountDiv(t *testing.T) {
	got := AmountFromInt(200000).Div(AmountFromInt(2))
	assert.True(t, got.Equal(AmountFromInt(100000)))
	assert.Equal(t, "100000", got.String())

	assert.True(t, AmountFromInt(5).Div(Amount{}).IsZero())
}

func TestAmountMarshalJSON(t *testing.T) {
	out, err := json.Marshal(map[string]Amount{"v": ParseAmount("1.50")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v": 1.5}`, string(out))
}
