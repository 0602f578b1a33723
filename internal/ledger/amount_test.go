package ledger

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in    string
		plain string
	}{
		{"100", "100.00"},
		{"1,234.5", "1234.50"},
		{" 0.005 ", "0.01"},
		{"-0.005", "-0.01"},
		{"2.344", "2.34"},
		{"-1,000,000.999", "-1000001.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.plain, a.Plain())
		})
	}

	_, err := ParseAmount("")
	assert.Error(t, err)
	_, err = ParseAmount("12abc")
	assert.Error(t, err)
}

func TestAmountRoundsAfterEveryStep(t *testing.T) {
	third := NewAmount(decimal.NewFromInt(1).Div(decimal.NewFromInt(3)))
	assert.Equal(t, "0.33", third.Plain())

	// Three rounded thirds do not make one.
	sum := Sum(third, third, third)
	assert.Equal(t, "0.99", sum.Plain())

	a := MustParseAmount("10.00")
	assert.Equal(t, "3.33", a.Div(MustParseAmount("3")).Plain())
	assert.Equal(t, "-10.00", a.Neg().Plain())
	assert.Equal(t, "10.00", a.Neg().Abs().Plain())
	assert.True(t, a.Sub(a).IsZero())
	assert.Equal(t, 1, a.Cmp(third))
}

func TestLocalAmount(t *testing.T) {
	got := LocalAmount(MustParseAmount("100.00"), decimal.RequireFromString("7.1234"))
	assert.Equal(t, "712.34", got.Plain())

	got = LocalAmount(MustParseAmount("0.01"), decimal.RequireFromString("0.5"))
	assert.Equal(t, "0.01", got.Plain(), "half rounds away from zero")
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "1,234,567.80", MustParseAmount("1234567.8").String())
	assert.Equal(t, "-0.50", MustParseAmount("-0.5").String())
	assert.Equal(t, "0.00", Zero.String())
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Amount `json:"a"`
	}{MustParseAmount("1234.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"1234.50"}`, string(data))

	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1,000.10","b":12.345}`), &v))
	assert.Equal(t, "1000.10", v.A.Plain())
	assert.Equal(t, "12.35", v.B.Plain())

	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}

func TestAmountScan(t *testing.T) {
	var a Amount
	require.NoError(t, a.Scan("12.50"))
	assert.Equal(t, "12.50", a.Plain())
	require.NoError(t, a.Scan([]byte("3")))
	assert.Equal(t, "3.00", a.Plain())
	require.NoError(t, a.Scan(int64(7)))
	assert.Equal(t, "7.00", a.Plain())
	require.NoError(t, a.Scan(nil))
	assert.True(t, a.IsZero())
	assert.Error(t, a.Scan(true))

	v, err := MustParseAmount("1,5").Value()
	require.NoError(t, err)
	assert.Equal(t, "15.00", v)
}
