package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		currency string
		want     int64
	}{
		{"positive cents", 1234, "CAD", 1234},
		{"zero", 0, "CAD", 0},
		{"negative cents", -5000, "CAD", -5000},
		{"large amount", 999999999, "CAD", 999999999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.cents, tt.currency)
			assert.Equal(t, tt.want, m.Cents())
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   int64
	}{
		{"simple decimal", "12.34", 1234},
		{"whole number", "100", 10000},
		{"zero", "0", 0},
		{"negative", "-50.99", -5099},
		{"sub cent rounds", "12.345", 1235},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FromDecimal(d, "CAD").Cents())
		})
	}
}

func TestFromDecimalUnknownCurrencyFallsBackToCAD(t *testing.T) {
	m := FromDecimal(decimal.NewFromInt(5), "???")
	assert.Equal(t, "CAD", m.Currency())
	assert.Equal(t, int64(500), m.Cents())
}

func TestFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"plain", "45.67", 4567, false},
		{"dollar sign", "$45.67", 4567, false},
		{"thousands commas", "1,234.56", 123456, false},
		{"negative", "-597.00", -59700, false},
		{"whitespace", "  12.00 ", 1200, false},
		{"garbage", "twelve", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromString(tt.input, "CAD")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Cents())
		})
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("-1234.56")
	m := FromDecimal(d, "CAD")
	assert.True(t, d.Equal(m.Decimal()))
}

func TestPredicates(t *testing.T) {
	assert.True(t, Zero("CAD").IsZero())
	assert.True(t, New(-1, "CAD").IsNegative())
	assert.True(t, New(1, "CAD").IsPositive())
	assert.False(t, New(1, "CAD").IsNegative())

	var zero Money
	assert.True(t, zero.IsZero())
	assert.False(t, zero.IsNegative())
}

func TestAbsAndNegate(t *testing.T) {
	m := New(-4567, "CAD")
	assert.Equal(t, int64(4567), m.Abs().Cents())
	assert.Equal(t, int64(4567), m.Negate().Cents())
	assert.Equal(t, int64(-4567), m.Abs().Negate().Cents())
}

func TestAdd(t *testing.T) {
	a := New(1050, "CAD")
	b := New(-250, "CAD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(800), sum.Cents())

	_, err = a.Add(New(100, "USD"))
	assert.Error(t, err)
}

func TestAddZeroValue(t *testing.T) {
	var zero Money
	sum, err := zero.Add(New(500, "CAD"))
	require.NoError(t, err)
	assert.Equal(t, int64(500), sum.Cents())
}

func TestCompare(t *testing.T) {
	cmp, err := New(100, "CAD").Compare(New(200, "CAD"))
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	cmp, err = New(200, "CAD").Compare(New(200, "CAD"))
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "$1,234.56", New(123456, "CAD").Display())
	assert.Equal(t, "-$45.67", New(-4567, "CAD").Display())
	assert.Equal(t, "$0.00", Zero("CAD").Display())
}

func TestString(t *testing.T) {
	assert.Equal(t, "-1234.56", New(-123456, "CAD").String())
	assert.Equal(t, "597.00", New(59700, "CAD").String())
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(New(-4567, "CAD"))
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "-45.67", got["amount"])
	assert.Equal(t, "CAD", got["currency"])
	assert.Equal(t, "-$45.67", got["display"])
}
