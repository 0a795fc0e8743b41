package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeVAT(t *testing.T) {
	tests := []struct {
		name      string
		subtotal  string
		rate      string
		wantVAT   string
		wantTotal string
	}{
		{
			name:      "standard rate on plan price",
			subtotal:  "299.00",
			rate:      "15.00",
			wantVAT:   "44.85",
			wantTotal: "343.85",
		},
		{
			name:      "rounds half up",
			subtotal:  "10.03",
			rate:      "15.00",
			wantVAT:   "1.50",
			wantTotal: "11.53",
		},
		{
			name:      "fraction rounds up at midpoint",
			subtotal:  "0.10",
			rate:      "15.00",
			wantVAT:   "0.02",
			wantTotal: "0.12",
		},
		{
			name:      "zero rate",
			subtotal:  "100.00",
			rate:      "0",
			wantVAT:   "0.00",
			wantTotal: "100.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal := decimal.RequireFromString(tt.subtotal)
			rate := decimal.RequireFromString(tt.rate)

			vat, total := ComputeVAT(subtotal, rate)

			assert.True(t, vat.Equal(decimal.RequireFromString(tt.wantVAT)),
				"vat = %s, want %s", vat, tt.wantVAT)
			assert.True(t, total.Equal(decimal.RequireFromString(tt.wantTotal)),
				"total = %s, want %s", total, tt.wantTotal)
			assert.True(t, subtotal.Add(vat).Equal(total), "total must equal subtotal plus vat")
		})
	}
}

func TestMoneyAdd(t *testing.T) {
	a := NewMoney(decimal.RequireFromString("10.50"), DefaultCurrency)
	b := NewMoney(decimal.RequireFromString("4.50"), DefaultCurrency)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount.Equal(decimal.RequireFromString("15.00")))

	_, err = a.Add(NewMoney(decimal.NewFromInt(1), "USD"))
	assert.Error(t, err)
}

func TestNewMoneyRounds(t *testing.T) {
	m := NewMoney(decimal.RequireFromString("1.005"), DefaultCurrency)
	assert.Equal(t, "1.01 SAR", m.String())
}
