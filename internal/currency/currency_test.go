package currency_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvella/finvella/internal/currency"
)

func TestLookup(t *testing.T) {
	c, ok := currency.Lookup(currency.EUR)
	require.True(t, ok)
	assert.Equal(t, "€", c.Symbol)

	_, ok = currency.Lookup("XXX")
	assert.False(t, ok)
}

func TestSymbol_FallsBackToDollar(t *testing.T) {
	assert.Equal(t, "₹", currency.Symbol(currency.INR))
	assert.Equal(t, "$", currency.Symbol("XXX"))
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		code   currency.Code
		want   float64
	}{
		{name: "USD identity", amount: 100, code: currency.USD, want: 100},
		{name: "EUR", amount: 100, code: currency.EUR, want: 92},
		{name: "JPY", amount: 2, code: currency.JPY, want: 301},
		{name: "BHD rounds to cents", amount: 10.55, code: currency.BHD, want: 3.97},
		{name: "unknown code converts 1:1", amount: 55.5, code: "XXX", want: 55.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, currency.Convert(tt.amount, tt.code), 0.001)
		})
	}
}

func TestAll_ContainsDefault(t *testing.T) {
	all := currency.All()
	require.NotEmpty(t, all)

	found := false

	for _, c := range all {
		if c.Code == currency.Default {
			found = true
		}
	}

	assert.True(t, found)
}
