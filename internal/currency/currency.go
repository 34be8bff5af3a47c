package currency

import (
	"github.com/shopspring/decimal"
)

// Code is an ISO-4217 style currency code from the fixed supported set.
type Code string

const (
	USD Code = "USD"
	EUR Code = "EUR"
	GBP Code = "GBP"
	JPY Code = "JPY"
	INR Code = "INR"
	AED Code = "AED"
	SAR Code = "SAR"
	QAR Code = "QAR"
	BHD Code = "BHD"
	KWD Code = "KWD"
	OMR Code = "OMR"
)

// Default is the currency assumed before the user picks one.
const Default = USD

// Currency couples a code with its display symbol and a display-only
// conversion rate relative to USD. Rates are static; this is not a
// market-data feed.
type Currency struct {
	Code   Code
	Symbol string
	Rate   decimal.Decimal
}

var currencies = []Currency{
	{Code: USD, Symbol: "$", Rate: decimal.NewFromInt(1)},
	{Code: EUR, Symbol: "€", Rate: decimal.RequireFromString("0.92")},
	{Code: GBP, Symbol: "£", Rate: decimal.RequireFromString("0.79")},
	{Code: JPY, Symbol: "¥", Rate: decimal.RequireFromString("150.5")},
	{Code: INR, Symbol: "₹", Rate: decimal.RequireFromString("83.5")},
	{Code: AED, Symbol: "AED", Rate: decimal.RequireFromString("3.67")},
	{Code: SAR, Symbol: "SAR", Rate: decimal.RequireFromString("3.75")},
	{Code: QAR, Symbol: "QR", Rate: decimal.RequireFromString("3.64")},
	{Code: BHD, Symbol: "BD", Rate: decimal.RequireFromString("0.376")},
	{Code: KWD, Symbol: "KD", Rate: decimal.RequireFromString("0.307")},
	{Code: OMR, Symbol: "OMR", Rate: decimal.RequireFromString("0.385")},
}

// All returns the supported currencies in display order.
func All() []Currency {
	out := make([]Currency, len(currencies))
	copy(out, currencies)

	return out
}

// Lookup returns the currency for code and whether it is supported.
func Lookup(code Code) (Currency, bool) {
	for _, c := range currencies {
		if c.Code == code {
			return c, true
		}
	}

	return Currency{}, false
}

// Valid reports whether code is one of the supported codes.
func Valid(code Code) bool {
	_, ok := Lookup(code)
	return ok
}

// Symbol returns the display symbol for code, falling back to "$" for
// unknown codes.
func Symbol(code Code) string {
	c, ok := Lookup(code)
	if !ok {
		return "$"
	}

	return c.Symbol
}

// Convert converts an amount held in USD into the given display currency.
// Unknown codes convert 1:1.
func Convert(amount float64, code Code) float64 {
	c, ok := Lookup(code)
	if !ok {
		return amount
	}

	converted, _ := decimal.NewFromFloat(amount).Mul(c.Rate).Round(2).Float64()

	return converted
}
