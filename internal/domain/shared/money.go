package shared

import "github.com/shopspring/decimal"

// IsWholeAmount reports whether d is a whole number of rupiah.
// Balances and prices carry no minor unit.
func IsWholeAmount(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(0))
}
