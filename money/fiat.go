package money

import (
	"fmt"
	"strconv"
)

type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

func (c Currency) Symbol() (symbol string) {
	if c == CurrencyUSD {
		return "$"
	}
	return "€"
}

// FormatFiat renders a fiat amount with its currency symbol. Amounts below one
// cent keep their full precision so sub-cent invoices never render as 0.00.
func FormatFiat(amount float64, currency Currency) (s string) {
	if amount < 0.01 {
		return currency.Symbol() + strconv.FormatFloat(amount, 'f', -1, 64)
	}
	return fmt.Sprintf("%s%.2f", currency.Symbol(), amount)
}
