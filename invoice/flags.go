package invoice

import (
	"cipherpay.onion/checkout/money"
)

// ToleranceBasisPoints is the amount matching band: a received amount within
// 0.5% of the invoice price counts as fully paid.
const ToleranceBasisPoints = 50

// WithinTolerance reports whether received covers price inside the matching
// band. Below the band with any funds at all the invoice is underpaid, never
// silently pending.
func WithinTolerance(received, price uint64) (ok bool) {
	if price == 0 {
		return false
	}
	return received >= price-price*ToleranceBasisPoints/10_000
}

func (i *Invoice) IsUnderpaid() (underpaid bool) {
	return i.Status == StatusUnderpaid
}

// IsOverpaid is only meaningful once the invoice reached detected or later.
// It flags the excess but never blocks settlement.
func (i *Invoice) IsOverpaid() (overpaid bool) {
	return i.PriceZatoshis > 0 && i.ReceivedZatoshis > i.PriceZatoshis
}

func (i *Invoice) RemainingZatoshis() (remaining uint64) {
	if i.ReceivedZatoshis >= i.PriceZatoshis {
		return 0
	}
	return i.PriceZatoshis - i.ReceivedZatoshis
}

func (i *Invoice) RemainingZec() (remaining float64) {
	return money.ToZec(i.RemainingZatoshis())
}

// ShowReceipt is the point past which the checkout stops asking for payment
// and renders a receipt, even before block level finality.
func (i *Invoice) ShowReceipt() (show bool) {
	return i.Status == StatusDetected || i.Status == StatusConfirmed
}

// PrimaryPrice is the fiat amount in the invoice's own currency.
func (i *Invoice) PrimaryPrice() (s string) {
	if i.Currency == money.CurrencyUSD && i.PriceUsd != nil {
		return money.FormatFiat(*i.PriceUsd, money.CurrencyUSD)
	}
	return money.FormatFiat(i.PriceEur, money.CurrencyEUR)
}

// SecondaryPrice is the other currency, empty when the backend priced in EUR
// only.
func (i *Invoice) SecondaryPrice() (s string) {
	if i.Currency == money.CurrencyUSD {
		return money.FormatFiat(i.PriceEur, money.CurrencyEUR)
	}
	if i.PriceUsd == nil {
		return ""
	}
	return money.FormatFiat(*i.PriceUsd, money.CurrencyUSD)
}
