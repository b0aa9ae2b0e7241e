package invoice

import (
	"encoding/json"
	"time"

	"cipherpay.onion/checkout/money"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusUnderpaid Status = "underpaid"
	StatusDetected  Status = "detected"
	StatusConfirmed Status = "confirmed"
	StatusExpired   Status = "expired"
	StatusRefunded  Status = "refunded"
)

// Terminal reports whether no further transition can occur. The live stream
// closes itself the moment one of these is reported.
func (s Status) Terminal() (terminal bool) {
	switch s {
	case StatusConfirmed, StatusExpired, StatusRefunded:
		return true
	}
	return false
}

type Invoice struct {
	// Identifier assigned by the backend. Opaque to the client
	Id string `json:"id"`
	// Short human shareable reference. Informational only, matching is address based
	MemoCode     string `json:"memo_code"`
	ProductName  string `json:"product_name,omitempty"`
	MerchantName string `json:"merchant_name,omitempty"`
	// Pricing is frozen server side at creation time
	PriceEur          float64        `json:"price_eur"`
	PriceUsd          *float64       `json:"price_usd,omitempty"`
	Currency          money.Currency `json:"currency"`
	PriceZec          money.Decimal  `json:"price_zec"`
	PriceZatoshis     uint64         `json:"price_zatoshis"`
	ZecRateAtCreation float64        `json:"zec_rate_at_creation"`
	// Payment progress
	ReceivedZatoshis uint64 `json:"received_zatoshis"`
	DetectedTxid     string `json:"detected_txid,omitempty"`
	// Lifecycle
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	DetectedAt  *time.Time `json:"detected_at,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
	// Addressing
	PaymentAddress string `json:"payment_address"`
	ZcashUri       string `json:"zcash_uri"`
	RefundAddress  string `json:"refund_address,omitempty"`
}

func (i *Invoice) Bytes() (bytes []byte) {
	bytes, _ = json.Marshal(i)
	return bytes
}

func (i *Invoice) FromBytes(b []byte) (err error) {
	return json.Unmarshal(b, i)
}
