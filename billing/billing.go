// Package billing projects a merchant's fee account snapshot onto the small
// banner state machine that drives the dashboard. Settlement reuses the
// regular invoice checkout; it is not a separate payment path.
package billing

import (
	"errors"
	"fmt"
	"time"

	"cipherpay.onion/checkout/money"
)

type Tier string

const (
	TierNew      Tier = "new"
	TierStandard Tier = "standard"
	TierTrusted  Tier = "trusted"
)

// Rank orders tiers, higher means better terms. Tier upgrades are decided and
// reported by the backend only.
func (t Tier) Rank() (rank int) {
	switch t {
	case TierStandard:
		return 1
	case TierTrusted:
		return 2
	}
	return 0
}

type Status string

const (
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusSuspended Status = "suspended"
)

type Cycle struct {
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	GraceUntil  *time.Time `json:"grace_until,omitempty"`
}

type Summary struct {
	FeeEnabled       bool          `json:"fee_enabled"`
	FeeRate          float64       `json:"fee_rate"`
	TrustTier        Tier          `json:"trust_tier"`
	Status           Status        `json:"billing_status"`
	CurrentCycle     Cycle         `json:"current_cycle"`
	TotalFeesZec     money.Decimal `json:"total_fees_zec"`
	AutoCollectedZec money.Decimal `json:"auto_collected_zec"`
	OutstandingZec   money.Decimal `json:"outstanding_zec"`
}

type Banner int

const (
	BannerNone Banner = iota
	// BannerPastDue is a non blocking warning with a settle action
	BannerPastDue
	// BannerSuspended blocks; invoice and product creation is rejected server
	// side, the client only makes the cause and remedy visible
	BannerSuspended
)

func (b Banner) String() (s string) {
	switch b {
	case BannerPastDue:
		return "past_due"
	case BannerSuspended:
		return "suspended"
	}
	return "none"
}

// Banner computes the single banner state for a summary. Fee-disabled
// merchants never see a banner regardless of the reported status.
func (s *Summary) Banner() (banner Banner) {
	if !s.FeeEnabled {
		return BannerNone
	}
	switch s.Status {
	case StatusSuspended:
		return BannerSuspended
	case StatusPastDue:
		return BannerPastDue
	}
	return BannerNone
}

var ErrOutstandingMismatch = errors.New("outstanding balance does not match the ledger")

// Validate checks the ledger invariant: outstanding equals total fees minus
// what was auto collected, and is never negative.
func (s *Summary) Validate() (err error) {
	total := s.TotalFeesZec.Zatoshis()
	collected := s.AutoCollectedZec.Zatoshis()
	if collected > total {
		return fmt.Errorf("%w: collected %d exceeds total %d", ErrOutstandingMismatch, collected, total)
	}
	if s.OutstandingZec.Zatoshis() != total-collected {
		return fmt.Errorf("%w: outstanding %d != %d - %d", ErrOutstandingMismatch, s.OutstandingZec.Zatoshis(), total, collected)
	}
	return nil
}
