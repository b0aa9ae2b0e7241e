package billing_test

import (
	"encoding/json"
	"testing"

	"cipherpay.onion/checkout/billing"
	"cipherpay.onion/checkout/money"
	"github.com/stretchr/testify/assert"
)

func decimal(t *testing.T, s string) (d money.Decimal) {
	err := d.FromString(s)
	assert.New(t).Nil(err, "bad fixture %q", s)
	return d
}

func Test_Banner(t *testing.T) {
	type Test struct {
		FeeEnabled bool
		Status     billing.Status
		Expect     billing.Banner
	}
	tests := []Test{
		{FeeEnabled: true, Status: billing.StatusActive, Expect: billing.BannerNone},
		{FeeEnabled: true, Status: billing.StatusPastDue, Expect: billing.BannerPastDue},
		{FeeEnabled: true, Status: billing.StatusSuspended, Expect: billing.BannerSuspended},
		{FeeEnabled: false, Status: billing.StatusSuspended, Expect: billing.BannerNone},
		{FeeEnabled: false, Status: billing.StatusPastDue, Expect: billing.BannerNone},
	}
	for _, test := range tests {
		name, _ := json.Marshal(test)
		t.Run(string(name), func(t *testing.T) {
			assertions := assert.New(t)

			summary := billing.Summary{FeeEnabled: test.FeeEnabled, Status: test.Status}
			assertions.Equal(test.Expect, summary.Banner(), "unexpected banner")
		})
	}
}

func Test_Validate(t *testing.T) {
	t.Run("Succeed", func(t *testing.T) {
		assertions := assert.New(t)

		summary := billing.Summary{
			TotalFeesZec:     decimal(t, "0.325"),
			AutoCollectedZec: decimal(t, "0.125"),
			OutstandingZec:   decimal(t, "0.2"),
		}
		assertions.Nil(summary.Validate(), "ledger invariant should hold")
	})
	t.Run("Mismatch", func(t *testing.T) {
		assertions := assert.New(t)

		summary := billing.Summary{
			TotalFeesZec:     decimal(t, "0.325"),
			AutoCollectedZec: decimal(t, "0.125"),
			OutstandingZec:   decimal(t, "0.3"),
		}
		assertions.ErrorIs(summary.Validate(), billing.ErrOutstandingMismatch, "mismatch must be detected")
	})
	t.Run("NegativeOutstanding", func(t *testing.T) {
		assertions := assert.New(t)

		summary := billing.Summary{
			TotalFeesZec:     decimal(t, "0.1"),
			AutoCollectedZec: decimal(t, "0.2"),
			OutstandingZec:   decimal(t, "0"),
		}
		assertions.ErrorIs(summary.Validate(), billing.ErrOutstandingMismatch, "negative outstanding must be rejected")
	})
}

func Test_Tiers(t *testing.T) {
	assertions := assert.New(t)

	assertions.Greater(billing.TierTrusted.Rank(), billing.TierStandard.Rank(), "trusted outranks standard")
	assertions.Greater(billing.TierStandard.Rank(), billing.TierNew.Rank(), "standard outranks new")
}
