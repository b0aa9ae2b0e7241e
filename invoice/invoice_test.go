package invoice_test

import (
	"encoding/json"
	"testing"

	_ "embed"

	"cipherpay.onion/checkout/invoice"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

//go:embed tests/deltas.yaml
var deltaTests []byte

func Test_Apply(t *testing.T) {
	t.Run("Succeed", func(t *testing.T) {
		assertions := assert.New(t)

		type Delta struct {
			Status           invoice.Status `yaml:"status"`
			Txid             string         `yaml:"txid"`
			ReceivedZatoshis *uint64        `yaml:"received-zatoshis"`
			PriceZatoshis    *uint64        `yaml:"price-zatoshis"`
		}
		type Expect struct {
			Status           invoice.Status `yaml:"status"`
			Txid             string         `yaml:"txid"`
			ReceivedZatoshis uint64         `yaml:"received-zatoshis"`
			PriceZatoshis    uint64         `yaml:"price-zatoshis"`
			ShowReceipt      bool           `yaml:"show-receipt"`
		}
		type Test struct {
			Name        string         `yaml:"name"`
			StartStatus invoice.Status `yaml:"start-status"`
			Deltas      []Delta        `yaml:"deltas"`
			Expect      Expect         `yaml:"expect"`
		}

		var tests []Test
		err := yaml.Unmarshal(deltaTests, &tests)
		assertions.Nil(err, "failed to load tests")

		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				assertions := assert.New(t)

				inv := invoice.Invoice{
					Id:            "inv-1",
					Status:        test.StartStatus,
					PriceZatoshis: 14_285_714,
				}
				for _, delta := range test.Deltas {
					err := inv.Apply(invoice.Delta{
						Status:           delta.Status,
						Txid:             delta.Txid,
						ReceivedZatoshis: delta.ReceivedZatoshis,
						PriceZatoshis:    delta.PriceZatoshis,
					})
					assertions.Nil(err, "failed to apply delta")
				}

				assertions.Equal(test.Expect.Status, inv.Status, "unexpected status")
				assertions.Equal(test.Expect.Txid, inv.DetectedTxid, "unexpected txid")
				assertions.Equal(test.Expect.ReceivedZatoshis, inv.ReceivedZatoshis, "unexpected received amount")
				if test.Expect.PriceZatoshis != 0 {
					assertions.Equal(test.Expect.PriceZatoshis, inv.PriceZatoshis, "unexpected price")
				}
				assertions.Equal(test.Expect.ShowReceipt, inv.ShowReceipt(), "unexpected receipt flag")
			})
		}
	})
	t.Run("MissingStatus", func(t *testing.T) {
		assertions := assert.New(t)

		inv := invoice.Invoice{Status: invoice.StatusPending, DetectedTxid: "keep"}
		err := inv.Apply(invoice.Delta{Txid: "drop"})
		assertions.ErrorIs(err, invoice.ErrMissingStatus, "malformed delta must be rejected")
		assertions.Equal(invoice.StatusPending, inv.Status, "status must be untouched")
		assertions.Equal("keep", inv.DetectedTxid, "txid must be untouched")
	})
	t.Run("UnknownFieldsIgnored", func(t *testing.T) {
		assertions := assert.New(t)

		var delta invoice.Delta
		err := json.Unmarshal([]byte(`{"status":"detected","txid":"ff","surprise":42}`), &delta)
		assertions.Nil(err, "unknown fields must not fail decoding")
		assertions.Equal(invoice.StatusDetected, delta.Status, "unexpected status")
	})
}

func Test_Tolerance(t *testing.T) {
	type Test struct {
		Received uint64
		Price    uint64
		Paid     bool
	}
	tests := []Test{
		{Received: 10_000, Price: 10_000, Paid: true},
		{Received: 9_950, Price: 10_000, Paid: true},
		{Received: 9_949, Price: 10_000, Paid: false},
		{Received: 10_050, Price: 10_000, Paid: true},
		{Received: 1, Price: 10_000, Paid: false},
		{Received: 0, Price: 10_000, Paid: false},
		{Received: 14_285_714, Price: 14_285_714, Paid: true},
		{Received: 0, Price: 0, Paid: false},
	}
	for _, test := range tests {
		name, _ := json.Marshal(test)
		t.Run(string(name), func(t *testing.T) {
			assertions := assert.New(t)
			assertions.Equal(test.Paid, invoice.WithinTolerance(test.Received, test.Price), "unexpected tolerance result")
		})
	}
}

func Test_Flags(t *testing.T) {
	t.Run("Overpaid", func(t *testing.T) {
		assertions := assert.New(t)

		inv := invoice.Invoice{Status: invoice.StatusConfirmed, PriceZatoshis: 100, ReceivedZatoshis: 120}
		assertions.True(inv.IsOverpaid(), "should be overpaid")
		assertions.Equal(uint64(0), inv.RemainingZatoshis(), "overpaid leaves nothing remaining")

		inv.PriceZatoshis = 0
		assertions.False(inv.IsOverpaid(), "zero price never counts as overpaid")
	})
	t.Run("Remaining", func(t *testing.T) {
		assertions := assert.New(t)

		inv := invoice.Invoice{Status: invoice.StatusUnderpaid, PriceZatoshis: 14_285_714, ReceivedZatoshis: 7_000_000}
		assertions.True(inv.IsUnderpaid(), "should be underpaid")
		assertions.Equal(uint64(7_285_714), inv.RemainingZatoshis(), "unexpected remaining")
		assertions.InDelta(0.07285714, inv.RemainingZec(), 1e-12, "unexpected remaining zec")
	})
	t.Run("Terminal", func(t *testing.T) {
		assertions := assert.New(t)

		for _, status := range []invoice.Status{invoice.StatusConfirmed, invoice.StatusExpired, invoice.StatusRefunded} {
			assertions.True(status.Terminal(), "%s should be terminal", status)
		}
		for _, status := range []invoice.Status{invoice.StatusPending, invoice.StatusUnderpaid, invoice.StatusDetected} {
			assertions.False(status.Terminal(), "%s should not be terminal", status)
		}
	})
	t.Run("Prices", func(t *testing.T) {
		assertions := assert.New(t)

		usd := 70.85
		inv := invoice.Invoice{PriceEur: 65, PriceUsd: &usd, Currency: "USD"}
		assertions.Equal("$70.85", inv.PrimaryPrice(), "unexpected primary price")
		assertions.Equal("€65.00", inv.SecondaryPrice(), "unexpected secondary price")

		inv.Currency = "EUR"
		assertions.Equal("€65.00", inv.PrimaryPrice(), "unexpected primary price")
		assertions.Equal("$70.85", inv.SecondaryPrice(), "unexpected secondary price")

		inv.PriceUsd = nil
		assertions.Empty(inv.SecondaryPrice(), "no secondary without usd price")
	})
}

func Test_Validate(t *testing.T) {
	t.Run("Address", func(t *testing.T) {
		assertions := assert.New(t)

		assertions.Nil(invoice.ValidateAddress("u1qwertyuiop"), "unified address should pass")
		assertions.Nil(invoice.ValidateAddress("zs1qwertyuiop"), "sapling address should pass")
		assertions.Nil(invoice.ValidateAddress("t1abc"), "transparent address should pass")
		assertions.ErrorIs(invoice.ValidateAddress("bc1qxyz"), invoice.ErrInvalidAddress, "bitcoin address should fail")
	})
	t.Run("RefundWindow", func(t *testing.T) {
		assertions := assert.New(t)

		for status, mutable := range map[invoice.Status]bool{
			invoice.StatusPending:   true,
			invoice.StatusConfirmed: true,
			invoice.StatusExpired:   true,
			invoice.StatusDetected:  false,
			invoice.StatusRefunded:  false,
		} {
			inv := invoice.Invoice{Status: status}
			assertions.Equal(mutable, inv.RefundAddressMutable(), "unexpected mutability for %s", status)
		}
	})
}
