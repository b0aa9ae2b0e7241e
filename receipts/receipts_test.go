package receipts_test

import (
	"testing"
	"time"

	"cipherpay.onion/checkout/invoice"
	"cipherpay.onion/checkout/receipts"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
)

func openStore(t *testing.T) (store *receipts.Store) {
	options := badger.
		DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	db, err := badger.Open(options)
	assert.New(t).Nil(err, "failed to open database")
	t.Cleanup(func() { db.Close() })
	return receipts.New(db)
}

func Test_Store(t *testing.T) {
	t.Run("SaveAndGet", func(t *testing.T) {
		assertions := assert.New(t)

		store := openStore(t)
		inv := invoice.Invoice{
			Id:            "inv-1",
			MemoCode:      "A1B2C3",
			Status:        invoice.StatusPending,
			PriceZatoshis: 14_285_714,
			ExpiresAt:     time.Now().Add(30 * time.Minute).UTC(),
		}
		assertions.Nil(store.Save(inv), "failed to save receipt")

		loaded, err := store.Get("inv-1")
		assertions.Nil(err, "failed to load receipt")
		assertions.Equal(inv.MemoCode, loaded.MemoCode, "unexpected memo code")
		assertions.Equal(inv.PriceZatoshis, loaded.PriceZatoshis, "unexpected price")

		// The latest state wins
		inv.Status = invoice.StatusConfirmed
		inv.ReceivedZatoshis = 14_285_714
		assertions.Nil(store.Save(inv), "failed to overwrite receipt")
		loaded, err = store.Get("inv-1")
		assertions.Nil(err, "failed to reload receipt")
		assertions.Equal(invoice.StatusConfirmed, loaded.Status, "snapshot should be the latest state")
	})
	t.Run("NotFound", func(t *testing.T) {
		assertions := assert.New(t)

		store := openStore(t)
		_, err := store.Get("missing")
		assertions.ErrorIs(err, receipts.ErrReceiptNotFound, "missing receipt must be reported")
	})
	t.Run("List", func(t *testing.T) {
		assertions := assert.New(t)

		store := openStore(t)
		for _, id := range []string{"inv-1", "inv-2", "inv-3"} {
			assertions.Nil(store.Save(invoice.Invoice{Id: id, Status: invoice.StatusConfirmed}), "failed to save")
		}

		invoices, err := store.List()
		assertions.Nil(err, "failed to list receipts")
		assertions.Len(invoices, 3, "unexpected receipt count")
	})
}
