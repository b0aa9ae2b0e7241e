// Package receipts keeps the last known snapshot of every invoice this
// terminal touched, so a receipt can be looked up after a reload or while the
// backend is unreachable.
package receipts

import (
	"errors"
	"fmt"

	"cipherpay.onion/checkout/invoice"
	badger "github.com/dgraph-io/badger/v4"
)

var ErrReceiptNotFound = errors.New("receipt not found")

var receiptPrefix = []byte("/receipts/")

func ReceiptKey(id string) (key []byte) {
	return []byte(fmt.Sprintf("/receipts/%s", id))
}

type Store struct {
	db *badger.DB
}

func New(db *badger.DB) (s *Store) {
	return &Store{db: db}
}

// Save overwrites the stored snapshot with the latest known state.
func (s *Store) Save(inv invoice.Invoice) (err error) {
	err = s.db.Update(func(txn *badger.Txn) (err error) {
		err = txn.Set(ReceiptKey(inv.Id), inv.Bytes())
		if err != nil {
			return fmt.Errorf("failed to set receipt: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	return nil
}

func (s *Store) Get(id string) (inv invoice.Invoice, err error) {
	err = s.db.View(func(txn *badger.Txn) (err error) {
		entry, err := txn.Get(ReceiptKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrReceiptNotFound
			}
			return fmt.Errorf("failed to query existing receipt: %w", err)
		}

		err = entry.Value(func(val []byte) (err error) {
			err = inv.FromBytes(val)
			if err != nil {
				return fmt.Errorf("failed to unmarshal receipt: %w", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to retrieve value: %w", err)
		}
		return nil
	})
	if err != nil {
		return inv, fmt.Errorf("failed to query receipt: %w", err)
	}
	return inv, nil
}

// List returns every stored snapshot. Intended for the terminal's recent
// receipts view; the set stays small because invoices are short lived.
func (s *Store) List() (invoices []invoice.Invoice, err error) {
	err = s.db.View(func(txn *badger.Txn) (err error) {
		options := badger.DefaultIteratorOptions
		options.Prefix = receiptPrefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(receiptPrefix); it.Next() {
			var inv invoice.Invoice
			err = it.Item().Value(func(val []byte) (err error) {
				err = inv.FromBytes(val)
				if err != nil {
					return fmt.Errorf("failed to unmarshal receipt: %w", err)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to retrieve value: %w", err)
			}
			invoices = append(invoices, inv)
		}
		return nil
	})
	if err != nil {
		return invoices, fmt.Errorf("failed to list receipts: %w", err)
	}
	return invoices, nil
}
