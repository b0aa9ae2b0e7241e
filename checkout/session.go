// Package checkout owns the live view of a single invoice: one snapshot, at
// most one event stream, and a guaranteed teardown on every exit path.
package checkout

import (
	"context"
	"fmt"
	"log"
	"sync"

	"cipherpay.onion/checkout/client"
	"cipherpay.onion/checkout/invoice"
	"cipherpay.onion/checkout/receipts"
)

type Config struct {
	Client *client.Client
	// Optional store of last known snapshots
	Store *receipts.Store
	// OnChange receives a copy of the invoice after every applied delta
	OnChange func(inv invoice.Invoice)
}

// Session is owned by exactly one view at a time. Switching invoices means
// closing this session and opening a new one; two sessions never share a
// stream.
type Session struct {
	client   *client.Client
	store    *receipts.Store
	onChange func(inv invoice.Invoice)

	mu      sync.Mutex
	invoice invoice.Invoice
	sub     *client.Subscription
	closed  bool
}

// Open loads the invoice snapshot and, unless the invoice is already
// terminal, subscribes to its event stream. A failed stream open is not
// fatal: the session falls back to the snapshot and the user can reload.
func Open(ctx context.Context, config Config, id string) (s *Session, err error) {
	inv, err := config.Client.Invoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	s = &Session{
		client:   config.Client,
		store:    config.Store,
		onChange: config.OnChange,
		invoice:  inv,
	}
	s.persist(inv)

	if inv.Status.Terminal() {
		return s, nil
	}

	sub, err := config.Client.Subscribe(ctx, id, s.apply)
	if err != nil {
		log.Println("falling back to snapshot only:", err)
		return s, nil
	}
	s.mu.Lock()
	if s.closed {
		// Closed while subscribing; release immediately
		s.mu.Unlock()
		sub.Close()
		return s, nil
	}
	s.sub = sub
	s.mu.Unlock()
	return s, nil
}

func (s *Session) apply(delta invoice.Delta) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	err := s.invoice.Apply(delta)
	if err != nil {
		s.mu.Unlock()
		log.Println("dropping delta:", err)
		return
	}
	snapshot := s.invoice
	s.mu.Unlock()

	s.persist(snapshot)
	if s.onChange != nil {
		s.onChange(snapshot)
	}
}

func (s *Session) persist(inv invoice.Invoice) {
	if s.store == nil {
		return
	}
	err := s.store.Save(inv)
	if err != nil {
		log.Println("failed to persist receipt:", err)
	}
}

// Invoice returns a copy of the current state.
func (s *Session) Invoice() (inv invoice.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoice
}

// SaveRefundAddress validates locally and forwards to the backend. On
// failure the local state stays unchanged and the error is surfaced as a
// dismissible notice by the caller.
func (s *Session) SaveRefundAddress(ctx context.Context, address string) (err error) {
	s.mu.Lock()
	inv := s.invoice
	s.mu.Unlock()

	if !inv.RefundAddressMutable() {
		return invoice.ErrRefundNotOpen
	}
	err = s.client.SaveRefundAddress(ctx, inv.Id, address)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.invoice.RefundAddress = address
	inv = s.invoice
	s.mu.Unlock()
	s.persist(inv)
	return nil
}

// Cancel asks the backend to cancel the invoice. The local state only moves
// when the backend streams the resulting transition.
func (s *Session) Cancel(ctx context.Context) (err error) {
	s.mu.Lock()
	id := s.invoice.Id
	s.mu.Unlock()
	return s.client.Cancel(ctx, id)
}

// Close releases the stream. Safe to call more than once and required on
// every exit path, including invoice switches.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}
