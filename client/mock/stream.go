package mock

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"cipherpay.onion/checkout/invoice"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

var ErrUnknownInvoice = errors.New("invoice not found")

// Emit applies a delta to the stored invoice and broadcasts it to every open
// stream, exactly as the scanner side of the backend would.
func (s *Server) Emit(id string, delta invoice.Delta) (err error) {
	payload, err := json.Marshal(&delta)
	if err != nil {
		return fmt.Errorf("failed to marshal delta: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return ErrUnknownInvoice
	}
	err = inv.Apply(delta)
	if err != nil {
		return fmt.Errorf("failed to apply delta: %w", err)
	}
	s.broadcast(id, string(payload))
	return nil
}

// EmitRaw broadcasts an arbitrary payload without touching the stored
// invoice. Used to script malformed events.
func (s *Server) EmitRaw(id, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast(id, payload)
}

// Pay scripts payment progress: amounts inside the matching band detect the
// invoice, anything below with funds attached marks it underpaid.
func (s *Server) Pay(id string, zatoshis uint64, txid string) (err error) {
	s.mu.Lock()
	inv, ok := s.invoices[id]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownInvoice
	}
	received := inv.ReceivedZatoshis + zatoshis
	price := inv.PriceZatoshis
	s.mu.Unlock()

	status := invoice.StatusUnderpaid
	if invoice.WithinTolerance(received, price) {
		status = invoice.StatusDetected
	}
	return s.Emit(id, invoice.Delta{
		Status:           status,
		Txid:             txid,
		ReceivedZatoshis: &received,
	})
}

func (s *Server) Confirm(id string) (err error) {
	return s.Emit(id, invoice.Delta{Status: invoice.StatusConfirmed})
}

func (s *Server) Expire(id string) (err error) {
	return s.Emit(id, invoice.Delta{Status: invoice.StatusExpired})
}

// transition is the REST side of Emit, ignoring broadcast errors.
func (s *Server) transition(id string, delta invoice.Delta) (err error) {
	return s.Emit(id, delta)
}

// Subscribers reports how many streams are currently open for an invoice.
// Tests use it to wait for a subscription before scripting events.
func (s *Server) Subscribers(id string) (count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers[id])
}

func (s *Server) broadcast(id, payload string) {
	for _, subscriber := range s.subscribers[id] {
		select {
		case subscriber <- payload:
		default:
			// Slow consumer, drop; the snapshot endpoint remains authoritative
		}
	}
}

func (s *Server) streamInvoice(ctx *gin.Context) {
	s.mu.Lock()
	_, ok := s.invoices[ctx.Param("id")]
	if !ok {
		s.mu.Unlock()
		ctx.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	events := make(chan string, 16)
	id := ctx.Param("id")
	s.subscribers[id] = append(s.subscribers[id], events)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subscribers := s.subscribers[id]
		for index, subscriber := range subscribers {
			if subscriber == events {
				s.subscribers[id] = append(subscribers[:index], subscribers[index+1:]...)
				break
			}
		}
	}()

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Writer.Flush()

	for {
		select {
		case payload := <-events:
			err := sse.Encode(ctx.Writer, sse.Event{
				Event: "status",
				Data:  payload,
			})
			if err != nil {
				return
			}
			ctx.Writer.Flush()
		case <-ctx.Request.Context().Done():
			return
		}
	}
}
