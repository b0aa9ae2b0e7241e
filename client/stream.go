package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"cipherpay.onion/checkout/invoice"
)

// Subscription owns one live event stream. Close is idempotent and must be
// called on every exit path; the stream also closes itself the moment a
// terminal status arrives, so no late delta can race a settled invoice.
type Subscription struct {
	cancel context.CancelFunc
	closed atomic.Bool
	once   sync.Once
	done   chan struct{}
}

// Close releases the stream. Events already in flight are dropped silently.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.cancel()
	})
}

// Done is closed once the reader goroutine finished.
func (s *Subscription) Done() (done <-chan struct{}) {
	return s.done
}

const streamEventName = "status"

// Subscribe opens the invoice's server sent event stream and delivers every
// well formed status delta to onEvent, in order, from a single goroutine.
// Malformed payloads are logged and dropped, never surfaced. Connection
// errors end the stream silently; the caller keeps its last known snapshot.
func (c *Client) Subscribe(ctx context.Context, id string, onEvent func(delta invoice.Delta)) (sub *Subscription, err error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseUrl+"/api/invoices/"+id+"/stream", nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to prepare stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
		}
		return nil, &Error{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	sub = &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		defer resp.Body.Close()

		var event, data string
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				sub.dispatch(event, data, onEvent)
				event, data = "", ""
			case strings.HasPrefix(line, ":"):
				// Heartbeat comment
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
			if sub.closed.Load() {
				return
			}
		}
		if err := scanner.Err(); err != nil && !sub.closed.Load() {
			// Swallowed: invoices are short lived and the view falls back to
			// its last known snapshot
			log.Println("invoice stream ended:", err)
		}
	}()
	return sub, nil
}

func (s *Subscription) dispatch(event, data string, onEvent func(delta invoice.Delta)) {
	if event != streamEventName || data == "" {
		return
	}
	if s.closed.Load() {
		return
	}

	var delta invoice.Delta
	err := json.Unmarshal([]byte(data), &delta)
	if err != nil {
		log.Println("dropping malformed stream event:", err)
		return
	}
	if delta.Status == "" {
		log.Println("dropping stream event without status")
		return
	}

	onEvent(delta)
	if delta.Status.Terminal() {
		s.Close()
	}
}
