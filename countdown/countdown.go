package countdown

import (
	"fmt"
	"sync"
	"time"
)

// ExpiredText is the terminal display value once the deadline passed.
const ExpiredText = "EXPIRED"

// Remaining renders the time left until expiresAt as M:SS. At and after the
// deadline it returns ExpiredText with expired set.
func Remaining(now, expiresAt time.Time) (text string, expired bool) {
	diff := expiresAt.Sub(now)
	if diff <= 0 {
		return ExpiredText, true
	}
	minutes := int(diff / time.Minute)
	seconds := int(diff % time.Minute / time.Second)
	return fmt.Sprintf("%d:%02d", minutes, seconds), false
}

// Ticker recomputes the remaining time from the wall clock once per second
// and reports it through the callback. Deriving from the clock instead of
// decrementing a counter makes background suspension self correcting. Once
// expired it reports ExpiredText a final time and stops ticking.
type Ticker struct {
	expiresAt time.Time
	interval  time.Duration
	now       func() time.Time
	onTick    func(text string, expired bool)
	stop      chan struct{}
	once      sync.Once
}

type Config struct {
	ExpiresAt time.Time
	// OnTick receives every recomputed value, including the terminal one
	OnTick func(text string, expired bool)
	// Interval defaults to one second
	Interval time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

// New builds a ticker for a single expiry. A new invoice means a new expiry
// and therefore a new ticker.
func New(config Config) (t *Ticker) {
	t = &Ticker{
		expiresAt: config.ExpiresAt,
		interval:  config.Interval,
		now:       config.Now,
		onTick:    config.OnTick,
		stop:      make(chan struct{}),
	}
	if t.interval <= 0 {
		t.interval = time.Second
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// Start ticks until the deadline passes or Stop is called. It reports the
// current value immediately so the caller never renders an empty countdown.
func (t *Ticker) Start() {
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			text, expired := Remaining(t.now(), t.expiresAt)
			select {
			case <-t.stop:
				return
			default:
			}
			t.onTick(text, expired)
			if expired {
				return
			}

			select {
			case <-ticker.C:
			case <-t.stop:
				return
			}
		}
	}()
}

// Stop is idempotent and safe to call from any exit path.
func (t *Ticker) Stop() {
	t.once.Do(func() {
		close(t.stop)
	})
}
