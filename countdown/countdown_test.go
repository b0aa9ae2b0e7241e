package countdown_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"cipherpay.onion/checkout/countdown"
	"github.com/stretchr/testify/assert"
)

func Test_Remaining(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	type Test struct {
		Offset  time.Duration
		Text    string
		Expired bool
	}
	tests := []Test{
		{Offset: 90 * time.Second, Text: "1:30"},
		{Offset: 61 * time.Second, Text: "1:01"},
		{Offset: 60 * time.Second, Text: "1:00"},
		{Offset: 30 * time.Minute, Text: "30:00"},
		{Offset: 9 * time.Second, Text: "0:09"},
		{Offset: 0, Text: countdown.ExpiredText, Expired: true},
		{Offset: -5 * time.Second, Text: countdown.ExpiredText, Expired: true},
	}
	for _, test := range tests {
		name, _ := json.Marshal(test)
		t.Run(string(name), func(t *testing.T) {
			assertions := assert.New(t)

			text, expired := countdown.Remaining(now, now.Add(test.Offset))
			assertions.Equal(test.Text, text, "unexpected text")
			assertions.Equal(test.Expired, expired, "unexpected expired flag")
		})
	}

	t.Run("MidwayThrough90s", func(t *testing.T) {
		assertions := assert.New(t)

		// ~30s into a 90s window the display reads 1:0X
		expiresAt := now.Add(90 * time.Second)
		text, expired := countdown.Remaining(now.Add(30*time.Second+200*time.Millisecond), expiresAt)
		assertions.False(expired, "should not be expired yet")
		assertions.Regexp(`^1:0\d$`, text, "unexpected midway text")
	})
}

func Test_Ticker(t *testing.T) {
	t.Run("ExpiresAndStays", func(t *testing.T) {
		assertions := assert.New(t)

		start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
		var mu sync.Mutex
		current := start
		advance := func(d time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			current = current.Add(d)
		}
		now := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return current
		}

		var seenMu sync.Mutex
		var seen []string
		var first sync.Once
		firstTick := make(chan struct{})
		done := make(chan struct{})
		ticker := countdown.New(countdown.Config{
			ExpiresAt: start.Add(2 * time.Second),
			Interval:  time.Millisecond,
			Now:       now,
			OnTick: func(text string, expired bool) {
				seenMu.Lock()
				seen = append(seen, text)
				seenMu.Unlock()
				first.Do(func() { close(firstTick) })
				if expired {
					close(done)
				}
			},
		})
		ticker.Start()
		defer ticker.Stop()

		select {
		case <-firstTick:
		case <-time.After(5 * time.Second):
			t.Fatal("ticker never ticked")
		}
		advance(3 * time.Second)

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("ticker never expired")
		}
		// Let any extra tick happen; there must be none after EXPIRED
		time.Sleep(20 * time.Millisecond)

		seenMu.Lock()
		defer seenMu.Unlock()
		assertions.NotEmpty(seen, "ticker never ticked")
		assertions.Equal("0:02", seen[0], "first tick should show the full window")
		assertions.Equal(countdown.ExpiredText, seen[len(seen)-1], "must end expired")
		for index, text := range seen {
			if text == countdown.ExpiredText {
				assertions.Equal(len(seen)-1, index, "no ticks may follow the terminal state")
			}
		}
	})
	t.Run("StopIsIdempotent", func(t *testing.T) {
		ticker := countdown.New(countdown.Config{
			ExpiresAt: time.Now().Add(time.Hour),
			OnTick:    func(string, bool) {},
		})
		ticker.Start()
		ticker.Stop()
		ticker.Stop()
	})
}
