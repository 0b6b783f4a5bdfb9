package bot

import (
	"sync"
	"time"
)

const (
	throttlePruneThreshold = 10000
	throttlePruneMaxAge    = 60 * time.Second
)

// Throttle drops per-user bursts so rapid double-submission cannot race
// the state machine. Messages and button presses have separate minimum
// intervals; anything arriving faster is silently discarded upstream of
// the dispatcher.
type Throttle struct {
	mu           sync.Mutex
	last         map[int64]time.Time
	messageEvery time.Duration
	buttonEvery  time.Duration
	now          func() time.Time
}

// NewThrottle builds a throttle with the given minimum intervals.
func NewThrottle(messageEvery, buttonEvery time.Duration) *Throttle {
	return &Throttle{
		last:         make(map[int64]time.Time),
		messageEvery: messageEvery,
		buttonEvery:  buttonEvery,
		now:          time.Now,
	}
}

// Allow reports whether this event may proceed and, if so, records it.
func (t *Throttle) Allow(userID int64, button bool) bool {
	interval := t.messageEvery
	if button {
		interval = t.buttonEvery
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[userID]; ok && now.Sub(last) < interval {
		return false
	}
	t.last[userID] = now

	if len(t.last) > throttlePruneThreshold {
		cutoff := now.Add(-throttlePruneMaxAge)
		for id, ts := range t.last {
			if ts.Before(cutoff) {
				delete(t.last, id)
			}
		}
	}
	return true
}
