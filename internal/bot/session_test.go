package bot

import (
	"sync"
	"testing"
	"time"
)

func TestSessionStoreExpiry(t *testing.T) {
	s := NewSessionStore(30 * time.Minute)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.Put(1, Session{State: StateEnteringProduct, ProductName: "mug"})

	if got := s.Get(1); got.State != StateEnteringProduct {
		t.Fatalf("session = %+v, want stored state", got)
	}

	s.now = func() time.Time { return base.Add(31 * time.Minute) }
	if got := s.Get(1); got.State != StateIdle {
		t.Fatalf("expired session = %+v, want zero session", got)
	}
}

func TestSessionStorePrune(t *testing.T) {
	s := NewSessionStore(30 * time.Minute)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	for i := int64(0); i <= sessionPruneThreshold; i++ {
		s.Put(i, Session{State: StateResult})
	}

	// All entries have now aged out; the next Put sweeps them.
	s.now = func() time.Time { return base.Add(time.Hour) }
	s.Put(9999, Session{State: StateResult})

	s.mu.Lock()
	n := len(s.sessions)
	s.mu.Unlock()
	if n != 1 {
		t.Fatalf("store holds %d sessions after prune, want 1", n)
	}
}

func TestThrottleIntervals(t *testing.T) {
	th := NewThrottle(time.Second, 500*time.Millisecond)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return base }

	if !th.Allow(1, false) {
		t.Fatalf("first message must pass")
	}
	if th.Allow(1, false) {
		t.Fatalf("immediate repeat must be dropped")
	}

	th.now = func() time.Time { return base.Add(600 * time.Millisecond) }
	if th.Allow(1, false) {
		t.Fatalf("message under the 1s interval must be dropped")
	}
	if !th.Allow(1, true) {
		t.Fatalf("button press after 600ms must pass")
	}

	th.now = func() time.Time { return base.Add(2 * time.Second) }
	if !th.Allow(1, false) {
		t.Fatalf("message after the interval must pass")
	}

	// Other users are unaffected.
	if !th.Allow(2, false) {
		t.Fatalf("independent user must pass")
	}
}

func TestUserLocksSerializeAndShrink(t *testing.T) {
	l := newUserLocks()

	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(42)
			defer unlock()
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxActive)
	}

	l.mu.Lock()
	n := len(l.locks)
	l.mu.Unlock()
	if n != 0 {
		t.Fatalf("lock map holds %d entries after release, want 0", n)
	}
}
