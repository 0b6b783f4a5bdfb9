package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cardpro/internal/adapter/repo/memory"
	"cardpro/internal/bot"
	"cardpro/internal/domain"
)

type captureSender struct {
	mu      sync.Mutex
	blocked map[int64]bool
	sent    map[int64][]string
}

func newCaptureSender() *captureSender {
	return &captureSender{blocked: make(map[int64]bool), sent: make(map[int64][]string)}
}

func (c *captureSender) Send(_ context.Context, userID int64, text string, _ *bot.Keyboard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blocked[userID] {
		return domain.ErrDeliveryBlocked
	}
	c.sent[userID] = append(c.sent[userID], text)
	return nil
}

func seed(t *testing.T, users *memory.Users, id int64) {
	t.Helper()
	if _, err := users.Create(context.Background(), &domain.User{ID: id, ReferralCode: domain.ReferralCodeFor(id)}); err != nil {
		t.Fatalf("seed %d: %v", id, err)
	}
}

func TestSweepRemindsOverdueUsersOnce(t *testing.T) {
	users := memory.NewUsers()
	sender := newCaptureSender()
	sw := NewSweeper(users, sender, 6*time.Hour, 72*time.Hour, 3, zerolog.Nop())
	ctx := context.Background()

	seed(t, users, 1) // already flagged, must not be reminded again
	seed(t, users, 2) // overdue

	if err := users.MarkInactiveNotified(ctx, []int64{1}); err != nil {
		t.Fatalf("mark: %v", err)
	}

	// Sweep from a future clock so both users are past the threshold.
	sw.now = func() time.Time { return time.Now().Add(80 * time.Hour) }

	if err := sw.SweepOnce(ctx); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}

	if got := sender.sent[1]; len(got) != 0 {
		t.Fatalf("already-notified user reminded: %v", got)
	}
	msgs := sender.sent[2]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "3 listings every day") {
		t.Fatalf("reminder = %v", msgs)
	}

	// A second sweep finds nobody: user 2 is now flagged.
	if err := sw.SweepOnce(ctx); err != nil {
		t.Fatalf("second SweepOnce: %v", err)
	}
	if len(sender.sent[2]) != 1 {
		t.Fatalf("user reminded twice in one quiet episode")
	}
}

func TestSweepReArmsAfterActivity(t *testing.T) {
	users := memory.NewUsers()
	sender := newCaptureSender()
	sw := NewSweeper(users, sender, 6*time.Hour, 72*time.Hour, 3, zerolog.Nop())
	ctx := context.Background()

	seed(t, users, 3)
	sw.now = func() time.Time { return time.Now().Add(80 * time.Hour) }

	if err := sw.SweepOnce(ctx); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if len(sender.sent[3]) != 1 {
		t.Fatalf("first reminder missing")
	}

	// The user comes back, then goes quiet again.
	if err := users.TouchActivity(ctx, 3); err != nil {
		t.Fatalf("TouchActivity: %v", err)
	}
	sw.now = func() time.Time { return time.Now().Add(160 * time.Hour) }

	if err := sw.SweepOnce(ctx); err != nil {
		t.Fatalf("second SweepOnce: %v", err)
	}
	if len(sender.sent[3]) != 2 {
		t.Fatalf("reminder not re-armed after activity, got %d sends", len(sender.sent[3]))
	}
}

func TestSweepMarksBlockedRecipients(t *testing.T) {
	users := memory.NewUsers()
	sender := newCaptureSender()
	sw := NewSweeper(users, sender, 6*time.Hour, 72*time.Hour, 3, zerolog.Nop())
	ctx := context.Background()

	seed(t, users, 4)
	seed(t, users, 5)
	sender.blocked[4] = true
	sw.now = func() time.Time { return time.Now().Add(80 * time.Hour) }

	if err := sw.SweepOnce(ctx); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}

	// The blocked user is flagged and the rest of the batch still runs.
	u, err := users.GetByID(ctx, 4)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !u.Blocked {
		t.Fatalf("blocked recipient not flagged")
	}
	if len(sender.sent[5]) != 1 {
		t.Fatalf("batch stopped at the blocked user")
	}

	// Blocked users drop out of future sweeps entirely.
	if err := sw.SweepOnce(ctx); err != nil {
		t.Fatalf("second SweepOnce: %v", err)
	}
	if len(sender.sent[4]) != 0 {
		t.Fatalf("blocked user received a message")
	}
}
