// Package notify runs the background sweep that nudges users who have
// gone quiet.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardpro/internal/bot"
	"cardpro/internal/domain"
	"cardpro/internal/infra"
)

func reminderText(freeDailyLimit int) string {
	return fmt.Sprintf(`Been a while!

Your product listings miss you. Reminder: the free plan gives you %d listings every day.

Come back and create one — it takes under a minute.`, freeDailyLimit)
}

// Sweeper periodically finds users inactive past the threshold and sends
// each of them one reminder. A user is reminded at most once per quiet
// episode; any activity re-arms the reminder.
type Sweeper struct {
	users          domain.UserRepository
	sender         bot.Sender
	interval       time.Duration
	inactiveAfter  time.Duration
	freeDailyLimit int
	logger         infra.Logger
	now            func() time.Time
}

// NewSweeper wires a sweeper. interval is how often the sweep runs,
// inactiveAfter is how long a user must be quiet before the reminder.
func NewSweeper(users domain.UserRepository, sender bot.Sender, interval, inactiveAfter time.Duration, freeDailyLimit int, logger infra.Logger) *Sweeper {
	return &Sweeper{
		users:          users,
		sender:         sender,
		interval:       interval,
		inactiveAfter:  inactiveAfter,
		freeDailyLimit: freeDailyLimit,
		logger:         logger,
		now:            time.Now,
	}
}

// Run sweeps on a ticker until ctx is canceled. The first sweep happens
// after one full interval, not at startup, so a deploy does not blast
// reminders while the process is still warming up.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("notify: sweep failed")
			}
		}
	}
}

// SweepOnce processes one batch of overdue users. Every listed user is
// marked notified regardless of delivery outcome; a failed send is not
// retried until the user becomes active and quiet again.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	cutoff := s.now().Add(-s.inactiveAfter)
	users, err := s.users.ListInactiveSince(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list inactive: %w", err)
	}
	if len(users) == 0 {
		return nil
	}

	text := reminderText(s.freeDailyLimit)
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
		if err := s.sender.Send(ctx, u.ID, text, nil); err != nil {
			if errors.Is(err, domain.ErrDeliveryBlocked) {
				if err := s.users.MarkBlocked(ctx, u.ID); err != nil {
					s.logger.Warn().Err(err).Int64("user_id", u.ID).Msg("notify: mark blocked failed")
				}
				continue
			}
			s.logger.Warn().Err(err).Int64("user_id", u.ID).Msg("notify: reminder send failed")
		}
	}

	if err := s.users.MarkInactiveNotified(ctx, ids); err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	s.logger.Info().Int("count", len(ids)).Msg("notify: reminders sent")
	return nil
}
