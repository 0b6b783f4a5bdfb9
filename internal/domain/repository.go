package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	// TouchActivity refreshes last_active_at and clears the
	// inactivity-notified flag.
	TouchActivity(ctx context.Context, id int64) error
	SetSubscription(ctx context.Context, id int64, plan Plan, expiresAt *time.Time) error
	// ClearExpiredSubscription downgrades to free only while the stored
	// expiry still equals seenExpiry, so concurrent resolutions of the
	// same expired record stay idempotent.
	ClearExpiredSubscription(ctx context.Context, id int64, seenExpiry time.Time) error
	AddReferralBonusDays(ctx context.Context, id int64, days int) error
	CountReferrals(ctx context.Context, id int64) (int, error)
	// ListInactiveSince returns non-blocked, not-yet-notified users whose
	// last activity predates cutoff.
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]User, error)
	MarkInactiveNotified(ctx context.Context, ids []int64) error
	MarkBlocked(ctx context.Context, id int64) error
	ListBroadcastTargets(ctx context.Context) ([]int64, error)
}

// GenerationRepository defines persistence for the append-only generation log.
type GenerationRepository interface {
	Insert(ctx context.Context, gen *Generation) error
	// CountSince counts all records created at or after since, including
	// records without stored result text. Quota accounting depends on it.
	CountSince(ctx context.Context, userID int64, since time.Time) (int, error)
	// ListWithResult pages through records that carry result text,
	// newest first.
	ListWithResult(ctx context.Context, userID int64, limit, offset int) ([]Generation, error)
	CountWithResult(ctx context.Context, userID int64) (int, error)
	GetByID(ctx context.Context, id string, userID int64) (*Generation, error)
}

// StatsRepository aggregates counters for the admin surface.
type StatsRepository interface {
	Summary(ctx context.Context) (*Stats, error)
}
