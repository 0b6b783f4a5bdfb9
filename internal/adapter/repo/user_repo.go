package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardpro/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

const userColumns = `user_id, username, full_name, plan, sub_expires_at, referral_code, referred_by, referral_bonus_days, last_active_at, inactive_notified, is_blocked, created_at`

// Create inserts a new user row. The referral edge is written here and
// never mutated afterwards.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
INSERT INTO users (user_id, username, full_name, plan, referral_code, referred_by, last_active_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
RETURNING ` + userColumns + `;
`
	row := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.FullName,
		domain.PlanFree,
		user.ReferralCode,
		user.ReferredBy,
	)
	return scanUser(row)
}

// GetByID fetches a user by chat id.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id)
	return scanUser(row)
}

// GetByReferralCode fetches a user by their referral code.
func (r *UserRepositoryPG) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code)
	return scanUser(row)
}

// TouchActivity refreshes last_active_at and clears the inactivity flag.
func (r *UserRepositoryPG) TouchActivity(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_active_at = now(), inactive_notified = false WHERE user_id = $1`, id)
	return err
}

// SetSubscription overwrites plan and expiry unconditionally.
func (r *UserRepositoryPG) SetSubscription(ctx context.Context, id int64, plan domain.Plan, expiresAt *time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET plan = $2, sub_expires_at = $3 WHERE user_id = $1`, id, plan, expiresAt)
	return err
}

// ClearExpiredSubscription downgrades to free only while the stored expiry
// still matches the value the caller observed. Losing the race means
// another resolution already performed the identical downgrade.
func (r *UserRepositoryPG) ClearExpiredSubscription(ctx context.Context, id int64, seenExpiry time.Time) error {
	_, err := r.pool.Exec(ctx, `
UPDATE users SET plan = 'free', sub_expires_at = NULL
WHERE user_id = $1 AND sub_expires_at = $2
`, id, seenExpiry)
	return err
}

// AddReferralBonusDays bumps the informational bonus counter.
func (r *UserRepositoryPG) AddReferralBonusDays(ctx context.Context, id int64, days int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET referral_bonus_days = referral_bonus_days + $2 WHERE user_id = $1`, id, days)
	return err
}

// CountReferrals counts users referred by the given user.
func (r *UserRepositoryPG) CountReferrals(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE referred_by = $1`, id).Scan(&n)
	return n, err
}

// ListInactiveSince returns reminder candidates.
func (r *UserRepositoryPG) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+userColumns+`
FROM users
WHERE last_active_at < $1
  AND inactive_notified = false
  AND is_blocked = false
`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// MarkInactiveNotified flags the processed id set in one statement.
func (r *UserRepositoryPG) MarkInactiveNotified(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET inactive_notified = true WHERE user_id = ANY($1)`, ids)
	return err
}

// MarkBlocked records that the delivery channel rejected the user.
func (r *UserRepositoryPG) MarkBlocked(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET is_blocked = true WHERE user_id = $1`, id)
	return err
}

// ListBroadcastTargets returns ids of all non-blocked users.
func (r *UserRepositoryPG) ListBroadcastTargets(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM users WHERE is_blocked = false`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.FullName,
		&u.Plan,
		&u.SubExpiresAt,
		&u.ReferralCode,
		&u.ReferredBy,
		&u.ReferralBonusDays,
		&u.LastActiveAt,
		&u.InactiveNotified,
		&u.Blocked,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
