package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"cardpro/internal/domain"
)

// StatsRepositoryPG implements domain.StatsRepository using PostgreSQL.
type StatsRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepositoryPG {
	return &StatsRepositoryPG{pool: pool}
}

// Summary returns aggregated counters for the admin surface.
func (r *StatsRepositoryPG) Summary(ctx context.Context) (*domain.Stats, error) {
	row := r.pool.QueryRow(ctx, `
SELECT
    (SELECT COUNT(*) FROM users),
    (SELECT COUNT(*) FROM users WHERE plan <> 'free'),
    (SELECT COUNT(*) FROM generations WHERE created_at >= date_trunc('day', now())),
    (SELECT COUNT(*) FROM generations),
    (SELECT COALESCE(SUM(tokens_in), 0) FROM generations),
    (SELECT COALESCE(SUM(tokens_out), 0) FROM generations),
    (SELECT COUNT(*) FROM users WHERE referred_by IS NOT NULL)
`)

	var s domain.Stats
	if err := row.Scan(
		&s.TotalUsers,
		&s.PaidUsers,
		&s.TodayGens,
		&s.TotalGens,
		&s.TotalTokensIn,
		&s.TotalTokensOut,
		&s.TotalReferrals,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
