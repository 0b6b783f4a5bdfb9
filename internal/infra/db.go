package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDBPool initializes a new pgx connection pool using the provided configuration.
func NewDBPool(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return pool, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
	user_id             BIGINT PRIMARY KEY,
	username            TEXT NOT NULL DEFAULT '',
	full_name           TEXT NOT NULL DEFAULT '',
	plan                TEXT NOT NULL DEFAULT 'free',
	sub_expires_at      TIMESTAMPTZ,
	referral_code       TEXT NOT NULL UNIQUE,
	referred_by         BIGINT REFERENCES users(user_id),
	referral_bonus_days INT NOT NULL DEFAULT 0,
	last_active_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	inactive_notified   BOOLEAN NOT NULL DEFAULT false,
	is_blocked          BOOLEAN NOT NULL DEFAULT false,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS generations (
	id           UUID PRIMARY KEY,
	user_id      BIGINT NOT NULL REFERENCES users(user_id),
	marketplace  TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	product_name TEXT NOT NULL DEFAULT '',
	result_text  TEXT NOT NULL DEFAULT '',
	tokens_in    INT NOT NULL DEFAULT 0,
	tokens_out   INT NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_gen_user_date ON generations(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_users_referred_by ON users(referred_by)`,
}

// Migrate creates the durable tables on first boot. Statements are
// idempotent so repeated startups are safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
