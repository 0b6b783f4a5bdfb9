package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardpro/internal/domain"
)

// GenerationRepositoryPG implements domain.GenerationRepository backed by PostgreSQL.
type GenerationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGenerationRepository creates a new GenerationRepositoryPG.
func NewGenerationRepository(pool *pgxpool.Pool) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{pool: pool}
}

const genColumns = `id, user_id, marketplace, category, product_name, result_text, tokens_in, tokens_out, created_at`

// Insert appends one completed generation to the log.
func (r *GenerationRepositoryPG) Insert(ctx context.Context, gen *domain.Generation) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO generations (id, user_id, marketplace, category, product_name, result_text, tokens_in, tokens_out)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`,
		gen.ID,
		gen.UserID,
		gen.Marketplace,
		gen.Category,
		gen.ProductName,
		gen.ResultText,
		gen.TokensIn,
		gen.TokensOut,
	)
	return err
}

// CountSince counts every record created at or after since, with or
// without stored result text.
func (r *GenerationRepositoryPG) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM generations WHERE user_id = $1 AND created_at >= $2
`, userID, since).Scan(&n)
	return n, err
}

// ListWithResult pages through browsable records, newest first.
func (r *GenerationRepositoryPG) ListWithResult(ctx context.Context, userID int64, limit, offset int) ([]domain.Generation, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+genColumns+`
FROM generations
WHERE user_id = $1 AND result_text <> ''
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gens []domain.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		gens = append(gens, *g)
	}
	return gens, rows.Err()
}

// CountWithResult counts browsable records for pagination.
func (r *GenerationRepositoryPG) CountWithResult(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM generations WHERE user_id = $1 AND result_text <> ''
`, userID).Scan(&n)
	return n, err
}

// GetByID fetches one record scoped to its owner.
func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id string, userID int64) (*domain.Generation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+genColumns+` FROM generations WHERE id = $1 AND user_id = $2`, id, userID)
	return scanGeneration(row)
}

func scanGeneration(row pgx.Row) (*domain.Generation, error) {
	var g domain.Generation
	if err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.Marketplace,
		&g.Category,
		&g.ProductName,
		&g.ResultText,
		&g.TokensIn,
		&g.TokensOut,
		&g.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}
