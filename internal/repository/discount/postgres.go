package discount

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "discount").Logger()}
}

const selectColumns = `id::text, code, title, percentage::text, usage_limit, starts_at, ends_at, COALESCE(backend_id, ''), created_at`

func (r *postgresRepo) Create(ctx context.Context, d domain.IssuedDiscount) (*domain.IssuedDiscount, error) {
	q := `
INSERT INTO issued_discounts (code, title, percentage, usage_limit, starts_at, ends_at, backend_id)
VALUES ($1, $2, $3::numeric, $4, $5, $6, NULLIF($7, ''))
RETURNING ` + selectColumns

	out, err := scanDiscount(r.pool.QueryRow(ctx, q, d.Code, d.Title, d.Percentage.String(), d.UsageLimit, d.StartsAt, d.EndsAt, d.BackendID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error().Err(err).Str("code", d.Code).Msg("create issued discount")
		return nil, err
	}
	r.logger.Debug().Str("code", out.Code).Str("id", out.ID).Msg("issued discount recorded")
	return out, nil
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.IssuedDiscount, error) {
	q := `SELECT ` + selectColumns + ` FROM issued_discounts WHERE code = $1`
	out, err := scanDiscount(r.pool.QueryRow(ctx, q, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("code", code).Msg("get issued discount")
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) ListRecent(ctx context.Context, limit int) ([]domain.IssuedDiscount, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + selectColumns + ` FROM issued_discounts ORDER BY created_at DESC, code LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("list issued discounts")
		return nil, err
	}
	defer rows.Close()

	var result []domain.IssuedDiscount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("list issued discounts rows")
		return nil, err
	}
	return result, nil
}

func scanDiscount(row pgx.Row) (*domain.IssuedDiscount, error) {
	var d domain.IssuedDiscount
	var pct string
	if err := row.Scan(&d.ID, &d.Code, &d.Title, &pct, &d.UsageLimit, &d.StartsAt, &d.EndsAt, &d.BackendID, &d.CreatedAt); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(pct)
	if err != nil {
		return nil, fmt.Errorf("decode percentage %q: %w", pct, err)
	}
	d.Percentage = p
	return &d, nil
}
