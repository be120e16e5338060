package bonus

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hrpanel/hrpanel/internal/platform/db"
)

// Repository reads and writes the bonus_tiers and total_ranges tables.
type Repository struct {
	db db.Querier
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// ListTiers returns tiers ordered by min_sales ascending.
func (r *Repository) ListTiers(ctx context.Context) ([]Tier, error) {
	rows, err := r.db.Query(ctx, `SELECT min_sales, bonus_percent FROM bonus_tiers ORDER BY min_sales ASC`)
	if err != nil {
		return nil, fmt.Errorf("bonus: list tiers: %w", err)
	}
	tiers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Tier, error) {
		var t Tier
		err := row.Scan(&t.MinSales, &t.BonusPercent)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("bonus: list tiers: %w", err)
	}
	return tiers, nil
}

// UpsertTier inserts a tier or replaces the percent of an existing min_sales.
func (r *Repository) UpsertTier(ctx context.Context, t Tier) error {
	_, err := r.db.Exec(ctx, `INSERT INTO bonus_tiers (min_sales, bonus_percent) VALUES ($1, $2)
ON CONFLICT (min_sales) DO UPDATE SET bonus_percent = EXCLUDED.bonus_percent`, t.MinSales, t.BonusPercent)
	if err != nil {
		return fmt.Errorf("bonus: save tier: %w", err)
	}
	return nil
}

// DeleteTier removes the tier keyed by minSales.
func (r *Repository) DeleteTier(ctx context.Context, minSales decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bonus_tiers WHERE min_sales = $1`, minSales)
	if err != nil {
		return fmt.Errorf("bonus: delete tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRanges returns evaluation ranges ordered by min_value.
func (r *Repository) ListRanges(ctx context.Context) ([]EvaluationRange, error) {
	rows, err := r.db.Query(ctx, `SELECT id, min_value, max_value, amount FROM total_ranges ORDER BY min_value ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("bonus: list ranges: %w", err)
	}
	ranges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (EvaluationRange, error) {
		var er EvaluationRange
		err := row.Scan(&er.ID, &er.MinValue, &er.MaxValue, &er.Amount)
		return er, err
	})
	if err != nil {
		return nil, fmt.Errorf("bonus: list ranges: %w", err)
	}
	return ranges, nil
}

// InsertRange stores a new evaluation range.
func (r *Repository) InsertRange(ctx context.Context, er EvaluationRange) (EvaluationRange, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO total_ranges (min_value, max_value, amount) VALUES ($1, $2, $3) RETURNING id`,
		er.MinValue, er.MaxValue, er.Amount).Scan(&er.ID)
	if err != nil {
		return EvaluationRange{}, fmt.Errorf("bonus: insert range: %w", err)
	}
	return er, nil
}

// DeleteRange removes an evaluation range.
func (r *Repository) DeleteRange(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM total_ranges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bonus: delete range: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
