package months

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hrpanel/hrpanel/internal/platform/db"
)

const periodColumns = `id, year, month, is_open, opened_at, closed_at, COALESCE(notes, ''), created_at`

// Repository persists periods in the months table.
type Repository struct {
	db db.Querier
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// Create inserts a closed period.
func (r *Repository) Create(ctx context.Context, year, month int, notes string) (Period, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO months (year, month, is_open, notes)
VALUES ($1, $2, FALSE, NULLIF($3, ''))
RETURNING `+periodColumns, year, month, notes)
	p, err := scanPeriod(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Period{}, ErrDuplicatePeriod
		}
		return Period{}, fmt.Errorf("months: insert: %w", err)
	}
	return p, nil
}

// Get loads a period by id.
func (r *Repository) Get(ctx context.Context, id int64) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM months WHERE id = $1`, id))
	return p, mapRowErr("get", err)
}

// Exists reports whether a period for (year, month) exists.
func (r *Repository) Exists(ctx context.Context, year, month int) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM months WHERE year = $1 AND month = $2)`, year, month).Scan(&exists); err != nil {
		return false, fmt.Errorf("months: exists: %w", err)
	}
	return exists, nil
}

// MarkOpen flags the period open and clears closed_at.
func (r *Repository) MarkOpen(ctx context.Context, id int64, at time.Time) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `UPDATE months SET is_open = TRUE, opened_at = $2, closed_at = NULL
WHERE id = $1 RETURNING `+periodColumns, id, at))
	return p, mapRowErr("open", err)
}

// MarkClosed flags the period closed.
func (r *Repository) MarkClosed(ctx context.Context, id int64, at time.Time) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `UPDATE months SET is_open = FALSE, closed_at = $2
WHERE id = $1 RETURNING `+periodColumns, id, at))
	return p, mapRowErr("close", err)
}

// UpdateNotes replaces the notes of a period.
func (r *Repository) UpdateNotes(ctx context.Context, id int64, notes string) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `UPDATE months SET notes = NULLIF($2, '')
WHERE id = $1 RETURNING `+periodColumns, id, notes))
	return p, mapRowErr("update notes", err)
}

// ListOpen returns open periods ordered by year descending then month ascending.
func (r *Repository) ListOpen(ctx context.Context) ([]Period, error) {
	return r.list(ctx, `SELECT `+periodColumns+` FROM months WHERE is_open ORDER BY year DESC, month ASC`)
}

// ListAll returns every period, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Period, error) {
	return r.list(ctx, `SELECT `+periodColumns+` FROM months ORDER BY year DESC, month DESC`)
}

// IsOpen reports whether an open row exists for (year, month).
func (r *Repository) IsOpen(ctx context.Context, year, month int) (bool, error) {
	var open bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM months WHERE year = $1 AND month = $2 AND is_open)`, year, month).Scan(&open); err != nil {
		return false, fmt.Errorf("months: is open: %w", err)
	}
	return open, nil
}

func (r *Repository) list(ctx context.Context, sql string) ([]Period, error) {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("months: list: %w", err)
	}
	periods, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Period, error) {
		return scanPeriod(row)
	})
	if err != nil {
		return nil, fmt.Errorf("months: list: %w", err)
	}
	return periods, nil
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Year, &p.Month, &p.IsOpen, &p.OpenedAt, &p.ClosedAt, &p.Notes, &p.CreatedAt)
	return p, err
}

func mapRowErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("months: %s: %w", op, err)
}
