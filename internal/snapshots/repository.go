package snapshots

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hrpanel/hrpanel/internal/platform/db"
	"github.com/hrpanel/hrpanel/internal/shared"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS store_management_snapshots (
	id UUID PRIMARY KEY,
	snapshot_date DATE NOT NULL,
	snapshot_month DATE NOT NULL,
	shop_id BIGINT NOT NULL,
	shop_name TEXT NOT NULL,
	shop_location TEXT NOT NULL DEFAULT '',
	manager_id BIGINT,
	manager_name TEXT,
	manager_recruitment_date DATE,
	manager_end_date DATE,
	manager_recommender TEXT,
	manager_position TEXT,
	assistant_id BIGINT,
	assistant_name TEXT,
	assistant_recruitment_date DATE,
	assistant_end_date DATE,
	assistant_position TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (snapshot_month, shop_id)
)`,
	`CREATE INDEX IF NOT EXISTS store_management_snapshots_date_idx ON store_management_snapshots (snapshot_date)`,
	`CREATE OR REPLACE FUNCTION store_management_snapshots_set_id() RETURNS trigger AS $$
BEGIN
	IF NEW.id IS NULL THEN
		NEW.id := gen_random_uuid();
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS store_management_snapshots_id ON store_management_snapshots`,
	`CREATE TRIGGER store_management_snapshots_id BEFORE INSERT ON store_management_snapshots
FOR EACH ROW EXECUTE FUNCTION store_management_snapshots_set_id()`,
}

const liveAssignmentsSQL = `SELECT s.id, s.name, COALESCE(s.location, ''),
	m.id, m.full_name, m.recruitment_date, m.end_date, m.recommender, m.position,
	a.id, a.full_name, a.recruitment_date, a.end_date, a.position
FROM shops s
LEFT JOIN LATERAL (
	SELECT e.id, e.full_name, e.recruitment_date, e.end_date, r.name AS recommender, p.name AS position
	FROM employee_shops es
	JOIN employees e ON e.id = es.employee_id
	LEFT JOIN posts p ON p.id = e.post_id
	LEFT JOIN recommenders r ON r.id = e.recommender_id
	WHERE es.shop_id = s.id AND e.post_id = $1 AND (e.end_date IS NULL OR e.end_date >= CURRENT_DATE)
	ORDER BY es.id DESC
	LIMIT 1
) m ON TRUE
LEFT JOIN LATERAL (
	SELECT e.id, e.full_name, e.recruitment_date, e.end_date, p.name AS position
	FROM employee_shops es
	JOIN employees e ON e.id = es.employee_id
	LEFT JOIN posts p ON p.id = e.post_id
	WHERE es.shop_id = s.id AND e.post_id = $2 AND (e.end_date IS NULL OR e.end_date >= CURRENT_DATE)
	ORDER BY es.id DESC
	LIMIT 1
) a ON TRUE
ORDER BY s.name, s.id`

const insertSnapshotSQL = `INSERT INTO store_management_snapshots (
	snapshot_date, snapshot_month, shop_id, shop_name, shop_location,
	manager_id, manager_name, manager_recruitment_date, manager_end_date, manager_recommender, manager_position,
	assistant_id, assistant_name, assistant_recruitment_date, assistant_end_date, assistant_position
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

// MonthTx is the work available while holding a month's archive lock.
type MonthTx interface {
	MonthArchived(ctx context.Context, ym shared.YearMonth) (bool, error)
	LiveAssignments(ctx context.Context, refs PositionRefs) ([]Assignment, error)
	InsertSnapshots(ctx context.Context, ym shared.YearMonth, snapshotDate time.Time, rows []Assignment) (int, error)
}

// Repository stores archived snapshots in Postgres.
type Repository struct {
	pool db.Pool

	schemaMu    sync.Mutex
	schemaReady bool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool db.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the snapshot table and id trigger. It runs once per process; a
// failed attempt is retried on the next call.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()
	if r.schemaReady {
		return nil
	}
	err := db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, 0)`, shared.LockNamespaceSnapshot); err != nil {
			return err
		}
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("snapshots: ensure schema: %w", err)
	}
	r.schemaReady = true
	return nil
}

// WithMonthLock runs fn in a read-committed transaction holding the advisory lock for ym.
func (r *Repository) WithMonthLock(ctx context.Context, ym shared.YearMonth, fn func(MonthTx) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, shared.LockNamespaceSnapshot, shared.SnapshotLockKey(ym)); err != nil {
			return fmt.Errorf("snapshots: lock %s: %w", ym, err)
		}
		return fn(monthTx{tx: tx})
	})
}

// MonthArchived reports whether any snapshot row falls in ym.
func (r *Repository) MonthArchived(ctx context.Context, ym shared.YearMonth) (bool, error) {
	return monthArchived(ctx, r.pool, ym)
}

// LiveAssignments reads the current shop assignments.
func (r *Repository) LiveAssignments(ctx context.Context, refs PositionRefs) ([]Assignment, error) {
	return liveAssignments(ctx, r.pool, refs)
}

// ListForMonth returns the archived rows whose snapshot date falls in ym.
func (r *Repository) ListForMonth(ctx context.Context, ym shared.YearMonth) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, snapshot_date, shop_id, shop_name, shop_location,
	manager_id, manager_name, manager_recruitment_date, manager_end_date, manager_recommender, manager_position,
	assistant_id, assistant_name, assistant_recruitment_date, assistant_end_date, assistant_position, created_at
FROM store_management_snapshots
WHERE snapshot_date BETWEEN $1 AND $2
ORDER BY shop_name, shop_id`, ym.FirstDay(), ym.LastDay())
	if err != nil {
		return nil, fmt.Errorf("snapshots: list %s: %w", ym, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Snapshot, error) {
		var (
			s  Snapshot
			id string
		)
		err := row.Scan(&id, &s.SnapshotDate, &s.ShopID, &s.ShopName, &s.ShopLocation,
			&s.ManagerID, &s.ManagerName, &s.ManagerRecruitmentDate, &s.ManagerEndDate, &s.ManagerRecommender, &s.ManagerPosition,
			&s.AssistantID, &s.AssistantName, &s.AssistantRecruitmentDate, &s.AssistantEndDate, &s.AssistantPosition, &s.CreatedAt)
		if err != nil {
			return Snapshot{}, err
		}
		s.ID, err = uuid.Parse(id)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshots: list %s: %w", ym, err)
	}
	return out, nil
}

type monthTx struct {
	tx pgx.Tx
}

func (m monthTx) MonthArchived(ctx context.Context, ym shared.YearMonth) (bool, error) {
	return monthArchived(ctx, m.tx, ym)
}

func (m monthTx) LiveAssignments(ctx context.Context, refs PositionRefs) ([]Assignment, error) {
	return liveAssignments(ctx, m.tx, refs)
}

func (m monthTx) InsertSnapshots(ctx context.Context, ym shared.YearMonth, snapshotDate time.Time, rows []Assignment) (int, error) {
	batch := &pgx.Batch{}
	for _, a := range rows {
		batch.Queue(insertSnapshotSQL, snapshotDate, ym.FirstDay(), a.ShopID, a.ShopName, a.ShopLocation,
			a.ManagerID, a.ManagerName, a.ManagerRecruitmentDate, a.ManagerEndDate, a.ManagerRecommender, a.ManagerPosition,
			a.AssistantID, a.AssistantName, a.AssistantRecruitmentDate, a.AssistantEndDate, a.AssistantPosition)
	}
	results := m.tx.SendBatch(ctx, batch)
	inserted := 0
	for range rows {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return inserted, fmt.Errorf("snapshots: insert: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return inserted, fmt.Errorf("snapshots: insert: %w", err)
	}
	return inserted, nil
}

func monthArchived(ctx context.Context, q db.Querier, ym shared.YearMonth) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM store_management_snapshots WHERE snapshot_date BETWEEN $1 AND $2)`,
		ym.FirstDay(), ym.LastDay()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("snapshots: check %s: %w", ym, err)
	}
	return exists, nil
}

func liveAssignments(ctx context.Context, q db.Querier, refs PositionRefs) ([]Assignment, error) {
	rows, err := q.Query(ctx, liveAssignmentsSQL, refs.ManagerPostID, refs.AssistantPostID)
	if err != nil {
		return nil, fmt.Errorf("snapshots: live assignments: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Assignment, error) {
		var a Assignment
		err := row.Scan(&a.ShopID, &a.ShopName, &a.ShopLocation,
			&a.ManagerID, &a.ManagerName, &a.ManagerRecruitmentDate, &a.ManagerEndDate, &a.ManagerRecommender, &a.ManagerPosition,
			&a.AssistantID, &a.AssistantName, &a.AssistantRecruitmentDate, &a.AssistantEndDate, &a.AssistantPosition)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshots: live assignments: %w", err)
	}
	return out, nil
}
