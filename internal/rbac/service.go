package rbac

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx used by the RBAC service.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Service reads roles and permissions from Postgres.
type Service struct {
	db Querier
}

// NewService constructs a Service backed by the provided pool.
func NewService(db Querier) *Service {
	return &Service{db: db}
}

// EffectivePermissions returns deduplicated permission names for a user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT p.name
FROM user_roles ur
JOIN role_permissions rp ON rp.role_id = ur.role_id
JOIN permissions p ON p.id = rp.permission_id
WHERE ur.user_id = $1
ORDER BY p.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: effective permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("rbac: effective permissions: %w", err)
	}
	return perms, nil
}

// ListPermissions returns every permission ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, COALESCE(description, '') FROM permissions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Permission, error) {
		var p Permission
		err := row.Scan(&p.ID, &p.Name, &p.Description)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	return perms, nil
}

// EnsurePermissions registers the panel's permission names if they are missing.
func (s *Service) EnsurePermissions(ctx context.Context) error {
	for _, p := range builtinPermissions {
		if _, err := s.db.Exec(ctx, `INSERT INTO permissions (name, description) VALUES ($1, $2)
ON CONFLICT (name) DO NOTHING`, p.Name, p.Description); err != nil {
			return fmt.Errorf("rbac: ensure permission %s: %w", p.Name, err)
		}
	}
	return nil
}

var builtinPermissions = []Permission{
	{Name: PermMonthsManage, Description: "Create, open and close payroll months"},
	{Name: PermReportsSalaryView, Description: "View the salary report"},
	{Name: PermReportsStoreView, Description: "View the store management report"},
	{Name: PermBonusManage, Description: "Edit bonus tiers and evaluation ranges"},
}
