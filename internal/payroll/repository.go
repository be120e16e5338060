package payroll

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hrpanel/hrpanel/internal/platform/db"
	"github.com/hrpanel/hrpanel/internal/shared"
)

const listManagersSQL = `SELECT e.id, e.full_name, s.id, s.name, e.base_salary, e.recruitment_date
FROM employees e
JOIN employee_shops es ON es.employee_id = e.id
JOIN shops s ON s.id = es.shop_id
WHERE e.post_id = $1
	AND (e.recruitment_date IS NULL OR e.recruitment_date <= $3)
	AND (e.end_date IS NULL OR e.end_date >= $2)
ORDER BY s.name, e.full_name, e.id`

const loadInputsSQL = `SELECT
	(SELECT SUM(ms.amount) FROM monthly_sales ms WHERE ms.shop_id = $1 AND ms.month = $3 AND ms.year = $4),
	(SELECT ev.total FROM employee_evaluations ev WHERE ev.employee_id = $2 AND ev.month = $3 AND ev.year = $4 ORDER BY ev.id DESC LIMIT 1),
	d.salary_advance, d.sanction, d.inventory_month, d.cash_discrepancy
FROM (
	SELECT SUM(salary_advance) AS salary_advance, SUM(sanction) AS sanction,
		SUM(inventory_month) AS inventory_month, SUM(cash_discrepancy) AS cash_discrepancy
	FROM manager_debts WHERE employee_id = $2 AND month = $3 AND year = $4
) d`

// Repository reads payroll inputs from the employee, sales, evaluation and debt tables.
type Repository struct {
	db            db.Querier
	managerPostID int64
}

// NewRepository constructs a Repository. managerPostID identifies manager employees.
func NewRepository(q db.Querier, managerPostID int64) *Repository {
	return &Repository{db: q, managerPostID: managerPostID}
}

// ListManagers returns managers employed during ym with their shop.
func (r *Repository) ListManagers(ctx context.Context, ym shared.YearMonth) ([]ManagerRow, error) {
	rows, err := r.db.Query(ctx, listManagersSQL, r.managerPostID, ym.FirstDay(), ym.LastDay())
	if err != nil {
		return nil, fmt.Errorf("payroll: list managers: %w", err)
	}
	managers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ManagerRow, error) {
		var m ManagerRow
		err := row.Scan(&m.EmployeeID, &m.FullName, &m.ShopID, &m.ShopName, &m.BaseSalary, &m.RecruitmentDate)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("payroll: list managers: %w", err)
	}
	return managers, nil
}

// LoadInputs reads sales, evaluation and debts of one manager for ym.
func (r *Repository) LoadInputs(ctx context.Context, m ManagerRow, ym shared.YearMonth) (Inputs, error) {
	in := Inputs{BaseSalary: m.BaseSalary, RecruitmentDate: m.RecruitmentDate}
	err := r.db.QueryRow(ctx, loadInputsSQL, m.ShopID, m.EmployeeID, ym.Month, ym.Year).Scan(
		&in.MonthlySales, &in.EvaluationScore,
		&in.SalaryAdvance, &in.Sanctions, &in.InventoryShortage, &in.RegisterDifference)
	if err != nil {
		return Inputs{}, fmt.Errorf("payroll: load inputs for employee %d: %w", m.EmployeeID, err)
	}
	return in, nil
}
