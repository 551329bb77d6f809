package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hrms-api/internal/models"
)

const payrollColumns = "id, employee_id, month, year, base_salary, total_working_days, total_present_days, total_leaves, total_overtime_hours, per_day_salary, overtime_bonus, leave_deduction, final_salary, last_updated"

// PayrollRepository persists one payroll row per employee per month.
type PayrollRepository struct {
	db *sqlx.DB
}

// NewPayrollRepository constructs the repository.
func NewPayrollRepository(db *sqlx.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

// Upsert inserts the record or overwrites every derived field of the existing
// row for the same employee and period. The stored row is written back into record.
func (r *PayrollRepository) Upsert(ctx context.Context, record *models.PayrollRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.LastUpdated = time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO payroll (%s)
VALUES (:id, :employee_id, :month, :year, :base_salary, :total_working_days, :total_present_days, :total_leaves, :total_overtime_hours, :per_day_salary, :overtime_bonus, :leave_deduction, :final_salary, :last_updated)
ON CONFLICT (employee_id, month, year) DO UPDATE SET
base_salary = EXCLUDED.base_salary,
total_working_days = EXCLUDED.total_working_days,
total_present_days = EXCLUDED.total_present_days,
total_leaves = EXCLUDED.total_leaves,
total_overtime_hours = EXCLUDED.total_overtime_hours,
per_day_salary = EXCLUDED.per_day_salary,
overtime_bonus = EXCLUDED.overtime_bonus,
leave_deduction = EXCLUDED.leave_deduction,
final_salary = EXCLUDED.final_salary,
last_updated = EXCLUDED.last_updated
RETURNING %s`, payrollColumns, payrollColumns)
	rows, err := r.db.NamedQueryContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("upsert payroll: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.StructScan(record); err != nil {
			return fmt.Errorf("scan payroll: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("upsert payroll rows: %w", err)
	}
	return nil
}

// Find fetches the payroll row for an employee and period.
func (r *PayrollRepository) Find(ctx context.Context, employeeID string, month, year int) (*models.PayrollRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM payroll WHERE employee_id = $1 AND month = $2 AND year = $3", payrollColumns)
	var record models.PayrollRecord
	if err := r.db.GetContext(ctx, &record, query, employeeID, month, year); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByEmployee returns an employee's payroll history, newest period first.
func (r *PayrollRepository) ListByEmployee(ctx context.Context, employeeID string, year int) ([]models.PayrollRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM payroll WHERE employee_id = $1", payrollColumns)
	args := []interface{}{employeeID}
	if year > 0 {
		query += " AND year = $2"
		args = append(args, year)
	}
	query += " ORDER BY year DESC, month DESC"
	records := make([]models.PayrollRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list payroll: %w", err)
	}
	return records, nil
}

// ListPeriod returns the payroll register for a month with employee metadata.
func (r *PayrollRepository) ListPeriod(ctx context.Context, month, year int, employeeID *string) ([]models.PayrollEntry, error) {
	query := `SELECT p.id, p.employee_id, p.month, p.year, p.base_salary, p.total_working_days, p.total_present_days, p.total_leaves, p.total_overtime_hours, p.per_day_salary, p.overtime_bonus, p.leave_deduction, p.final_salary, p.last_updated, e.name AS employee_name, e.department
FROM payroll p JOIN employees e ON e.employee_id = p.employee_id
WHERE p.month = $1 AND p.year = $2`
	args := []interface{}{month, year}
	if employeeID != nil && *employeeID != "" {
		query += " AND p.employee_id = $3"
		args = append(args, *employeeID)
	}
	query += " ORDER BY p.employee_id ASC"
	entries := make([]models.PayrollEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list payroll period: %w", err)
	}
	return entries, nil
}
