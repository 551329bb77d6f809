package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hrms-api/internal/models"
)

const employeeColumns = "id, employee_id, name, email, phone, department, role, address, join_date, base_salary, password_hash, status, created_at, updated_at"

// EmployeeRepository manages persistence for employees.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs an EmployeeRepository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// List returns employees matching filters along with total count.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	base := "FROM employees WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(department) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(employee_id) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"employee_id": "employee_id",
		"name":        "name",
		"department":  "department",
		"join_date":   "join_date",
		"created_at":  "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "employee_id"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", employeeColumns, base, column, order, size, offset)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	return employees, total, nil
}

// FindByCode fetches an employee by external code (e.g. EMP001).
func (r *EmployeeRepository) FindByCode(ctx context.Context, code string) (*models.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees WHERE employee_id = $1", employeeColumns)
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, code); err != nil {
		return nil, err
	}
	return &employee, nil
}

// ExistsByEmail checks if another employee uses the same email.
func (r *EmployeeRepository) ExistsByEmail(ctx context.Context, email string, excludeCode string) (bool, error) {
	query := "SELECT 1 FROM employees WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeCode != "" {
		query += " AND employee_id <> $2"
		args = append(args, excludeCode)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check employee email: %w", err)
	}
	return true, nil
}

// NextCode draws the next employee code from the database sequence, so
// concurrent creations never receive the same code.
func (r *EmployeeRepository) NextCode(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, "SELECT nextval('employee_code_seq')"); err != nil {
		return "", fmt.Errorf("next employee code: %w", err)
	}
	return models.FormatEmployeeCode(seq), nil
}

// Create inserts a new employee, generating the code when missing.
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	if employee.EmployeeID == "" {
		code, err := r.NextCode(ctx)
		if err != nil {
			return err
		}
		employee.EmployeeID = code
	}
	if employee.Status == "" {
		employee.Status = models.EmployeeStatusActive
	}
	now := time.Now().UTC()
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = now
	}
	employee.UpdatedAt = now

	const query = `INSERT INTO employees (id, employee_id, name, email, phone, department, role, address, join_date, base_salary, password_hash, status, created_at, updated_at)
		VALUES (:id, :employee_id, :name, :email, :phone, :department, :role, :address, :join_date, :base_salary, :password_hash, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return wrapErr("create employee", err)
	}
	return nil
}

// Update modifies the mutable profile fields. Code and base salary are never written.
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	employee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE employees SET name = :name, email = :email, phone = :phone, department = :department, role = :role, address = :address, join_date = :join_date, updated_at = :updated_at WHERE employee_id = :employee_id`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return wrapErr("update employee", err)
	}
	return nil
}

// SetStatus toggles an employee between Active and Inactive.
func (r *EmployeeRepository) SetStatus(ctx context.Context, code string, status models.EmployeeStatus) error {
	const query = `UPDATE employees SET status = $2, updated_at = $3 WHERE employee_id = $1`
	res, err := r.db.ExecContext(ctx, query, code, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set employee status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set employee status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListActiveCodes returns the codes of every active employee.
func (r *EmployeeRepository) ListActiveCodes(ctx context.Context) ([]string, error) {
	const query = `SELECT employee_id FROM employees WHERE status = 'Active' ORDER BY employee_id`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query); err != nil {
		return nil, fmt.Errorf("list active employee codes: %w", err)
	}
	return codes, nil
}
