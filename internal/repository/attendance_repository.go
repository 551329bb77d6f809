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
	"github.com/noah-isme/hrms-api/pkg/database"
)

const attendanceColumns = "id, employee_id, date, check_in_time, check_out_time, working_hours, overtime_hours, status, location, notes, created_at, updated_at"

// AttendanceRepository persists one row per employee per day. The
// (employee_id, date) unique key is what serializes concurrent punches.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// CheckIn records the check-in punch in a single statement. An existing shell
// row (Pending, Absent, leave) is taken over; a row that already has a check-in
// is left alone and sql.ErrNoRows is returned.
func (r *AttendanceRepository) CheckIn(ctx context.Context, employeeID string, date models.Date, checkIn string, location *string) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO attendance (id, employee_id, date, check_in_time, status, location, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (employee_id, date) DO UPDATE
SET check_in_time = EXCLUDED.check_in_time, status = EXCLUDED.status, location = COALESCE(EXCLUDED.location, attendance.location), updated_at = EXCLUDED.updated_at
WHERE attendance.check_in_time IS NULL
RETURNING %s`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, uuid.NewString(), employeeID, date, checkIn, models.AttendanceStatusCheckedIn, location, now); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("check in: %w", err)
	}
	return &record, nil
}

// FindByDay fetches the row for an employee and date.
func (r *AttendanceRepository) FindByDay(ctx context.Context, employeeID string, date models.Date) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE employee_id = $1 AND date = $2", attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, employeeID, date); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByID fetches a row by its identifier.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE id = $1", attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateDay locks the row for (employeeID, date), lets mutate change it and
// writes it back in the same transaction. sql.ErrNoRows is returned when the
// row does not exist.
func (r *AttendanceRepository) UpdateDay(ctx context.Context, employeeID string, date models.Date, mutate func(*models.AttendanceRecord) error) (*models.AttendanceRecord, error) {
	return r.lockedUpdate(ctx, "employee_id = $1 AND date = $2", []interface{}{employeeID, date}, mutate)
}

// UpdateByID is UpdateDay keyed by row id.
func (r *AttendanceRepository) UpdateByID(ctx context.Context, id string, mutate func(*models.AttendanceRecord) error) (*models.AttendanceRecord, error) {
	return r.lockedUpdate(ctx, "id = $1", []interface{}{id}, mutate)
}

func (r *AttendanceRepository) lockedUpdate(ctx context.Context, where string, args []interface{}, mutate func(*models.AttendanceRecord) error) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := fmt.Sprintf("SELECT %s FROM attendance WHERE %s FOR UPDATE", attendanceColumns, where)
		if err := tx.GetContext(ctx, &record, query, args...); err != nil {
			return err
		}
		if err := mutate(&record); err != nil {
			return err
		}
		record.UpdatedAt = time.Now().UTC()
		const update = `UPDATE attendance SET check_in_time = $1, check_out_time = $2, working_hours = $3, overtime_hours = $4, status = $5, location = $6, notes = $7, updated_at = $8 WHERE id = $9`
		if _, err := tx.ExecContext(ctx, update, record.CheckInTime, record.CheckOutTime, record.WorkingHours, record.OvertimeHours, record.Status, record.Location, record.Notes, record.UpdatedAt, record.ID); err != nil {
			return fmt.Errorf("update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a row without punches, e.g. an admin marking a day Absent.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	const query = `INSERT INTO attendance (id, employee_id, date, check_in_time, check_out_time, working_hours, overtime_hours, status, location, notes, created_at, updated_at)
VALUES (:id, :employee_id, :date, :check_in_time, :check_out_time, :working_hours, :overtime_hours, :status, :location, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return wrapErr("create attendance", err)
	}
	return nil
}

// ListRange returns an employee's rows in [from, to) ordered by date.
func (r *AttendanceRepository) ListRange(ctx context.Context, employeeID string, from, to models.Date) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE employee_id = $1 AND date >= $2 AND date < $3 ORDER BY date ASC", attendanceColumns)
	records := make([]models.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	return records, nil
}

// List returns rows joined with employee metadata for admin screens.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceEntry, int, error) {
	base := "FROM attendance a JOIN employees e ON e.employee_id = a.employee_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("a.employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.employee_id, a.date, a.check_in_time, a.check_out_time, a.working_hours, a.overtime_hours, a.status, a.location, a.notes, a.created_at, a.updated_at, e.name AS employee_name, e.department %s ORDER BY a.date DESC, a.employee_id ASC LIMIT %d OFFSET %d`, base, size, offset)
	entries := make([]models.AttendanceEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return entries, total, nil
}

// ListForReport returns every row in [from, to), optionally for one employee.
func (r *AttendanceRepository) ListForReport(ctx context.Context, from, to models.Date, employeeID *string) ([]models.AttendanceEntry, error) {
	query := `SELECT a.id, a.employee_id, a.date, a.check_in_time, a.check_out_time, a.working_hours, a.overtime_hours, a.status, a.location, a.notes, a.created_at, a.updated_at, e.name AS employee_name, e.department
FROM attendance a JOIN employees e ON e.employee_id = a.employee_id
WHERE a.date >= $1 AND a.date < $2`
	args := []interface{}{from, to}
	if employeeID != nil && *employeeID != "" {
		query += " AND a.employee_id = $3"
		args = append(args, *employeeID)
	}
	query += " ORDER BY a.employee_id ASC, a.date ASC"
	entries := make([]models.AttendanceEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance for report: %w", err)
	}
	return entries, nil
}

// MarkDays upserts status onto each day for an employee, skipping days that
// already carry a check-in. It returns how many rows were written.
func (r *AttendanceRepository) MarkDays(ctx context.Context, employeeID string, days []models.Date, status models.AttendanceStatus) (int, error) {
	if len(days) == 0 {
		return 0, nil
	}
	const query = `INSERT INTO attendance (id, employee_id, date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (employee_id, date) DO UPDATE
SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
WHERE attendance.check_in_time IS NULL`
	written := 0
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		for _, day := range days {
			res, err := tx.ExecContext(ctx, query, uuid.NewString(), employeeID, day, status, now)
			if err != nil {
				return fmt.Errorf("mark attendance %s: %w", day, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				written += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// Totals aggregates an employee's attendance in [from, to) for payroll.
func (r *AttendanceRepository) Totals(ctx context.Context, employeeID string, from, to models.Date) (models.AttendanceTotals, error) {
	const query = `SELECT COUNT(*) AS total_days,
COUNT(*) FILTER (WHERE status = 'Present') AS present_days,
COUNT(*) FILTER (WHERE status IN ('Full-Day Leave', 'Half-Day Leave')) AS leave_days,
COALESCE(SUM(overtime_hours), 0) AS overtime_hours
FROM attendance WHERE employee_id = $1 AND date >= $2 AND date < $3`
	var totals models.AttendanceTotals
	if err := r.db.GetContext(ctx, &totals, query, employeeID, from, to); err != nil {
		return models.AttendanceTotals{}, fmt.Errorf("attendance totals: %w", err)
	}
	return totals, nil
}
