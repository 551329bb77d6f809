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

const leaveColumns = "id, employee_id, from_date, to_date, leave_type, reason, status, decision_note, applied_on, decided_at"

// LeaveRepository persists leave requests and their attachments.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create inserts a leave request together with its attachments atomically.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest, attachments []models.Attachment) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.Status == "" {
		leave.Status = models.RequestStatusPending
	}
	leave.AppliedOn = time.Now().UTC()

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO leave_requests (id, employee_id, from_date, to_date, leave_type, reason, status, applied_on)
VALUES (:id, :employee_id, :from_date, :to_date, :leave_type, :reason, :status, :applied_on)`
		if _, err := tx.NamedExecContext(ctx, query, leave); err != nil {
			return fmt.Errorf("create leave request: %w", err)
		}
		if err := insertAttachments(ctx, tx, models.AttachmentOwnerLeave, leave.ID, attachments); err != nil {
			return err
		}
		leave.Attachments = attachments
		return nil
	})
}

// FindByID fetches a leave request.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE id = $1", leaveColumns)
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// List returns leave requests matching filters, newest first.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error) {
	base := "FROM leave_requests WHERE 1=1"
	var conditions []string
	var args []interface{}
	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY applied_on DESC LIMIT %d OFFSET %d", leaveColumns, base, size, (page-1)*size)
	leaves := make([]models.LeaveRequest, 0)
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}
	return leaves, total, nil
}

// Decide moves a Pending request to a terminal status. sql.ErrNoRows means the
// request is missing or no longer Pending.
func (r *LeaveRepository) Decide(ctx context.Context, id string, status models.RequestStatus, note *string) error {
	const query = `UPDATE leave_requests SET status = $2, decision_note = $3, decided_at = $4 WHERE id = $1 AND status = 'Pending'`
	res, err := r.db.ExecContext(ctx, query, id, status, note, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("decide leave request: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check leave decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
