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

const missPunchColumns = "id, employee_id, date, check_in_time, check_out_time, reason, status, decision_note, requested_at, decided_at"

// MissPunchRepository persists miss-punch requests and their attachments.
type MissPunchRepository struct {
	db *sqlx.DB
}

// NewMissPunchRepository constructs the repository.
func NewMissPunchRepository(db *sqlx.DB) *MissPunchRepository {
	return &MissPunchRepository{db: db}
}

// Create inserts a request together with its attachments atomically.
func (r *MissPunchRepository) Create(ctx context.Context, req *models.MissPunchRequest, attachments []models.Attachment) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.RequestStatusPending
	}
	req.RequestedAt = time.Now().UTC()

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO miss_punch_requests (id, employee_id, date, check_in_time, check_out_time, reason, status, requested_at)
VALUES (:id, :employee_id, :date, :check_in_time, :check_out_time, :reason, :status, :requested_at)`
		if _, err := tx.NamedExecContext(ctx, query, req); err != nil {
			return fmt.Errorf("create miss punch request: %w", err)
		}
		if err := insertAttachments(ctx, tx, models.AttachmentOwnerMissPunch, req.ID, attachments); err != nil {
			return err
		}
		req.Attachments = attachments
		return nil
	})
}

// FindByID fetches a request.
func (r *MissPunchRepository) FindByID(ctx context.Context, id string) (*models.MissPunchRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM miss_punch_requests WHERE id = $1", missPunchColumns)
	var req models.MissPunchRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests matching filters, newest first.
func (r *MissPunchRepository) List(ctx context.Context, filter models.MissPunchFilter) ([]models.MissPunchRequest, int, error) {
	base := "FROM miss_punch_requests WHERE 1=1"
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
	query := fmt.Sprintf("SELECT %s %s ORDER BY requested_at DESC LIMIT %d OFFSET %d", missPunchColumns, base, size, (page-1)*size)
	requests := make([]models.MissPunchRequest, 0)
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list miss punch requests: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count miss punch requests: %w", err)
	}
	return requests, total, nil
}

// Decide moves a Pending request to a terminal status. sql.ErrNoRows means the
// request is missing or no longer Pending.
func (r *MissPunchRepository) Decide(ctx context.Context, id string, status models.RequestStatus, note *string) error {
	const query = `UPDATE miss_punch_requests SET status = $2, decision_note = $3, decided_at = $4 WHERE id = $1 AND status = 'Pending'`
	res, err := r.db.ExecContext(ctx, query, id, status, note, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("decide miss punch request: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check miss punch decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
