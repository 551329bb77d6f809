package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/hrms-api/internal/models"
)

const reportJobColumns = "id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message"

// ReportRepository stores attendance and payroll export jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a QUEUED job unless another status is set.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_jobs (id, type, params, status, progress, created_by, created_at)
VALUES (:id, :type, :params, :status, :progress, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return wrapErr("create report job", err)
	}
	return nil
}

// GetByID loads one job; a missing job surfaces sql.ErrNoRows.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	query := fmt.Sprintf("SELECT %s FROM report_jobs WHERE id = $1", reportJobColumns)
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get report job %s: %w", id, err)
	}
	return &job, nil
}

// UpdateReportJobParams lists the fields a worker may change; nil fields are left alone.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

func (p UpdateReportJobParams) assignments() ([]string, []interface{}) {
	var cols []string
	var args []interface{}
	add := func(col string, value interface{}) {
		args = append(args, value)
		cols = append(cols, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.Progress != nil {
		add("progress", *p.Progress)
	}
	if p.ResultURL != nil {
		add("result_url", *p.ResultURL)
	}
	if p.ErrorMessage != nil {
		// An empty message clears a previous failure.
		add("error_message", sql.NullString{String: *p.ErrorMessage, Valid: *p.ErrorMessage != ""})
	}
	if p.FinishedAt != nil {
		add("finished_at", *p.FinishedAt)
	}
	return cols, args
}

// Update applies params to the job and returns sql.ErrNoRows for an unknown id.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	cols, args := params.assignments()
	if len(cols) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = $%d", strings.Join(cols, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update report job %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListPending returns unfinished jobs oldest first, including PROCESSING jobs
// abandoned by a stopped process.
func (r *ReportRepository) ListPending(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM report_jobs WHERE status = ANY($1) ORDER BY created_at ASC LIMIT $2", reportJobColumns)
	pending := pq.StringArray{string(models.ReportStatusQueued), string(models.ReportStatusProcessing)}
	jobs := make([]models.ReportJob, 0)
	if err := r.db.SelectContext(ctx, &jobs, query, pending, limit); err != nil {
		return nil, fmt.Errorf("list pending report jobs: %w", err)
	}
	return jobs, nil
}

// ListExpired returns finished jobs whose download link is older than cutoff
// and has not been cleared yet.
func (r *ReportRepository) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM report_jobs
WHERE status = $1 AND result_url IS NOT NULL AND finished_at < $2
ORDER BY finished_at ASC LIMIT $3`, reportJobColumns)
	jobs := make([]models.ReportJob, 0)
	if err := r.db.SelectContext(ctx, &jobs, query, models.ReportStatusFinished, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list expired report jobs: %w", err)
	}
	return jobs, nil
}

// ClearResult drops the download link of a job whose file was removed.
func (r *ReportRepository) ClearResult(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE report_jobs SET result_url = NULL WHERE id = $1`, id); err != nil {
		return fmt.Errorf("clear report result %s: %w", id, err)
	}
	return nil
}
