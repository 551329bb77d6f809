package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hrms-api/internal/models"
)

var reportJobRowColumns = []string{"id", "type", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}

func TestReportRepositoryCreateDefaultsAndLoad(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	employee := "EMP001"
	job := &models.ReportJob{
		Type:      models.ReportTypeAttendance,
		Params:    models.ReportJobParams{Month: 3, Year: 2024, EmployeeID: &employee, Format: models.ReportFormatXLSX},
		CreatedBy: "hr-admin",
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_jobs (id, type, params, status, progress, created_by, created_at)")).
		WithArgs(sqlmock.AnyArg(), "attendance", sqlmock.AnyArg(), "QUEUED", 0, "hr-admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.False(t, job.CreatedAt.IsZero())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + reportJobColumns + " FROM report_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(sqlmock.NewRows(reportJobRowColumns).
			AddRow(job.ID, "attendance", `{"month":3,"year":2024,"employeeId":"EMP001","format":"xlsx"}`, "QUEUED", 0, nil, "hr-admin", time.Now(), nil, nil))
	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", fetched.Params.Period())
	require.NotNil(t, fetched.Params.EmployeeID)
	assert.Equal(t, "EMP001", *fetched.Params.EmployeeID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateBuildsAssignments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	status := models.ReportStatusFinished
	progress := 100
	result := "/api/export/token"
	cleared := ""
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET status = $1, progress = $2, result_url = $3, error_message = $4, finished_at = $5 WHERE id = $6")).
		WithArgs(status, progress, result, nil, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateReportJobParams{
		Status:       &status,
		Progress:     &progress,
		ResultURL:    &result,
		ErrorMessage: &cleared,
		FinishedAt:   &now,
	}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET progress = $1 WHERE id = $2")).
		WithArgs(10, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ten := 10
	err := repo.Update(context.Background(), "ghost", UpdateReportJobParams{Progress: &ten})
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateReportJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE status = ANY($1) ORDER BY created_at ASC LIMIT $2")).
		WithArgs(pq.StringArray{"QUEUED", "PROCESSING"}, 20).
		WillReturnRows(sqlmock.NewRows(reportJobRowColumns).
			AddRow("job-1", "payroll", `{"month":3,"year":2024,"format":"csv"}`, "PROCESSING", 10, nil, "10.0.0.5", time.Now(), nil, nil))

	jobs, err := repo.ListPending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ReportStatusProcessing, jobs[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryExpiry(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND result_url IS NOT NULL AND finished_at < $2")).
		WithArgs(models.ReportStatusFinished, cutoff, 50).
		WillReturnRows(sqlmock.NewRows(reportJobRowColumns).
			AddRow("job-1", "payroll", `{"month":2,"year":2024,"format":"pdf"}`, "FINISHED", 100, "/api/export/token", "10.0.0.5", time.Now().Add(-48*time.Hour), time.Now().Add(-25*time.Hour), nil))
	jobs, err := repo.ListExpired(context.Background(), cutoff, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].ResultURL)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET result_url = NULL WHERE id = $1")).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ClearResult(context.Background(), "job-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
