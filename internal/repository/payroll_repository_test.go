package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hrms-api/internal/models"
)

var payrollRowColumns = []string{"id", "employee_id", "month", "year", "base_salary", "total_working_days", "total_present_days", "total_leaves", "total_overtime_hours", "per_day_salary", "overtime_bonus", "leave_deduction", "final_salary", "last_updated"}

func TestPayrollRepositoryUpsertReturnsStoredRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPayrollRepository(db)

	stamp := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payroll ("+payrollColumns+")")).
		WithArgs(sqlmock.AnyArg(), "EMP001", 3, 2024, float64(30000), 30, 28, 2, float64(5), float64(1000), float64(500), float64(2000), float64(28500), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(payrollRowColumns).
			AddRow("existing-id", "EMP001", 3, 2024, "30000.00", 30, 28, 2, "5.00", "1000.00", "500.00", "2000.00", "28500.00", stamp))

	record := &models.PayrollRecord{
		EmployeeID: "EMP001", Month: 3, Year: 2024, BaseSalary: 30000,
		TotalWorkingDays: 30, TotalPresentDays: 28, TotalLeaves: 2, TotalOvertimeHours: 5,
		PerDaySalary: 1000, OvertimeBonus: 500, LeaveDeduction: 2000, FinalSalary: 28500,
	}
	require.NoError(t, repo.Upsert(context.Background(), record))
	assert.Equal(t, "existing-id", record.ID)
	assert.Equal(t, float64(28500), record.FinalSalary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepositoryListByEmployee(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPayrollRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+payrollColumns+" FROM payroll WHERE employee_id = $1 AND year = $2 ORDER BY year DESC, month DESC")).
		WithArgs("EMP001", 2024).
		WillReturnRows(sqlmock.NewRows(payrollRowColumns).
			AddRow("p2", "EMP001", 2, 2024, "30000", 29, 29, 0, "0", "1034.48", "0", "0", "30000", time.Now()).
			AddRow("p1", "EMP001", 1, 2024, "30000", 31, 30, 1, "2", "967.74", "200", "967.74", "29232.26", time.Now()))

	records, err := repo.ListByEmployee(context.Background(), "EMP001", 2024)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].Month)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPayrollRepository(db)

	mock.ExpectQuery("FROM payroll WHERE employee_id").WillReturnError(sql.ErrNoRows)
	_, err := repo.Find(context.Background(), "EMP001", 1, 2020)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
