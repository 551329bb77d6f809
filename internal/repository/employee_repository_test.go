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

var employeeRowColumns = []string{"id", "employee_id", "name", "email", "phone", "department", "role", "address", "join_date", "base_salary", "password_hash", "status", "created_at", "updated_at"}

func TestEmployeeRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	status := models.EmployeeStatusActive
	rows := sqlmock.NewRows(employeeRowColumns).
		AddRow("u1", "EMP001", "Asha", "asha@example.com", nil, "Finance", nil, nil, time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC), "30000.00", nil, "Active", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+employeeColumns+" FROM employees WHERE 1=1 AND status = $1 AND (LOWER(name) LIKE $2 OR LOWER(email) LIKE $2 OR LOWER(employee_id) LIKE $2) ORDER BY name DESC LIMIT 10 OFFSET 10")).
		WithArgs("Active", "%asha%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM employees WHERE 1=1 AND status = $1")).
		WithArgs("Active", "%asha%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	list, total, err := repo.List(context.Background(), models.EmployeeFilter{Status: &status, Search: "Asha", Page: 2, PageSize: 10, SortBy: "name", SortOrder: "desc"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 11, total)
	assert.Equal(t, "EMP001", list[0].EmployeeID)
	assert.Equal(t, float64(30000), list[0].BaseSalary)
	require.NotNil(t, list[0].JoinDate)
	assert.Equal(t, "2023-01-09", list[0].JoinDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryCreateGeneratesCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT nextval('employee_code_seq')")).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(7))
	mock.ExpectExec("INSERT INTO employees").
		WithArgs(sqlmock.AnyArg(), "EMP007", "Ravi", "ravi@example.com", nil, nil, nil, nil, nil, float64(25000), nil, "Active", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	employee := &models.Employee{Name: "Ravi", Email: "ravi@example.com", BaseSalary: 25000}
	require.NoError(t, repo.Create(context.Background(), employee))
	assert.Equal(t, "EMP007", employee.EmployeeID)
	assert.NotEmpty(t, employee.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryCreateTagsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec("INSERT INTO employees").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "employees_email_key"})

	err := repo.Create(context.Background(), &models.Employee{EmployeeID: "EMP002", Name: "Dup", Email: "dup@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUniqueViolation))
	assert.Contains(t, err.Error(), "employees_email_key")
}

func TestEmployeeRepositoryUpdateSkipsImmutableFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE employees SET name = $1, email = $2, phone = $3, department = $4, role = $5, address = $6, join_date = $7, updated_at = $8 WHERE employee_id = $9")).
		WithArgs("Asha K", "asha@example.com", nil, "Ops", nil, nil, nil, sqlmock.AnyArg(), "EMP001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.Employee{EmployeeID: "EMP001", Name: "Asha K", Email: "asha@example.com", Department: strPtr("Ops"), BaseSalary: 99999})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositorySetStatusMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec("UPDATE employees SET status").
		WithArgs("EMP404", "Inactive", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), "EMP404", models.EmployeeStatusInactive)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM employees WHERE LOWER(email) = LOWER($1) AND employee_id <> $2 LIMIT 1")).
		WithArgs("asha@example.com", "EMP001").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByEmail(context.Background(), "asha@example.com", "EMP001")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
