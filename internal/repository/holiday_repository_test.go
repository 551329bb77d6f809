package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hrms-api/internal/models"
)

func TestHolidayRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec("INSERT INTO holidays").
		WithArgs(sqlmock.AnyArg(), "Holi", "2024-03-25", nil, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "holidays_date_key"})

	err := repo.Create(context.Background(), &models.Holiday{Name: "Holi", Date: mustDate(t, "2024-03-25")})
	assert.ErrorIs(t, err, ErrUniqueViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryListAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + holidayColumns + " FROM holidays WHERE EXTRACT(YEAR FROM date) = $1 ORDER BY date ASC")).
		WithArgs(2024).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "date", "description", "created_at"}).
			AddRow("h1", "Republic Day", time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC), nil, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	holidays, err := repo.List(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "2024-01-26", holidays[0].Date.String())
	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryDatesBetween(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT date FROM holidays WHERE date >= $1 AND date <= $2")).
		WithArgs("2024-03-01", "2024-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"date"}).AddRow(time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)))

	set, err := repo.DatesBetween(context.Background(), mustDate(t, "2024-03-01"), mustDate(t, "2024-03-31"))
	require.NoError(t, err)
	_, ok := set["2024-03-25"]
	assert.True(t, ok)
}
