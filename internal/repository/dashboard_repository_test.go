package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hrms-api/internal/models"
)

func TestDashboardRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery("SELECT\\s+\\(SELECT COUNT\\(\\*\\) FROM employees").
		WithArgs("2024-03-15").
		WillReturnRows(sqlmock.NewRows([]string{"total_employees", "present_today", "pending_leaves", "on_leave"}).AddRow(12, 9, 2, 1))

	counts, err := repo.Counts(context.Background(), mustDate(t, "2024-03-15"))
	require.NoError(t, err)
	assert.Equal(t, models.DashboardCounts{TotalEmployees: 12, PresentToday: 9, PendingLeaves: 2, OnLeave: 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
