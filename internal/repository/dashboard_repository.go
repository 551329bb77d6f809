package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hrms-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Counts loads the scalar counters for the given day.
func (r *DashboardRepository) Counts(ctx context.Context, today models.Date) (models.DashboardCounts, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM employees WHERE status = 'Active') AS total_employees,
(SELECT COUNT(*) FROM attendance WHERE date = $1 AND status IN ('Present', 'Checked-In')) AS present_today,
(SELECT COUNT(*) FROM leave_requests WHERE status = 'Pending') AS pending_leaves,
(SELECT COUNT(DISTINCT employee_id) FROM leave_requests WHERE status = 'Approved' AND $1 BETWEEN from_date AND to_date) AS on_leave`
	var counts models.DashboardCounts
	if err := r.db.GetContext(ctx, &counts, query, today); err != nil {
		return models.DashboardCounts{}, fmt.Errorf("dashboard counts: %w", err)
	}
	return counts, nil
}

// StatusCounts returns per-day status counts in [from, to].
func (r *DashboardRepository) StatusCounts(ctx context.Context, from, to models.Date) ([]models.AttendanceStatusCount, error) {
	const query = `SELECT date, status, COUNT(*) AS count FROM attendance WHERE date >= $1 AND date <= $2 GROUP BY date, status ORDER BY date ASC`
	counts := make([]models.AttendanceStatusCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query, from, to); err != nil {
		return nil, fmt.Errorf("dashboard status counts: %w", err)
	}
	return counts, nil
}
