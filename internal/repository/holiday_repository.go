package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hrms-api/internal/models"
)

const holidayColumns = "id, name, date, description, created_at"

// HolidayRepository manages the holiday calendar.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs the repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// List returns holidays ordered by date, optionally limited to one year.
func (r *HolidayRepository) List(ctx context.Context, year int) ([]models.Holiday, error) {
	query := fmt.Sprintf("SELECT %s FROM holidays", holidayColumns)
	var args []interface{}
	if year > 0 {
		query += " WHERE EXTRACT(YEAR FROM date) = $1"
		args = append(args, year)
	}
	query += " ORDER BY date ASC"
	holidays := make([]models.Holiday, 0)
	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// DatesBetween returns the holiday dates in [from, to] as a set keyed by YYYY-MM-DD.
func (r *HolidayRepository) DatesBetween(ctx context.Context, from, to models.Date) (map[string]struct{}, error) {
	const query = `SELECT date FROM holidays WHERE date >= $1 AND date <= $2`
	var dates []models.Date
	if err := r.db.SelectContext(ctx, &dates, query, from, to); err != nil {
		return nil, fmt.Errorf("list holiday dates: %w", err)
	}
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d.String()] = struct{}{}
	}
	return set, nil
}

// Create inserts a holiday. A second holiday on the same date violates the unique key.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	holiday.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO holidays (id, name, date, description, created_at) VALUES (:id, :name, :date, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return wrapErr("create holiday", err)
	}
	return nil
}

// Delete removes a holiday, returning sql.ErrNoRows when it does not exist.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check holiday delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
