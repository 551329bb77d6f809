package models

import "time"

// Holiday is a company-wide non-working day.
type Holiday struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Date        Date      `db:"date" json:"date"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
