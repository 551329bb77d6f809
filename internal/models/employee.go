package models

import (
	"fmt"
	"strings"
	"time"
)

// EmployeeStatus marks whether an employee is still on the rolls.
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "Active"
	EmployeeStatusInactive EmployeeStatus = "Inactive"
)

// Valid returns true when the status is a supported value.
func (s EmployeeStatus) Valid() bool {
	return s == EmployeeStatusActive || s == EmployeeStatusInactive
}

// ParseEmployeeStatus accepts any casing of Active/Inactive.
func ParseEmployeeStatus(raw string) (EmployeeStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return EmployeeStatusActive, true
	case "inactive":
		return EmployeeStatusInactive, true
	default:
		return "", false
	}
}

// EmployeeCodePrefix prefixes every generated employee code.
const EmployeeCodePrefix = "EMP"

// FormatEmployeeCode renders a sequence value as an employee code, e.g. 7 -> EMP007.
func FormatEmployeeCode(seq int64) string {
	return fmt.Sprintf("%s%03d", EmployeeCodePrefix, seq)
}

// Employee is a person on the payroll. EmployeeID is the external code and
// never changes after creation, nor does BaseSalary.
type Employee struct {
	ID           string         `db:"id" json:"id"`
	EmployeeID   string         `db:"employee_id" json:"employee_id"`
	Name         string         `db:"name" json:"name"`
	Email        string         `db:"email" json:"email"`
	Phone        *string        `db:"phone" json:"phone,omitempty"`
	Department   *string        `db:"department" json:"department,omitempty"`
	Role         *string        `db:"role" json:"role,omitempty"`
	Address      *string        `db:"address" json:"address,omitempty"`
	JoinDate     *Date          `db:"join_date" json:"join_date,omitempty"`
	BaseSalary   float64        `db:"base_salary" json:"base_salary"`
	PasswordHash *string        `db:"password_hash" json:"-"`
	Status       EmployeeStatus `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the employee can record attendance.
func (e *Employee) IsActive() bool {
	return e != nil && e.Status == EmployeeStatusActive
}

// EmployeeFilter captures filtering options for listing employees.
type EmployeeFilter struct {
	Search     string
	Department string
	Status     *EmployeeStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
