package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// AttendanceStatus is the closed set of states an attendance day can be in.
type AttendanceStatus string

const (
	AttendanceStatusPresent      AttendanceStatus = "Present"
	AttendanceStatusCheckedIn    AttendanceStatus = "Checked-In"
	AttendanceStatusMissPunch    AttendanceStatus = "Miss Punch"
	AttendanceStatusPending      AttendanceStatus = "Pending"
	AttendanceStatusAbsent       AttendanceStatus = "Absent"
	AttendanceStatusFullDayLeave AttendanceStatus = "Full-Day Leave"
	AttendanceStatusHalfDayLeave AttendanceStatus = "Half-Day Leave"
)

// AttendanceStatuses lists every supported status.
var AttendanceStatuses = []AttendanceStatus{
	AttendanceStatusPresent,
	AttendanceStatusCheckedIn,
	AttendanceStatusMissPunch,
	AttendanceStatusPending,
	AttendanceStatusAbsent,
	AttendanceStatusFullDayLeave,
	AttendanceStatusHalfDayLeave,
}

var attendanceStatusLookup = func() map[string]AttendanceStatus {
	lookup := make(map[string]AttendanceStatus, len(AttendanceStatuses))
	for _, s := range AttendanceStatuses {
		lookup[normalizeStatusKey(string(s))] = s
	}
	return lookup
}()

func normalizeStatusKey(raw string) string {
	replacer := strings.NewReplacer("_", " ", "-", " ")
	return strings.Join(strings.Fields(strings.ToLower(replacer.Replace(raw))), " ")
}

// ParseAttendanceStatus maps loosely formatted input ("present", "MISS_PUNCH",
// "checked in") onto the canonical status.
func ParseAttendanceStatus(raw string) (AttendanceStatus, error) {
	if s, ok := attendanceStatusLookup[normalizeStatusKey(raw)]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown attendance status %q", raw)
}

// Valid returns true when the status is one of the canonical values.
func (s AttendanceStatus) Valid() bool {
	for _, known := range AttendanceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsLeave reports whether the status is a leave day.
func (s AttendanceStatus) IsLeave() bool {
	return s == AttendanceStatusFullDayLeave || s == AttendanceStatusHalfDayLeave
}

// UnmarshalText normalizes JSON and form input.
func (s *AttendanceStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseAttendanceStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer, refusing to persist non-canonical values.
func (s AttendanceStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid attendance status %q", string(s))
	}
	return string(s), nil
}

// Scan implements sql.Scanner, normalizing legacy spellings on read.
func (s *AttendanceStatus) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*s = ""
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("unsupported type %T for AttendanceStatus", value)
	}
	parsed, err := ParseAttendanceStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ResolveAttendanceStatus derives the status of a day from its punches.
// An explicit admin assignment bypasses this entirely.
func ResolveAttendanceStatus(workingHours float64, hasCheckIn, hasCheckOut bool) AttendanceStatus {
	switch {
	case !hasCheckIn:
		return AttendanceStatusPending
	case !hasCheckOut:
		return AttendanceStatusCheckedIn
	case workingHours > 0:
		return AttendanceStatusPresent
	default:
		return AttendanceStatusMissPunch
	}
}

// AttendanceRecord is one employee's attendance for one calendar day.
type AttendanceRecord struct {
	ID            string           `db:"id" json:"id"`
	EmployeeID    string           `db:"employee_id" json:"employee_id"`
	Date          Date             `db:"date" json:"date"`
	CheckInTime   *string          `db:"check_in_time" json:"check_in_time,omitempty"`
	CheckOutTime  *string          `db:"check_out_time" json:"check_out_time,omitempty"`
	WorkingHours  float64          `db:"working_hours" json:"working_hours"`
	OvertimeHours float64          `db:"overtime_hours" json:"overtime_hours"`
	Status        AttendanceStatus `db:"status" json:"status"`
	Location      *string          `db:"location" json:"location,omitempty"`
	Notes         *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// HasCheckIn reports whether a check-in punch is recorded.
func (r *AttendanceRecord) HasCheckIn() bool {
	return r != nil && r.CheckInTime != nil && *r.CheckInTime != ""
}

// HasCheckOut reports whether a check-out punch is recorded.
func (r *AttendanceRecord) HasCheckOut() bool {
	return r != nil && r.CheckOutTime != nil && *r.CheckOutTime != ""
}

// AttendanceEntry extends the record with employee metadata for admin listings.
type AttendanceEntry struct {
	AttendanceRecord
	EmployeeName string  `db:"employee_name" json:"employee_name"`
	Department   *string `db:"department" json:"department,omitempty"`
}

// AttendanceFilter defines query filters for admin listings.
type AttendanceFilter struct {
	EmployeeID string
	Status     *AttendanceStatus
	DateFrom   *Date
	DateTo     *Date
	Page       int
	PageSize   int
}

// AttendanceTotals aggregates one employee's attendance over a payroll period.
type AttendanceTotals struct {
	TotalDays     int     `db:"total_days" json:"total_days"`
	PresentDays   int     `db:"present_days" json:"present_days"`
	LeaveDays     int     `db:"leave_days" json:"leave_days"`
	OvertimeHours float64 `db:"overtime_hours" json:"overtime_hours"`
}

// AttendanceStatusCount is a per-day, per-status count used for trends.
type AttendanceStatusCount struct {
	Date   Date             `db:"date"`
	Status AttendanceStatus `db:"status"`
	Count  int              `db:"count"`
}
