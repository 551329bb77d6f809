package models

import (
	"strings"
	"time"
)

// RequestStatus tracks the decision on a leave or miss-punch request.
// Approved and Rejected are terminal.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusApproved RequestStatus = "Approved"
	RequestStatusRejected RequestStatus = "Rejected"
)

// Valid returns true when the status is a supported value.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	default:
		return false
	}
}

// Decided reports whether the request reached a terminal state.
func (s RequestStatus) Decided() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// ParseRequestStatus accepts any casing of the three statuses.
func ParseRequestStatus(raw string) (RequestStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return RequestStatusPending, true
	case "approved":
		return RequestStatusApproved, true
	case "rejected":
		return RequestStatusRejected, true
	default:
		return "", false
	}
}

// LeaveRequest is an employee's request for time off over a date range.
type LeaveRequest struct {
	ID           string        `db:"id" json:"id"`
	EmployeeID   string        `db:"employee_id" json:"employee_id"`
	FromDate     Date          `db:"from_date" json:"from_date"`
	ToDate       Date          `db:"to_date" json:"to_date"`
	LeaveType    string        `db:"leave_type" json:"leave_type"`
	Reason       *string       `db:"reason" json:"reason,omitempty"`
	Status       RequestStatus `db:"status" json:"status"`
	DecisionNote *string       `db:"decision_note" json:"decision_note,omitempty"`
	AppliedOn    time.Time     `db:"applied_on" json:"applied_on"`
	DecidedAt    *time.Time    `db:"decided_at" json:"decided_at,omitempty"`
	Attachments  []Attachment  `db:"-" json:"attachments"`
}

// IsHalfDay reports whether the leave type describes a half-day leave.
func (l *LeaveRequest) IsHalfDay() bool {
	return strings.Contains(normalizeStatusKey(l.LeaveType), "half")
}

// AttendanceStatus returns the attendance status approved days are marked with.
func (l *LeaveRequest) AttendanceStatus() AttendanceStatus {
	if l.IsHalfDay() {
		return AttendanceStatusHalfDayLeave
	}
	return AttendanceStatusFullDayLeave
}

// MaxLeaveSpanDays bounds a single leave request, inclusive of both ends.
const MaxLeaveSpanDays = 366

// SpanDays counts the calendar days covered by the request, inclusive.
func (l *LeaveRequest) SpanDays() int {
	if l.ToDate.Before(l.FromDate.Time) {
		return 0
	}
	return int(l.ToDate.Sub(l.FromDate.Time).Hours()/24) + 1
}

// Days returns every calendar day covered by the request, inclusive.
func (l *LeaveRequest) Days() []Date {
	if l.ToDate.Before(l.FromDate.Time) {
		return nil
	}
	days := make([]Date, 0, l.SpanDays())
	for d := l.FromDate; !d.After(l.ToDate.Time); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// LeaveFilter captures listing filters for leave requests.
type LeaveFilter struct {
	EmployeeID string
	Status     *RequestStatus
	Page       int
	PageSize   int
}

// MissPunchRequest asks an admin to acknowledge, and optionally correct, a
// day with a missing or broken punch.
type MissPunchRequest struct {
	ID           string        `db:"id" json:"id"`
	EmployeeID   string        `db:"employee_id" json:"employee_id"`
	Date         Date          `db:"date" json:"date"`
	CheckInTime  *string       `db:"check_in_time" json:"check_in_time,omitempty"`
	CheckOutTime *string       `db:"check_out_time" json:"check_out_time,omitempty"`
	Reason       string        `db:"reason" json:"reason"`
	Status       RequestStatus `db:"status" json:"status"`
	DecisionNote *string       `db:"decision_note" json:"decision_note,omitempty"`
	RequestedAt  time.Time     `db:"requested_at" json:"requested_at"`
	DecidedAt    *time.Time    `db:"decided_at" json:"decided_at,omitempty"`
	Attachments  []Attachment  `db:"-" json:"attachments"`
}

// HasCorrection reports whether the request proposes corrected punch times.
func (m *MissPunchRequest) HasCorrection() bool {
	return (m.CheckInTime != nil && *m.CheckInTime != "") || (m.CheckOutTime != nil && *m.CheckOutTime != "")
}

// MissPunchFilter captures listing filters for miss-punch requests.
type MissPunchFilter struct {
	EmployeeID string
	Status     *RequestStatus
	Page       int
	PageSize   int
}
