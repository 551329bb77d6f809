package models

import "time"

// AuditAction constants represent admin actions recorded in the audit trail.
const (
	AuditActionEmployeeCreate   = "EMPLOYEE_CREATE"
	AuditActionEmployeeUpdate   = "EMPLOYEE_UPDATE"
	AuditActionEmployeeStatus   = "EMPLOYEE_STATUS"
	AuditActionAttendanceMark   = "ATTENDANCE_MARK"
	AuditActionAttendanceUpdate = "ATTENDANCE_UPDATE"
	AuditActionMissPunchDecide  = "MISS_PUNCH_DECIDE"
	AuditActionLeaveDecide      = "LEAVE_DECIDE"
	AuditActionHolidayCreate    = "HOLIDAY_CREATE"
	AuditActionHolidayDelete    = "HOLIDAY_DELETE"
	AuditActionPayrollGenerate  = "PAYROLL_GENERATE"
	AuditActionPayrollRun       = "PAYROLL_RUN"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Actor      *string   `db:"actor" json:"actor,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Status     int       `db:"status" json:"status"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
