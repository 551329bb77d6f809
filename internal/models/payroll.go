package models

import "time"

// PayrollRecord is the salary computed for one employee and one month.
type PayrollRecord struct {
	ID                 string    `db:"id" json:"id"`
	EmployeeID         string    `db:"employee_id" json:"employee_id"`
	Month              int       `db:"month" json:"month"`
	Year               int       `db:"year" json:"year"`
	BaseSalary         float64   `db:"base_salary" json:"base_salary"`
	TotalWorkingDays   int       `db:"total_working_days" json:"total_working_days"`
	TotalPresentDays   int       `db:"total_present_days" json:"total_present_days"`
	TotalLeaves        int       `db:"total_leaves" json:"total_leaves"`
	TotalOvertimeHours float64   `db:"total_overtime_hours" json:"total_overtime_hours"`
	PerDaySalary       float64   `db:"per_day_salary" json:"per_day_salary"`
	OvertimeBonus      float64   `db:"overtime_bonus" json:"overtime_bonus"`
	LeaveDeduction     float64   `db:"leave_deduction" json:"leave_deduction"`
	FinalSalary        float64   `db:"final_salary" json:"final_salary"`
	LastUpdated        time.Time `db:"last_updated" json:"last_updated"`
}

// PayrollEntry extends the record with employee metadata for registers.
type PayrollEntry struct {
	PayrollRecord
	EmployeeName string  `db:"employee_name" json:"employee_name"`
	Department   *string `db:"department" json:"department,omitempty"`
}

// PayrollRunOutcome reports the result of one employee in a bulk run.
type PayrollRunOutcome struct {
	EmployeeID  string  `json:"employee_id"`
	Generated   bool    `json:"generated"`
	FinalSalary float64 `json:"final_salary,omitempty"`
	Error       string  `json:"error,omitempty"`
}
