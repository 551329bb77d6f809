package models

import "time"

// DashboardSummary aggregates the admin landing page counters.
type DashboardSummary struct {
	TotalEmployees int                    `json:"total_employees"`
	PresentToday   int                    `json:"present_today"`
	PendingLeaves  int                    `json:"pending_leaves"`
	OnLeave        int                    `json:"on_leave"`
	Trend          []AttendanceTrendPoint `json:"attendance_trend"`
	GeneratedAt    time.Time              `json:"generated_at"`
}

// AttendanceTrendPoint is one day of the attendance trend.
type AttendanceTrendPoint struct {
	Date      string `json:"date"`
	Present   int    `json:"present"`
	Absent    int    `json:"absent"`
	MissPunch int    `json:"miss_punch"`
}

// DashboardCounts are the scalar counters loaded in one round trip.
type DashboardCounts struct {
	TotalEmployees int `db:"total_employees"`
	PresentToday   int `db:"present_today"`
	PendingLeaves  int `db:"pending_leaves"`
	OnLeave        int `db:"on_leave"`
}
