package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType enumerates supported asynchronous report categories.
type ReportType string

const (
	ReportTypeAttendance ReportType = "attendance"
	ReportTypePayroll    ReportType = "payroll"
)

// Valid returns true when the type is supported.
func (t ReportType) Valid() bool {
	return t == ReportTypeAttendance || t == ReportTypePayroll
}

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// Valid returns true when the format is supported.
func (f ReportFormat) Valid() bool {
	switch f {
	case ReportFormatCSV, ReportFormatPDF, ReportFormatXLSX:
		return true
	default:
		return false
	}
}

// ContentType returns the MIME type served for the format.
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatPDF:
		return "application/pdf"
	case ReportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob persisted background job metadata. CreatedBy carries the
// requesting client's address since the API has no user accounts.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ReportJobParams is the export scope, persisted as JSONB. A nil EmployeeID
// covers every employee.
type ReportJobParams struct {
	Month      int          `json:"month"`
	Year       int          `json:"year"`
	EmployeeID *string      `json:"employeeId,omitempty"`
	Format     ReportFormat `json:"format"`
}

// Period renders the params period as YYYY-MM.
func (p ReportJobParams) Period() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Value marshals params to JSON for persistence.
func (p ReportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ReportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ReportJobParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportJobParams", value)
	}
	if len(data) == 0 {
		*p = ReportJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal report job params: %w", err)
	}
	return nil
}
