package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/hrms-api/internal/models"
)

// ReportRequest is the body of POST /admin/reports. Format defaults to csv and
// an empty employee_id exports every employee.
type ReportRequest struct {
	Type       models.ReportType   `json:"type"`
	Month      int                 `json:"month"`
	Year       int                 `json:"year"`
	EmployeeID *string             `json:"employee_id,omitempty"`
	Format     models.ReportFormat `json:"format,omitempty"`
}

// Params converts the request into the persisted job parameters.
func (r ReportRequest) Params() models.ReportJobParams {
	params := models.ReportJobParams{Month: r.Month, Year: r.Year, Format: r.Format}
	if params.Format == "" {
		params.Format = models.ReportFormatCSV
	}
	if r.EmployeeID != nil {
		if id := strings.TrimSpace(*r.EmployeeID); id != "" {
			params.EmployeeID = &id
		}
	}
	return params
}

// ReportJobResponse acknowledges a queued export.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse is what clients poll until result_url appears.
type ReportStatusResponse struct {
	ID         string              `json:"id"`
	Type       models.ReportType   `json:"type"`
	Period     string              `json:"period"`
	EmployeeID *string             `json:"employee_id,omitempty"`
	Format     models.ReportFormat `json:"format"`
	Status     models.ReportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	ResultURL  *string             `json:"result_url,omitempty"`
	Error      *string             `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// NewReportStatus maps a stored job. A blank error message is left out.
func NewReportStatus(job *models.ReportJob) *ReportStatusResponse {
	resp := &ReportStatusResponse{
		ID:         job.ID,
		Type:       job.Type,
		Period:     job.Params.Period(),
		EmployeeID: job.Params.EmployeeID,
		Format:     job.Params.Format,
		Status:     job.Status,
		Progress:   job.Progress,
		ResultURL:  job.ResultURL,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp
}
