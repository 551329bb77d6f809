package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/pkg/export"
	"github.com/noah-isme/hrms-api/pkg/storage"
)

type attendanceReportSource interface {
	ListForReport(ctx context.Context, from, to models.Date, employeeID *string) ([]models.AttendanceEntry, error)
}

type payrollReportSource interface {
	ListPeriod(ctx context.Context, month, year int, employeeID *string) ([]models.PayrollEntry, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	Rows         int
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	attendance attendanceReportSource
	payroll    payrollReportSource
	storage    fileStorage
	renderers  map[models.ReportFormat]datasetRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

// NewExportService constructs an ExportService with the CSV, PDF and XLSX renderers.
func NewExportService(attendance attendanceReportSource, payroll payrollReportSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		attendance: attendance,
		payroll:    payroll,
		storage:    store,
		renderers: map[models.ReportFormat]datasetRenderer{
			models.ReportFormatCSV:  export.NewCSVExporter(),
			models.ReportFormatPDF:  export.NewPDFExporter(),
			models.ReportFormatXLSX: export.NewXLSXExporter(),
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Generate builds dataset according to job definition and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, ok := s.renderers[job.Params.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Info("report rendered",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.String("format", string(job.Params.Format)),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		Rows:         len(dataset.Rows),
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	scope := "all"
	if job.Params.EmployeeID != nil && *job.Params.EmployeeID != "" {
		scope = sanitizeFilename(*job.Params.EmployeeID)
	}
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s_%s.%s", job.Type, job.Params.Period(), scope, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, error) {
	switch job.Type {
	case models.ReportTypeAttendance:
		return s.buildAttendanceDataset(ctx, job.Params)
	case models.ReportTypePayroll:
		return s.buildPayrollDataset(ctx, job.Params)
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", job.Type)
	}
}

var attendanceReportHeaders = []string{"Employee ID", "Name", "Department", "Date", "Check In", "Check Out", "Working Hours", "Overtime Hours", "Status"}

func (s *ExportService) buildAttendanceDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	from, to := models.MonthRange(params.Year, time.Month(params.Month))
	entries, err := s.attendance.ListForReport(ctx, from, to, params.EmployeeID)
	if err != nil {
		return export.Dataset{}, err
	}
	var worked, overtime float64
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		worked += entry.WorkingHours
		overtime += entry.OvertimeHours
		rows = append(rows, map[string]string{
			"Employee ID":    entry.EmployeeID,
			"Name":           entry.EmployeeName,
			"Department":     deref(entry.Department),
			"Date":           entry.Date.String(),
			"Check In":       deref(entry.CheckInTime),
			"Check Out":      deref(entry.CheckOutTime),
			"Working Hours":  formatAmount(entry.WorkingHours),
			"Overtime Hours": formatAmount(entry.OvertimeHours),
			"Status":         string(entry.Status),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Attendance Report %s", params.Period()),
		Headers: attendanceReportHeaders,
		Rows:    rows,
		Footer: map[string]string{
			"Employee ID":    "TOTAL",
			"Working Hours":  formatAmount(worked),
			"Overtime Hours": formatAmount(overtime),
		},
		Numeric: []string{"Working Hours", "Overtime Hours"},
	}, nil
}

var payrollReportHeaders = []string{"Employee ID", "Name", "Department", "Base Salary", "Working Days", "Present Days", "Leaves", "Overtime Hours", "Per Day", "Overtime Bonus", "Leave Deduction", "Final Salary"}

func (s *ExportService) buildPayrollDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	entries, err := s.payroll.ListPeriod(ctx, params.Month, params.Year, params.EmployeeID)
	if err != nil {
		return export.Dataset{}, err
	}
	var base, bonus, deduction, final float64
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		base += entry.BaseSalary
		bonus += entry.OvertimeBonus
		deduction += entry.LeaveDeduction
		final += entry.FinalSalary
		rows = append(rows, map[string]string{
			"Employee ID":     entry.EmployeeID,
			"Name":            entry.EmployeeName,
			"Department":      deref(entry.Department),
			"Base Salary":     formatAmount(entry.BaseSalary),
			"Working Days":    strconv.Itoa(entry.TotalWorkingDays),
			"Present Days":    strconv.Itoa(entry.TotalPresentDays),
			"Leaves":          strconv.Itoa(entry.TotalLeaves),
			"Overtime Hours":  formatAmount(entry.TotalOvertimeHours),
			"Per Day":         formatAmount(entry.PerDaySalary),
			"Overtime Bonus":  formatAmount(entry.OvertimeBonus),
			"Leave Deduction": formatAmount(entry.LeaveDeduction),
			"Final Salary":    formatAmount(entry.FinalSalary),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Payroll Register %s", params.Period()),
		Headers: payrollReportHeaders,
		Rows:    rows,
		Footer: map[string]string{
			"Employee ID":     "TOTAL",
			"Base Salary":     formatAmount(base),
			"Overtime Bonus":  formatAmount(bonus),
			"Leave Deduction": formatAmount(deduction),
			"Final Salary":    formatAmount(final),
		},
		Numeric: []string{"Base Salary", "Working Days", "Present Days", "Leaves", "Overtime Hours", "Per Day", "Overtime Bonus", "Leave Deduction", "Final Salary"},
	}, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
