package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/hrms-api/internal/models"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
	"github.com/noah-isme/hrms-api/pkg/timeclock"
)

type payrollRepository interface {
	Upsert(ctx context.Context, record *models.PayrollRecord) error
	ListByEmployee(ctx context.Context, employeeID string, year int) ([]models.PayrollRecord, error)
}

type attendanceTotaler interface {
	Totals(ctx context.Context, employeeID string, from, to models.Date) (models.AttendanceTotals, error)
}

type payrollEmployeeSource interface {
	FindByCode(ctx context.Context, code string) (*models.Employee, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
}

type payrollObserver interface {
	ObservePayroll(result string, duration time.Duration)
}

// DefaultOvertimeRate is the bonus paid per overtime hour when none is configured.
const DefaultOvertimeRate = 100

// PayrollConfig tunes salary computation.
type PayrollConfig struct {
	OvertimeRate   float64
	RunConcurrency int
}

// GeneratePayrollRequest identifies one payroll period.
type GeneratePayrollRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`
	Year       int    `json:"year" validate:"required,min=2000,max=2100"`
}

// RunPayrollRequest generates payroll for every active employee.
type RunPayrollRequest struct {
	Month int `json:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
}

// PayrollRunSummary aggregates a bulk run.
type PayrollRunSummary struct {
	Month     int                        `json:"month"`
	Year      int                        `json:"year"`
	Generated int                        `json:"generated"`
	Failed    int                        `json:"failed"`
	Outcomes  []models.PayrollRunOutcome `json:"outcomes"`
}

// CalculatePayroll derives the salary figures for a period from the
// attendance totals. A period without attendance rows has no per-day rate, so
// nothing is deducted.
func CalculatePayroll(baseSalary float64, totals models.AttendanceTotals, overtimeRate float64) models.PayrollRecord {
	var perDay float64
	if totals.TotalDays > 0 {
		perDay = baseSalary / float64(totals.TotalDays)
	}
	deduction := float64(totals.LeaveDays) * perDay
	bonus := totals.OvertimeHours * overtimeRate

	return models.PayrollRecord{
		BaseSalary:         timeclock.Round2(baseSalary),
		TotalWorkingDays:   totals.TotalDays,
		TotalPresentDays:   totals.PresentDays,
		TotalLeaves:        totals.LeaveDays,
		TotalOvertimeHours: timeclock.Round2(totals.OvertimeHours),
		PerDaySalary:       timeclock.Round2(perDay),
		OvertimeBonus:      timeclock.Round2(bonus),
		LeaveDeduction:     timeclock.Round2(deduction),
		FinalSalary:        timeclock.Round2(baseSalary + bonus - deduction),
	}
}

// PayrollService computes and stores monthly payroll.
type PayrollService struct {
	repo       payrollRepository
	attendance attendanceTotaler
	employees  payrollEmployeeSource
	observer   payrollObserver
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        PayrollConfig
}

// NewPayrollService constructs a PayrollService.
func NewPayrollService(repo payrollRepository, attendance attendanceTotaler, employees payrollEmployeeSource, observer payrollObserver, validate *validator.Validate, logger *zap.Logger, cfg PayrollConfig) *PayrollService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OvertimeRate <= 0 {
		cfg.OvertimeRate = DefaultOvertimeRate
	}
	if cfg.RunConcurrency <= 0 {
		cfg.RunConcurrency = 4
	}
	return &PayrollService{
		repo:       repo,
		attendance: attendance,
		employees:  employees,
		observer:   observer,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate computes the payroll for one employee and month and upserts it.
// Running it again over unchanged attendance yields the same figures.
func (s *PayrollService) Generate(ctx context.Context, req GeneratePayrollRequest) (*models.PayrollRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "employee_id, month and year are required")
	}
	start := time.Now()
	record, err := s.generate(ctx, strings.TrimSpace(req.EmployeeID), req.Month, req.Year)
	s.observe(err, time.Since(start))
	return record, err
}

func (s *PayrollService) generate(ctx context.Context, employeeID string, month, year int) (*models.PayrollRecord, error) {
	employee, err := s.employees.FindByCode(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEmployeeNotFound
		}
		return nil, internalError(err, "failed to load employee")
	}

	from, to := models.MonthRange(year, time.Month(month))
	totals, err := s.attendance.Totals(ctx, employeeID, from, to)
	if err != nil {
		return nil, internalError(err, "failed to aggregate attendance")
	}

	record := CalculatePayroll(employee.BaseSalary, totals, s.cfg.OvertimeRate)
	record.EmployeeID = employeeID
	record.Month = month
	record.Year = year
	if err := s.repo.Upsert(ctx, &record); err != nil {
		s.logger.Error("payroll upsert failed", zap.String("employee_id", employeeID), zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		return nil, internalError(err, "failed to store payroll")
	}
	s.logger.Info("payroll generated",
		zap.String("employee_id", employeeID),
		zap.Int("month", month),
		zap.Int("year", year),
		zap.Float64("final_salary", record.FinalSalary),
	)
	return &record, nil
}

// History lists an employee's payroll records, newest first. A zero year lists all.
func (s *PayrollService) History(ctx context.Context, employeeID string, year int) ([]models.PayrollRecord, error) {
	employeeID = strings.TrimSpace(employeeID)
	if _, err := s.employees.FindByCode(ctx, employeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEmployeeNotFound
		}
		return nil, internalError(err, "failed to load employee")
	}
	if year < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year must be positive")
	}
	records, err := s.repo.ListByEmployee(ctx, employeeID, year)
	if err != nil {
		return nil, internalError(err, "failed to load payroll history")
	}
	return records, nil
}

// RunAll generates the month's payroll for every active employee with a
// bounded number of workers. A failure for one employee is reported in its
// outcome and does not stop the others.
func (s *PayrollService) RunAll(ctx context.Context, req RunPayrollRequest) (*PayrollRunSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "month and year are required")
	}
	codes, err := s.employees.ListActiveCodes(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list active employees")
	}

	outcomes := make([]models.PayrollRunOutcome, len(codes))
	var generated atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.RunConcurrency)
	for i, code := range codes {
		i, code := i, code
		group.Go(func() error {
			outcome := models.PayrollRunOutcome{EmployeeID: code}
			if err := groupCtx.Err(); err != nil {
				outcome.Error = err.Error()
				outcomes[i] = outcome
				return nil
			}
			start := time.Now()
			record, err := s.generate(groupCtx, code, req.Month, req.Year)
			s.observe(err, time.Since(start))
			if err != nil {
				outcome.Error = appErrors.FromError(err).Message
			} else {
				outcome.Generated = true
				outcome.FinalSalary = record.FinalSalary
				generated.Add(1)
			}
			outcomes[i] = outcome
			return nil
		})
	}
	_ = group.Wait()

	summary := &PayrollRunSummary{
		Month:     req.Month,
		Year:      req.Year,
		Generated: int(generated.Load()),
		Outcomes:  outcomes,
	}
	summary.Failed = len(outcomes) - summary.Generated
	s.logger.Info("payroll run finished",
		zap.Int("month", req.Month),
		zap.Int("year", req.Year),
		zap.Int("generated", summary.Generated),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s *PayrollService) observe(err error, duration time.Duration) {
	if s.observer == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	s.observer.ObservePayroll(result, duration)
}
