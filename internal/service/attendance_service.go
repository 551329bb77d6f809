package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/internal/repository"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
	"github.com/noah-isme/hrms-api/pkg/timeclock"
)

type attendanceRepository interface {
	CheckIn(ctx context.Context, employeeID string, date models.Date, checkIn string, location *string) (*models.AttendanceRecord, error)
	FindByDay(ctx context.Context, employeeID string, date models.Date) (*models.AttendanceRecord, error)
	UpdateDay(ctx context.Context, employeeID string, date models.Date, mutate func(*models.AttendanceRecord) error) (*models.AttendanceRecord, error)
	UpdateByID(ctx context.Context, id string, mutate func(*models.AttendanceRecord) error) (*models.AttendanceRecord, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	ListRange(ctx context.Context, employeeID string, from, to models.Date) ([]models.AttendanceRecord, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceEntry, int, error)
}

type employeeFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Employee, error)
}

type attendanceObserver interface {
	ObserveAttendanceEvent(event string, status models.AttendanceStatus)
}

// AttendanceConfig tunes punch handling.
type AttendanceConfig struct {
	// StandardHours is the shift length; hours beyond it become overtime at checkout. Zero disables it.
	StandardHours float64
	Location      *time.Location
}

// CheckInRequest is the payload of an employee check-in.
type CheckInRequest struct {
	EmployeeID  string  `json:"employee_id" validate:"required"`
	Date        string  `json:"date" validate:"omitempty,isodate"`
	CheckInTime string  `json:"check_in_time" validate:"required"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
}

// CheckOutRequest is the payload of an employee check-out.
type CheckOutRequest struct {
	EmployeeID   string `json:"employee_id" validate:"required"`
	Date         string `json:"date" validate:"omitempty,isodate"`
	CheckOutTime string `json:"check_out_time" validate:"required"`
}

// CheckOutResult reports the derived values of a checkout.
type CheckOutResult struct {
	WorkingHours  float64                  `json:"working_hours"`
	OvertimeHours float64                  `json:"overtime_hours"`
	Status        models.AttendanceStatus  `json:"status"`
	Record        *models.AttendanceRecord `json:"record"`
}

// AttendanceListRequest filters the admin attendance listing.
type AttendanceListRequest struct {
	EmployeeID string `form:"employee_id"`
	Date       string `form:"date" validate:"omitempty,isodate"`
	DateFrom   string `form:"date_from" validate:"omitempty,isodate"`
	DateTo     string `form:"date_to" validate:"omitempty,isodate"`
	Status     string `form:"status" validate:"omitempty,attendance_status"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// MarkAttendanceRequest lets an admin record a day without punches.
type MarkAttendanceRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required"`
	Date       string  `json:"date" validate:"required,isodate"`
	Status     string  `json:"status" validate:"required,attendance_status"`
	Notes      *string `json:"notes" validate:"omitempty,max=500"`
}

// CorrectAttendanceRequest is an admin correction. Nil fields are kept; an
// empty time string clears the punch. Without Status the day is re-resolved
// from its punches.
type CorrectAttendanceRequest struct {
	CheckInTime   *string  `json:"check_in_time"`
	CheckOutTime  *string  `json:"check_out_time"`
	OvertimeHours *float64 `json:"overtime_hours" validate:"omitempty,gte=0,lte=24"`
	Status        *string  `json:"status" validate:"omitempty,attendance_status"`
	Notes         *string  `json:"notes" validate:"omitempty,max=500"`
}

// AttendanceService implements the punch workflow and admin corrections.
type AttendanceService struct {
	repo      attendanceRepository
	employees employeeFinder
	observer  attendanceObserver
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AttendanceConfig
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, employees employeeFinder, observer attendanceObserver, validate *validator.Validate, logger *zap.Logger, cfg AttendanceConfig) *AttendanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &AttendanceService{
		repo:      repo,
		employees: employees,
		observer:  observer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Today returns the current calendar day in the configured timezone.
func (s *AttendanceService) Today() models.Date {
	return models.NewDate(s.now().In(s.cfg.Location))
}

// CheckIn records the first punch of the day. A second check-in for the same
// employee and date fails with ErrAlreadyCheckedIn.
func (s *AttendanceService) CheckIn(ctx context.Context, req CheckInRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid check-in payload")
	}
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return nil, err
	}
	in, err := timeclock.Parse(req.CheckInTime)
	if err != nil {
		return nil, invalidTime("check_in_time", req.CheckInTime)
	}
	if _, err := s.activeEmployee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}

	record, err := s.repo.CheckIn(ctx, strings.TrimSpace(req.EmployeeID), date, in.Clock(), normalizeOptional(req.Location))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyCheckedIn
		}
		s.logger.Error("check-in failed", zap.String("employee_id", req.EmployeeID), zap.String("date", date.String()), zap.Error(err))
		return nil, internalError(err, "failed to record check-in")
	}
	s.observe("check_in", record.Status)
	return record, nil
}

// CheckOut records the closing punch, derives working hours and resolves the
// day's status. Repeating the same checkout recomputes identical values.
func (s *AttendanceService) CheckOut(ctx context.Context, req CheckOutRequest) (*CheckOutResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid check-out payload")
	}
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return nil, err
	}
	out, err := timeclock.Parse(req.CheckOutTime)
	if err != nil {
		return nil, invalidTime("check_out_time", req.CheckOutTime)
	}

	record, err := s.repo.UpdateDay(ctx, strings.TrimSpace(req.EmployeeID), date, func(rec *models.AttendanceRecord) error {
		if !rec.HasCheckIn() {
			return appErrors.ErrNoCheckIn
		}
		clock := out.Clock()
		rec.CheckOutTime = &clock
		s.resolve(rec, nil, nil)
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || appErrors.IsKind(err, appErrors.ErrNoCheckIn) {
			return nil, appErrors.ErrNoCheckIn
		}
		s.logger.Error("check-out failed", zap.String("employee_id", req.EmployeeID), zap.String("date", date.String()), zap.Error(err))
		return nil, internalError(err, "failed to record check-out")
	}
	s.observe("check_out", record.Status)
	return &CheckOutResult{
		WorkingHours:  record.WorkingHours,
		OvertimeHours: record.OvertimeHours,
		Status:        record.Status,
		Record:        record,
	}, nil
}

// MonthlyAttendance returns an employee's records for a YYYY-MM month in date order.
func (s *AttendanceService) MonthlyAttendance(ctx context.Context, employeeID, yearMonth string) ([]models.AttendanceRecord, error) {
	year, month, err := models.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be YYYY-MM")
	}
	if _, err := s.findEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	from, to := models.MonthRange(year, month)
	records, err := s.repo.ListRange(ctx, strings.TrimSpace(employeeID), from, to)
	if err != nil {
		return nil, internalError(err, "failed to load attendance")
	}
	return records, nil
}

// List returns attendance rows across employees for admins.
func (s *AttendanceService) List(ctx context.Context, req AttendanceListRequest) ([]models.AttendanceEntry, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, validationError(err, "invalid attendance filter")
	}
	filter := models.AttendanceFilter{
		EmployeeID: strings.TrimSpace(req.EmployeeID),
		Page:       req.Page,
		PageSize:   req.PageSize,
	}
	if req.Date != "" {
		req.DateFrom, req.DateTo = req.Date, req.Date
	}
	var err error
	if filter.DateFrom, err = parseOptionalDate(req.DateFrom); err != nil {
		return nil, nil, err
	}
	if filter.DateTo, err = parseOptionalDate(req.DateTo); err != nil {
		return nil, nil, err
	}
	if req.Status != "" {
		status, _ := models.ParseAttendanceStatus(req.Status)
		filter.Status = &status
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list attendance")
	}
	return entries, buildPagination(req.Page, req.PageSize, total), nil
}

// Mark creates a day without punches, e.g. Absent. Punch-derived statuses
// cannot be assigned this way.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	status, _ := models.ParseAttendanceStatus(req.Status)
	switch status {
	case models.AttendanceStatusPresent, models.AttendanceStatusCheckedIn, models.AttendanceStatusMissPunch:
		return nil, appErrors.Clone(appErrors.ErrValidation, string(status)+" requires punches; use a correction instead")
	}
	date, _ := models.ParseDate(req.Date)
	if _, err := s.findEmployee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}
	record := &models.AttendanceRecord{
		EmployeeID: strings.TrimSpace(req.EmployeeID),
		Date:       date,
		Status:     status,
		Notes:      normalizeOptional(req.Notes),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, appErrors.ErrRecordExists
		}
		return nil, internalError(err, "failed to mark attendance")
	}
	s.observe("mark", record.Status)
	return record, nil
}

// Correct applies an admin correction to the record with the given id.
func (s *AttendanceService) Correct(ctx context.Context, id string, req CorrectAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance correction")
	}
	in, err := parseOptionalPunch("check_in_time", req.CheckInTime)
	if err != nil {
		return nil, err
	}
	out, err := parseOptionalPunch("check_out_time", req.CheckOutTime)
	if err != nil {
		return nil, err
	}
	var explicit *models.AttendanceStatus
	if req.Status != nil && *req.Status != "" {
		status, _ := models.ParseAttendanceStatus(*req.Status)
		explicit = &status
	}

	record, err := s.repo.UpdateByID(ctx, id, func(rec *models.AttendanceRecord) error {
		applyPunch(&rec.CheckInTime, in)
		applyPunch(&rec.CheckOutTime, out)
		if rec.HasCheckOut() && !rec.HasCheckIn() {
			return appErrors.ErrNoCheckIn
		}
		if req.Notes != nil {
			rec.Notes = normalizeOptional(req.Notes)
		}
		s.resolve(rec, explicit, req.OvertimeHours)
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		if appErrors.IsKind(err, appErrors.ErrNoCheckIn) {
			return nil, appErrors.ErrNoCheckIn
		}
		return nil, internalError(err, "failed to correct attendance")
	}
	s.observe("correction", record.Status)
	return record, nil
}

// ApplyCorrection sets the punches of an employee's day, creating the row when
// the employee never punched. Used when a miss-punch request is approved.
func (s *AttendanceService) ApplyCorrection(ctx context.Context, employeeID string, date models.Date, checkIn, checkOut *string) (*models.AttendanceRecord, error) {
	in, err := parseOptionalPunch("check_in_time", checkIn)
	if err != nil {
		return nil, err
	}
	out, err := parseOptionalPunch("check_out_time", checkOut)
	if err != nil {
		return nil, err
	}
	mutate := func(rec *models.AttendanceRecord) error {
		applyPunch(&rec.CheckInTime, in)
		applyPunch(&rec.CheckOutTime, out)
		if rec.HasCheckOut() && !rec.HasCheckIn() {
			return appErrors.ErrNoCheckIn
		}
		s.resolve(rec, nil, nil)
		return nil
	}

	record, err := s.repo.UpdateDay(ctx, employeeID, date, mutate)
	if errors.Is(err, sql.ErrNoRows) {
		fresh := &models.AttendanceRecord{EmployeeID: employeeID, Date: date}
		if err = mutate(fresh); err == nil {
			if err = s.repo.Create(ctx, fresh); err == nil {
				record = fresh
			} else if errors.Is(err, repository.ErrUniqueViolation) {
				// A punch landed between the lookup and the insert.
				record, err = s.repo.UpdateDay(ctx, employeeID, date, mutate)
			}
		}
	}
	if err != nil {
		if appErrors.IsKind(err, appErrors.ErrNoCheckIn) {
			return nil, appErrors.ErrNoCheckIn
		}
		return nil, internalError(err, "failed to apply attendance correction")
	}
	s.observe("correction", record.Status)
	return record, nil
}

// Day returns the stored row for an employee and date, or nil when none exists.
func (s *AttendanceService) Day(ctx context.Context, employeeID string, date models.Date) (*models.AttendanceRecord, error) {
	record, err := s.repo.FindByDay(ctx, employeeID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, internalError(err, "failed to load attendance")
	}
	return record, nil
}

// resolve recomputes hours, overtime and status from the punches. An explicit
// status overrides the resolver; an explicit overtime value overrides the
// derived one.
func (s *AttendanceService) resolve(rec *models.AttendanceRecord, explicit *models.AttendanceStatus, overtime *float64) {
	rec.WorkingHours = 0
	if rec.HasCheckIn() && rec.HasCheckOut() {
		if hours, err := timeclock.WorkingHours(rec.Date.Time, *rec.CheckInTime, *rec.CheckOutTime); err == nil {
			rec.WorkingHours = hours
		}
	}
	switch {
	case overtime != nil:
		rec.OvertimeHours = timeclock.Round2(*overtime)
	case s.cfg.StandardHours > 0:
		rec.OvertimeHours = timeclock.Overtime(rec.WorkingHours, s.cfg.StandardHours)
	}
	if explicit != nil {
		rec.Status = *explicit
		return
	}
	rec.Status = models.ResolveAttendanceStatus(rec.WorkingHours, rec.HasCheckIn(), rec.HasCheckOut())
}

func (s *AttendanceService) resolveDate(raw string) (models.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return s.Today(), nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return date, nil
}

func (s *AttendanceService) findEmployee(ctx context.Context, code string) (*models.Employee, error) {
	employee, err := s.employees.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEmployeeNotFound
		}
		return nil, internalError(err, "failed to load employee")
	}
	return employee, nil
}

func (s *AttendanceService) activeEmployee(ctx context.Context, code string) (*models.Employee, error) {
	employee, err := s.findEmployee(ctx, code)
	if err != nil {
		return nil, err
	}
	if !employee.IsActive() {
		return nil, appErrors.ErrEmployeeInactive
	}
	return employee, nil
}

func (s *AttendanceService) observe(event string, status models.AttendanceStatus) {
	if s.observer != nil {
		s.observer.ObserveAttendanceEvent(event, status)
	}
}

// punchUpdate is a parsed optional punch: nil means keep, clear means unset.
type punchUpdate struct {
	clear bool
	value timeclock.TimeOfDay
}

func parseOptionalPunch(field string, raw *string) (*punchUpdate, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return &punchUpdate{clear: true}, nil
	}
	parsed, err := timeclock.Parse(trimmed)
	if err != nil {
		return nil, invalidTime(field, trimmed)
	}
	return &punchUpdate{value: parsed}, nil
}

func applyPunch(target **string, update *punchUpdate) {
	if update == nil {
		return
	}
	if update.clear {
		*target = nil
		return
	}
	clock := update.value.Clock()
	*target = &clock
}
