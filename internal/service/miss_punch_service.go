package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/models"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
	"github.com/noah-isme/hrms-api/pkg/timeclock"
)

type missPunchRepository interface {
	Create(ctx context.Context, req *models.MissPunchRequest, attachments []models.Attachment) error
	FindByID(ctx context.Context, id string) (*models.MissPunchRequest, error)
	List(ctx context.Context, filter models.MissPunchFilter) ([]models.MissPunchRequest, int, error)
	Decide(ctx context.Context, id string, status models.RequestStatus, note *string) error
}

type attendanceCorrector interface {
	Day(ctx context.Context, employeeID string, date models.Date) (*models.AttendanceRecord, error)
	ApplyCorrection(ctx context.Context, employeeID string, date models.Date, checkIn, checkOut *string) (*models.AttendanceRecord, error)
}

// SubmitMissPunchRequest is an employee's request to fix a day's punches.
type SubmitMissPunchRequest struct {
	EmployeeID   string  `form:"employee_id" json:"employee_id" validate:"required"`
	Date         string  `form:"date" json:"date" validate:"required,isodate"`
	CheckInTime  *string `form:"check_in_time" json:"check_in_time" validate:"omitempty,timeofday"`
	CheckOutTime *string `form:"check_out_time" json:"check_out_time" validate:"omitempty,timeofday"`
	Reason       string  `form:"reason" json:"reason" validate:"required,max=1000"`
}

// MissPunchService handles miss-punch requests.
type MissPunchService struct {
	repo        missPunchRepository
	employees   employeeFinder
	attachments requestAttachments
	corrector   attendanceCorrector
	dashboard   dashboardInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMissPunchService constructs a MissPunchService.
func NewMissPunchService(repo missPunchRepository, employees employeeFinder, attachments requestAttachments, corrector attendanceCorrector, dashboard dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *MissPunchService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MissPunchService{
		repo:        repo,
		employees:   employees,
		attachments: attachments,
		corrector:   corrector,
		dashboard:   dashboard,
		validator:   validate,
		logger:      logger,
	}
}

// Submit stores a Pending miss-punch request with its attachments.
func (s *MissPunchService) Submit(ctx context.Context, req SubmitMissPunchRequest, uploads []FileUpload) (*models.MissPunchRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid miss punch request")
	}
	employeeID := strings.TrimSpace(req.EmployeeID)
	employee, err := s.employees.FindByCode(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEmployeeNotFound
		}
		return nil, internalError(err, "failed to load employee")
	}
	if !employee.IsActive() {
		return nil, appErrors.ErrEmployeeInactive
	}
	date, _ := models.ParseDate(req.Date)
	checkIn, checkOut := canonicalClock(req.CheckInTime), canonicalClock(req.CheckOutTime)
	if checkOut != nil && checkIn == nil {
		// A lone check-out can only complete a day that already has a check-in.
		day, err := s.corrector.Day(ctx, employeeID, date)
		if err != nil {
			return nil, err
		}
		if day == nil || !day.HasCheckIn() {
			return nil, appErrors.Clone(appErrors.ErrNoCheckIn, "check_in_time is required when the day has no check-in")
		}
	}

	attachments, err := s.attachments.Store(ctx, models.AttachmentOwnerMissPunch, employeeID, uploads)
	if err != nil {
		return nil, err
	}
	request := &models.MissPunchRequest{
		EmployeeID:   employeeID,
		Date:         date,
		CheckInTime:  checkIn,
		CheckOutTime: checkOut,
		Reason:       strings.TrimSpace(req.Reason),
		Status:       models.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, request, attachments); err != nil {
		s.attachments.Discard(attachments)
		s.logger.Error("create miss punch request failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, internalError(err, "failed to submit miss punch request")
	}
	s.attachments.Sign(request.Attachments)
	return request, nil
}

// ListForEmployee returns an employee's own requests, newest first.
func (s *MissPunchService) ListForEmployee(ctx context.Context, employeeID string, page, pageSize int) ([]models.MissPunchRequest, *models.Pagination, error) {
	employeeID = strings.TrimSpace(employeeID)
	if _, err := s.employees.FindByCode(ctx, employeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrEmployeeNotFound
		}
		return nil, nil, internalError(err, "failed to load employee")
	}
	return s.list(ctx, models.MissPunchFilter{EmployeeID: employeeID, Page: page, PageSize: pageSize})
}

// List returns requests across employees for admins.
func (s *MissPunchService) List(ctx context.Context, query RequestListQuery) ([]models.MissPunchRequest, *models.Pagination, error) {
	filter := models.MissPunchFilter{EmployeeID: strings.TrimSpace(query.EmployeeID), Page: query.Page, PageSize: query.PageSize}
	if query.Status != "" {
		status, ok := models.ParseRequestStatus(query.Status)
		if !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "status must be Pending, Approved or Rejected")
		}
		filter.Status = &status
	}
	return s.list(ctx, filter)
}

func (s *MissPunchService) list(ctx context.Context, filter models.MissPunchFilter) ([]models.MissPunchRequest, *models.Pagination, error) {
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list miss punch requests")
	}
	ids := make([]string, len(requests))
	for i := range requests {
		ids[i] = requests[i].ID
	}
	grouped, err := s.attachments.ForOwners(ctx, models.AttachmentOwnerMissPunch, ids)
	if err != nil {
		return nil, nil, err
	}
	for i := range requests {
		requests[i].Attachments = grouped[requests[i].ID]
		if requests[i].Attachments == nil {
			requests[i].Attachments = []models.Attachment{}
		}
	}
	return requests, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Approve acknowledges the request and applies any corrected punches.
func (s *MissPunchService) Approve(ctx context.Context, id string, req DecisionRequest) (*models.MissPunchRequest, error) {
	return s.decide(ctx, id, models.RequestStatusApproved, req)
}

// Reject closes the request without touching attendance.
func (s *MissPunchService) Reject(ctx context.Context, id string, req DecisionRequest) (*models.MissPunchRequest, error) {
	return s.decide(ctx, id, models.RequestStatusRejected, req)
}

func (s *MissPunchService) decide(ctx context.Context, id string, status models.RequestStatus, req DecisionRequest) (*models.MissPunchRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid decision payload")
	}
	request, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status.Decided() {
		if request.Status != status {
			return nil, appErrors.Clone(appErrors.ErrRequestDecided, "miss punch request is already "+string(request.Status))
		}
		return request, nil
	}

	// The correction lands before the decision so a rejected correction
	// leaves the request Pending.
	if status == models.RequestStatusApproved && request.HasCorrection() {
		record, err := s.corrector.ApplyCorrection(ctx, request.EmployeeID, request.Date, request.CheckInTime, request.CheckOutTime)
		if err != nil {
			return nil, err
		}
		s.logger.Info("miss punch correction applied",
			zap.String("request_id", id),
			zap.String("employee_id", request.EmployeeID),
			zap.String("status", string(record.Status)),
		)
	}
	if err := s.repo.Decide(ctx, id, status, normalizeOptional(req.Note)); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to record decision")
	}
	if request, err = s.find(ctx, id); err != nil {
		return nil, err
	}
	if request.Status != status {
		return nil, appErrors.Clone(appErrors.ErrRequestDecided, "miss punch request is already "+string(request.Status))
	}
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
	return request, nil
}

func (s *MissPunchService) find(ctx context.Context, id string) (*models.MissPunchRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "miss punch request not found")
		}
		return nil, internalError(err, "failed to load miss punch request")
	}
	return request, nil
}

// canonicalClock stores a validated punch in the HH:MM:SS column shape.
func canonicalClock(raw *string) *string {
	value := normalizeOptional(raw)
	if value == nil {
		return nil
	}
	parsed, err := timeclock.Parse(*value)
	if err != nil {
		return nil
	}
	clock := parsed.Clock()
	return &clock
}
