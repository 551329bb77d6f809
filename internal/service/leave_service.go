package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/models"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
)

type leaveRepository interface {
	Create(ctx context.Context, leave *models.LeaveRequest, attachments []models.Attachment) error
	FindByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error)
	Decide(ctx context.Context, id string, status models.RequestStatus, note *string) error
}

type requestAttachments interface {
	Store(ctx context.Context, owner models.AttachmentOwner, employeeID string, uploads []FileUpload) ([]models.Attachment, error)
	Discard(attachments []models.Attachment)
	Sign(attachments []models.Attachment)
	ForOwners(ctx context.Context, owner models.AttachmentOwner, ownerIDs []string) (map[string][]models.Attachment, error)
}

type leaveDayMarker interface {
	MarkDays(ctx context.Context, employeeID string, days []models.Date, status models.AttendanceStatus) (int, error)
}

type workingDayCalendar interface {
	WorkingDays(ctx context.Context, days []models.Date) ([]models.Date, error)
}

type dashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// ApplyLeaveRequest is an employee's leave application.
type ApplyLeaveRequest struct {
	EmployeeID string  `form:"employee_id" json:"employee_id" validate:"required"`
	FromDate   string  `form:"from_date" json:"from_date" validate:"required,isodate"`
	ToDate     string  `form:"to_date" json:"to_date" validate:"required,isodate"`
	LeaveType  string  `form:"leave_type" json:"leave_type" validate:"required,max=50"`
	Reason     *string `form:"reason" json:"reason" validate:"omitempty,max=1000"`
}

// RequestListQuery filters admin request listings.
type RequestListQuery struct {
	EmployeeID string `form:"employee_id"`
	Status     string `form:"status"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// DecisionRequest carries an optional note with an approval or rejection.
type DecisionRequest struct {
	Note *string `json:"note" validate:"omitempty,max=500"`
}

// LeaveService handles leave applications and their decisions.
type LeaveService struct {
	repo        leaveRepository
	employees   employeeFinder
	attachments requestAttachments
	attendance  leaveDayMarker
	calendar    workingDayCalendar
	dashboard   dashboardInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewLeaveService constructs a LeaveService.
func NewLeaveService(repo leaveRepository, employees employeeFinder, attachments requestAttachments, attendance leaveDayMarker, calendar workingDayCalendar, dashboard dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{
		repo:        repo,
		employees:   employees,
		attachments: attachments,
		attendance:  attendance,
		calendar:    calendar,
		dashboard:   dashboard,
		validator:   validate,
		logger:      logger,
	}
}

// Apply stores a Pending leave request with its attachments.
func (s *LeaveService) Apply(ctx context.Context, req ApplyLeaveRequest, uploads []FileUpload) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid leave application")
	}
	from, _ := models.ParseDate(req.FromDate)
	to, _ := models.ParseDate(req.ToDate)
	if to.Before(from.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from_date must not be after to_date")
	}
	if span := (&models.LeaveRequest{FromDate: from, ToDate: to}).SpanDays(); span > models.MaxLeaveSpanDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("leave may cover at most %d days", models.MaxLeaveSpanDays))
	}
	employeeID := strings.TrimSpace(req.EmployeeID)
	if err := s.requireActive(ctx, employeeID); err != nil {
		return nil, err
	}

	attachments, err := s.attachments.Store(ctx, models.AttachmentOwnerLeave, employeeID, uploads)
	if err != nil {
		return nil, err
	}
	leave := &models.LeaveRequest{
		EmployeeID: employeeID,
		FromDate:   from,
		ToDate:     to,
		LeaveType:  strings.TrimSpace(req.LeaveType),
		Reason:     normalizeOptional(req.Reason),
		Status:     models.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, leave, attachments); err != nil {
		s.attachments.Discard(attachments)
		s.logger.Error("create leave request failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, internalError(err, "failed to submit leave request")
	}
	s.attachments.Sign(leave.Attachments)
	s.invalidate(ctx)
	return leave, nil
}

// ListForEmployee returns an employee's own requests, newest first.
func (s *LeaveService) ListForEmployee(ctx context.Context, employeeID string, page, pageSize int) ([]models.LeaveRequest, *models.Pagination, error) {
	employeeID = strings.TrimSpace(employeeID)
	if _, err := s.employees.FindByCode(ctx, employeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrEmployeeNotFound
		}
		return nil, nil, internalError(err, "failed to load employee")
	}
	return s.list(ctx, models.LeaveFilter{EmployeeID: employeeID, Page: page, PageSize: pageSize})
}

// List returns requests across employees for admins.
func (s *LeaveService) List(ctx context.Context, query RequestListQuery) ([]models.LeaveRequest, *models.Pagination, error) {
	filter := models.LeaveFilter{EmployeeID: strings.TrimSpace(query.EmployeeID), Page: query.Page, PageSize: query.PageSize}
	if query.Status != "" {
		status, ok := models.ParseRequestStatus(query.Status)
		if !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "status must be Pending, Approved or Rejected")
		}
		filter.Status = &status
	}
	return s.list(ctx, filter)
}

func (s *LeaveService) list(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, *models.Pagination, error) {
	leaves, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list leave requests")
	}
	ids := make([]string, len(leaves))
	for i := range leaves {
		ids[i] = leaves[i].ID
	}
	grouped, err := s.attachments.ForOwners(ctx, models.AttachmentOwnerLeave, ids)
	if err != nil {
		return nil, nil, err
	}
	for i := range leaves {
		leaves[i].Attachments = grouped[leaves[i].ID]
		if leaves[i].Attachments == nil {
			leaves[i].Attachments = []models.Attachment{}
		}
	}
	return leaves, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Approve approves a leave request and marks its non-holiday days as leave.
func (s *LeaveService) Approve(ctx context.Context, id string, req DecisionRequest) (*models.LeaveRequest, error) {
	return s.decide(ctx, id, models.RequestStatusApproved, req)
}

// Reject rejects a leave request.
func (s *LeaveService) Reject(ctx context.Context, id string, req DecisionRequest) (*models.LeaveRequest, error) {
	return s.decide(ctx, id, models.RequestStatusRejected, req)
}

// decide applies a terminal decision. Repeating the recorded decision is a
// no-op; reversing it fails with ErrRequestDecided.
func (s *LeaveService) decide(ctx context.Context, id string, status models.RequestStatus, req DecisionRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid decision payload")
	}
	leave, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !leave.Status.Decided() {
		note := normalizeOptional(req.Note)
		if err := s.repo.Decide(ctx, id, status, note); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, internalError(err, "failed to record decision")
			}
		}
		// Re-read: a concurrent decision may have won the Pending guard.
		if leave, err = s.find(ctx, id); err != nil {
			return nil, err
		}
	}
	if leave.Status != status {
		return nil, appErrors.Clone(appErrors.ErrRequestDecided, "leave request is already "+string(leave.Status))
	}

	if status == models.RequestStatusApproved {
		if err := s.markLeaveDays(ctx, leave); err != nil {
			return nil, err
		}
	}
	s.logger.Info("leave request decided", zap.String("leave_id", id), zap.String("status", string(status)))
	s.invalidate(ctx)
	return leave, nil
}

func (s *LeaveService) markLeaveDays(ctx context.Context, leave *models.LeaveRequest) error {
	days, err := s.calendar.WorkingDays(ctx, leave.Days())
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return nil
	}
	marked, err := s.attendance.MarkDays(ctx, leave.EmployeeID, days, leave.AttendanceStatus())
	if err != nil {
		s.logger.Error("mark leave days failed", zap.String("leave_id", leave.ID), zap.Error(err))
		return internalError(err, "failed to record leave attendance")
	}
	s.logger.Debug("leave days marked", zap.String("leave_id", leave.ID), zap.Int("days", marked))
	return nil
}

func (s *LeaveService) find(ctx context.Context, id string) (*models.LeaveRequest, error) {
	leave, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, internalError(err, "failed to load leave request")
	}
	return leave, nil
}

func (s *LeaveService) requireActive(ctx context.Context, employeeID string) error {
	employee, err := s.employees.FindByCode(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrEmployeeNotFound
		}
		return internalError(err, "failed to load employee")
	}
	if !employee.IsActive() {
		return appErrors.ErrEmployeeInactive
	}
	return nil
}

func (s *LeaveService) invalidate(ctx context.Context) {
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}
