package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/internal/repository"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
	"github.com/noah-isme/hrms-api/pkg/storage"
)

type stubLeaveRepo struct {
	mu          sync.Mutex
	items       map[string]*models.LeaveRequest
	attachments *stubAttachmentRepo
	createErr   error
}

func (r *stubLeaveRepo) Create(ctx context.Context, leave *models.LeaveRequest, attachments []models.Attachment) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	leave.ID = fmt.Sprintf("leave-%d", len(r.items)+1)
	r.attachments.save(models.AttachmentOwnerLeave, leave.ID, attachments)
	leave.Attachments = attachments
	cp := *leave
	r.items[leave.ID] = &cp
	return nil
}

func (r *stubLeaveRepo) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	leave, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *leave
	return &cp, nil
}

func (r *stubLeaveRepo) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.LeaveRequest, 0)
	for _, leave := range r.items {
		if filter.EmployeeID != "" && leave.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != nil && leave.Status != *filter.Status {
			continue
		}
		out = append(out, *leave)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (r *stubLeaveRepo) Decide(ctx context.Context, id string, status models.RequestStatus, note *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	leave, ok := r.items[id]
	if !ok || leave.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	leave.Status = status
	leave.DecisionNote = note
	return nil
}

type stubHolidayRepo struct {
	mu    sync.Mutex
	items map[string]models.Holiday
}

func newStubHolidayRepo(holidays ...models.Holiday) *stubHolidayRepo {
	repo := &stubHolidayRepo{items: map[string]models.Holiday{}}
	for _, h := range holidays {
		if h.ID == "" {
			h.ID = "hol-" + h.Date.String()
		}
		repo.items[h.ID] = h
	}
	return repo
}

func (r *stubHolidayRepo) List(ctx context.Context, year int) ([]models.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Holiday, 0)
	for _, h := range r.items {
		if year == 0 || h.Date.Year() == year {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (r *stubHolidayRepo) DatesBetween(ctx context.Context, from, to models.Date) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := map[string]struct{}{}
	for _, h := range r.items {
		if !h.Date.Before(from.Time) && !h.Date.After(to.Time) {
			set[h.Date.String()] = struct{}{}
		}
	}
	return set, nil
}

func (r *stubHolidayRepo) Create(ctx context.Context, holiday *models.Holiday) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.items {
		if h.Date.Equal(holiday.Date.Time) {
			return fmt.Errorf("create holiday: %w", repository.ErrUniqueViolation)
		}
	}
	holiday.ID = "hol-" + holiday.Date.String()
	r.items[holiday.ID] = *holiday
	return nil
}

func (r *stubHolidayRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

type leaveFixture struct {
	svc        *LeaveService
	repo       *stubLeaveRepo
	attendance *stubAttendanceRepo
	dashboard  *countingInvalidator
}

func newLeaveFixture(t *testing.T, holidays ...models.Holiday) leaveFixture {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	attachmentRepo := newStubAttachmentRepo()
	attachments := NewAttachmentService(attachmentRepo, files, storage.NewSignedURLSigner("secret", 0), zap.NewNop(), AttachmentConfig{URLPrefix: "/api"})
	repo := &stubLeaveRepo{items: map[string]*models.LeaveRequest{}, attachments: attachmentRepo}
	attendance := newStubAttendanceRepo()
	calendar := NewHolidayService(newStubHolidayRepo(holidays...), nil, zap.NewNop())
	employees := newStubEmployeeRepo(
		models.Employee{EmployeeID: "EMP001"},
		models.Employee{EmployeeID: "EMP002", Status: models.EmployeeStatusInactive},
	)
	dashboard := &countingInvalidator{}
	svc := NewLeaveService(repo, employees, attachments, attendance, calendar, dashboard, nil, zap.NewNop())
	return leaveFixture{svc: svc, repo: repo, attendance: attendance, dashboard: dashboard}
}

func TestLeaveApplyStoresRequestWithAttachments(t *testing.T) {
	f := newLeaveFixture(t)
	ctx := context.Background()

	leave, err := f.svc.Apply(ctx, ApplyLeaveRequest{
		EmployeeID: "EMP001",
		FromDate:   "2024-03-11",
		ToDate:     "2024-03-13",
		LeaveType:  "Sick Leave",
		Reason:     strPtr("flu"),
	}, []FileUpload{upload("note.pdf", pdfBytes)})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, leave.Status)
	require.Len(t, leave.Attachments, 1)
	assert.NotEmpty(t, leave.Attachments[0].DownloadURL)

	listed, pagination, err := f.svc.ListForEmployee(ctx, "EMP001", 0, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	require.Len(t, listed[0].Attachments, 1)
	assert.Contains(t, listed[0].Attachments[0].DownloadURL, "/api/attachments/")
}

func TestLeaveApplyValidation(t *testing.T) {
	f := newLeaveFixture(t)
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, ApplyLeaveRequest{EmployeeID: "EMP001", FromDate: "2024-03-13", ToDate: "2024-03-11", LeaveType: "Casual"}, nil)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))

	_, err = f.svc.Apply(ctx, ApplyLeaveRequest{EmployeeID: "EMP001", FromDate: "2024-03-11", ToDate: "2024-03-11"}, nil)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))

	_, err = f.svc.Apply(ctx, ApplyLeaveRequest{EmployeeID: "EMP404", FromDate: "2024-03-11", ToDate: "2024-03-11", LeaveType: "Casual"}, nil)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrEmployeeNotFound))

	_, err = f.svc.Apply(ctx, ApplyLeaveRequest{EmployeeID: "EMP002", FromDate: "2024-03-11", ToDate: "2024-03-11", LeaveType: "Casual"}, nil)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrEmployeeInactive))
}

func TestLeaveApplyBoundsTheSpan(t *testing.T) {
	f := newLeaveFixture(t)
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, ApplyLeaveRequest{EmployeeID: "EMP001", FromDate: "2024-01-01", ToDate: "9999-12-31", LeaveType: "Sabbatical"}, nil)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))

	_, err = f.svc.Apply(ctx, ApplyLeaveRequest{EmployeeID: "EMP001", FromDate: "2024-01-01", ToDate: "2025-01-01", LeaveType: "Sabbatical"}, nil)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))

	leave, err := f.svc.Apply(ctx, ApplyLeaveRequest{EmployeeID: "EMP001", FromDate: "2024-01-01", ToDate: "2024-12-31", LeaveType: "Sabbatical"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MaxLeaveSpanDays, leave.SpanDays())
	assert.Len(t, leave.Days(), models.MaxLeaveSpanDays)
}

func TestLeaveApproveMarksWorkingDaysOnly(t *testing.T) {
	f := newLeaveFixture(t, models.Holiday{Name: "Holi", Date: mustDate("2024-03-12")})
	ctx := context.Background()
	in := "09:00:00"
	f.attendance.put(models.AttendanceRecord{EmployeeID: "EMP001", Date: mustDate("2024-03-13"), CheckInTime: &in, Status: models.AttendanceStatusCheckedIn})

	leave, err := f.svc.Apply(ctx, ApplyLeaveRequest{EmployeeID: "EMP001", FromDate: "2024-03-11", ToDate: "2024-03-14", LeaveType: "Half Day"}, nil)
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, leave.ID, DecisionRequest{Note: strPtr("ok")})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, approved.Status)

	assert.Equal(t, models.AttendanceStatusHalfDayLeave, f.attendance.get("EMP001", mustDate("2024-03-11")).Status)
	assert.Nil(t, f.attendance.get("EMP001", mustDate("2024-03-12")))
	assert.Equal(t, models.AttendanceStatusCheckedIn, f.attendance.get("EMP001", mustDate("2024-03-13")).Status)
	assert.Equal(t, models.AttendanceStatusHalfDayLeave, f.attendance.get("EMP001", mustDate("2024-03-14")).Status)

	_, err = f.svc.Approve(ctx, leave.ID, DecisionRequest{})
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, leave.ID, DecisionRequest{})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrRequestDecided))
	assert.Equal(t, 3, f.dashboard.calls)
}

func TestLeaveRejectLeavesAttendanceUntouched(t *testing.T) {
	f := newLeaveFixture(t)
	ctx := context.Background()

	leave, err := f.svc.Apply(ctx, ApplyLeaveRequest{EmployeeID: "EMP001", FromDate: "2024-03-11", ToDate: "2024-03-11", LeaveType: "Casual"}, nil)
	require.NoError(t, err)
	rejected, err := f.svc.Reject(ctx, leave.ID, DecisionRequest{Note: strPtr("busy week")})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, rejected.Status)
	assert.Nil(t, f.attendance.get("EMP001", mustDate("2024-03-11")))

	_, err = f.svc.Approve(ctx, leave.ID, DecisionRequest{})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrRequestDecided))

	_, err = f.svc.Approve(ctx, "missing", DecisionRequest{})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound))
}

func TestLeaveListFiltersByStatus(t *testing.T) {
	f := newLeaveFixture(t)
	ctx := context.Background()
	for _, day := range []string{"2024-03-11", "2024-03-18"} {
		_, err := f.svc.Apply(ctx, ApplyLeaveRequest{EmployeeID: "EMP001", FromDate: day, ToDate: day, LeaveType: "Casual"}, nil)
		require.NoError(t, err)
	}
	_, err := f.svc.Approve(ctx, "leave-1", DecisionRequest{})
	require.NoError(t, err)

	pending, _, err := f.svc.List(ctx, RequestListQuery{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "leave-2", pending[0].ID)
	assert.NotNil(t, pending[0].Attachments)

	_, _, err = f.svc.List(ctx, RequestListQuery{Status: "maybe"})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))
}
