package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/internal/service"
	"github.com/noah-isme/hrms-api/pkg/response"
)

type attendanceService interface {
	CheckIn(ctx context.Context, req service.CheckInRequest) (*models.AttendanceRecord, error)
	CheckOut(ctx context.Context, req service.CheckOutRequest) (*service.CheckOutResult, error)
	MonthlyAttendance(ctx context.Context, employeeID, yearMonth string) ([]models.AttendanceRecord, error)
	List(ctx context.Context, req service.AttendanceListRequest) ([]models.AttendanceEntry, *models.Pagination, error)
	Mark(ctx context.Context, req service.MarkAttendanceRequest) (*models.AttendanceRecord, error)
	Correct(ctx context.Context, id string, req service.CorrectAttendanceRequest) (*models.AttendanceRecord, error)
}

// AttendanceHandler exposes punch endpoints and the admin attendance register.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// CheckIn godoc
// @Summary Employee check-in
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.CheckInRequest true "Check-in payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/checkin [post]
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req service.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid check-in payload"))
		return
	}
	record, err := h.attendance.CheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Check-in recorded", record)
}

// CheckOut godoc
// @Summary Employee check-out
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.CheckOutRequest true "Check-out payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/checkout [post]
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req service.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid check-out payload"))
		return
	}
	result, err := h.attendance.CheckOut(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Check-out recorded", result)
}

// Monthly godoc
// @Summary Employee attendance for one month
// @Tags Attendance
// @Produce json
// @Param employee_id path string true "Employee code"
// @Param month path string true "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /attendance/{employee_id}/{month} [get]
func (h *AttendanceHandler) Monthly(c *gin.Context) {
	records, err := h.attendance.MonthlyAttendance(c.Request.Context(), c.Param("employee_id"), c.Param("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"attendance": records}, nil)
}

// List godoc
// @Summary Attendance register
// @Tags Attendance
// @Produce json
// @Param date query string false "Single day (YYYY-MM-DD)"
// @Param date_from query string false "Range start"
// @Param date_to query string false "Range end"
// @Param employee_id query string false "Employee code"
// @Param status query string false "Attendance status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	var req service.AttendanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, bindError(err, "invalid attendance filter"))
		return
	}
	entries, pagination, err := h.attendance.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Mark godoc
// @Summary Mark a day without punches
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Mark payload"
// @Success 201 {object} response.Envelope
// @Router /admin/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid attendance payload"))
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Correct godoc
// @Summary Correct an attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Attendance record ID"
// @Param payload body service.CorrectAttendanceRequest true "Correction payload"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance/{id} [put]
func (h *AttendanceHandler) Correct(c *gin.Context) {
	var req service.CorrectAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid correction payload"))
		return
	}
	record, err := h.attendance.Correct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
