package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/internal/service"
	"github.com/noah-isme/hrms-api/pkg/response"
)

type leaveService interface {
	Apply(ctx context.Context, req service.ApplyLeaveRequest, uploads []service.FileUpload) (*models.LeaveRequest, error)
	ListForEmployee(ctx context.Context, employeeID string, page, pageSize int) ([]models.LeaveRequest, *models.Pagination, error)
	List(ctx context.Context, query service.RequestListQuery) ([]models.LeaveRequest, *models.Pagination, error)
	Approve(ctx context.Context, id string, req service.DecisionRequest) (*models.LeaveRequest, error)
	Reject(ctx context.Context, id string, req service.DecisionRequest) (*models.LeaveRequest, error)
}

// LeaveHandler exposes leave applications and their decisions.
type LeaveHandler struct {
	leaves leaveService
}

// NewLeaveHandler constructs LeaveHandler.
func NewLeaveHandler(leaves leaveService) *LeaveHandler {
	return &LeaveHandler{leaves: leaves}
}

// Apply godoc
// @Summary Apply for leave
// @Tags Leave
// @Accept multipart/form-data
// @Produce json
// @Param employee_id formData string true "Employee code"
// @Param from_date formData string true "First day (YYYY-MM-DD)"
// @Param to_date formData string true "Last day (YYYY-MM-DD)"
// @Param leave_type formData string true "Leave type"
// @Param reason formData string false "Reason"
// @Param attachments formData file false "Up to three jpg, png or pdf files"
// @Success 201 {object} response.Envelope
// @Router /leave/apply [post]
func (h *LeaveHandler) Apply(c *gin.Context) {
	var req service.ApplyLeaveRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "invalid leave application"))
		return
	}
	leave, err := h.leaves.Apply(c.Request.Context(), req, multipartUploads(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// ListForEmployee godoc
// @Summary Employee leave history
// @Tags Leave
// @Produce json
// @Param employee_id path string true "Employee code"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leave/{employee_id} [get]
func (h *LeaveHandler) ListForEmployee(c *gin.Context) {
	page, size := pageParams(c)
	leaves, pagination, err := h.leaves.ListForEmployee(c.Request.Context(), c.Param("employee_id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, pagination)
}

// List godoc
// @Summary List leave requests
// @Tags Leave
// @Produce json
// @Param status query string false "Pending, Approved or Rejected"
// @Param employee_id query string false "Employee code"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/leaves [get]
func (h *LeaveHandler) List(c *gin.Context) {
	var query service.RequestListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid leave filter"))
		return
	}
	leaves, pagination, err := h.leaves.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, pagination)
}

// Approve godoc
// @Summary Approve leave request
// @Tags Leave
// @Accept json
// @Produce json
// @Param id path string true "Leave request ID"
// @Param payload body service.DecisionRequest false "Decision note"
// @Success 200 {object} response.Envelope
// @Router /admin/leaves/{id}/approve [patch]
func (h *LeaveHandler) Approve(c *gin.Context) {
	h.decide(c, h.leaves.Approve, "Leave approved")
}

// Reject godoc
// @Summary Reject leave request
// @Tags Leave
// @Accept json
// @Produce json
// @Param id path string true "Leave request ID"
// @Param payload body service.DecisionRequest false "Decision note"
// @Success 200 {object} response.Envelope
// @Router /admin/leaves/{id}/reject [patch]
func (h *LeaveHandler) Reject(c *gin.Context) {
	h.decide(c, h.leaves.Reject, "Leave rejected")
}

func (h *LeaveHandler) decide(c *gin.Context, fn func(context.Context, string, service.DecisionRequest) (*models.LeaveRequest, error), message string) {
	req, err := bindDecision(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	leave, err := fn(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, message, leave)
}

// bindDecision accepts an empty body as a decision without a note.
func bindDecision(c *gin.Context) (service.DecisionRequest, error) {
	var req service.DecisionRequest
	if c.Request.ContentLength == 0 {
		return req, nil
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, bindError(err, "invalid decision payload")
	}
	return req, nil
}
