package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/internal/service"
	"github.com/noah-isme/hrms-api/pkg/response"
)

type missPunchService interface {
	Submit(ctx context.Context, req service.SubmitMissPunchRequest, uploads []service.FileUpload) (*models.MissPunchRequest, error)
	ListForEmployee(ctx context.Context, employeeID string, page, pageSize int) ([]models.MissPunchRequest, *models.Pagination, error)
	List(ctx context.Context, query service.RequestListQuery) ([]models.MissPunchRequest, *models.Pagination, error)
	Approve(ctx context.Context, id string, req service.DecisionRequest) (*models.MissPunchRequest, error)
	Reject(ctx context.Context, id string, req service.DecisionRequest) (*models.MissPunchRequest, error)
}

// MissPunchHandler exposes miss-punch requests.
type MissPunchHandler struct {
	requests missPunchService
}

// NewMissPunchHandler constructs MissPunchHandler.
func NewMissPunchHandler(requests missPunchService) *MissPunchHandler {
	return &MissPunchHandler{requests: requests}
}

// Submit godoc
// @Summary Submit miss-punch request
// @Tags MissPunch
// @Accept multipart/form-data
// @Produce json
// @Param employee_id formData string true "Employee code"
// @Param date formData string true "Day to correct (YYYY-MM-DD)"
// @Param check_in_time formData string false "Corrected check-in"
// @Param check_out_time formData string false "Corrected check-out"
// @Param reason formData string true "Reason"
// @Param attachments formData file false "Supporting documents"
// @Success 201 {object} response.Envelope
// @Router /attendance/misspunch [post]
func (h *MissPunchHandler) Submit(c *gin.Context) {
	var req service.SubmitMissPunchRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "invalid miss-punch request"))
		return
	}
	request, err := h.requests.Submit(c.Request.Context(), req, multipartUploads(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// ListForEmployee godoc
// @Summary Employee miss-punch requests
// @Tags MissPunch
// @Produce json
// @Param employee_id path string true "Employee code"
// @Success 200 {object} response.Envelope
// @Router /attendance/misspunch/{employee_id} [get]
func (h *MissPunchHandler) ListForEmployee(c *gin.Context) {
	page, size := pageParams(c)
	requests, pagination, err := h.requests.ListForEmployee(c.Request.Context(), c.Param("employee_id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// List godoc
// @Summary List miss-punch requests
// @Tags MissPunch
// @Produce json
// @Param status query string false "Pending, Approved or Rejected"
// @Param employee_id query string false "Employee code"
// @Success 200 {object} response.Envelope
// @Router /admin/misspunch [get]
func (h *MissPunchHandler) List(c *gin.Context) {
	var query service.RequestListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid miss-punch filter"))
		return
	}
	requests, pagination, err := h.requests.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Approve godoc
// @Summary Approve miss-punch request
// @Tags MissPunch
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /admin/misspunch/{id}/approve [patch]
func (h *MissPunchHandler) Approve(c *gin.Context) {
	h.decide(c, h.requests.Approve, "Miss punch approved")
}

// Reject godoc
// @Summary Reject miss-punch request
// @Tags MissPunch
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /admin/misspunch/{id}/reject [patch]
func (h *MissPunchHandler) Reject(c *gin.Context) {
	h.decide(c, h.requests.Reject, "Miss punch rejected")
}

func (h *MissPunchHandler) decide(c *gin.Context, fn func(context.Context, string, service.DecisionRequest) (*models.MissPunchRequest, error), message string) {
	req, err := bindDecision(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	request, err := fn(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, message, request)
}
