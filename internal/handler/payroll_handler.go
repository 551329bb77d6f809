package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/internal/service"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
	"github.com/noah-isme/hrms-api/pkg/response"
)

type payrollService interface {
	Generate(ctx context.Context, req service.GeneratePayrollRequest) (*models.PayrollRecord, error)
	History(ctx context.Context, employeeID string, year int) ([]models.PayrollRecord, error)
	RunAll(ctx context.Context, req service.RunPayrollRequest) (*service.PayrollRunSummary, error)
}

// PayrollHandler exposes payroll generation.
type PayrollHandler struct {
	payroll payrollService
}

// NewPayrollHandler constructs PayrollHandler.
func NewPayrollHandler(payroll payrollService) *PayrollHandler {
	return &PayrollHandler{payroll: payroll}
}

// Generate godoc
// @Summary Generate payroll for one employee and month
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body service.GeneratePayrollRequest true "Payroll period"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payroll/generate [post]
func (h *PayrollHandler) Generate(c *gin.Context) {
	var req service.GeneratePayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "employee_id, month and year are required"))
		return
	}
	record, err := h.payroll.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Payroll generated", record)
}

// History godoc
// @Summary Payroll history of an employee
// @Tags Payroll
// @Produce json
// @Param employee_id path string true "Employee code"
// @Param year query int false "Restrict to one year"
// @Success 200 {object} response.Envelope
// @Router /payroll/{employee_id} [get]
func (h *PayrollHandler) History(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be a number"))
			return
		}
		year = parsed
	}
	records, err := h.payroll.History(c.Request.Context(), c.Param("employee_id"), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Run godoc
// @Summary Generate payroll for every active employee
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body service.RunPayrollRequest true "Payroll period"
// @Success 200 {object} response.Envelope
// @Router /admin/payroll/run [post]
func (h *PayrollHandler) Run(c *gin.Context) {
	var req service.RunPayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "month and year are required"))
		return
	}
	summary, err := h.payroll.RunAll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
