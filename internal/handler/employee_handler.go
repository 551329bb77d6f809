package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrms-api/internal/dto"
	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/internal/service"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
	"github.com/noah-isme/hrms-api/pkg/response"
)

type employeeService interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error)
	Get(ctx context.Context, code string) (*models.Employee, error)
	Create(ctx context.Context, req service.CreateEmployeeRequest) (*models.Employee, error)
	Update(ctx context.Context, code string, req service.UpdateEmployeeRequest) (*models.Employee, error)
	SetStatus(ctx context.Context, code, rawStatus string) (*models.Employee, error)
}

// EmployeeHandler exposes the admin employee directory.
type EmployeeHandler struct {
	employees employeeService
}

// NewEmployeeHandler constructs EmployeeHandler.
func NewEmployeeHandler(employees employeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// List godoc
// @Summary List employees
// @Tags Employees
// @Produce json
// @Param search query string false "Search by name, email or code"
// @Param status query string false "Active or Inactive"
// @Param department query string false "Department"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	var filter models.EmployeeFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Department = strings.TrimSpace(c.Query("department"))
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseEmployeeStatus(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be Active or Inactive"))
			return
		}
		filter.Status = &status
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	employees, pagination, err := h.employees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination)
}

// Get godoc
// @Summary Get employee detail
// @Tags Employees
// @Produce json
// @Param employee_id path string true "Employee code"
// @Success 200 {object} response.Envelope
// @Router /admin/employees/{employee_id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.employees.Get(c.Request.Context(), c.Param("employee_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Create godoc
// @Summary Register employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body service.CreateEmployeeRequest true "Employee payload"
// @Success 201 {object} response.Envelope
// @Router /admin/employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req service.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid employee payload"))
		return
	}
	employee, err := h.employees.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// Update godoc
// @Summary Update employee profile
// @Tags Employees
// @Accept json
// @Produce json
// @Param employee_id path string true "Employee code"
// @Param payload body service.UpdateEmployeeRequest true "Employee payload"
// @Success 200 {object} response.Envelope
// @Router /admin/employees/{employee_id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req service.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid employee payload"))
		return
	}
	employee, err := h.employees.Update(c.Request.Context(), c.Param("employee_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// SetStatus godoc
// @Summary Activate or deactivate employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param employee_id path string true "Employee code"
// @Param payload body dto.EmployeeStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /admin/employees/{employee_id}/status [patch]
func (h *EmployeeHandler) SetStatus(c *gin.Context) {
	var req dto.EmployeeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "status is required"))
		return
	}
	employee, err := h.employees.SetStatus(c.Request.Context(), c.Param("employee_id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}
