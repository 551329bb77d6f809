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

type holidayService interface {
	List(ctx context.Context, year int) ([]models.Holiday, error)
	Create(ctx context.Context, req service.CreateHolidayRequest) (*models.Holiday, error)
	Delete(ctx context.Context, id string) error
}

// HolidayHandler exposes the holiday calendar.
type HolidayHandler struct {
	holidays holidayService
}

// NewHolidayHandler constructs HolidayHandler.
func NewHolidayHandler(holidays holidayService) *HolidayHandler {
	return &HolidayHandler{holidays: holidays}
}

// List godoc
// @Summary List holidays
// @Tags Holidays
// @Produce json
// @Param year query int false "Restrict to one year"
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *HolidayHandler) List(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be a number"))
			return
		}
		year = parsed
	}
	holidays, err := h.holidays.List(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays, nil)
}

// Create godoc
// @Summary Add holiday
// @Tags Holidays
// @Accept json
// @Produce json
// @Param payload body service.CreateHolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Router /admin/holidays [post]
func (h *HolidayHandler) Create(c *gin.Context) {
	var req service.CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid holiday payload"))
		return
	}
	holiday, err := h.holidays.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holiday)
}

// Delete godoc
// @Summary Delete holiday
// @Tags Holidays
// @Param id path string true "Holiday ID"
// @Success 204
// @Router /admin/holidays/{id} [delete]
func (h *HolidayHandler) Delete(c *gin.Context) {
	if err := h.holidays.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
