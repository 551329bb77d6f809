package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrms-api/internal/middleware"
	"github.com/noah-isme/hrms-api/internal/models"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
	"github.com/noah-isme/hrms-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context) (*models.DashboardSummary, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Admin dashboard summary
// @Description Headcount, today's presence and leave, pending leaves and a 30-day attendance trend. meta.cache reports hit or miss.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, cacheHit, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.MarkCache(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil)
}
