package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/handler"
	"github.com/noah-isme/hrms-api/internal/middleware"
	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/internal/service"
)

type holidayStub struct{}

func (holidayStub) List(context.Context, int) ([]models.Holiday, error) { return nil, nil }

func (holidayStub) Create(_ context.Context, req service.CreateHolidayRequest) (*models.Holiday, error) {
	return &models.Holiday{ID: "h1", Name: req.Name}, nil
}

func (holidayStub) Delete(context.Context, string) error { return nil }

type auditRecorder struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	done chan struct{}
}

func (a *auditRecorder) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	close(a.done)
	return nil
}

func newEngine(audit middleware.AuditWriter, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	opts.AuditWriter = audit
	opts.Logger = zap.NewNop()
	Register(r, Handlers{
		Employees:   handler.NewEmployeeHandler(nil),
		Attendance:  handler.NewAttendanceHandler(nil),
		MissPunches: handler.NewMissPunchHandler(nil),
		Leaves:      handler.NewLeaveHandler(nil),
		Holidays:    handler.NewHolidayHandler(holidayStub{}),
		Payroll:     handler.NewPayrollHandler(nil),
		Dashboard:   handler.NewDashboardHandler(nil),
		Reports:     handler.NewReportHandler(nil),
		Attachments: handler.NewAttachmentHandler(nil),
		Metrics:     handler.NewMetricsHandler(service.NewMetricsService(), nil),
	}, opts)
	return r
}

func TestRegisterMountsPublicAndAdminRoutes(t *testing.T) {
	r := newEngine(nil, Options{APIPrefix: "/api", EnableMetrics: true})
	routes := map[string]bool{}
	for _, route := range r.Routes() {
		routes[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /api/attendance/checkin",
		"POST /api/attendance/checkout",
		"GET /api/attendance/:employee_id/:month",
		"POST /api/attendance/misspunch",
		"GET /api/attendance/misspunch/:employee_id",
		"POST /api/leave/apply",
		"GET /api/leave/:employee_id",
		"GET /api/holidays",
		"POST /api/payroll/generate",
		"GET /api/payroll/:employee_id",
		"GET /api/export/:token",
		"GET /api/attachments/:id/download",
		"GET /api/admin/employees",
		"PATCH /api/admin/employees/:employee_id/status",
		"PUT /api/admin/attendance/:id",
		"PATCH /api/admin/misspunch/:id/approve",
		"PATCH /api/admin/leaves/:id/reject",
		"DELETE /api/admin/holidays/:id",
		"POST /api/admin/payroll/run",
		"GET /api/admin/dashboard/summary",
		"POST /api/admin/reports",
		"GET /api/admin/reports/:id",
		"GET /metrics",
		"GET /health",
		"GET /ready",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
	assert.False(t, routes["GET /docs/*any"])
}

func TestRegisterWithoutMetricsEndpoint(t *testing.T) {
	r := newEngine(nil, Options{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterAuditsAdminMutations(t *testing.T) {
	recorder := &auditRecorder{done: make(chan struct{})}
	r := newEngine(recorder, Options{APIPrefix: "/api"})

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/holidays/h1", nil)
	req.Header.Set(middleware.ActorHeader, "hr-admin")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	<-recorder.done
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.Len(t, recorder.logs, 1)
	log := recorder.logs[0]
	assert.Equal(t, models.AuditActionHolidayDelete, log.Action)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, "h1", *log.ResourceID)
	require.NotNil(t, log.Actor)
	assert.Equal(t, "hr-admin", *log.Actor)
}
