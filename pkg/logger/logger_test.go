package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/hrms-api/pkg/middleware/requestid"
)

func TestGinMiddlewareLevelsByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(requestid.Middleware(), GinMiddleware(zap.New(core)))
	r.GET("/api/holidays", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/payroll/:employee_id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.POST("/api/payroll/generate", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/holidays", nil),
		httptest.NewRequest(http.MethodGet, "/api/payroll/EMP404", nil),
		httptest.NewRequest(http.MethodPost, "/api/payroll/generate", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "/api/payroll/:employee_id", entries[1].ContextMap()["route"])
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.NotEmpty(t, entries[2].ContextMap()["request_id"])
}

func TestFromContextAddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	FromContext(requestid.WithID(context.Background(), "req-42"), base).Info("report job queued")
	FromContext(context.Background(), base).Info("no request")
	FromContext(context.Background(), nil).Info("dropped")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}
