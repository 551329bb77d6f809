package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hrms-api/internal/models"
)

func TestMetricsServiceExposesDomainCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodPost, "/api/attendance/checkin", http.StatusOK, 20*time.Millisecond)
	metrics.ObserveAttendanceEvent("check_out", models.AttendanceStatusMissPunch)
	metrics.ObservePayroll("success", 5*time.Millisecond)
	metrics.ObserveReportJob("succeeded", time.Second)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `attendance_events_total{event="check_out",status="Miss Punch"} 1`))
	assert.Contains(t, body, `payroll_generation_duration_seconds_count{result="success"} 1`)
	assert.Contains(t, body, `report_job_duration_seconds_count{outcome="succeeded"} 1`)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.Equal(t, uint64(1), snapshot.PayrollRuns)
	assert.Equal(t, 0.5, snapshot.CacheHitRatio)
	assert.Equal(t, uint64(1), snapshot.AttendanceEvents)
	assert.Contains(t, body, "hrms_cache_hit_ratio 0.5")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsServiceNilReceiverIsSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveAttendanceEvent("check_in", models.AttendanceStatusCheckedIn)
	metrics.ObservePayroll("error", time.Millisecond)
	assert.Equal(t, MetricsSnapshot{}, metrics.Snapshot())
}
