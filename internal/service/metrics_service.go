package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/hrms-api/internal/models"
)

const metricsNamespace = "hrms"

// MetricsSnapshot is the JSON digest served by GET /admin/metrics.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"avg_db_query_duration_ms"`
	AttendanceEvents         uint64    `json:"attendance_events"`
	PayrollRuns              uint64    `json:"payroll_runs"`
	ReportJobs               uint64    `json:"report_jobs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// tally keeps a count and a nanosecond sum for snapshot averages.
type tally struct {
	count atomic.Uint64
	nanos atomic.Uint64
}

func (t *tally) add(d time.Duration) {
	t.count.Add(1)
	if d > 0 {
		t.nanos.Add(uint64(d))
	}
}

func (t *tally) avgMillis() (uint64, float64) {
	n := t.count.Load()
	if n == 0 {
		return 0, 0
	}
	return n, float64(t.nanos.Load()) / float64(n) / float64(time.Millisecond)
}

// MetricsService owns the Prometheus registry of the API process. Every
// Observe method is safe on a nil receiver so callers can run without metrics.
type MetricsService struct {
	handler http.Handler

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec
	cacheOps     *prometheus.HistogramVec
	cacheWrites  prometheus.Histogram
	dbQueries    *prometheus.HistogramVec
	attendance   *prometheus.CounterVec
	payroll      *prometheus.HistogramVec
	reportJobs   *prometheus.HistogramVec

	requests    tally
	queries     tally
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
	punches     atomic.Uint64
	payrollRuns atomic.Uint64
	reportRuns  atomic.Uint64
}

// NewMetricsService builds a private registry with the HTTP, cache, database
// and domain collectors plus the Go runtime and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: metricsNamespace}),
	)
	factory := promauto.With(registry)
	m := &MetricsService{handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})}

	m.httpDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	m.httpTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route template and status.",
	}, []string{"method", "path", "status"})
	m.cacheOps = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "cache_read_seconds",
		Help:      "Cache lookup latency by result.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"result"})
	m.cacheWrites = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "cache_write_seconds",
		Help:      "Cache write latency.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "cache_hit_ratio",
		Help:      "Cache hits over all cache lookups since start.",
	}, func() float64 { return m.hitRatio() })
	m.dbQueries = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "db_query_duration_seconds",
		Help:      "Latency of instrumented database queries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"query"})
	m.attendance = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "attendance_events_total",
		Help:      "Attendance punches, marks and corrections by resulting status.",
	}, []string{"event", "status"})
	m.payroll = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "payroll_generation_duration_seconds",
		Help:      "Single-employee payroll generation latency by result.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})
	m.reportJobs = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "report_job_duration_seconds",
		Help:      "Report job attempt duration by outcome.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"outcome"})
	return m
}

// Handler serves the Prometheus exposition format; 503 without a service.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, path, code).Inc()
	m.requests.add(duration)
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		m.cacheHits.Add(1)
	} else {
		m.cacheMisses.Add(1)
	}
	m.cacheOps.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveCacheWrite records a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrites.Observe(duration.Seconds())
}

// ObserveDBQuery records the latency of a labelled query.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueries.WithLabelValues(label).Observe(duration.Seconds())
	m.queries.add(duration)
}

// ObserveAttendanceEvent counts a punch, mark or correction by its resulting status.
func (m *MetricsService) ObserveAttendanceEvent(event string, status models.AttendanceStatus) {
	if m == nil {
		return
	}
	m.attendance.WithLabelValues(event, string(status)).Inc()
	m.punches.Add(1)
}

// ObservePayroll records one payroll generation.
func (m *MetricsService) ObservePayroll(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.payroll.WithLabelValues(result).Observe(duration.Seconds())
	m.payrollRuns.Add(1)
}

// ObserveReportJob records one report job attempt.
func (m *MetricsService) ObserveReportJob(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(outcome).Observe(duration.Seconds())
	m.reportRuns.Add(1)
}

func (m *MetricsService) hitRatio() float64 {
	hits, misses := m.cacheHits.Load(), m.cacheMisses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// Snapshot returns the counters accumulated since process start.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests, avgRequest := m.requests.avgMillis()
	queries, avgQuery := m.queries.avgMillis()
	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequest,
		CacheHits:                m.cacheHits.Load(),
		CacheMisses:              m.cacheMisses.Load(),
		CacheHitRatio:            m.hitRatio(),
		DBQueryCount:             queries,
		AverageDBQueryDurationMs: avgQuery,
		AttendanceEvents:         m.punches.Load(),
		PayrollRuns:              m.payrollRuns.Load(),
		ReportJobs:               m.reportRuns.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
