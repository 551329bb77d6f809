package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/pkg/cache"
)

type dashboardRepository interface {
	Counts(ctx context.Context, today models.Date) (models.DashboardCounts, error)
	StatusCounts(ctx context.Context, from, to models.Date) ([]models.AttendanceStatusCount, error)
}

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// DashboardTrendDays is the length of the attendance trend, today included.
const DashboardTrendDays = 30

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
	Location *time.Location
	// Queries receives the timing of the summary queries when set.
	Queries queryObserver
}

// DashboardService composes the admin dashboard summary.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(repo dashboardRepository, cacheSvc *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &DashboardService{repo: repo, cache: cacheSvc, logger: logger, now: time.Now, cfg: cfg}
}

// Summary returns the dashboard counters and trend. The boolean reports a cache hit.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	today := models.NewDate(s.now().In(s.cfg.Location))
	key := cache.Key("dashboard", "summary", today.String())
	return Remember(ctx, s.cache, key, s.cfg.CacheTTL, func(ctx context.Context) (*models.DashboardSummary, error) {
		return s.compose(ctx, today)
	})
}

// Invalidate drops cached summaries after attendance or leave changes.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cache.Key("dashboard", "*")); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", zap.Error(err))
	}
}

func (s *DashboardService) compose(ctx context.Context, today models.Date) (*models.DashboardSummary, error) {
	start := time.Now()
	counts, err := s.repo.Counts(ctx, today)
	s.observe("dashboard_counts", start)
	if err != nil {
		return nil, internalError(err, "failed to load dashboard counters")
	}
	from := today.AddDays(-(DashboardTrendDays - 1))
	start = time.Now()
	statusCounts, err := s.repo.StatusCounts(ctx, from, today)
	s.observe("dashboard_trend", start)
	if err != nil {
		return nil, internalError(err, "failed to load attendance trend")
	}
	return &models.DashboardSummary{
		TotalEmployees: counts.TotalEmployees,
		PresentToday:   counts.PresentToday,
		PendingLeaves:  counts.PendingLeaves,
		OnLeave:        counts.OnLeave,
		Trend:          buildTrend(from, DashboardTrendDays, statusCounts),
		GeneratedAt:    s.now().UTC(),
	}, nil
}

func (s *DashboardService) observe(label string, start time.Time) {
	if s.cfg.Queries != nil {
		s.cfg.Queries.ObserveDBQuery(label, time.Since(start))
	}
}

// buildTrend zero-fills every day from from onwards and folds the counts in.
func buildTrend(from models.Date, days int, counts []models.AttendanceStatusCount) []models.AttendanceTrendPoint {
	points := make([]models.AttendanceTrendPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		day := from.AddDays(i).String()
		points[i] = models.AttendanceTrendPoint{Date: day}
		index[day] = i
	}
	for _, c := range counts {
		i, ok := index[c.Date.String()]
		if !ok {
			continue
		}
		switch c.Status {
		case models.AttendanceStatusPresent:
			points[i].Present += c.Count
		case models.AttendanceStatusAbsent:
			points[i].Absent += c.Count
		case models.AttendanceStatusMissPunch:
			points[i].MissPunch += c.Count
		}
	}
	return points
}
