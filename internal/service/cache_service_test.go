package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCacheRepo struct{ err error }

func (f failingCacheRepo) Get(context.Context, string, interface{}) error { return f.err }

func (f failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return f.err
}

func (f failingCacheRepo) DeleteByPattern(context.Context, string) error { return f.err }

func TestCacheServiceRecordsHitsAndMisses(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(&stubCacheRepo{}, metrics, 0, nil, true)
	ctx := context.Background()

	var out map[string]int
	hit, err := svc.Get(ctx, "hrms:dashboard:summary", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "hrms:dashboard:summary", map[string]int{"present": 4}, 0))
	hit, err = svc.Get(ctx, "hrms:dashboard:summary", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, out["present"])

	require.NoError(t, svc.Invalidate(ctx, "hrms:dashboard:*"))
	hit, _ = svc.Get(ctx, "hrms:dashboard:summary", &out)
	assert.False(t, hit)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(2), snapshot.CacheMisses)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	boom := errors.New("redis unavailable")
	svc := NewCacheService(failingCacheRepo{err: boom}, nil, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out string
	hit, err := svc.Get(ctx, "k", &out)
	assert.False(t, hit)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Set(ctx, "k", "v", 0), boom)
	assert.ErrorIs(t, svc.Invalidate(ctx, "k*"), boom)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	svc := NewCacheService(failingCacheRepo{err: errors.New("unused")}, nil, time.Minute, zap.NewNop(), false)
	assert.False(t, svc.Enabled())
	hit, err := svc.Get(context.Background(), "k", new(string))
	assert.False(t, hit)
	assert.NoError(t, err)
	assert.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.NoError(t, svc.Invalidate(context.Background(), "k*"))

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestRememberLoadsOnceThenHits(t *testing.T) {
	svc := NewCacheService(&stubCacheRepo{}, NewMetricsService(), time.Minute, zap.NewNop(), true)
	ctx := context.Background()
	loads := 0
	load := func(context.Context) ([]string, error) {
		loads++
		return []string{"2024-01-26", "2024-08-15"}, nil
	}

	got, hit, err := Remember(ctx, svc, "hrms:holidays:2024", 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, got, 2)

	got, hit, err = Remember(ctx, svc, "hrms:holidays:2024", 0, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "2024-08-15", got[1])
	assert.Equal(t, 1, loads)
}

func TestRememberFallsBackToLoad(t *testing.T) {
	ctx := context.Background()
	load := func(context.Context) (int, error) { return 7, nil }

	value, hit, err := Remember(ctx, NewCacheService(failingCacheRepo{err: errors.New("redis down")}, nil, 0, nil, true), "k", 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, value)

	var disabled *CacheService
	value, _, err = Remember(ctx, disabled, "k", 0, load)
	require.NoError(t, err)
	assert.Equal(t, 7, value)

	boom := errors.New("query failed")
	_, _, err = Remember(ctx, disabled, "k", 0, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}
