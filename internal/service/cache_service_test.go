package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingCache struct{}

func (failingCache) Get(context.Context, string, interface{}) error {
	return errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func (failingCache) Incr(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingCache) DeleteByPattern(context.Context, string) (int, error) {
	return 0, errors.New("connection refused")
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMemoryCache(), metrics, time.Minute, nil, true)
	ctx := context.Background()

	var got map[string]int
	assert.False(t, svc.Get(ctx, "week:c1:2024-03-10", &got))

	svc.Set(ctx, "week:c1:2024-03-10", map[string]int{"count": 3}, 0)
	require.True(t, svc.Get(ctx, "week:c1:2024-03-10", &got))
	assert.Equal(t, 3, got["count"])

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, 0, nil, true)
	ctx := context.Background()

	svc.Set(ctx, "week:c1:2024-03-10", 1, time.Minute)
	svc.Set(ctx, "week:c1:2024-03-17", 2, time.Minute)
	svc.Set(ctx, "week:c2:2024-03-10", 3, time.Minute)

	svc.Invalidate(ctx, "week:c1:*")
	assert.ElementsMatch(t, []string{"week:c2:2024-03-10"}, repo.keys())
}

func TestCacheServiceGeneration(t *testing.T) {
	svc := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	ctx := context.Background()

	gen, ok := svc.Generation(ctx, "calendar-gen:c1")
	require.True(t, ok)
	assert.Zero(t, gen)

	svc.BumpGeneration(ctx, "calendar-gen:c1")
	svc.BumpGeneration(ctx, "calendar-gen:c1")
	gen, ok = svc.Generation(ctx, "calendar-gen:c1")
	require.True(t, ok)
	assert.Equal(t, int64(2), gen)

	_, ok = NewCacheService(failingCache{}, nil, time.Minute, nil, true).Generation(ctx, "calendar-gen:c1")
	assert.False(t, ok)
	_, ok = NewCacheService(newMemoryCache(), nil, time.Minute, nil, false).Generation(ctx, "calendar-gen:c1")
	assert.False(t, ok)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)
	ctx := context.Background()

	assert.False(t, svc.Enabled())
	svc.Set(ctx, "k", 1, 0)
	assert.Empty(t, repo.keys())

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.False(t, NewCacheService(nil, nil, 0, nil, true).Enabled())
}

func TestCacheServiceBackendErrorsAreMisses(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewCacheService(failingCache{}, nil, time.Minute, zap.New(core), true)
	ctx := context.Background()

	var dest int
	assert.False(t, svc.Get(ctx, "k", &dest))
	svc.Set(ctx, "k", 1, 0)
	svc.Invalidate(ctx, "k*")

	assert.Equal(t, 1, logs.FilterMessage("cache get failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("cache set failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("cache invalidate failed").Len())
}

func TestCacheServiceMissIsNotLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewCacheService(newMemoryCache(), nil, time.Minute, zap.New(core), true)

	var dest int
	assert.False(t, svc.Get(context.Background(), "absent", &dest))
	assert.Zero(t, logs.Len())
}
