package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
)

// Interface guard
var _ AnalyticsProvider = (*fakeProvider)(nil)

// fakeProvider serves canned figures keyed by day and counts how often the
// expensive queries actually run.
type fakeProvider struct {
	mu      sync.Mutex
	byDay   map[string]model.DailyFigures
	failing bool

	dailyCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{byDay: make(map[string]model.DailyFigures)}
}

func (f *fakeProvider) setDay(day time.Time, figures model.DailyFigures) {
	f.mu.Lock()
	f.byDay[day.Format(time.DateOnly)] = figures
	f.mu.Unlock()
}

func (f *fakeProvider) DailyFigures(_ context.Context, day time.Time) (*model.DailyFigures, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyCalls++
	if f.failing {
		return nil, errors.New("analytics store unavailable")
	}
	figures := f.byDay[day.Format(time.DateOnly)]
	return &figures, nil
}

func (f *fakeProvider) TopPerformers(context.Context, time.Time, int) ([]model.Performer, error) {
	return []model.Performer{{StaffID: 1, Name: "Sam", Orders: 12, Revenue: 480}}, nil
}

func (f *fakeProvider) RevenueTrend(_ context.Context, hours int) ([]model.TrendPoint, error) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	return []model.TrendPoint{
		{At: base, Revenue: 120, Orders: 5},
		{At: base.Add(time.Hour), Revenue: 200, Orders: 8},
	}, nil
}

func (f *fakeProvider) ActiveAlertCount(context.Context) (int, error) {
	return 2, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dailyCalls
}

func newTestService(provider AnalyticsProvider, ttl time.Duration) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(provider, NewCache(64, ttl), logger)
}

func TestGrowthConvention(t *testing.T) {
	cases := []struct {
		name     string
		current  float64
		previous float64
		want     float64
	}{
		{"up ten percent", 110, 100, 10},
		{"down ten percent", 90, 100, -10},
		{"from nothing to something", 50, 0, 100},
		{"nothing both days", 0, 0, 0},
		{"halved", 50, 100, -50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Growth(tc.current, tc.previous), 1e-9)
		})
	}
}

func TestGetSnapshotComputesFigures(t *testing.T) {
	provider := newFakeProvider()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	provider.setDay(now, model.DailyFigures{Revenue: 1000, Orders: 40, Customers: 30})
	provider.setDay(now.AddDate(0, 0, -1), model.DailyFigures{Revenue: 800, Orders: 50, Customers: 30})

	svc := newTestService(provider, time.Minute)
	svc.now = func() time.Time { return now }

	snap, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1000.0, snap.RevenueToday)
	assert.Equal(t, 40, snap.OrdersToday)
	assert.Equal(t, 30, snap.CustomersToday)
	assert.InDelta(t, 25.0, snap.RevenueGrowth, 1e-9)
	assert.InDelta(t, -20.0, snap.OrdersGrowth, 1e-9)
	assert.InDelta(t, 0.0, snap.CustomersGrowth, 1e-9)
	assert.InDelta(t, 25.0, snap.AverageOrderValue, 1e-9)
	require.Len(t, snap.TopPerformers, 1)
	assert.EqualValues(t, 1, snap.TopPerformers[0].StaffID)
	assert.Len(t, snap.Trend, 2)
	assert.Equal(t, 2, snap.ActiveAlerts)
	assert.Equal(t, now, snap.GeneratedAt)
}

func TestGetSnapshotServesFromCache(t *testing.T) {
	provider := newFakeProvider()
	svc := newTestService(provider, time.Minute)

	first, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)
	callsAfterBuild := provider.calls()
	require.Equal(t, 2, callsAfterBuild, "one build queries today and yesterday")

	second, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, callsAfterBuild, provider.calls(), "cached read must not touch the provider")
}

func TestInvalidateForcesRecompute(t *testing.T) {
	provider := newFakeProvider()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	provider.setDay(now, model.DailyFigures{Revenue: 100, Orders: 10})

	svc := newTestService(provider, time.Minute)
	svc.now = func() time.Time { return now }

	snap, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, snap.OrdersToday)

	provider.setDay(now, model.DailyFigures{Revenue: 150, Orders: 11})

	// Still cached: the stale value is what viewers see until the TTL or an
	// explicit invalidation.
	snap, err = svc.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, snap.OrdersToday)

	removed := svc.Invalidate("dashboard")
	assert.Equal(t, 1, removed)

	snap, err = svc.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, snap.OrdersToday)
	assert.Equal(t, 150.0, snap.RevenueToday)
}

func TestGetSnapshotSurfacesProviderError(t *testing.T) {
	provider := newFakeProvider()
	provider.failing = true

	svc := newTestService(provider, time.Minute)

	snap, err := svc.GetSnapshot(context.Background())
	assert.Nil(t, snap)
	assert.ErrorContains(t, err, "snapshot recompute")
}

func TestGetMetricKnownNames(t *testing.T) {
	provider := newFakeProvider()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	provider.setDay(now, model.DailyFigures{Revenue: 200, Orders: 4, Customers: 3})
	provider.setDay(now.AddDate(0, 0, -1), model.DailyFigures{Revenue: 100, Orders: 4, Customers: 6})

	svc := newTestService(provider, time.Minute)
	svc.now = func() time.Time { return now }

	revenue, err := svc.GetMetric(context.Background(), MetricRevenueCurrent)
	require.NoError(t, err)
	require.NotNil(t, revenue)
	assert.Equal(t, 200.0, revenue.Value)
	assert.Equal(t, 100.0, revenue.PreviousValue)
	assert.InDelta(t, 100.0, revenue.ChangePercentage, 1e-9)

	avg, err := svc.GetMetric(context.Background(), MetricAverageOrderValue)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 50.0, avg.Value, 1e-9)
	assert.InDelta(t, 25.0, avg.PreviousValue, 1e-9)

	customers, err := svc.GetMetric(context.Background(), MetricCustomersCurrent)
	require.NoError(t, err)
	require.NotNil(t, customers)
	assert.InDelta(t, -50.0, customers.ChangePercentage, 1e-9)
}

func TestGetMetricCaches(t *testing.T) {
	provider := newFakeProvider()
	svc := newTestService(provider, time.Minute)

	_, err := svc.GetMetric(context.Background(), MetricOrdersCurrent)
	require.NoError(t, err)
	callsAfterBuild := provider.calls()

	_, err = svc.GetMetric(context.Background(), MetricOrdersCurrent)
	require.NoError(t, err)
	assert.Equal(t, callsAfterBuild, provider.calls())

	removed := svc.Invalidate("metric:" + MetricOrdersCurrent)
	assert.Equal(t, 1, removed)

	_, err = svc.GetMetric(context.Background(), MetricOrdersCurrent)
	require.NoError(t, err)
	assert.Greater(t, provider.calls(), callsAfterBuild)
}

func TestGetMetricUnknownName(t *testing.T) {
	svc := newTestService(newFakeProvider(), time.Minute)

	m, err := svc.GetMetric(context.Background(), "kitchen_queue_depth")
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestGetMetricCustomResolver(t *testing.T) {
	svc := newTestService(newFakeProvider(), time.Minute)
	svc.SetMetricResolver(func(_ context.Context, name string) (*model.RealtimeMetric, error) {
		if name != "kitchen_queue_depth" {
			return nil, nil
		}
		return &model.RealtimeMetric{Name: name, Value: 7}, nil
	})

	m, err := svc.GetMetric(context.Background(), "kitchen_queue_depth")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 7.0, m.Value)

	m, err = svc.GetMetric(context.Background(), "still_unknown")
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewCache(8, 30*time.Millisecond)

	cache.Set("dashboard", 1)
	_, ok := cache.Get("dashboard")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok := cache.Get("dashboard")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestCacheInvalidatePrefix(t *testing.T) {
	cache := NewCache(8, time.Minute)

	cache.Set("dashboard", 1)
	cache.Set("metric:revenue_current", 2)
	cache.Set("metric:orders_current", 3)

	assert.Equal(t, 2, cache.Invalidate("metric:"))
	assert.Equal(t, 1, cache.Len())

	assert.Equal(t, 1, cache.Invalidate(""))
	assert.Zero(t, cache.Len())
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	provider := newFakeProvider()
	provider.failing = true

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wrapped := NewBreakerProvider(provider, logger)

	for i := 0; i < 3; i++ {
		_, err := wrapped.DailyFigures(context.Background(), time.Now())
		require.Error(t, err)
	}
	callsBefore := provider.calls()

	// Breaker is open now: calls fail fast without reaching the backend.
	_, err := wrapped.DailyFigures(context.Background(), time.Now())
	require.Error(t, err)
	assert.Equal(t, callsBefore, provider.calls())
}
