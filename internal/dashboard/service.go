package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

const (
	snapshotKey  = "dashboard"
	metricPrefix = "metric:"

	topPerformerLimit = 5
	trendWindowHours  = 12
)

// Metric names the builder computes itself from the daily figures.
const (
	MetricRevenueCurrent    = "revenue_current"
	MetricOrdersCurrent     = "orders_current"
	MetricCustomersCurrent  = "customers_current"
	MetricAverageOrderValue = "average_order_value"
)

// Boarder is the read side of the dashboard: cached snapshots, single
// metrics and targeted invalidation.
type Boarder interface {
	GetSnapshot(ctx context.Context) (*model.DashboardSnapshot, error)
	GetMetric(ctx context.Context, name string) (*model.RealtimeMetric, error)
	Invalidate(pattern string) int
}

// Interface guard
var _ Boarder = (*Service)(nil)

// Service builds DashboardSnapshots on cache miss and keeps them behind a
// TTL so the analytics backend sees at most one expensive recompute per
// staleness window regardless of how many viewers are connected.
type Service struct {
	provider AnalyticsProvider
	cache    *Cache
	resolver MetricResolver
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(provider AnalyticsProvider, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// SetMetricResolver installs the custom-metric lookup used for names the
// builder does not recognize.
func (s *Service) SetMetricResolver(r MetricResolver) {
	s.resolver = r
}

// Growth is the percentage change convention used across the dashboard:
// a zero previous value yields 100% when anything appeared and 0% when
// nothing did, so no division error can surface to a viewer.
func Growth(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	return ((current - previous) / previous) * 100.0
}

// GetSnapshot returns the cached snapshot while it is fresh, otherwise
// recomputes it from the analytics collaborator and repopulates the cache.
// Upstream failure surfaces as an error to this single caller only.
func (s *Service) GetSnapshot(ctx context.Context) (*model.DashboardSnapshot, error) {
	if v, ok := s.cache.Get(snapshotKey); ok {
		if snap, ok := v.(*model.DashboardSnapshot); ok {
			return snap, nil
		}
	}

	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(snapshotKey, snap)
	return snap, nil
}

func (s *Service) buildSnapshot(ctx context.Context) (*model.DashboardSnapshot, error) {
	now := s.now()
	today := now
	yesterday := now.AddDate(0, 0, -1)

	var (
		curFigures  *model.DailyFigures
		prevFigures *model.DailyFigures
		performers  []model.Performer
		trend       []model.TrendPoint
		alertCount  int
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		curFigures, err = s.provider.DailyFigures(gCtx, today)
		return err
	})
	g.Go(func() error {
		var err error
		prevFigures, err = s.provider.DailyFigures(gCtx, yesterday)
		return err
	})
	g.Go(func() error {
		var err error
		performers, err = s.provider.TopPerformers(gCtx, today, topPerformerLimit)
		return err
	})
	g.Go(func() error {
		var err error
		trend, err = s.provider.RevenueTrend(gCtx, trendWindowHours)
		return err
	})
	g.Go(func() error {
		var err error
		alertCount, err = s.provider.ActiveAlertCount(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: snapshot recompute: %w", err)
	}

	avgOrder := 0.0
	if curFigures.Orders > 0 {
		avgOrder = curFigures.Revenue / float64(curFigures.Orders)
	}

	return &model.DashboardSnapshot{
		RevenueToday:      curFigures.Revenue,
		OrdersToday:       curFigures.Orders,
		CustomersToday:    curFigures.Customers,
		RevenueGrowth:     Growth(curFigures.Revenue, prevFigures.Revenue),
		OrdersGrowth:      Growth(float64(curFigures.Orders), float64(prevFigures.Orders)),
		CustomersGrowth:   Growth(float64(curFigures.Customers), float64(prevFigures.Customers)),
		AverageOrderValue: avgOrder,
		TopPerformers:     performers,
		Trend:             trend,
		ActiveAlerts:      alertCount,
		GeneratedAt:       now,
	}, nil
}

// GetMetric computes one named figure. Unrecognized names are delegated to
// the pluggable resolver; (nil, nil) means nothing was found.
func (s *Service) GetMetric(ctx context.Context, name string) (*model.RealtimeMetric, error) {
	cacheKey := metricPrefix + name
	if v, ok := s.cache.Get(cacheKey); ok {
		if m, ok := v.(*model.RealtimeMetric); ok {
			return m, nil
		}
	}

	m, err := s.computeMetric(ctx, name)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	s.cache.Set(cacheKey, m)
	return m, nil
}

func (s *Service) computeMetric(ctx context.Context, name string) (*model.RealtimeMetric, error) {
	switch name {
	case MetricRevenueCurrent, MetricOrdersCurrent, MetricCustomersCurrent, MetricAverageOrderValue:
	default:
		if s.resolver == nil {
			return nil, nil
		}
		return s.resolver(ctx, name)
	}

	now := s.now()

	var cur, prev *model.DailyFigures
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, err = s.provider.DailyFigures(gCtx, now)
		return err
	})
	g.Go(func() error {
		var err error
		prev, err = s.provider.DailyFigures(gCtx, now.AddDate(0, 0, -1))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: metric %s: %w", name, err)
	}

	var value, previous float64
	switch name {
	case MetricRevenueCurrent:
		value, previous = cur.Revenue, prev.Revenue
	case MetricOrdersCurrent:
		value, previous = float64(cur.Orders), float64(prev.Orders)
	case MetricCustomersCurrent:
		value, previous = float64(cur.Customers), float64(prev.Customers)
	case MetricAverageOrderValue:
		if cur.Orders > 0 {
			value = cur.Revenue / float64(cur.Orders)
		}
		if prev.Orders > 0 {
			previous = prev.Revenue / float64(prev.Orders)
		}
	}

	return &model.RealtimeMetric{
		Name:             name,
		Value:            value,
		Timestamp:        now,
		PreviousValue:    previous,
		ChangePercentage: Growth(value, previous),
	}, nil
}

// Invalidate removes cached entries by key prefix; an empty pattern clears
// everything. The next read recomputes.
func (s *Service) Invalidate(pattern string) int {
	removed := s.cache.Invalidate(pattern)
	if removed > 0 {
		s.logger.Debug("cache invalidated", "pattern", pattern, "removed", removed)
	}
	return removed
}
