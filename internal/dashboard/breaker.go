package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
	"github.com/sony/gobreaker"
)

// Interface guard
var _ AnalyticsProvider = (*breakerProvider)(nil)

// breakerProvider shields the snapshot builder from a misbehaving analytics
// backend: after repeated failures the breaker opens and calls fail fast,
// so one bad upstream never stalls the broadcast loop.
type breakerProvider struct {
	next AnalyticsProvider
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps next with a shared circuit breaker.
func NewBreakerProvider(next AnalyticsProvider, logger *slog.Logger) AnalyticsProvider {
	settings := gobreaker.Settings{
		Name:        "analytics-provider",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("analytics breaker state change",
				"name", name, "from", from.String(), "to", to.String())
		},
	}

	return &breakerProvider{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *breakerProvider) DailyFigures(ctx context.Context, day time.Time) (*model.DailyFigures, error) {
	res, err := p.cb.Execute(func() (any, error) {
		return p.next.DailyFigures(ctx, day)
	})
	if err != nil {
		return nil, err
	}
	return res.(*model.DailyFigures), nil
}

func (p *breakerProvider) TopPerformers(ctx context.Context, day time.Time, limit int) ([]model.Performer, error) {
	res, err := p.cb.Execute(func() (any, error) {
		return p.next.TopPerformers(ctx, day, limit)
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.Performer), nil
}

func (p *breakerProvider) RevenueTrend(ctx context.Context, hours int) ([]model.TrendPoint, error) {
	res, err := p.cb.Execute(func() (any, error) {
		return p.next.RevenueTrend(ctx, hours)
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.TrendPoint), nil
}

func (p *breakerProvider) ActiveAlertCount(ctx context.Context) (int, error) {
	res, err := p.cb.Execute(func() (any, error) {
		return p.next.ActiveAlertCount(ctx)
	})
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}
