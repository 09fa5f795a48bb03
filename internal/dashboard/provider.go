package dashboard

import (
	"context"
	"time"

	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
)

// AnalyticsProvider is the external collaborator that computes raw figures
// from persisted business records. The queries themselves live outside this
// service; the snapshot builder only consumes their results.
type AnalyticsProvider interface {
	DailyFigures(ctx context.Context, day time.Time) (*model.DailyFigures, error)
	TopPerformers(ctx context.Context, day time.Time, limit int) ([]model.Performer, error)
	RevenueTrend(ctx context.Context, hours int) ([]model.TrendPoint, error)
	ActiveAlertCount(ctx context.Context) (int, error)
}

// MetricResolver is the pluggable lookup for metric names the builder does
// not compute itself. Returning (nil, nil) means "nothing found", which is
// not an error.
type MetricResolver func(ctx context.Context, name string) (*model.RealtimeMetric, error)
