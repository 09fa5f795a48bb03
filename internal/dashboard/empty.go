package dashboard

import (
	"context"
	"time"

	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
)

// Interface guard
var _ AnalyticsProvider = (*emptyProvider)(nil)

// emptyProvider is the default collaborator when no analytics backend is
// wired: every figure is zero. Deployments replace it through the fx graph
// with a client for the real reporting store.
type emptyProvider struct{}

func NewEmptyProvider() AnalyticsProvider {
	return &emptyProvider{}
}

func (emptyProvider) DailyFigures(context.Context, time.Time) (*model.DailyFigures, error) {
	return &model.DailyFigures{}, nil
}

func (emptyProvider) TopPerformers(context.Context, time.Time, int) ([]model.Performer, error) {
	return nil, nil
}

func (emptyProvider) RevenueTrend(context.Context, int) ([]model.TrendPoint, error) {
	return nil, nil
}

func (emptyProvider) ActiveAlertCount(context.Context) (int, error) {
	return 0, nil
}
