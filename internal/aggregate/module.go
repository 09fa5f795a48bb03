package aggregate

import (
	"context"
	"log/slog"

	"github.com/opsboard/dashboard-stream-service/config"
	"go.uber.org/fx"
)

var Module = fx.Module("aggregate",
	fx.Provide(
		func(cfg *config.Config, logger *slog.Logger) *Buffer {
			return NewBuffer(cfg.Aggregation.Interval, cfg.Aggregation.MaxBucketSize, logger)
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, b *Buffer) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				b.Start()
				return nil
			},
			OnStop: func(context.Context) error {
				b.Shutdown()
				return nil
			},
		})
	}),
)
