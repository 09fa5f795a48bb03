package processor

import (
	"context"
	"log/slog"

	"github.com/opsboard/dashboard-stream-service/config"
	"go.uber.org/fx"
)

var Module = fx.Module("processor",
	fx.Provide(
		func(cfg *config.Config, logger *slog.Logger) *Processor {
			return New(Config{
				Workers:         cfg.Processor.Workers,
				QueueSize:       cfg.Processor.QueueSize,
				RateLimitWindow: cfg.Processor.RateLimitWindow,
				RateLimitMax:    cfg.Processor.RateLimitMax,
				HistorySize:     cfg.Processor.HistorySize,
			}, logger)
		},
		fx.Annotate(
			func(p *Processor) Submitter { return p },
			fx.As(new(Submitter)),
		),
	),
	fx.Invoke(func(lc fx.Lifecycle, p *Processor) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				p.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return p.Shutdown(ctx)
			},
		})
	}),
)
