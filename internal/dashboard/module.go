package dashboard

import (
	"log/slog"

	"github.com/opsboard/dashboard-stream-service/config"
	"go.uber.org/fx"
)

var Module = fx.Module("dashboard",
	fx.Provide(
		func(cfg *config.Config) *Cache {
			return NewCache(cfg.Cache.Size, cfg.Cache.TTL)
		},
		NewService,
		fx.Annotate(
			func(s *Service) Boarder { return s },
			fx.As(new(Boarder)),
		),
	),

	// The analytics collaborator always goes through the circuit breaker.
	fx.Decorate(func(orig AnalyticsProvider, logger *slog.Logger) AnalyticsProvider {
		return NewBreakerProvider(orig, logger)
	}),
)
