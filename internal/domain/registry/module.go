package registry

import (
	"context"
	"log/slog"

	"github.com/opsboard/dashboard-stream-service/config"
	"go.uber.org/fx"
)

var Module = fx.Module("registry",
	fx.Provide(
		func(cfg *config.Config, logger *slog.Logger) *Hub {
			return NewHub(logger,
				WithHeartbeatInterval(cfg.Registry.HeartbeatInterval),
				WithSendTimeout(cfg.Registry.SendTimeout),
				WithMailboxSize(cfg.Registry.MailboxSize),
			)
		},
		fx.Annotate(
			func(h *Hub) Hubber { return h },
			fx.As(new(Hubber)),
		),
	),
	fx.Invoke(func(lc fx.Lifecycle, h *Hub) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				h.Start()
				return nil
			},
			OnStop: func(context.Context) error {
				h.Shutdown()
				return nil
			},
		})
	}),
)
