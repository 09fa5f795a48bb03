package cmd

import (
	"github.com/opsboard/dashboard-stream-service/config"
	httpsrv "github.com/opsboard/dashboard-stream-service/infra/server/http"
	"github.com/opsboard/dashboard-stream-service/internal/aggregate"
	"github.com/opsboard/dashboard-stream-service/internal/dashboard"
	"github.com/opsboard/dashboard-stream-service/internal/domain/registry"
	"github.com/opsboard/dashboard-stream-service/internal/handler/bus"
	"github.com/opsboard/dashboard-stream-service/internal/handler/ws"
	"github.com/opsboard/dashboard-stream-service/internal/processor"
	"github.com/opsboard/dashboard-stream-service/internal/service"
	"go.uber.org/fx"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
			ProvideAnalytics,
		),
		processor.Module,
		aggregate.Module,
		dashboard.Module,
		registry.Module,
		service.Module,
		httpsrv.Module,
		ws.Module,
		bus.Module,
	)
}
