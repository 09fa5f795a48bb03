package ws

import (
	httpsrv "github.com/opsboard/dashboard-stream-service/infra/server/http"
	"github.com/opsboard/dashboard-stream-service/internal/handler/status"
	"go.uber.org/fx"
)

var Module = fx.Module("ws-handler",
	fx.Provide(
		NewWSHandler,
		status.NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)

func RegisterRoutes(srv *httpsrv.Server, wsHandler *WSHandler, statusHandler *status.Handler) {
	srv.Router.Get("/ws", wsHandler.ServeHTTP)
	srv.Router.Get("/status", statusHandler.Status)
	srv.Router.Get("/healthz", statusHandler.Healthz)
}
