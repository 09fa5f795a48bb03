package service

import (
	"go.uber.org/fx"
)

var Module = fx.Module(
	"service",

	fx.Provide(
		// Domain services
		fx.Annotate(
			NewStreamService,
			fx.As(new(Streamer)),
		),
		NewHooks,
		fx.Annotate(
			NewHeaderAuther,
			fx.As(new(Auther)),
		),
	),

	fx.Invoke(RegisterEventHandlers),
)
