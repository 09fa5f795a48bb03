package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	pubsubadapter "github.com/opsboard/dashboard-stream-service/internal/adapter/pubsub"
	"go.uber.org/fx"
)

var Module = fx.Module("bus-handler",
	fx.Provide(
		pubsubadapter.NewPubSub,
		pubsubadapter.NewEventDispatcher,

		NewBusHandler,
		NewRouter,
	),

	fx.Invoke(func(
		lc fx.Lifecycle,
		router *message.Router,
		h *BusHandler,
		ps *pubsubadapter.PubSub,
		dispatcher pubsubadapter.EventDispatcher,
	) error {
		if err := h.RegisterHandlers(router, ps, dispatcher); err != nil {
			return err
		}

		runCtx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return startRouter(ctx, router, runCtx)
			},
			OnStop: func(context.Context) error {
				cancel()
				return router.Close()
			},
		})
		return nil
	}),
)

// startRouter launches Run in the background and waits for the router to
// report running. A Run that fails before that point (broker unreachable,
// bad subscriber) surfaces as the start error instead of waiting out the
// lifecycle timeout.
func startRouter(ctx context.Context, router *message.Router, runCtx context.Context) error {
	runErr := make(chan error, 1)
	go func() {
		runErr <- router.Run(runCtx)
	}()

	select {
	case err := <-runErr:
		if err == nil {
			err = errors.New("stopped before start completed")
		}
		return fmt.Errorf("bus: router run: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("bus: router start: %w", ctx.Err())
	case <-router.Running():
		return nil
	}
}
