package bus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/opsboard/dashboard-stream-service/internal/adapter/pubsub"
	"github.com/opsboard/dashboard-stream-service/internal/service"
)

const (
	// Topics other services publish business events on.
	TopicOrderCompleted   = "ops.order.completed.v1"
	TopicStaffAction      = "ops.staff.action.v1"
	TopicPaymentProcessed = "ops.payment.processed.v1"
	TopicSystemEvent      = "ops.system.event.v1"

	// Undecodable or repeatedly failing messages land here.
	PoisonTopic = "ops.dashboard-stream.poison"
)

type BusHandler struct {
	hooks  *service.Hooks
	logger *slog.Logger
}

func NewBusHandler(hooks *service.Hooks, logger *slog.Logger) *BusHandler {
	return &BusHandler{hooks: hooks, logger: logger}
}

func NewRouter(wmLogger watermill.LoggerAdapter) (*message.Router, error) {
	return message.NewRouter(message.RouterConfig{}, wmLogger)
}

// RegisterHandlers wires every ingestion topic to its listener with the
// shared middleware chain.
func (h *BusHandler) RegisterHandlers(router *message.Router, ps *pubsub.PubSub, dispatcher pubsub.EventDispatcher) error {
	poison, err := middleware.PoisonQueue(dispatcher.Publisher(), PoisonTopic)
	if err != nil {
		return fmt.Errorf("bus: poison setup: %w", err)
	}

	configs := []struct {
		name    string
		topic   string
		handler message.NoPublishHandlerFunc
	}{
		{"on_order_completed", TopicOrderCompleted, Bind(h.logger, h.OnOrderCompletedV1)},
		{"on_staff_action", TopicStaffAction, Bind(h.logger, h.OnStaffActionV1)},
		{"on_payment_processed", TopicPaymentProcessed, Bind(h.logger, h.OnPaymentProcessedV1)},
		{"on_system_event", TopicSystemEvent, Bind(h.logger, h.OnSystemEventV1)},
	}

	for _, c := range configs {
		router.AddNoPublisherHandler(c.name, c.topic, ps.Subscriber, c.handler).AddMiddleware(
			TraceIDMiddleware,
			LoggingMiddleware(h.logger),
			NewRetryMiddleware().Middleware,
			poison,
			middleware.NewThrottle(100, time.Second).Middleware,
			middleware.Timeout(time.Second*30),
		)
	}

	h.logger.Info("bus ingestion ready", "topics", len(configs))
	return nil
}
