package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/opsboard/dashboard-stream-service/internal/adapter/pubsub"
	"github.com/opsboard/dashboard-stream-service/internal/aggregate"
	"github.com/opsboard/dashboard-stream-service/internal/dashboard"
	"github.com/opsboard/dashboard-stream-service/internal/domain/event"
	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
	"github.com/opsboard/dashboard-stream-service/internal/domain/registry"
	"github.com/opsboard/dashboard-stream-service/internal/processor"
)

// Aggregation batch types and the bus topic mirrored alerts go out on.
const (
	BatchStaffOrders  = "staff_orders"
	BatchStaffActions = "staff_actions"

	AlertsMirrorTopic = "ops.alerts.enriched.v1"
)

// RegisterEventHandlers binds the closed event-type set to its handlers at
// startup. This is the composition point where raw business events become
// cache invalidations, aggregation increments and broadcasts.
func RegisterEventHandlers(
	proc *processor.Processor,
	buffer *aggregate.Buffer,
	boards dashboard.Boarder,
	hub registry.Hubber,
	dispatcher pubsub.EventDispatcher,
	logger *slog.Logger,
) {
	h := &eventHandlers{
		buffer:     buffer,
		boards:     boards,
		hub:        hub,
		dispatcher: dispatcher,
		logger:     logger,
	}

	proc.RegisterHandler(event.OrderCompleted, h.onOrderCompleted)
	proc.RegisterHandler(event.StaffAction, h.onStaffAction)
	proc.RegisterHandler(event.PaymentProcessed, h.onPaymentProcessed)
	proc.RegisterHandler(event.SystemAlert, h.onAlert)
	proc.RegisterHandler(event.CustomAlert, h.onAlert)

	buffer.RegisterProcessor(BatchStaffOrders, h.flushStaffOrders)
	buffer.RegisterProcessor(BatchStaffActions, h.flushStaffActions)
}

type eventHandlers struct {
	buffer     *aggregate.Buffer
	boards     dashboard.Boarder
	hub        registry.Hubber
	dispatcher pubsub.EventDispatcher
	logger     *slog.Logger
}

// onOrderCompleted invalidates the stale snapshot, bumps the per-staff
// order bucket and pushes a fresh snapshot to dashboard subscribers.
func (h *eventHandlers) onOrderCompleted(ctx context.Context, ev *event.Event) error {
	h.boards.Invalidate("dashboard")

	if staffID := ev.Int64Field("staff_id"); staffID != 0 {
		h.buffer.Append(BatchStaffOrders, strconv.FormatInt(staffID, 10), 1)
	}

	snap, err := h.boards.GetSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("order completed: snapshot: %w", err)
	}

	h.hub.Broadcast(registry.ChannelDashboard, model.NewEnvelope(model.EnvelopeDashboardUpdate, snap))
	return nil
}

func (h *eventHandlers) onStaffAction(_ context.Context, ev *event.Event) error {
	staffID := ev.Int64Field("staff_id")
	action := ev.StringField("action_type")
	if staffID == 0 || action == "" {
		return fmt.Errorf("staff action: missing staff_id or action_type")
	}

	h.buffer.Append(BatchStaffActions, strconv.FormatInt(staffID, 10)+":"+action, 1)
	return nil
}

// onPaymentProcessed refreshes the revenue metric and fans it out to its
// metric channel; the full snapshot is invalidated so the next dashboard
// read picks the payment up too.
func (h *eventHandlers) onPaymentProcessed(ctx context.Context, ev *event.Event) error {
	h.boards.Invalidate("dashboard")
	h.boards.Invalidate("metric:" + dashboard.MetricRevenueCurrent)

	m, err := h.boards.GetMetric(ctx, dashboard.MetricRevenueCurrent)
	if err != nil {
		return fmt.Errorf("payment processed: metric: %w", err)
	}
	if m != nil {
		h.hub.Broadcast(registry.MetricChannel(m.Name), model.NewEnvelope(model.EnvelopeMetricUpdate, m))
	}

	return nil
}

// onAlert serves both system and custom alert events: local fan-out to the
// alerts channel plus a mirror publish on the bus for sibling nodes.
func (h *eventHandlers) onAlert(ctx context.Context, ev *event.Event) error {
	alert := model.Alert{
		Name:           ev.StringField("name"),
		Message:        ev.StringField("message"),
		MetricName:     ev.StringField("metric_name"),
		CurrentValue:   ev.FloatField("current_value"),
		ThresholdValue: ev.FloatField("threshold_value"),
		Severity:       ev.StringField("severity"),
		SourceService:  ev.StringField("source_service"),
		RaisedAt:       ev.OccurredAt,
	}
	if alert.Name == "" {
		alert.Name = ev.StringField("event_type")
	}

	h.hub.Broadcast(registry.ChannelAlerts, model.NewEnvelope(model.EnvelopeAlertNotification, alert))

	if err := h.dispatcher.Publish(ctx, AlertsMirrorTopic, alert); err != nil {
		// Mirror failure is not a delivery failure: local viewers got it.
		h.logger.Warn("alert mirror publish failed", "alert", alert.Name, "err", err)
	}

	return nil
}

// flushStaffOrders turns a drained per-staff order bucket into one batched
// metric update instead of a broadcast per raw event.
func (h *eventHandlers) flushStaffOrders(_ context.Context, entries map[string]int64) {
	meta := make(map[string]any, len(entries))
	var total float64
	for staffID, count := range entries {
		meta[staffID] = count
		total += float64(count)
	}

	m := &model.RealtimeMetric{
		Name:      "orders_by_staff",
		Value:     total,
		Timestamp: time.Now().UTC(),
		Metadata:  meta,
	}
	h.hub.Broadcast(registry.MetricChannel(m.Name), model.NewEnvelope(model.EnvelopeMetricUpdate, m))
}

func (h *eventHandlers) flushStaffActions(_ context.Context, entries map[string]int64) {
	meta := make(map[string]any, len(entries))
	var total float64
	for key, count := range entries {
		meta[key] = count
		total += float64(count)
	}

	m := &model.RealtimeMetric{
		Name:      "staff_activity",
		Value:     total,
		Timestamp: time.Now().UTC(),
		Metadata:  meta,
	}
	h.hub.Broadcast(registry.MetricChannel(m.Name), model.NewEnvelope(model.EnvelopeMetricUpdate, m))
}
