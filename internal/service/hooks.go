package service

import (
	"log/slog"
	"time"

	"github.com/opsboard/dashboard-stream-service/internal/dashboard"
	"github.com/opsboard/dashboard-stream-service/internal/domain/event"
	"github.com/opsboard/dashboard-stream-service/internal/processor"
)

// Hooks is the narrow contract business modules call to feed the pipeline.
// Every hook is non-blocking from the caller's perspective and swallows
// internal errors: a dashboard hiccup must never fail an order or a payment.
type Hooks struct {
	submitter processor.Submitter
	boards    dashboard.Boarder
	logger    *slog.Logger
}

func NewHooks(submitter processor.Submitter, boards dashboard.Boarder, logger *slog.Logger) *Hooks {
	return &Hooks{
		submitter: submitter,
		boards:    boards,
		logger:    logger,
	}
}

// OrderCompleted feeds a finished order into the pipeline. Revenue-critical,
// so it takes the inline priority path. customerID, tableNo and completedAt
// are optional; pass zero values when unknown.
func (h *Hooks) OrderCompleted(orderID, staffID, customerID int64, totalAmount float64, itemsCount int, tableNo string, completedAt time.Time) {
	defer h.recoverHook("order_completed")

	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	accepted := h.submitter.Submit(event.OrderCompleted, map[string]any{
		"order_id":     orderID,
		"staff_id":     staffID,
		"customer_id":  customerID,
		"total_amount": totalAmount,
		"items_count":  itemsCount,
		"table_no":     tableNo,
		"completed_at": completedAt,
	}, true)

	if !accepted {
		h.logger.Warn("order_completed hook rejected", "order_id", orderID)
	}
}

// StaffAction records a staff activity. actionData, shiftID and timestamp
// are optional.
func (h *Hooks) StaffAction(staffID int64, actionType string, actionData map[string]any, shiftID int64, timestamp time.Time) {
	defer h.recoverHook("staff_action")

	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	accepted := h.submitter.Submit(event.StaffAction, map[string]any{
		"staff_id":    staffID,
		"action_type": actionType,
		"action_data": actionData,
		"shift_id":    shiftID,
		"timestamp":   timestamp,
	}, false)

	if !accepted {
		h.logger.Warn("staff_action hook rejected", "staff_id", staffID, "action_type", actionType)
	}
}

// PaymentProcessed feeds a payment outcome into the pipeline on the
// priority path. transactionID and processedAt are optional.
func (h *Hooks) PaymentProcessed(orderID int64, method string, amount float64, status, transactionID string, processedAt time.Time) {
	defer h.recoverHook("payment_processed")

	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	accepted := h.submitter.Submit(event.PaymentProcessed, map[string]any{
		"order_id":       orderID,
		"method":         method,
		"amount":         amount,
		"status":         status,
		"transaction_id": transactionID,
		"processed_at":   processedAt,
	}, true)

	if !accepted {
		h.logger.Warn("payment_processed hook rejected", "order_id", orderID)
	}
}

// SystemEvent records an infrastructure-level occurrence. Critical severity
// rides the priority path so outage alerts reach viewers first.
func (h *Hooks) SystemEvent(eventType, message, severity, sourceService string, eventData map[string]any, timestamp time.Time) {
	defer h.recoverHook("system_event")

	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	accepted := h.submitter.Submit(event.SystemAlert, map[string]any{
		"event_type":     eventType,
		"message":        message,
		"severity":       severity,
		"source_service": sourceService,
		"event_data":     eventData,
		"timestamp":      timestamp,
	}, severity == "critical")

	if !accepted {
		h.logger.Warn("system_event hook rejected", "event_type", eventType, "source", sourceService)
	}
}

// InvalidateCache drops cached dashboard entries by prefix; empty pattern
// clears everything.
func (h *Hooks) InvalidateCache(pattern string) {
	defer h.recoverHook("invalidate_cache")

	h.boards.Invalidate(pattern)
}

// TriggerCustomAlert raises a threshold alert for the alerts channel.
// severity is optional and defaults to "warning".
func (h *Hooks) TriggerCustomAlert(name, message, metricName string, currentValue, thresholdValue float64, severity string) {
	defer h.recoverHook("trigger_custom_alert")

	if severity == "" {
		severity = "warning"
	}

	accepted := h.submitter.Submit(event.CustomAlert, map[string]any{
		"name":            name,
		"message":         message,
		"metric_name":     metricName,
		"current_value":   currentValue,
		"threshold_value": thresholdValue,
		"severity":        severity,
	}, true)

	if !accepted {
		h.logger.Warn("trigger_custom_alert hook rejected", "name", name)
	}
}

// recoverHook keeps hook panics inside the pipeline boundary; the calling
// business transaction never observes them.
func (h *Hooks) recoverHook(hook string) {
	if r := recover(); r != nil {
		h.logger.Error("hook panic recovered", "hook", hook, "err", r)
	}
}
