package bus

import (
	"context"
	"time"
)

// Wire DTOs for business events arriving over the bus. Intentionally
// decoupled from the internal event payload shape.

type OrderCompletedV1 struct {
	OrderID     int64     `json:"order_id"`
	StaffID     int64     `json:"staff_id"`
	CustomerID  int64     `json:"customer_id,omitempty"`
	TotalAmount float64   `json:"total_amount"`
	ItemsCount  int       `json:"items_count"`
	TableNo     string    `json:"table_no,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

type StaffActionV1 struct {
	StaffID    int64          `json:"staff_id"`
	ActionType string         `json:"action_type"`
	ActionData map[string]any `json:"action_data,omitempty"`
	ShiftID    int64          `json:"shift_id,omitempty"`
	Timestamp  time.Time      `json:"timestamp,omitempty"`
}

type PaymentProcessedV1 struct {
	OrderID       int64     `json:"order_id"`
	Method        string    `json:"method"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	ProcessedAt   time.Time `json:"processed_at,omitempty"`
}

type SystemEventV1 struct {
	EventType     string         `json:"event_type"`
	Message       string         `json:"message"`
	Severity      string         `json:"severity"`
	SourceService string         `json:"source_service"`
	EventData     map[string]any `json:"event_data,omitempty"`
	Timestamp     time.Time      `json:"timestamp,omitempty"`
}

// The listeners delegate straight into the hook layer, so bus traffic and
// in-process callers share one intake path (validation, rate budget, queue).

func (h *BusHandler) OnOrderCompletedV1(_ context.Context, raw *OrderCompletedV1) error {
	h.hooks.OrderCompleted(raw.OrderID, raw.StaffID, raw.CustomerID,
		raw.TotalAmount, raw.ItemsCount, raw.TableNo, raw.CompletedAt)
	return nil
}

func (h *BusHandler) OnStaffActionV1(_ context.Context, raw *StaffActionV1) error {
	h.hooks.StaffAction(raw.StaffID, raw.ActionType, raw.ActionData, raw.ShiftID, raw.Timestamp)
	return nil
}

func (h *BusHandler) OnPaymentProcessedV1(_ context.Context, raw *PaymentProcessedV1) error {
	h.hooks.PaymentProcessed(raw.OrderID, raw.Method, raw.Amount,
		raw.Status, raw.TransactionID, raw.ProcessedAt)
	return nil
}

func (h *BusHandler) OnSystemEventV1(_ context.Context, raw *SystemEventV1) error {
	h.hooks.SystemEvent(raw.EventType, raw.Message, raw.Severity,
		raw.SourceService, raw.EventData, raw.Timestamp)
	return nil
}
