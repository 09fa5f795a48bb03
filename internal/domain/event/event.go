package event

import (
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of business occurrences the pipeline understands.
// Handlers are bound to a Type at startup registration time; anything
// outside this set is rejected at the intake boundary.
type Type int16

const (
	OrderCompleted Type = iota + 1
	StaffAction
	PaymentProcessed
	SystemAlert
	CustomAlert
)

func (t Type) String() string {
	switch t {
	case OrderCompleted:
		return "order_completed"
	case StaffAction:
		return "staff_action"
	case PaymentProcessed:
		return "payment_processed"
	case SystemAlert:
		return "system_alert"
	case CustomAlert:
		return "custom_alert"
	default:
		return "unknown"
	}
}

// Valid reports whether t belongs to the registered variant set.
func (t Type) Valid() bool {
	return t >= OrderCompleted && t <= CustomAlert
}

// Status tracks an event from intake to its terminal state.
// pending -> processing -> {completed | failed | no_handlers}
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusNoHandlers Status = "no_handlers"
)

// Event is a discrete business notification flowing through the worker
// pool. It is owned exclusively by the pool from enqueue until a terminal
// status is set; afterwards it is retained read-only in the history ring.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       Type           `json:"type"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
	Priority   bool           `json:"priority"`
	Status     Status         `json:"status"`
}

func New(t Type, payload map[string]any, priority bool) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       t,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
		Priority:   priority,
		Status:     StatusPending,
	}
}

// String helpers for reading typed values out of the opaque payload map.
// Producers fill the map through the hook layer, so the shapes are known
// but not compile-time enforced.

func (e *Event) StringField(key string) string {
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}

func (e *Event) Int64Field(key string) int64 {
	switch v := e.Payload[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func (e *Event) FloatField(key string) float64 {
	switch v := e.Payload[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}
