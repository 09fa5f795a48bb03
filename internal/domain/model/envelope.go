package model

import (
	"time"

	"github.com/google/uuid"
)

// EnvelopeType enumerates every frame the server may push to a client.
type EnvelopeType string

const (
	EnvelopeDashboardUpdate     EnvelopeType = "dashboard_update"
	EnvelopeMetricUpdate        EnvelopeType = "metric_update"
	EnvelopeAlertNotification   EnvelopeType = "alert_notification"
	EnvelopeSystemStatus        EnvelopeType = "system_status"
	EnvelopeError               EnvelopeType = "error"
	EnvelopeHeartbeat           EnvelopeType = "heartbeat"
	EnvelopeSubscriptionConfirm EnvelopeType = "subscription_confirm"
)

// Envelope is the wire message exchanged with dashboard clients.
// Timestamp serializes as ISO-8601 via the standard time.Time encoding.
type Envelope struct {
	Type      EnvelopeType `json:"type"`
	Data      any          `json:"data"`
	Timestamp time.Time    `json:"timestamp"`
	MessageID string       `json:"message_id"`
}

func NewEnvelope(t EnvelopeType, data any) *Envelope {
	return &Envelope{
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UTC(),
		MessageID: uuid.NewString(),
	}
}

// NewErrorEnvelope wraps a human-readable rejection reason. Clients get
// these instead of a closed connection on malformed input.
func NewErrorEnvelope(reason string) *Envelope {
	return NewEnvelope(EnvelopeError, map[string]string{"reason": reason})
}
