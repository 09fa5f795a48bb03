package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/opsboard/dashboard-stream-service/internal/dashboard"
	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
	"github.com/opsboard/dashboard-stream-service/internal/domain/registry"
	"github.com/opsboard/dashboard-stream-service/internal/processor"
)

// defaultSendTimeout bounds direct replies to a single connection's mailbox.
const defaultSendTimeout = 500 * time.Millisecond

// Streamer is the primary interface for transport handlers: connection
// lifecycle, inbound client messages and the read-only status surface.
type Streamer interface {
	Connect(ctx context.Context, identity Identity) (registry.Connector, error)
	Disconnect(id uuid.UUID)
	HandleInbound(ctx context.Context, conn registry.Connector, raw []byte)
	Status() model.ServiceStatus
}

// Interface guard
var _ Streamer = (*StreamService)(nil)

// StreamService bridges client connections to the hub and the dashboard
// read side. Malformed or unauthorized client messages produce an error
// envelope on the same connection, never a close.
type StreamService struct {
	hub       *registry.Hub
	boards    dashboard.Boarder
	processor *processor.Processor
	logger    *slog.Logger
}

func NewStreamService(
	hub *registry.Hub,
	boards dashboard.Boarder,
	proc *processor.Processor,
	logger *slog.Logger,
) *StreamService {
	return &StreamService{
		hub:       hub,
		boards:    boards,
		processor: proc,
		logger:    logger,
	}
}

// Connect registers the connection and pushes the initial status message so
// a client knows immediately what it is talking to.
func (s *StreamService) Connect(ctx context.Context, identity Identity) (registry.Connector, error) {
	conn := s.hub.NewConnection(ctx, identity.Permissions)

	status := model.NewEnvelope(model.EnvelopeSystemStatus, s.Status())
	if !conn.Send(status, defaultSendTimeout) {
		s.hub.Unregister(conn.GetID())
		return nil, fmt.Errorf("stream: initial status delivery failed")
	}

	s.logger.Info("client connected",
		"conn_id", conn.GetID(), "subject", identity.Subject)
	return conn, nil
}

func (s *StreamService) Disconnect(id uuid.UUID) {
	s.hub.Unregister(id)
}

func (s *StreamService) Status() model.ServiceStatus {
	return model.ServiceStatus{
		Connections: s.hub.Stats(),
		Events:      s.processor.Metrics(),
	}
}

// clientMessage is the inbound wire format.
type clientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type subscribePayload struct {
	SubscriptionType string   `json:"subscription_type"`
	Metrics          []string `json:"metrics"`
}

type getDataPayload struct {
	DataType   string `json:"data_type"`
	MetricName string `json:"metric_name"`
}

// HandleInbound parses and executes one client message.
func (s *StreamService) HandleInbound(ctx context.Context, conn registry.Connector, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.reply(conn, model.NewErrorEnvelope("malformed message"))
		return
	}

	switch msg.Type {
	case "subscribe":
		s.handleSubscribe(ctx, conn, msg.Data)
	case "unsubscribe":
		s.handleUnsubscribe(conn, msg.Data)
	case "heartbeat":
		s.hub.Touch(conn.GetID())
		s.reply(conn, model.NewEnvelope(model.EnvelopeHeartbeat, map[string]any{}))
	case "get_current_data":
		s.handleGetCurrentData(ctx, conn, msg.Data)
	default:
		s.reply(conn, model.NewErrorEnvelope(fmt.Sprintf("unknown message type %q", msg.Type)))
	}
}

func (s *StreamService) handleSubscribe(ctx context.Context, conn registry.Connector, data json.RawMessage) {
	channels, errReason := parseChannels(data)
	if errReason != "" {
		s.reply(conn, model.NewErrorEnvelope(errReason))
		return
	}

	granted := make([]string, 0, len(channels))
	for _, ch := range channels {
		if err := s.hub.Subscribe(conn.GetID(), ch); err != nil {
			s.reply(conn, model.NewErrorEnvelope(
				fmt.Sprintf("subscription to %s rejected: %v", ch, err)))
			continue
		}
		granted = append(granted, string(ch))

		// New subscribers get the current state right away instead of
		// waiting for the next event to land.
		s.deliverCurrentState(ctx, conn, ch)
	}

	if len(granted) > 0 {
		s.reply(conn, model.NewEnvelope(model.EnvelopeSubscriptionConfirm, map[string]any{
			"channels": granted,
		}))
	}
}

func (s *StreamService) handleUnsubscribe(conn registry.Connector, data json.RawMessage) {
	channels, errReason := parseChannels(data)
	if errReason != "" {
		s.reply(conn, model.NewErrorEnvelope(errReason))
		return
	}

	released := make([]string, 0, len(channels))
	for _, ch := range channels {
		s.hub.Unsubscribe(conn.GetID(), ch)
		released = append(released, string(ch))
	}

	s.reply(conn, model.NewEnvelope(model.EnvelopeSubscriptionConfirm, map[string]any{
		"unsubscribed": released,
	}))
}

func (s *StreamService) handleGetCurrentData(ctx context.Context, conn registry.Connector, data json.RawMessage) {
	var payload getDataPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.reply(conn, model.NewErrorEnvelope("malformed get_current_data payload"))
		return
	}

	switch payload.DataType {
	case "dashboard":
		snap, err := s.boards.GetSnapshot(ctx)
		if err != nil {
			s.logger.Error("snapshot recompute failed", "err", err)
			s.reply(conn, model.NewErrorEnvelope("dashboard data unavailable"))
			return
		}
		s.reply(conn, model.NewEnvelope(model.EnvelopeDashboardUpdate, snap))

	case "metric":
		if payload.MetricName == "" {
			s.reply(conn, model.NewErrorEnvelope("metric_name is required"))
			return
		}
		m, err := s.boards.GetMetric(ctx, payload.MetricName)
		if err != nil {
			s.logger.Error("metric lookup failed", "metric", payload.MetricName, "err", err)
			s.reply(conn, model.NewErrorEnvelope("metric data unavailable"))
			return
		}
		if m == nil {
			s.reply(conn, model.NewErrorEnvelope(
				fmt.Sprintf("unknown metric %q", payload.MetricName)))
			return
		}
		s.reply(conn, model.NewEnvelope(model.EnvelopeMetricUpdate, m))

	default:
		s.reply(conn, model.NewErrorEnvelope(fmt.Sprintf("unknown data_type %q", payload.DataType)))
	}
}

// deliverCurrentState pushes the channel's present value to a fresh
// subscriber. The alerts channel has no standing state to replay.
func (s *StreamService) deliverCurrentState(ctx context.Context, conn registry.Connector, ch registry.Channel) {
	switch {
	case ch == registry.ChannelDashboard:
		if snap, err := s.boards.GetSnapshot(ctx); err == nil {
			s.reply(conn, model.NewEnvelope(model.EnvelopeDashboardUpdate, snap))
		} else {
			s.logger.Warn("initial snapshot delivery skipped", "err", err)
		}
	case ch.IsMetric():
		if m, err := s.boards.GetMetric(ctx, ch.MetricName()); err == nil && m != nil {
			s.reply(conn, model.NewEnvelope(model.EnvelopeMetricUpdate, m))
		}
	}
}

func parseChannels(data json.RawMessage) ([]registry.Channel, string) {
	var payload subscribePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, "malformed subscribe payload"
	}

	switch payload.SubscriptionType {
	case "dashboard":
		return []registry.Channel{registry.ChannelDashboard}, ""
	case "alerts":
		return []registry.Channel{registry.ChannelAlerts}, ""
	case "metrics":
		if len(payload.Metrics) == 0 {
			return nil, "metrics subscription requires at least one metric name"
		}
		channels := make([]registry.Channel, 0, len(payload.Metrics))
		for _, name := range payload.Metrics {
			channels = append(channels, registry.MetricChannel(name))
		}
		return channels, ""
	case "":
		return nil, "subscription_type is required"
	default:
		return nil, fmt.Sprintf("unknown subscription_type %q", payload.SubscriptionType)
	}
}

func (s *StreamService) reply(conn registry.Connector, env *model.Envelope) {
	if !conn.Send(env, defaultSendTimeout) {
		s.logger.Warn("reply delivery failed", "conn_id", conn.GetID(), "type", string(env.Type))
	}
}
