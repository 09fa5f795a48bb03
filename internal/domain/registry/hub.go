package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
)

var (
	ErrUnknownConnection  = errors.New("registry: unknown connection")
	ErrUnknownChannel     = errors.New("registry: unknown channel")
	ErrPermissionRequired = errors.New("registry: permission required")
)

// Hubber is the gateway for connection lifecycle, subscription management
// and permission-filtered broadcast fan-out.
type Hubber interface {
	Register(conn Connector)
	Unregister(id uuid.UUID)
	Subscribe(id uuid.UUID, ch Channel) error
	Unsubscribe(id uuid.UUID, ch Channel)
	Touch(id uuid.UUID) bool
	Broadcast(ch Channel, env *model.Envelope) int
	Stats() model.HubStats
}

// Hub tracks live connections and the per-channel subscriber sets.
//
// The maps below are the principal shared mutable state of the whole
// service: subscribe/unsubscribe/broadcast/sweep all race here, so every
// access goes through mu and Broadcast iterates a point-in-time copy.
type Hub struct {
	mu       sync.RWMutex
	conns    map[uuid.UUID]Connector
	channels map[Channel]map[uuid.UUID]struct{}

	config    hubConfig
	logger    *slog.Logger
	startedAt time.Time

	done     chan struct{}
	stopOnce sync.Once
}

type hubConfig struct {
	heartbeatInterval time.Duration
	sendTimeout       time.Duration
	mailboxSize       int
}

func NewHub(logger *slog.Logger, opts ...Option) *Hub {
	h := &Hub{
		conns:    make(map[uuid.UUID]Connector),
		channels: make(map[Channel]map[uuid.UUID]struct{}),
		config: hubConfig{
			heartbeatInterval: 30 * time.Second,
			sendTimeout:       500 * time.Millisecond,
			mailboxSize:       256,
		},
		logger:    logger,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// NewConnection builds a connector sized for this hub and registers it.
func (h *Hub) NewConnection(ctx context.Context, permissions []string) Connector {
	conn := NewConnector(ctx, permissions, h.config.mailboxSize)
	h.Register(conn)
	return conn
}

func (h *Hub) Register(conn Connector) {
	h.mu.Lock()
	h.conns[conn.GetID()] = conn
	h.mu.Unlock()

	h.logger.Info("connection registered", "conn_id", conn.GetID())
}

// Unregister is idempotent. The id leaves every subscriber set before the
// transport closes, so a concurrent broadcast can never target a
// half-torn-down connection.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	conn, ok := h.conns[id]
	if ok {
		for ch, set := range h.channels {
			delete(set, id)
			if len(set) == 0 {
				delete(h.channels, ch)
			}
		}
		delete(h.conns, id)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	conn.Close()
	h.logger.Info("connection unregistered", "conn_id", id)
}

// Subscribe validates the permission required for the channel and adds the
// connection to its subscriber set.
func (h *Hub) Subscribe(id uuid.UUID, ch Channel) error {
	if !ch.Known() {
		return ErrUnknownChannel
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[id]
	if !ok {
		return ErrUnknownConnection
	}
	if !conn.HasPermission(ch.RequiredPermission()) {
		return ErrPermissionRequired
	}

	set, ok := h.channels[ch]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		h.channels[ch] = set
	}
	set[id] = struct{}{}

	return nil
}

func (h *Hub) Unsubscribe(id uuid.UUID, ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.channels[ch]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(h.channels, ch)
		}
	}
}

// Touch refreshes the heartbeat for a live connection.
func (h *Hub) Touch(id uuid.UUID) bool {
	h.mu.RLock()
	conn, ok := h.conns[id]
	h.mu.RUnlock()

	if ok {
		conn.Touch()
	}
	return ok
}

// Broadcast fans env out to the channel's current subscriber set. Delivery
// runs concurrently per recipient with a permission re-check; a failed send
// disconnects that one connection without touching the rest. It returns the
// number of attempted deliveries once every attempt is dispatched into a
// mailbox, not once clients acknowledge anything.
func (h *Hub) Broadcast(ch Channel, env *model.Envelope) int {
	targets := h.subscribers(ch)
	if len(targets) == 0 {
		return 0
	}

	perm := ch.RequiredPermission()

	var wg sync.WaitGroup
	attempted := 0
	for _, conn := range targets {
		if !conn.HasPermission(perm) {
			continue
		}
		attempted++

		wg.Add(1)
		go func(conn Connector) {
			defer wg.Done()
			if !conn.Send(env, h.config.sendTimeout) {
				h.logger.Warn("broadcast delivery failed, dropping connection",
					"conn_id", conn.GetID(), "channel", string(ch))
				h.Unregister(conn.GetID())
			}
		}(conn)
	}
	wg.Wait()

	return attempted
}

// subscribers snapshots the channel's member connections so fan-out never
// iterates a map that subscribe/unsubscribe is mutating.
func (h *Hub) subscribers(ch Channel) []Connector {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set, ok := h.channels[ch]
	if !ok {
		return nil
	}

	out := make([]Connector, 0, len(set))
	for id := range set {
		if conn, ok := h.conns[id]; ok {
			out = append(out, conn)
		}
	}
	return out
}

func (h *Hub) Stats() model.HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := model.HubStats{
		TotalConnections:  len(h.conns),
		MetricSubscribers: make(map[string]int),
		Uptime:            time.Since(h.startedAt),
	}

	for ch, set := range h.channels {
		switch {
		case ch == ChannelDashboard:
			stats.DashboardSubscribers = len(set)
		case ch == ChannelAlerts:
			stats.AlertSubscribers = len(set)
		case ch.IsMetric():
			stats.MetricSubscribers[ch.MetricName()] = len(set)
		}
	}

	return stats
}

// Start launches the heartbeat sweep loop.
func (h *Hub) Start() {
	go h.sweepLoop()
}

func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		conns := make([]Connector, 0, len(h.conns))
		for _, conn := range h.conns {
			conns = append(conns, conn)
		}
		h.conns = make(map[uuid.UUID]Connector)
		h.channels = make(map[Channel]map[uuid.UUID]struct{})
		h.mu.Unlock()

		for _, conn := range conns {
			conn.Close()
		}
	})
}

func (h *Hub) sweepLoop() {
	ticker := time.NewTicker(h.config.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

// sweep disconnects connections whose heartbeat is older than three
// intervals and probes the live ones so clients can answer.
func (h *Hub) sweep() {
	staleAfter := 3 * h.config.heartbeatInterval

	h.mu.RLock()
	conns := make([]Connector, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	probe := model.NewEnvelope(model.EnvelopeHeartbeat, map[string]any{})

	for _, conn := range conns {
		if time.Since(conn.LastSeen()) > staleAfter {
			h.logger.Info("heartbeat stale, pruning connection", "conn_id", conn.GetID())
			h.Unregister(conn.GetID())
			continue
		}
		conn.Send(probe, h.config.sendTimeout)
	}
}
