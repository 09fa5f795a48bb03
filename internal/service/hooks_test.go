package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsboard/dashboard-stream-service/internal/adapter/pubsub"
	"github.com/opsboard/dashboard-stream-service/internal/aggregate"
	"github.com/opsboard/dashboard-stream-service/internal/dashboard"
	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
	"github.com/opsboard/dashboard-stream-service/internal/domain/registry"
	"github.com/opsboard/dashboard-stream-service/internal/processor"
)

// Interface guards
var (
	_ dashboard.AnalyticsProvider = (*fakeAnalytics)(nil)
	_ pubsub.EventDispatcher      = (*captureDispatcher)(nil)
)

// fakeAnalytics holds mutable daily figures so a test can change "today"
// between a cache warm and the event that should surface the change.
type fakeAnalytics struct {
	mu        sync.Mutex
	today     model.DailyFigures
	yesterday model.DailyFigures
}

func (f *fakeAnalytics) setToday(figures model.DailyFigures) {
	f.mu.Lock()
	f.today = figures
	f.mu.Unlock()
}

func (f *fakeAnalytics) DailyFigures(_ context.Context, day time.Time) (*model.DailyFigures, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	figures := f.today
	if day.Format(time.DateOnly) != time.Now().Format(time.DateOnly) {
		figures = f.yesterday
	}
	return &figures, nil
}

func (f *fakeAnalytics) TopPerformers(context.Context, time.Time, int) ([]model.Performer, error) {
	return nil, nil
}

func (f *fakeAnalytics) RevenueTrend(context.Context, int) ([]model.TrendPoint, error) {
	return nil, nil
}

func (f *fakeAnalytics) ActiveAlertCount(context.Context) (int, error) {
	return 0, nil
}

// captureDispatcher records mirror publishes instead of hitting a broker.
type captureDispatcher struct {
	mu        sync.Mutex
	published []capturedPublish
}

type capturedPublish struct {
	topic   string
	payload any
}

func (c *captureDispatcher) Publish(_ context.Context, topic string, payload any) error {
	c.mu.Lock()
	c.published = append(c.published, capturedPublish{topic: topic, payload: payload})
	c.mu.Unlock()
	return nil
}

func (c *captureDispatcher) Publisher() message.Publisher { return nil }

func (c *captureDispatcher) all() []capturedPublish {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]capturedPublish, len(c.published))
	copy(out, c.published)
	return out
}

type pipeline struct {
	hooks      *Hooks
	proc       *processor.Processor
	buffer     *aggregate.Buffer
	hub        *registry.Hub
	boards     *dashboard.Service
	analytics  *fakeAnalytics
	dispatcher *captureDispatcher
}

// newPipeline wires the full intake-to-broadcast path with a fake analytics
// backend and a capturing bus dispatcher. The buffer ticker and worker pool
// stay stopped unless the test starts them.
func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	logger := discardLogger()

	analytics := &fakeAnalytics{}
	boards := dashboard.NewService(analytics, dashboard.NewCache(64, time.Minute), logger)

	hub := registry.NewHub(logger)
	proc := processor.New(processor.Config{
		Workers:         2,
		QueueSize:       32,
		RateLimitWindow: time.Minute,
		RateLimitMax:    1000,
		HistorySize:     32,
	}, logger)
	buffer := aggregate.NewBuffer(time.Hour, 0, logger)
	dispatcher := &captureDispatcher{}

	RegisterEventHandlers(proc, buffer, boards, hub, dispatcher, logger)

	return &pipeline{
		hooks:      NewHooks(proc, boards, logger),
		proc:       proc,
		buffer:     buffer,
		hub:        hub,
		boards:     boards,
		analytics:  analytics,
		dispatcher: dispatcher,
	}
}

func (p *pipeline) subscribe(t *testing.T, ch registry.Channel, perms ...string) registry.Connector {
	t.Helper()
	conn := p.hub.NewConnection(context.Background(), perms)
	require.NoError(t, p.hub.Subscribe(conn.GetID(), ch))
	return conn
}

func TestOrderCompletedRefreshesDashboardSubscribers(t *testing.T) {
	p := newPipeline(t)
	p.analytics.setToday(model.DailyFigures{Revenue: 250, Orders: 5, Customers: 4})

	conn := p.subscribe(t, registry.ChannelDashboard, registry.PermDashboardView)

	// Warm the cache so the hook has something stale to invalidate.
	snap, err := p.boards.GetSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, snap.OrdersToday)

	p.analytics.setToday(model.DailyFigures{Revenue: 300, Orders: 6, Customers: 4})
	p.hooks.OrderCompleted(101, 7, 0, 50, 2, "t4", time.Time{})

	env := recvEnvelope(t, conn)
	require.Equal(t, model.EnvelopeDashboardUpdate, env.Type)
	pushed, ok := env.Data.(*model.DashboardSnapshot)
	require.True(t, ok)
	assert.Equal(t, 6, pushed.OrdersToday)
	assert.Equal(t, 300.0, pushed.RevenueToday)
}

func TestOrderCompletedFeedsStaffOrderBatch(t *testing.T) {
	p := newPipeline(t)

	metricConn := p.subscribe(t, registry.MetricChannel("orders_by_staff"), registry.PermMetricsView)

	p.hooks.OrderCompleted(101, 7, 0, 50, 2, "", time.Time{})
	p.hooks.OrderCompleted(102, 7, 0, 30, 1, "", time.Time{})

	p.buffer.Flush()

	env := recvEnvelope(t, metricConn)
	require.Equal(t, model.EnvelopeMetricUpdate, env.Type)
	m, ok := env.Data.(*model.RealtimeMetric)
	require.True(t, ok)
	assert.Equal(t, "orders_by_staff", m.Name)
	assert.Equal(t, 2.0, m.Value)
	assert.EqualValues(t, 2, m.Metadata["7"])
}

func TestPaymentProcessedBroadcastsRevenueMetric(t *testing.T) {
	p := newPipeline(t)
	p.analytics.setToday(model.DailyFigures{Revenue: 200, Orders: 4})
	p.analytics.yesterday = model.DailyFigures{Revenue: 100, Orders: 2}

	conn := p.subscribe(t,
		registry.MetricChannel(dashboard.MetricRevenueCurrent), registry.PermMetricsView)

	// Warm the metric cache, then land a payment that changes the figure.
	_, err := p.boards.GetMetric(context.Background(), dashboard.MetricRevenueCurrent)
	require.NoError(t, err)

	p.analytics.setToday(model.DailyFigures{Revenue: 260, Orders: 5})
	p.hooks.PaymentProcessed(101, "card", 60, "success", "tx-9", time.Time{})

	env := recvEnvelope(t, conn)
	require.Equal(t, model.EnvelopeMetricUpdate, env.Type)
	m, ok := env.Data.(*model.RealtimeMetric)
	require.True(t, ok)
	assert.Equal(t, dashboard.MetricRevenueCurrent, m.Name)
	assert.Equal(t, 260.0, m.Value)
	assert.Equal(t, 100.0, m.PreviousValue)
}

func TestCustomAlertFansOutAndMirrors(t *testing.T) {
	p := newPipeline(t)

	conn := p.subscribe(t, registry.ChannelAlerts, registry.PermAlertsReceive)

	p.hooks.TriggerCustomAlert("slow_kitchen", "prep time over threshold",
		"avg_prep_minutes", 14, 10, "")

	env := recvEnvelope(t, conn)
	require.Equal(t, model.EnvelopeAlertNotification, env.Type)
	alert, ok := env.Data.(model.Alert)
	require.True(t, ok)
	assert.Equal(t, "slow_kitchen", alert.Name)
	assert.Equal(t, "warning", alert.Severity, "severity defaults when omitted")
	assert.Equal(t, 14.0, alert.CurrentValue)

	published := p.dispatcher.all()
	require.Len(t, published, 1)
	assert.Equal(t, AlertsMirrorTopic, published[0].topic)
	mirrored, ok := published[0].payload.(model.Alert)
	require.True(t, ok)
	assert.Equal(t, "slow_kitchen", mirrored.Name)
}

func TestCriticalSystemEventRidesPriorityPath(t *testing.T) {
	p := newPipeline(t)
	// Pool never started: only the priority path can deliver this.

	conn := p.subscribe(t, registry.ChannelAlerts, registry.PermAlertsReceive)

	p.hooks.SystemEvent("database_degraded", "replica lag above 30s",
		"critical", "orders-db", nil, time.Time{})

	env := recvEnvelope(t, conn)
	require.Equal(t, model.EnvelopeAlertNotification, env.Type)
	alert, ok := env.Data.(model.Alert)
	require.True(t, ok)
	assert.Equal(t, "database_degraded", alert.Name, "event_type backfills the alert name")
	assert.Equal(t, "critical", alert.Severity)
	assert.Equal(t, "orders-db", alert.SourceService)
}

func TestStaffActionAccumulatesThroughWorkerPool(t *testing.T) {
	p := newPipeline(t)
	p.proc.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, p.proc.Shutdown(ctx))
	}()

	conn := p.subscribe(t, registry.MetricChannel("staff_activity"), registry.PermMetricsView)

	p.hooks.StaffAction(7, "refund", map[string]any{"order_id": 101}, 0, time.Time{})

	// The append happens on a worker goroutine; flush until the bucket has
	// landed and the batched metric reaches the subscriber.
	require.Eventually(t, func() bool {
		p.buffer.Flush()
		select {
		case env := <-conn.Recv():
			require.Equal(t, model.EnvelopeMetricUpdate, env.Type)
			m, ok := env.Data.(*model.RealtimeMetric)
			require.True(t, ok)
			assert.EqualValues(t, 1, m.Metadata["7:refund"])
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestHookSwallowsSubmitterPanic(t *testing.T) {
	logger := discardLogger()
	hooks := NewHooks(nil, nil, logger) // nil submitter panics inside the hook

	assert.NotPanics(t, func() {
		hooks.OrderCompleted(1, 1, 0, 10, 1, "", time.Time{})
	})
}
