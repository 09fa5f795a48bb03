package processor

import (
	"sync"
	"time"

	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
)

// emaAlpha is the smoothing factor for the processing-time moving average.
const emaAlpha = 0.1

// eventMetrics holds the process-wide counters. Mutated only by the worker
// pool and the per-minute refresh loop; read by the status surface.
type eventMetrics struct {
	mu sync.Mutex

	totalProcessed  uint64
	failed          uint64
	rateLimited     uint64
	eventsPerMinute uint64
	avgProcessingMS float64
	handlerCount    int

	minuteCount uint64
}

func newEventMetrics() *eventMetrics {
	return &eventMetrics{}
}

// RecordProcessed folds one terminal event into the counters.
func (m *eventMetrics) RecordProcessed(d time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalProcessed++
	m.minuteCount++
	if failed {
		m.failed++
	}

	ms := float64(d.Microseconds()) / 1000.0
	if m.avgProcessingMS == 0 {
		m.avgProcessingMS = ms
	} else {
		m.avgProcessingMS = emaAlpha*ms + (1-emaAlpha)*m.avgProcessingMS
	}
}

func (m *eventMetrics) RecordDropped() {
	m.mu.Lock()
	m.failed++
	m.mu.Unlock()
}

func (m *eventMetrics) RecordRateLimited() {
	m.mu.Lock()
	m.rateLimited++
	m.mu.Unlock()
}

func (m *eventMetrics) SetHandlerCount(n int) {
	m.mu.Lock()
	m.handlerCount = n
	m.mu.Unlock()
}

// RollMinute publishes the last minute's throughput and starts a new one.
func (m *eventMetrics) RollMinute() {
	m.mu.Lock()
	m.eventsPerMinute = m.minuteCount
	m.minuteCount = 0
	m.mu.Unlock()
}

func (m *eventMetrics) Snapshot() model.EventStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return model.EventStats{
		TotalProcessed:      m.totalProcessed,
		Failed:              m.failed,
		RateLimited:         m.rateLimited,
		EventsPerMinute:     m.eventsPerMinute,
		AvgProcessingTimeMS: m.avgProcessingMS,
		ActiveHandlerCount:  m.handlerCount,
	}
}
