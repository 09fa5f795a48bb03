package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/opsboard/dashboard-stream-service/internal/domain/event"
	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
)

// Handler is a registered function invoked for all events of one type.
// A handler error is isolated: it is counted but never aborts siblings.
type Handler func(ctx context.Context, ev *event.Event) error

// Submitter is the intake contract exposed to the hook layer and the bus
// listeners. Submit never blocks and never panics across the boundary.
type Submitter interface {
	Submit(t event.Type, payload map[string]any, priority bool) bool
}

// Interface guard
var _ Submitter = (*Processor)(nil)

// Config for the worker pool and its intake queue.
type Config struct {
	Workers         int
	QueueSize       int
	RateLimitWindow time.Duration
	RateLimitMax    int
	HistorySize     int
}

// Processor owns the bounded event queue, the fixed worker pool and the
// per-type rate budget. Events are owned exclusively by the pool from
// enqueue until a terminal status is set.
type Processor struct {
	cfg     Config
	logger  *slog.Logger
	limiter *windowLimiter
	metrics *eventMetrics
	history *historyRing

	mu       sync.RWMutex
	handlers map[event.Type][]Handler

	queue chan *event.Event
	done  chan struct{}
	wg    sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

func New(cfg Config, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:      cfg,
		logger:   logger,
		limiter:  newWindowLimiter(cfg.RateLimitWindow, cfg.RateLimitMax),
		metrics:  newEventMetrics(),
		history:  newHistoryRing(cfg.HistorySize),
		handlers: make(map[event.Type][]Handler),
		queue:    make(chan *event.Event, cfg.QueueSize),
		done:     make(chan struct{}),
	}
}

// RegisterHandler binds a handler to an event type. Registration happens at
// startup; the ordered list per type is fixed before traffic arrives.
func (p *Processor) RegisterHandler(t event.Type, h Handler) {
	p.mu.Lock()
	p.handlers[t] = append(p.handlers[t], h)
	total := 0
	for _, hs := range p.handlers {
		total += len(hs)
	}
	p.mu.Unlock()

	p.metrics.SetHandlerCount(total)
}

// Submit validates, rate-limits and enqueues one event.
//
// Returns false (never an error, never a block) when the type is unknown,
// the type's window budget is spent, or the queue is full. Priority events
// bypass the queue and run inline on the calling goroutine.
func (p *Processor) Submit(t event.Type, payload map[string]any, priority bool) bool {
	if !t.Valid() {
		p.logger.Warn("rejecting event of unknown type", "type", int(t))
		return false
	}

	if !p.limiter.Allow(t) {
		p.metrics.RecordRateLimited()
		p.logger.Warn("rate limit exceeded", "type", t.String())
		return false
	}

	ev := event.New(t, payload, priority)

	if priority {
		p.dispatch(context.Background(), ev)
		return true
	}

	select {
	case p.queue <- ev:
		return true
	default:
		// Queue full: explicit backpressure to the producer.
		p.metrics.RecordDropped()
		p.logger.Warn("event queue full, dropping event", "type", t.String(), "event_id", ev.ID)
		return false
	}
}

// Start launches the worker pool and the per-minute metrics refresh loop.
func (p *Processor) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.cfg.Workers; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
		go p.minuteLoop()

		p.logger.Info("event processor started",
			"workers", p.cfg.Workers, "queue_size", p.cfg.QueueSize)
	})
}

// Shutdown signals all workers to stop after their current event finishes
// and waits for them to drain.
func (p *Processor) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.done) })

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("processor: shutdown: %w", ctx.Err())
	}
}

// Metrics returns a copy of the process-wide counters.
func (p *Processor) Metrics() model.EventStats {
	return p.metrics.Snapshot()
}

// RecentEvents exposes the terminal-event ring for diagnostics.
func (p *Processor) RecentEvents() []*event.Event {
	return p.history.Recent()
}

func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case ev := <-p.queue:
			p.dispatch(context.Background(), ev)
		}
	}
}

// dispatch runs every handler registered for the event's type concurrently
// and sets the terminal status: completed if at least one handler succeeded,
// failed only if all of them failed, no_handlers if none are registered.
func (p *Processor) dispatch(ctx context.Context, ev *event.Event) {
	start := time.Now()
	ev.Status = event.StatusProcessing

	p.mu.RLock()
	handlers := p.handlers[ev.Type]
	p.mu.RUnlock()

	if len(handlers) == 0 {
		ev.Status = event.StatusNoHandlers
		p.history.Add(ev)
		p.logger.Debug("no handlers registered", "type", ev.Type.String(), "event_id", ev.ID)
		return
	}

	var (
		wg        sync.WaitGroup
		resMu     sync.Mutex
		succeeded int
	)

	for _, h := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()

			if err := p.runHandler(ctx, h, ev); err != nil {
				p.logger.Error("handler failed",
					"type", ev.Type.String(), "event_id", ev.ID, "err", err)
				return
			}

			resMu.Lock()
			succeeded++
			resMu.Unlock()
		}(h)
	}
	wg.Wait()

	if succeeded > 0 {
		ev.Status = event.StatusCompleted
	} else {
		ev.Status = event.StatusFailed
	}

	p.metrics.RecordProcessed(time.Since(start), ev.Status == event.StatusFailed)
	p.history.Add(ev)
}

// runHandler isolates a single handler call, converting panics into errors
// so one misbehaving handler never takes a worker down.
func (p *Processor) runHandler(ctx context.Context, h Handler, ev *event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return h(ctx, ev)
}

func (p *Processor) minuteLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.metrics.RollMinute()
		}
	}
}
