package processor

import (
	"sync"
	"time"

	"github.com/opsboard/dashboard-stream-service/internal/domain/event"
)

// windowLimiter is a fixed-window counter per event type: when a window's
// elapsed time exceeds its length the counter and window start reset.
// Deliberately not sliding; the burst at a window edge is accepted load.
type windowLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	now     func() time.Time
	windows map[event.Type]*rateWindow
}

type rateWindow struct {
	count int
	start time.Time
}

func newWindowLimiter(window time.Duration, max int) *windowLimiter {
	return &windowLimiter{
		window:  window,
		max:     max,
		now:     time.Now,
		windows: make(map[event.Type]*rateWindow),
	}
}

// Allow consumes one slot from the type's current window. False means the
// budget for this window is spent.
func (l *windowLimiter) Allow(t event.Type) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[t]
	if !ok || now.Sub(w.start) >= l.window {
		w = &rateWindow{start: now}
		l.windows[t] = w
	}

	if w.count >= l.max {
		return false
	}

	w.count++
	return true
}
