package processor

import (
	"sync"

	"github.com/opsboard/dashboard-stream-service/internal/domain/event"
)

// historyRing keeps the most recent terminal events for diagnostics,
// evicting oldest first.
type historyRing struct {
	mu   sync.Mutex
	buf  []*event.Event
	next int
	full bool
}

func newHistoryRing(size int) *historyRing {
	if size <= 0 {
		size = 1
	}
	return &historyRing{buf: make([]*event.Event, size)}
}

func (r *historyRing) Add(ev *event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = ev
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns the retained events, oldest first.
func (r *historyRing) Recent() []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]*event.Event, r.next)
		copy(out, r.buf[:r.next])
		return out
	}

	out := make([]*event.Event, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}
