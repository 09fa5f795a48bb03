package registry

import "time"

// Option defines a functional configuration type for the Hub.
type Option func(*Hub)

// WithHeartbeatInterval configures how often the sweep runs. Connections
// quiet for more than three intervals are pruned.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(h *Hub) {
		h.config.heartbeatInterval = d
	}
}

// WithSendTimeout bounds how long a broadcast waits on one saturated mailbox.
func WithSendTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.config.sendTimeout = d
	}
}

// WithMailboxSize sets the per-connection buffer between fan-out and the
// transport write loop.
func WithMailboxSize(size int) Option {
	return func(h *Hub) {
		h.config.mailboxSize = size
	}
}
