package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/opsboard/dashboard-stream-service/internal/domain/model"
)

// Interface guard
var _ Connector = (*connect)(nil)

// Connector is the contract between the Hub and the transport layer
// (websocket handler, tests). Concrete connections stay unexported.
type Connector interface {
	GetID() uuid.UUID
	HasPermission(perm string) bool
	Send(env *model.Envelope, timeout time.Duration) bool
	Recv() <-chan *model.Envelope
	Touch()
	LastSeen() time.Time
	Close()
}

// connect is the concrete implementation. Broadcast goroutines, the sweep
// loop and the transport handler all hold it concurrently, so teardown is
// coordinated: id and permissions are immutable after construction, and the
// mailbox is guarded by sendMu so Close never races an in-flight Send.
type connect struct {
	id          uuid.UUID
	permissions map[string]struct{}
	createdAt   time.Time

	ctx      context.Context
	cancelFn context.CancelFunc

	// [MAILBOX] Buffered channel decoupling broadcast fan-out from the
	// individual transport write loop. A slow websocket never holds the Hub.
	sendCh chan *model.Envelope

	// sendMu serializes mailbox teardown against senders: Send holds the
	// read side for the duration of the enqueue, Close takes the write side
	// before closing the channel. Cancelling ctx first wakes any sender
	// parked on a full mailbox, so Close never waits out a send timeout.
	sendMu sync.RWMutex
	closed bool

	closeOnce sync.Once

	// [ATOMIC_FIELDS]
	lastHeartbeat int64
	droppedCount  uint64
}

// NewConnector builds a fresh connection object.
func NewConnector(ctx context.Context, permissions []string, bufferSize int) Connector {
	childCtx, cancel := context.WithCancel(ctx)

	perms := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		perms[p] = struct{}{}
	}

	return &connect{
		id:            uuid.New(),
		permissions:   perms,
		createdAt:     time.Now(),
		ctx:           childCtx,
		cancelFn:      cancel,
		sendCh:        make(chan *model.Envelope, bufferSize),
		lastHeartbeat: time.Now().UnixNano(),
	}
}

func (c *connect) GetID() uuid.UUID { return c.id }

func (c *connect) HasPermission(perm string) bool {
	_, ok := c.permissions[perm]
	return ok
}

// Send enqueues an envelope for delivery, waiting up to timeout for mailbox
// space. False means the connection is dead or persistently saturated; the
// Hub treats that as a delivery failure for this one recipient.
func (c *connect) Send(env *model.Envelope, timeout time.Duration) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.closed {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case <-c.ctx.Done():
		return false
	case c.sendCh <- env:
		return true
	case <-ctx.Done():
		atomic.AddUint64(&c.droppedCount, 1)
		return false
	}
}

func (c *connect) Recv() <-chan *model.Envelope { return c.sendCh }

// Touch records a client heartbeat.
func (c *connect) Touch() {
	atomic.StoreInt64(&c.lastHeartbeat, time.Now().UnixNano())
}

func (c *connect) LastSeen() time.Time {
	return time.Unix(0, atomic.LoadInt64(&c.lastHeartbeat))
}

// Close terminates the connection. Safe to call concurrently from the Hub
// (sweep), broadcast failure handling and the transport handler's defer,
// and safe against in-flight Send callers.
func (c *connect) Close() {
	c.closeOnce.Do(func() {
		// Wake senders parked on a full mailbox before excluding them.
		c.cancelFn()

		c.sendMu.Lock()
		c.closed = true

		// Closing the mailbox signals the transport write loop (via !ok)
		// to exit; readers observe a close, never silence.
		close(c.sendCh)
		c.sendMu.Unlock()
	})
}
