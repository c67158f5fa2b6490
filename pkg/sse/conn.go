package sse

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"club-notification-service/pkg/presence"
)

// Conn is one open event-stream subscriber. Events are buffered in a
// channel drained by Stream; a full buffer makes Send wait on its context.
type Conn struct {
	id     string
	userID string
	events chan presence.Event
	done   chan struct{}
	once   sync.Once

	// mu orders Send against Close; no Send enqueues once Close returns.
	mu     sync.RWMutex
	closed bool
}

var _ presence.Conn = (*Conn)(nil)

func NewConn(userID string, buffer int) *Conn {
	if buffer <= 0 {
		buffer = 16
	}
	return &Conn{
		id:     uuid.NewString(),
		userID: userID,
		events: make(chan presence.Event, buffer),
		done:   make(chan struct{}),
	}
}

func (c *Conn) ID() string     { return c.id }
func (c *Conn) UserID() string { return c.userID }

func (c *Conn) Send(ctx context.Context, ev presence.Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return presence.ErrConnClosed
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return presence.ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the stream. The events channel is never closed so that a
// concurrent Send cannot panic.
func (c *Conn) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
	})
	return nil
}

func (c *Conn) Done() <-chan struct{} { return c.done }
