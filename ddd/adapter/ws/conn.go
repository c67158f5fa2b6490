package ws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"club-notification-service/pkg/presence"
)

const maxMessageSize = 4096

// conn is one authenticated socket. Only writeLoop writes data frames; the
// handler goroutine owns reads.
type conn struct {
	id     string
	userID string
	ws     *websocket.Conn
	opts   Options

	outbox chan presence.Event
	done   chan struct{}
	once   sync.Once

	// mu orders Send against Close; no Send enqueues once Close returns.
	mu     sync.RWMutex
	closed bool
}

var _ presence.Conn = (*conn)(nil)

func newConn(ws *websocket.Conn, userID string, opts Options) *conn {
	return &conn{
		id:     uuid.NewString(),
		userID: userID,
		ws:     ws,
		opts:   opts,
		outbox: make(chan presence.Event, opts.OutboxSize),
		done:   make(chan struct{}),
	}
}

func (c *conn) ID() string     { return c.id }
func (c *conn) UserID() string { return c.userID }

// Send queues ev for the writer. It waits on ctx only while the outbox is full.
func (c *conn) Send(ctx context.Context, ev presence.Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return presence.ErrConnClosed
	}
	select {
	case c.outbox <- ev:
		return nil
	case <-c.done:
		return presence.ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close asks the writer to send a close frame and drop the socket.
func (c *conn) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
	})
	return nil
}

func (c *conn) writeLoop() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case ev := <-c.outbox:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteWait)); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteWait))
			return
		}
	}
}

// readLoop discards client frames and returns once the peer goes away or
// stops answering pings.
func (c *conn) readLoop() error {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return err
		}
	}
}
