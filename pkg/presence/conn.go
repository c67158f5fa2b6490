package presence

import (
	"context"
	"errors"
)

// ErrConnClosed is returned by Send on a handle whose session already ended.
var ErrConnClosed = errors.New("presence: connection closed")

// Event is one server push. Type names the event on the wire, Data is the
// JSON-serialisable body.
type Event struct {
	Type string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

// Conn is one live device session. Implementations must make Send safe for
// concurrent callers and must not block past ctx.
type Conn interface {
	ID() string
	UserID() string
	Send(ctx context.Context, ev Event) error
	Close() error
}
