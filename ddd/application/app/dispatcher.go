package app

import (
	"context"

	"club-notification-service/ddd/domain/entity"
)

// DispatchOptions selects the delivery legs of one notification.
type DispatchOptions struct {
	Email    bool
	Realtime bool
}

// Dispatcher delivers freshly persisted notifications. Implementations must
// return without waiting on the network and report nothing back: delivery is
// best effort and never affects the outcome of the write that triggered it.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *entity.Notification, opts DispatchOptions)
	// PublishUnread pushes the user's current unread count to their open connections.
	PublishUnread(ctx context.Context, userID string, unread int64)
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, *entity.Notification, DispatchOptions) {}

func (noopDispatcher) PublishUnread(context.Context, string, int64) {}
