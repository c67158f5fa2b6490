package repo

import (
	"context"
	"time"

	"club-notification-service/ddd/domain/entity"
)

// ListFilter narrows ListByUser. A nil IsRead returns both states.
type ListFilter struct {
	IsRead *bool
	Offset int
	Limit  int
}

// NotificationRepository 通知仓储接口，隐藏具体持久化实现。
//
// Implementations return errors matching errno.ErrNotFound for a missing id
// and errno.ErrDatabase for any storage failure.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	Get(ctx context.Context, id string) (*entity.Notification, error)
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, userID string, filter ListFilter) ([]*entity.Notification, error)
	CountByUser(ctx context.Context, userID string, isRead *bool) (int64, error)
	// MarkRead is a no-op on an already read record and returns the stored state.
	MarkRead(ctx context.Context, id string, at time.Time) (*entity.Notification, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	// Delete removes the record and returns it as it was.
	Delete(ctx context.Context, id string) (*entity.Notification, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// UserDirectory resolves a recipient's registered email address.
type UserDirectory interface {
	EmailOf(ctx context.Context, userID string) (string, error)
}
