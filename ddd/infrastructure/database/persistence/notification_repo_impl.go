package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"club-notification-service/ddd/domain/entity"
	drepo "club-notification-service/ddd/domain/repo"
	"club-notification-service/ddd/infrastructure/database/dao"
	"club-notification-service/ddd/infrastructure/database/po"
	"club-notification-service/pkg/errno"
)

type notificationRepositoryImpl struct {
	dao *dao.NotificationDao
}

func NewNotificationRepository(db *gorm.DB) drepo.NotificationRepository {
	return &notificationRepositoryImpl{dao: dao.NewNotificationDao(db)}
}

// AutoMigrate creates or updates the notifications table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&po.Notification{})
}

func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errno.NewSimpleBizError(errno.ErrNotFound, err, "notification")
	}
	return errno.NewSimpleBizError(errno.ErrDatabase, err, op)
}

func toPO(n *entity.Notification) *po.Notification {
	return &po.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func toEntity(p *po.Notification) *entity.Notification {
	return &entity.Notification{
		ID:        p.ID,
		UserID:    p.UserID,
		Type:      entity.Type(p.Type),
		Title:     p.Title,
		Message:   p.Message,
		RelatedID: p.RelatedID,
		IsRead:    p.IsRead,
		ReadAt:    p.ReadAt,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (r *notificationRepositoryImpl) Create(ctx context.Context, n *entity.Notification) error {
	return translate(r.dao.Create(ctx, toPO(n)), "create notification")
}

func (r *notificationRepositoryImpl) Get(ctx context.Context, id string) (*entity.Notification, error) {
	p, err := r.dao.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "get notification")
	}
	return toEntity(p), nil
}

func (r *notificationRepositoryImpl) ListByUser(ctx context.Context, userID string, filter drepo.ListFilter) ([]*entity.Notification, error) {
	pos, err := r.dao.ListByUser(ctx, userID, filter.IsRead, filter.Offset, filter.Limit)
	if err != nil {
		return nil, translate(err, "list notifications")
	}
	res := make([]*entity.Notification, 0, len(pos))
	for i := range pos {
		res = append(res, toEntity(&pos[i]))
	}
	return res, nil
}

func (r *notificationRepositoryImpl) CountByUser(ctx context.Context, userID string, isRead *bool) (int64, error) {
	n, err := r.dao.Count(ctx, userID, isRead)
	return n, translate(err, "count notifications")
}

func (r *notificationRepositoryImpl) MarkRead(ctx context.Context, id string, at time.Time) (*entity.Notification, error) {
	p, err := r.dao.MarkRead(ctx, id, at)
	if err != nil {
		return nil, translate(err, "mark notification read")
	}
	return toEntity(p), nil
}

func (r *notificationRepositoryImpl) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	n, err := r.dao.MarkAllRead(ctx, userID, at)
	return n, translate(err, "mark all notifications read")
}

func (r *notificationRepositoryImpl) Delete(ctx context.Context, id string) (*entity.Notification, error) {
	p, err := r.dao.Delete(ctx, id)
	if err != nil {
		return nil, translate(err, "delete notification")
	}
	return toEntity(p), nil
}

func (r *notificationRepositoryImpl) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	n, err := r.dao.DeleteByUser(ctx, userID)
	return n, translate(err, "delete notifications")
}
