package dao

import (
	"context"
	"time"

	"gorm.io/gorm"

	"club-notification-service/ddd/infrastructure/database/po"
)

type NotificationDao struct {
	db *gorm.DB
}

func NewNotificationDao(db *gorm.DB) *NotificationDao {
	return &NotificationDao{db: db}
}

func (d *NotificationDao) Create(ctx context.Context, p *po.Notification) error {
	return d.db.WithContext(ctx).Create(p).Error
}

// Get returns gorm.ErrRecordNotFound when id does not exist.
func (d *NotificationDao) Get(ctx context.Context, id string) (*po.Notification, error) {
	var p po.Notification
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *NotificationDao) scopeUser(ctx context.Context, userID string, isRead *bool) *gorm.DB {
	q := d.db.WithContext(ctx).Model(&po.Notification{}).Where("user_id = ?", userID)
	if isRead != nil {
		q = q.Where("is_read = ?", *isRead)
	}
	return q
}

func (d *NotificationDao) ListByUser(ctx context.Context, userID string, isRead *bool, offset, limit int) ([]po.Notification, error) {
	var pos []po.Notification
	q := d.scopeUser(ctx, userID, isRead).
		Order("created_at DESC").
		Order("id DESC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&pos).Error; err != nil {
		return nil, err
	}
	return pos, nil
}

func (d *NotificationDao) Count(ctx context.Context, userID string, isRead *bool) (int64, error) {
	var count int64
	err := d.scopeUser(ctx, userID, isRead).Count(&count).Error
	return count, err
}

// MarkRead only touches an unread row; it returns the row as stored afterwards.
func (d *NotificationDao) MarkRead(ctx context.Context, id string, at time.Time) (*po.Notification, error) {
	var out *po.Notification
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&po.Notification{}).
			Where("id = ? AND is_read = ?", id, false).
			Updates(map[string]interface{}{
				"is_read":    true,
				"read_at":    at,
				"updated_at": at,
			}).Error
		if err != nil {
			return err
		}
		var p po.Notification
		if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}
		out = &p
		return nil
	})
	return out, err
}

func (d *NotificationDao) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := d.db.WithContext(ctx).
		Model(&po.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read":    true,
			"read_at":    at,
			"updated_at": at,
		})
	return res.RowsAffected, res.Error
}

// Delete removes the row and returns it as it was before deletion.
func (d *NotificationDao) Delete(ctx context.Context, id string) (*po.Notification, error) {
	var out po.Notification
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&out).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&po.Notification{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *NotificationDao) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := d.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&po.Notification{})
	return res.RowsAffected, res.Error
}
