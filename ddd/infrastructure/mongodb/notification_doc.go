package mongodb

import (
	"time"

	"club-notification-service/ddd/domain/entity"
)

// notificationDoc is the stored shape:
// {id, title, message, type, user, relatedId, isRead, createdAt, updatedAt}.
type notificationDoc struct {
	ID        string     `bson:"_id"`
	Title     string     `bson:"title"`
	Message   string     `bson:"message"`
	Type      string     `bson:"type"`
	User      string     `bson:"user"`
	RelatedID string     `bson:"relatedId,omitempty"`
	IsRead    bool       `bson:"isRead"`
	ReadAt    *time.Time `bson:"readAt,omitempty"`
	CreatedAt time.Time  `bson:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt"`
}

func fromEntity(n *entity.Notification) *notificationDoc {
	return &notificationDoc{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		User:      n.UserID,
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (d *notificationDoc) toEntity() *entity.Notification {
	return &entity.Notification{
		ID:        d.ID,
		UserID:    d.User,
		Type:      entity.Type(d.Type),
		Title:     d.Title,
		Message:   d.Message,
		RelatedID: d.RelatedID,
		IsRead:    d.IsRead,
		ReadAt:    d.ReadAt,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
