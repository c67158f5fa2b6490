package dto

import (
	"time"

	"club-notification-service/ddd/domain/entity"
)

// NotificationDto 向上层暴露的通知视图模型。
type NotificationDto struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	User      string     `json:"user"`
	RelatedID string     `json:"relatedId,omitempty"`
	IsRead    bool       `json:"isRead"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
}

func FromEntity(n *entity.Notification) *NotificationDto {
	return &NotificationDto{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		User:      n.UserID,
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		ReadAt:    n.ReadAt,
	}
}

// ListNotificationsResponse 列表响应结构，包含未读数。
type ListNotificationsResponse struct {
	Notifications []NotificationDto `json:"notifications"`
	Total         int64             `json:"total"`
	UnreadCount   int64             `json:"unreadCount"`
	Page          int               `json:"page"`
	PageSize      int               `json:"pageSize"`
}

// BulkResponse reports how many records a bulk operation touched.
type BulkResponse struct {
	Affected int64 `json:"affected"`
}
