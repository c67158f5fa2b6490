package po

import "time"

// Notification 持久化对象，对应 notifications 表。
type Notification struct {
	ID        string     `gorm:"column:id;primaryKey;size:36"`
	UserID    string     `gorm:"column:user_id;size:64;not null;index:idx_notifications_user_created,priority:1"`
	Type      string     `gorm:"column:type;size:32;not null"`
	Title     string     `gorm:"column:title;size:255;not null"`
	Message   string     `gorm:"column:message;type:text"`
	RelatedID string     `gorm:"column:related_id;size:64"`
	IsRead    bool       `gorm:"column:is_read;not null;default:false"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time  `gorm:"column:created_at;index:idx_notifications_user_created,priority:2"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// User is the read-only projection of the users table owned by the account service.
type User struct {
	ID    string `gorm:"column:id;primaryKey;size:64"`
	Email string `gorm:"column:email;size:255"`
}

func (User) TableName() string {
	return "users"
}
