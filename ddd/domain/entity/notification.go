package entity

import (
	"time"

	"github.com/google/uuid"
)

// Type 通知类型，取值为封闭集合。
type Type string

const (
	TypeJoinEvent            Type = "join-event"
	TypeLeaveEvent           Type = "leave-event"
	TypeLibraryAccessGranted Type = "library-access-granted"
	TypeLibraryAccessRevoked Type = "library-access-revoked"
	TypeAccountApproved      Type = "account-approved"
	TypePostApproved         Type = "post-approved"
	TypePostRejected         Type = "post-rejected"
)

var knownTypes = map[Type]struct{}{
	TypeJoinEvent:            {},
	TypeLeaveEvent:           {},
	TypeLibraryAccessGranted: {},
	TypeLibraryAccessRevoked: {},
	TypeAccountApproved:      {},
	TypePostApproved:         {},
	TypePostRejected:         {},
}

// Valid reports whether t belongs to the closed set of event kinds.
func (t Type) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

// Types lists every known event kind.
func Types() []Type {
	return []Type{
		TypeJoinEvent, TypeLeaveEvent,
		TypeLibraryAccessGranted, TypeLibraryAccessRevoked,
		TypeAccountApproved, TypePostApproved, TypePostRejected,
	}
}

// Notification 聚合根，表示一条站内通知。
// Title, Message, Type, UserID and RelatedID never change after creation;
// IsRead only moves from false to true.
type Notification struct {
	ID        string
	UserID    string
	Type      Type
	Title     string
	Message   string
	RelatedID string
	IsRead    bool
	CreatedAt time.Time
	UpdatedAt time.Time
	ReadAt    *time.Time
}

// NewNotification 创建一条新的未读通知。
func NewNotification(userID string, typ Type, title, message, relatedID string, now time.Time) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
		IsRead:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkRead flips the notification to read. It reports false when it already was.
func (n *Notification) MarkRead(now time.Time) bool {
	if n.IsRead {
		return false
	}
	n.IsRead = true
	n.ReadAt = &now
	n.UpdatedAt = now
	return true
}
