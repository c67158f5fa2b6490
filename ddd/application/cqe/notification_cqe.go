package cqe

import (
	"strings"

	"club-notification-service/ddd/domain/entity"
)

// ListNotificationsReq 列表查询请求。
// The read filter binds from either is_read or isRead; is_read wins when both are set.
type ListNotificationsReq struct {
	Page        int   `form:"page"`
	PageSize    int   `form:"page_size"`
	IsRead      *bool `form:"is_read"`
	IsReadAlias *bool `form:"isRead"`
}

func (r *ListNotificationsReq) Normalize() {
	if r.IsRead == nil {
		r.IsRead = r.IsReadAlias
	}
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.PageSize <= 0 || r.PageSize > 100 {
		r.PageSize = 20
	}
}

// CreateNotificationReq 创建通知请求，由其他领域服务调用。
// SendEmail and SendRealtime default to true when omitted.
type CreateNotificationReq struct {
	Title        string      `json:"title"`
	Message      string      `json:"message"`
	Type         entity.Type `json:"type"`
	TargetUser   string      `json:"targetUser"`
	RelatedID    string      `json:"relatedId,omitempty"`
	SendEmail    *bool       `json:"sendEmail,omitempty"`
	SendRealtime *bool       `json:"sendRealtime,omitempty"`
}

// Validate returns the name of the first invalid field, or "" when the request is complete.
func (r *CreateNotificationReq) Validate() string {
	switch {
	case r == nil:
		return "body"
	case strings.TrimSpace(r.TargetUser) == "":
		return "targetUser"
	case strings.TrimSpace(r.Title) == "":
		return "title"
	case strings.TrimSpace(r.Message) == "":
		return "message"
	case !r.Type.Valid():
		return "type"
	}
	return ""
}

func (r *CreateNotificationReq) WantEmail() bool {
	return r.SendEmail == nil || *r.SendEmail
}

func (r *CreateNotificationReq) WantRealtime() bool {
	return r.SendRealtime == nil || *r.SendRealtime
}
