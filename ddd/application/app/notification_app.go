package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"club-notification-service/ddd/application/cqe"
	"club-notification-service/ddd/application/dto"
	"club-notification-service/ddd/domain/entity"
	drepo "club-notification-service/ddd/domain/repo"
	"club-notification-service/pkg/errno"
	"club-notification-service/pkg/logger"
)

// NotificationApp 应用服务接口，编排通知相关用例。
//
// A non-empty userID scopes the call to the caller's own records: a record
// owned by someone else is reported as not found. Internal callers pass "".
type NotificationApp interface {
	Create(ctx context.Context, req *cqe.CreateNotificationReq) (*dto.NotificationDto, error)
	ListNotifications(ctx context.Context, userID string, req *cqe.ListNotificationsReq) (*dto.ListNotificationsResponse, error)
	Get(ctx context.Context, userID, id string) (*dto.NotificationDto, error)
	MarkAsRead(ctx context.Context, userID, id string) (*dto.NotificationDto, error)
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	Remove(ctx context.Context, userID, id string) (*dto.NotificationDto, error)
	RemoveAll(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type Option func(*notificationAppImpl)

// WithClock overrides the time source used for created/read timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *notificationAppImpl) { a.now = now }
}

type notificationAppImpl struct {
	repo       drepo.NotificationRepository
	dispatcher Dispatcher
	now        func() time.Time
}

// NewNotificationApp 返回默认的应用服务实现。A nil dispatcher disables delivery.
func NewNotificationApp(repo drepo.NotificationRepository, dispatcher Dispatcher, opts ...Option) NotificationApp {
	if dispatcher == nil {
		dispatcher = noopDispatcher{}
	}
	a := &notificationAppImpl{
		repo:       repo,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Create 创建一条新的通知记录并触发投递。
func (a *notificationAppImpl) Create(ctx context.Context, req *cqe.CreateNotificationReq) (*dto.NotificationDto, error) {
	if field := req.Validate(); field != "" {
		return nil, errno.NewSimpleBizError(errno.ErrParameterInvalid, nil, field)
	}
	n := entity.NewNotification(req.TargetUser, req.Type, req.Title, req.Message, req.RelatedID, a.now())
	if err := a.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	a.dispatch(ctx, n, DispatchOptions{Email: req.WantEmail(), Realtime: req.WantRealtime()})
	return dto.FromEntity(n), nil
}

// dispatch hands n to the dispatcher on a context that outlives the request.
func (a *notificationAppImpl) dispatch(ctx context.Context, n *entity.Notification, opts DispatchOptions) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithContext(ctx).Errorf("dispatch panic notification=%s: %v", n.ID, r)
		}
	}()
	a.dispatcher.Dispatch(context.WithoutCancel(ctx), n, opts)
}

func (a *notificationAppImpl) ListNotifications(ctx context.Context, userID string, req *cqe.ListNotificationsReq) (*dto.ListNotificationsResponse, error) {
	if userID == "" {
		return nil, errno.ErrUnauthorized
	}
	if req == nil {
		req = &cqe.ListNotificationsReq{}
	}
	req.Normalize()
	offset := (req.Page - 1) * req.PageSize

	list, err := a.repo.ListByUser(ctx, userID, drepo.ListFilter{IsRead: req.IsRead, Offset: offset, Limit: req.PageSize})
	if err != nil {
		return nil, err
	}
	total, err := a.repo.CountByUser(ctx, userID, req.IsRead)
	if err != nil {
		return nil, err
	}
	unread, err := a.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.NotificationDto, 0, len(list))
	for _, n := range list {
		items = append(items, *dto.FromEntity(n))
	}
	return &dto.ListNotificationsResponse{
		Notifications: items,
		Total:         total,
		UnreadCount:   unread,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}, nil
}

func (a *notificationAppImpl) Get(ctx context.Context, userID, id string) (*dto.NotificationDto, error) {
	n, err := a.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return dto.FromEntity(n), nil
}

// MarkAsRead is idempotent: an already read record is returned untouched.
func (a *notificationAppImpl) MarkAsRead(ctx context.Context, userID, id string) (*dto.NotificationDto, error) {
	n, err := a.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return dto.FromEntity(n), nil
	}
	updated, err := a.repo.MarkRead(ctx, id, a.now())
	if err != nil {
		return nil, err
	}
	a.publishUnread(ctx, updated.UserID)
	return dto.FromEntity(updated), nil
}

func (a *notificationAppImpl) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, errno.ErrUnauthorized
	}
	affected, err := a.repo.MarkAllRead(ctx, userID, a.now())
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		a.publishUnread(ctx, userID)
	}
	return affected, nil
}

// Remove deletes one record and returns it as it was before deletion.
func (a *notificationAppImpl) Remove(ctx context.Context, userID, id string) (*dto.NotificationDto, error) {
	if _, err := a.load(ctx, userID, id); err != nil {
		return nil, err
	}
	prior, err := a.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !prior.IsRead {
		a.publishUnread(ctx, prior.UserID)
	}
	return dto.FromEntity(prior), nil
}

func (a *notificationAppImpl) RemoveAll(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, errno.ErrUnauthorized
	}
	affected, err := a.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		a.publishUnread(ctx, userID)
	}
	return affected, nil
}

func (a *notificationAppImpl) CountUnread(ctx context.Context, userID string) (int64, error) {
	unread := false
	return a.repo.CountByUser(ctx, userID, &unread)
}

// load fetches id and enforces ownership when userID is set.
func (a *notificationAppImpl) load(ctx context.Context, userID, id string) (*entity.Notification, error) {
	if id == "" {
		return nil, errno.NewSimpleBizError(errno.ErrParameterInvalid, nil, "id")
	}
	n, err := a.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != "" && n.UserID != userID {
		return nil, errno.NewSimpleBizError(errno.ErrNotFound, nil, fmt.Sprintf("notification %s", id))
	}
	return n, nil
}

// publishUnread pushes the refreshed unread count; failures only get logged.
func (a *notificationAppImpl) publishUnread(ctx context.Context, userID string) {
	unread, err := a.CountUnread(ctx, userID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.WithContext(ctx).Warnf("count unread user=%s: %v", userID, err)
		}
		return
	}
	a.dispatcher.PublishUnread(context.WithoutCancel(ctx), userID, unread)
}
