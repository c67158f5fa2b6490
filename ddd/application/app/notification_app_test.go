package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-notification-service/ddd/application/cqe"
	"club-notification-service/ddd/domain/entity"
	drepo "club-notification-service/ddd/domain/repo"
	"club-notification-service/pkg/errno"
)

type memRepo struct {
	mu        sync.Mutex
	items     map[string]*entity.Notification
	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[string]*entity.Notification)}
}

func clone(n *entity.Notification) *entity.Notification {
	c := *n
	return &c
}

func (r *memRepo) Create(_ context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.items[n.ID] = clone(n)
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, errno.NewSimpleBizError(errno.ErrNotFound, nil, id)
	}
	return clone(n), nil
}

func (r *memRepo) byUser(userID string, isRead *bool) []*entity.Notification {
	var out []*entity.Notification
	for _, n := range r.items {
		if n.UserID != userID || (isRead != nil && n.IsRead != *isRead) {
			continue
		}
		out = append(out, clone(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memRepo) ListByUser(_ context.Context, userID string, f drepo.ListFilter) ([]*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.byUser(userID, f.IsRead)
	if f.Offset >= len(all) {
		return nil, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, nil
}

func (r *memRepo) CountByUser(_ context.Context, userID string, isRead *bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byUser(userID, isRead))), nil
}

func (r *memRepo) MarkRead(_ context.Context, id string, at time.Time) (*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, errno.NewSimpleBizError(errno.ErrNotFound, nil, id)
	}
	n.MarkRead(at)
	return clone(n), nil
}

func (r *memRepo) MarkAllRead(_ context.Context, userID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for _, n := range r.items {
		if n.UserID == userID && n.MarkRead(at) {
			affected++
		}
	}
	return affected, nil
}

func (r *memRepo) Delete(_ context.Context, id string) (*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, errno.NewSimpleBizError(errno.ErrNotFound, nil, id)
	}
	delete(r.items, id)
	return n, nil
}

func (r *memRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for id, n := range r.items {
		if n.UserID == userID {
			delete(r.items, id)
			affected++
		}
	}
	return affected, nil
}

type recordingDispatcher struct {
	mu       sync.Mutex
	sent     []*entity.Notification
	opts     []DispatchOptions
	unread   map[string]int64
	panicked bool
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n *entity.Notification, opts DispatchOptions) {
	if d.panicked {
		panic("delivery exploded")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	d.opts = append(d.opts, opts)
}

func (d *recordingDispatcher) PublishUnread(_ context.Context, userID string, unread int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unread == nil {
		d.unread = make(map[string]int64)
	}
	d.unread[userID] = unread
}

func newTestApp(t *testing.T) (NotificationApp, *memRepo, *recordingDispatcher) {
	t.Helper()
	repo := newMemRepo()
	disp := &recordingDispatcher{}
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	app := NewNotificationApp(repo, disp, WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	return app, repo, disp
}

func createReq(user, title string) *cqe.CreateNotificationReq {
	return &cqe.CreateNotificationReq{
		Title:      title,
		Message:    "body of " + title,
		Type:       entity.TypePostApproved,
		TargetUser: user,
	}
}

func TestCreatePersistsAndDispatches(t *testing.T) {
	app, repo, disp := newTestApp(t)
	ctx := context.Background()

	no := false
	req := createReq("u1", "approved")
	req.RelatedID = "post-9"
	req.SendEmail = &no

	got, err := app.Create(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.IsRead)
	assert.Equal(t, "u1", got.User)
	assert.Equal(t, "post-9", got.RelatedID)
	assert.Len(t, repo.items, 1)

	require.Len(t, disp.sent, 1)
	assert.Equal(t, got.ID, disp.sent[0].ID)
	assert.Equal(t, DispatchOptions{Email: false, Realtime: true}, disp.opts[0])
}

func TestCreateRejectsInvalidRequest(t *testing.T) {
	app, repo, disp := newTestApp(t)
	req := createReq("u1", "x")
	req.Type = "birthday"

	_, err := app.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrParameterInvalid))
	assert.Empty(t, repo.items)
	assert.Empty(t, disp.sent)
}

func TestCreatePersistenceFailureSkipsDispatch(t *testing.T) {
	app, repo, disp := newTestApp(t)
	repo.createErr = errno.NewSimpleBizError(errno.ErrDatabase, errors.New("disk full"), "")

	_, err := app.Create(context.Background(), createReq("u1", "x"))
	assert.True(t, errors.Is(err, errno.ErrDatabase))
	assert.Empty(t, disp.sent)
}

func TestCreateSurvivesDispatcherPanic(t *testing.T) {
	app, repo, disp := newTestApp(t)
	disp.panicked = true

	got, err := app.Create(context.Background(), createReq("u1", "x"))
	require.NoError(t, err)
	assert.Contains(t, repo.items, got.ID)
}

func TestListNewestFirstWithFilterAndUnread(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	first, err := app.Create(ctx, createReq("u1", "first"))
	require.NoError(t, err)
	_, err = app.Create(ctx, createReq("u1", "second"))
	require.NoError(t, err)
	_, err = app.Create(ctx, createReq("u2", "other"))
	require.NoError(t, err)
	_, err = app.MarkAsRead(ctx, "u1", first.ID)
	require.NoError(t, err)

	resp, err := app.ListNotifications(ctx, "u1", &cqe.ListNotificationsReq{})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 2)
	assert.Equal(t, "second", resp.Notifications[0].Title)
	assert.Equal(t, "first", resp.Notifications[1].Title)
	assert.EqualValues(t, 2, resp.Total)
	assert.EqualValues(t, 1, resp.UnreadCount)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)

	unread := false
	resp, err = app.ListNotifications(ctx, "u1", &cqe.ListNotificationsReq{IsRead: &unread})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "second", resp.Notifications[0].Title)

	_, err = app.ListNotifications(ctx, "", nil)
	assert.True(t, errors.Is(err, errno.ErrUnauthorized))
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	app, _, disp := newTestApp(t)
	ctx := context.Background()

	n, err := app.Create(ctx, createReq("u1", "x"))
	require.NoError(t, err)

	once, err := app.MarkAsRead(ctx, "u1", n.ID)
	require.NoError(t, err)
	require.True(t, once.IsRead)
	require.NotNil(t, once.ReadAt)

	twice, err := app.MarkAsRead(ctx, "u1", n.ID)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.EqualValues(t, 0, disp.unread["u1"])
}

func TestUnknownIDIsNotFound(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	_, err := app.MarkAsRead(ctx, "u1", "missing")
	assert.True(t, errors.Is(err, errno.ErrNotFound))
	_, err = app.Remove(ctx, "u1", "missing")
	assert.True(t, errors.Is(err, errno.ErrNotFound))
	_, err = app.Get(ctx, "u1", "missing")
	assert.True(t, errors.Is(err, errno.ErrNotFound))
}

func TestForeignRecordsLookMissing(t *testing.T) {
	app, repo, _ := newTestApp(t)
	ctx := context.Background()

	n, err := app.Create(ctx, createReq("u1", "x"))
	require.NoError(t, err)

	_, err = app.MarkAsRead(ctx, "u2", n.ID)
	assert.True(t, errors.Is(err, errno.ErrNotFound))
	_, err = app.Remove(ctx, "u2", n.ID)
	assert.True(t, errors.Is(err, errno.ErrNotFound))
	assert.False(t, repo.items[n.ID].IsRead)

	// internal callers are not scoped
	got, err := app.Get(ctx, "", n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)
}

func TestRemoveReturnsPriorRecord(t *testing.T) {
	app, repo, disp := newTestApp(t)
	ctx := context.Background()

	n, err := app.Create(ctx, createReq("u1", "x"))
	require.NoError(t, err)

	prior, err := app.Remove(ctx, "u1", n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, prior.ID)
	assert.False(t, prior.IsRead)
	assert.Empty(t, repo.items)
	assert.Contains(t, disp.unread, "u1")

	_, err = app.Remove(ctx, "u1", n.ID)
	assert.True(t, errors.Is(err, errno.ErrNotFound))
}

func TestBulkOperations(t *testing.T) {
	app, repo, disp := newTestApp(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		_, err := app.Create(ctx, createReq("u1", title))
		require.NoError(t, err)
	}
	_, err := app.Create(ctx, createReq("u2", "d"))
	require.NoError(t, err)

	affected, err := app.MarkAllAsRead(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, affected)
	assert.EqualValues(t, 0, disp.unread["u1"])

	affected, err = app.MarkAllAsRead(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, affected)

	unread, err := app.CountUnread(ctx, "u2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	removed, err := app.RemoveAll(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)
	assert.Len(t, repo.items, 1)

	_, err = app.RemoveAll(ctx, "")
	assert.True(t, errors.Is(err, errno.ErrUnauthorized))
}
