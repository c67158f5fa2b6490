package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"club-notification-service/ddd/application/app"
	"club-notification-service/ddd/domain/entity"
	drepo "club-notification-service/ddd/domain/repo"
	"club-notification-service/pkg/logger"
	"club-notification-service/pkg/presence"
)

const (
	EventNotification = "notification"
	EventUpdated      = "notification.updated"

	// FallbackTemplate is rendered when no template matches the notification type.
	FallbackTemplate = "notification.html"

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Targets yields the live connections of a user.
type Targets interface {
	BroadcastTargets(userID string) []presence.Conn
}

// Mailer renders and sends one templated email.
type Mailer interface {
	LoadTemplate(name string) (string, error)
	SendTemplatedEmail(ctx context.Context, to, subject, templateName string, data interface{}) error
}

// Payload is the body of a "notification" push event.
type Payload struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// UnreadPayload is the body of a "notification.updated" push event.
type UnreadPayload struct {
	UnreadCount int64 `json:"unreadCount"`
}

// emailData is handed to the html templates.
type emailData struct {
	Title     string
	Message   string
	Type      string
	RelatedID string
	CreatedAt time.Time
}

// Stats counts delivery outcomes since start.
type Stats struct {
	Pushed     int64 `json:"pushed"`
	PushFailed int64 `json:"pushFailed"`
	Emailed    int64 `json:"emailed"`
	EmailFail  int64 `json:"emailFailed"`
}

type Option func(*Engine)

// WithMailer enables the email leg. Both arguments are required.
func WithMailer(m Mailer, dir drepo.UserDirectory) Option {
	return func(e *Engine) {
		e.mailer = m
		e.directory = dir
	}
}

func WithSendTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.sendTimeout = d
		}
	}
}

func WithEmailTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.emailTimeout = d
		}
	}
}

// Engine fans notifications out to live connections and to email.
// Every send runs in its own goroutine. After Close no new send starts.
type Engine struct {
	targets      Targets
	mailer       Mailer
	directory    drepo.UserDirectory
	sendTimeout  time.Duration
	emailTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	pushed     atomic.Int64
	pushFailed atomic.Int64
	emailed    atomic.Int64
	emailFail  atomic.Int64
}

var _ app.Dispatcher = (*Engine)(nil)

func NewEngine(targets Targets, opts ...Option) *Engine {
	e := &Engine{
		targets:      targets,
		sendTimeout:  5 * time.Second,
		emailTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dispatch starts both delivery legs and returns without waiting.
func (e *Engine) Dispatch(ctx context.Context, n *entity.Notification, opts app.DispatchOptions) {
	if n == nil {
		return
	}
	if opts.Realtime {
		e.broadcast(ctx, n.UserID, presence.Event{
			Type: EventNotification,
			Data: Payload{
				Title:     n.Title,
				Message:   n.Message,
				Timestamp: n.CreatedAt.UTC().Format(timestampLayout),
			},
		})
	}
	if opts.Email && e.mailer != nil && e.directory != nil {
		if !e.spawn(func() { e.email(ctx, n) }) {
			logger.WithContext(ctx).Debugf("dispatch: engine closed, email for %s dropped", n.ID)
		}
	}
}

func (e *Engine) PublishUnread(ctx context.Context, userID string, unread int64) {
	e.broadcast(ctx, userID, presence.Event{Type: EventUpdated, Data: UnreadPayload{UnreadCount: unread}})
}

// Wait blocks until every send started so far has finished. It must not run
// concurrently with Dispatch; use Close for that.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close stops new sends from starting and waits for the in-flight ones.
// Dispatch and PublishUnread become no-ops afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

// spawn runs fn on a tracked goroutine unless the engine is closed.
func (e *Engine) spawn(fn func()) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return false
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
	return true
}

func (e *Engine) Stats() Stats {
	return Stats{
		Pushed:     e.pushed.Load(),
		PushFailed: e.pushFailed.Load(),
		Emailed:    e.emailed.Load(),
		EmailFail:  e.emailFail.Load(),
	}
}

func (e *Engine) broadcast(ctx context.Context, userID string, ev presence.Event) {
	conns := e.targets.BroadcastTargets(userID)
	if len(conns) == 0 {
		logger.WithContext(ctx).Debugf("dispatch: user=%s offline, %s dropped", userID, ev.Type)
		return
	}
	for _, c := range conns {
		c := c // per-iteration copy; go directive is 1.21 (no 1.22 loopvar semantics)
		if !e.spawn(func() { e.push(ctx, c, ev) }) {
			logger.WithContext(ctx).Debugf("dispatch: engine closed, %s for user=%s dropped", ev.Type, userID)
			return
		}
	}
}

func (e *Engine) push(ctx context.Context, c presence.Conn, ev presence.Event) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.sendTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			e.pushFailed.Add(1)
			logger.WithContext(ctx).Errorf("dispatch: push panic conn=%s: %v", c.ID(), r)
		}
	}()

	if err := c.Send(sctx, ev); err != nil {
		e.pushFailed.Add(1)
		entry := logger.WithContext(ctx).WithFields(logrus.Fields{
			"user":  c.UserID(),
			"conn":  c.ID(),
			"event": ev.Type,
		})
		if errors.Is(err, presence.ErrConnClosed) {
			entry.Debugf("dispatch: connection gone: %v", err)
			return
		}
		entry.Warnf("dispatch: push failed: %v", err)
		return
	}
	e.pushed.Add(1)
}

func (e *Engine) email(ctx context.Context, n *entity.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.emailTimeout)
	defer cancel()
	entry := logger.WithContext(ctx).WithFields(logrus.Fields{
		"user":         n.UserID,
		"notification": n.ID,
	})
	defer func() {
		if r := recover(); r != nil {
			e.emailFail.Add(1)
			entry.Errorf("dispatch: email panic: %v", r)
		}
	}()

	to, err := e.directory.EmailOf(ctx, n.UserID)
	if err != nil || to == "" {
		e.emailFail.Add(1)
		entry.Warnf("dispatch: no email address: %v", err)
		return
	}

	data := emailData{
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		RelatedID: n.RelatedID,
		CreatedAt: n.CreatedAt,
	}
	if err := e.mailer.SendTemplatedEmail(ctx, to, n.Title, e.templateFor(n.Type), data); err != nil {
		e.emailFail.Add(1)
		entry.Warnf("dispatch: email failed: %v", err)
		return
	}
	e.emailed.Add(1)
	entry.Debugf("dispatch: email sent")
}

// templateFor picks "<type>.html" when such a template exists.
func (e *Engine) templateFor(t entity.Type) string {
	name := string(t) + ".html"
	if _, err := e.mailer.LoadTemplate(name); err == nil {
		return name
	}
	return FallbackTemplate
}
