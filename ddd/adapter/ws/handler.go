package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"club-notification-service/pkg/auth"
	"club-notification-service/pkg/config"
	"club-notification-service/pkg/errno"
	"club-notification-service/pkg/logger"
	"club-notification-service/pkg/presence"
)

const (
	EventConnected = "connected"
	authErrorType  = "auth_error"
)

// Authenticator validates the credential presented at handshake.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*auth.Identity, error)
}

// Registry is the presence index the handler keeps in sync with open sockets.
type Registry interface {
	Register(userID string, conn presence.Conn) error
	Unregister(connID, userID string)
}

type Options struct {
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongWait         time.Duration
	WriteWait        time.Duration
	OutboxSize       int
	AllowedOrigins   []string
}

// OptionsFromConfig maps the push section onto handler options.
func OptionsFromConfig(cfg config.PushConfig) Options {
	return Options{
		HandshakeTimeout: cfg.HandshakeTimeout,
		PingInterval:     cfg.PingInterval,
		PongWait:         cfg.PongWait,
		WriteWait:        cfg.SendTimeout,
		OutboxSize:       cfg.OutboxSize,
		AllowedOrigins:   cfg.AllowedOrigins,
	}
}

func (o *Options) normalize() {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.PongWait <= o.PingInterval {
		o.PongWait = o.PingInterval * 3 / 2
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 16
	}
}

// handshakeFrame is the first client message when no credential came with the upgrade request.
type handshakeFrame struct {
	Token string `json:"token"`
}

type authErrorFrame struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Handler upgrades push connections, authenticates them once and keeps the
// registry in sync with their lifetime.
type Handler struct {
	gate     Authenticator
	registry Registry
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(gate Authenticator, registry Registry, opts Options) *Handler {
	opts.normalize()
	h := &Handler{gate: gate, registry: registry, opts: opts}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: opts.HandshakeTimeout,
		CheckOrigin:      h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.WithContext(ctx)

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("ws: upgrade failed: %v", err)
		return
	}

	identity, err := h.authenticate(ctx, r, socket)
	if err != nil {
		log.Infof("ws: handshake rejected remote=%s: %v", r.RemoteAddr, err)
		h.reject(socket, err)
		return
	}

	c := newConn(socket, identity.UserID, h.opts)
	if err := h.registry.Register(c.userID, c); err != nil {
		log.Errorf("ws: register failed user=%s: %v", c.userID, err)
		_ = socket.Close()
		return
	}
	log = log.WithFields(logrus.Fields{"user": c.userID, "conn": c.id})
	log.Infof("ws: connected")

	go c.writeLoop()
	defer func() {
		h.registry.Unregister(c.id, c.userID)
		c.Close()
		log.Infof("ws: disconnected")
	}()

	_ = c.Send(ctx, presence.Event{Type: EventConnected, Data: map[string]string{"connectionId": c.id, "userId": c.userID}})

	if err := c.readLoop(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Debugf("ws: read loop ended: %v", err)
	}
}

// authenticate accepts the credential from the Authorization header, the
// token query parameter, or the first frame, in that order.
func (h *Handler) authenticate(ctx context.Context, r *http.Request, socket *websocket.Conn) (*auth.Identity, error) {
	if credential := r.Header.Get("Authorization"); credential != "" {
		return h.gate.Authenticate(ctx, credential)
	}
	if credential := r.URL.Query().Get("token"); credential != "" {
		return h.gate.Authenticate(ctx, credential)
	}

	_ = socket.SetReadDeadline(time.Now().Add(h.opts.HandshakeTimeout))
	_, data, err := socket.ReadMessage()
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, errno.NewSimpleBizError(errno.ErrAuth, err, "handshake timeout")
		}
		return nil, errno.NewSimpleBizError(errno.ErrAuth, err, "handshake aborted")
	}
	_ = socket.SetReadDeadline(time.Time{})

	var frame handshakeFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, errno.NewSimpleBizError(errno.ErrAuth, err, "malformed handshake")
	}
	return h.gate.Authenticate(ctx, frame.Token)
}

func (h *Handler) reject(socket *websocket.Conn, err error) {
	defer socket.Close()
	deadline := time.Now().Add(h.opts.WriteWait)
	_ = socket.SetWriteDeadline(deadline)
	_ = socket.WriteJSON(authErrorFrame{Message: errno.MessageOf(err), Type: authErrorType})
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed")
	_ = socket.WriteControl(websocket.CloseMessage, msg, deadline)
}
