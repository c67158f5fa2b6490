package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"club-notification-service/ddd/application/app"
	"club-notification-service/ddd/application/cqe"
	"club-notification-service/ddd/application/dto"
	"club-notification-service/pkg/errno"
	"club-notification-service/pkg/logger"
	"club-notification-service/pkg/manager"
	"club-notification-service/pkg/presence"
	"club-notification-service/pkg/restapi"
	"club-notification-service/pkg/sse"
)

func init() {
	manager.RegisterControllerPlugin(&NotificationControllerPlugin{})
}

// NotificationControllerPlugin 将通知控制器注册到共享的 manager 中。
type NotificationControllerPlugin struct{}

func (p *NotificationControllerPlugin) Name() string {
	return "notificationController"
}

func (p *NotificationControllerPlugin) MustCreateController(deps *manager.Dependencies) manager.Controller {
	if deps == nil || deps.App == nil || deps.Gate == nil || deps.Registry == nil {
		panic("notificationController: app, gate and registry are required")
	}
	c := &notificationControllerImpl{
		app:       deps.App,
		gate:      deps.Gate,
		registry:  deps.Registry,
		heartbeat: 25 * time.Second,
		outbox:    16,
	}
	if deps.Config != nil {
		c.heartbeat = deps.Config.Push.PingInterval
		c.outbox = deps.Config.Push.OutboxSize
	}
	return c
}

// NotificationController 控制器接口。
type NotificationController interface {
	manager.Controller
	List(ctx *gin.Context)
	Get(ctx *gin.Context)
	MarkAsRead(ctx *gin.Context)
	MarkAllAsRead(ctx *gin.Context)
	Remove(ctx *gin.Context)
	RemoveAll(ctx *gin.Context)
	Create(ctx *gin.Context)
	Stream(ctx *gin.Context)
}

type notificationControllerImpl struct {
	app       app.NotificationApp
	gate      Authenticator
	registry  *presence.Registry
	heartbeat time.Duration
	outbox    int
}

// RegisterOpenApi 注册面向终端用户的通知接口，统一走 Bearer 鉴权。
func (c *notificationControllerImpl) RegisterOpenApi(group *gin.RouterGroup) {
	v1 := group.Group("notification/v1", AuthRequired(c.gate))
	{
		v1.GET("/notifications", c.List)
		v1.DELETE("/notifications", c.RemoveAll)
		v1.PUT("/notifications/mark-all-as-read", c.MarkAllAsRead)
		v1.GET("/notifications/:id", c.Get)
		v1.PUT("/notifications/:id/mark-as-read", c.MarkAsRead)
		v1.DELETE("/notifications/:id", c.Remove)
		v1.GET("/stream", c.Stream)
	}
}

// RegisterInnerApi 注册内部通知接口，供其他领域服务创建通知。
func (c *notificationControllerImpl) RegisterInnerApi(group *gin.RouterGroup) {
	v1 := group.Group("notification/v1/inner")
	{
		v1.POST("/notifications", c.Create)
	}
}

func (c *notificationControllerImpl) RegisterDebugApi(group *gin.RouterGroup) {}
func (c *notificationControllerImpl) RegisterOpsApi(group *gin.RouterGroup)   {}
func (c *notificationControllerImpl) RegisterPushApi(group *gin.RouterGroup)  {}

// List 列出当前用户的通知列表以及未读数量。
func (c *notificationControllerImpl) List(ctx *gin.Context) {
	identity, err := identityFrom(ctx)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	var req cqe.ListNotificationsReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		restapi.Failed(ctx, errno.NewSimpleBizError(errno.ErrParameterInvalid, err, "query"))
		return
	}
	resp, err := c.app.ListNotifications(ctx.Request.Context(), identity.UserID, &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

func (c *notificationControllerImpl) Get(ctx *gin.Context) {
	c.single(ctx, c.app.Get)
}

// MarkAsRead 将指定通知标记为已读，重复调用结果不变。
func (c *notificationControllerImpl) MarkAsRead(ctx *gin.Context) {
	c.single(ctx, c.app.MarkAsRead)
}

// Remove 删除指定通知并返回删除前的内容。
func (c *notificationControllerImpl) Remove(ctx *gin.Context) {
	c.single(ctx, c.app.Remove)
}

func (c *notificationControllerImpl) MarkAllAsRead(ctx *gin.Context) {
	c.bulk(ctx, c.app.MarkAllAsRead)
}

func (c *notificationControllerImpl) RemoveAll(ctx *gin.Context) {
	c.bulk(ctx, c.app.RemoveAll)
}

type singleOp func(ctx context.Context, userID, id string) (*dto.NotificationDto, error)

func (c *notificationControllerImpl) single(ctx *gin.Context, op singleOp) {
	identity, err := identityFrom(ctx)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	n, err := op(ctx.Request.Context(), identity.UserID, ctx.Param("id"))
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, n)
}

type bulkOp func(ctx context.Context, userID string) (int64, error)

func (c *notificationControllerImpl) bulk(ctx *gin.Context, op bulkOp) {
	identity, err := identityFrom(ctx)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	affected, err := op(ctx.Request.Context(), identity.UserID)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, dto.BulkResponse{Affected: affected})
}

// Create 通过内部接口创建一条新的通知，用于其他服务调用。
func (c *notificationControllerImpl) Create(ctx *gin.Context) {
	var req cqe.CreateNotificationReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		restapi.Failed(ctx, errno.NewSimpleBizError(errno.ErrParameterInvalid, err, "body"))
		return
	}
	n, err := c.app.Create(ctx.Request.Context(), &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, n)
}

// Stream establishes an SSE stream for the current user's notifications.
// Frontends listen for "notification" and "notification.updated" events.
func (c *notificationControllerImpl) Stream(ctx *gin.Context) {
	identity, err := identityFrom(ctx)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	log := logger.WithContext(ctx.Request.Context())

	conn := sse.NewConn(identity.UserID, c.outbox)
	if err := c.registry.Register(identity.UserID, conn); err != nil {
		restapi.Failed(ctx, errno.NewSimpleBizError(errno.ErrInternalServer, err, ""))
		return
	}
	defer func() {
		c.registry.Unregister(conn.ID(), identity.UserID)
		_ = conn.Close()
	}()

	err = sse.Stream(ctx.Request.Context(), ctx.Writer, conn, c.heartbeat)
	if errors.Is(err, sse.ErrFlushUnsupported) {
		log.Errorf("notification: SSE stream does not support flushing user=%s", identity.UserID)
		restapi.FailedWithStatus(ctx, errno.ErrInternalServer, http.StatusInternalServerError)
	}
}
