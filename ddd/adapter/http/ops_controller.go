package http

import (
	"github.com/gin-gonic/gin"

	"club-notification-service/ddd/application/dispatch"
	"club-notification-service/pkg/manager"
	"club-notification-service/pkg/presence"
	"club-notification-service/pkg/restapi"
)

func init() {
	manager.RegisterControllerPlugin(&OpsControllerPlugin{})
}

// OpsControllerPlugin exposes presence and delivery counters to operators.
type OpsControllerPlugin struct{}

func (p *OpsControllerPlugin) Name() string {
	return "opsController"
}

func (p *OpsControllerPlugin) MustCreateController(deps *manager.Dependencies) manager.Controller {
	if deps == nil || deps.Registry == nil {
		panic("opsController: registry is required")
	}
	return &opsController{registry: deps.Registry, engine: deps.Engine}
}

type opsController struct {
	registry *presence.Registry
	engine   *dispatch.Engine
}

type presenceSummary struct {
	OnlineUsers      int             `json:"onlineUsers"`
	TotalConnections int             `json:"totalConnections"`
	Delivery         *dispatch.Stats `json:"delivery,omitempty"`
}

type userPresence struct {
	UserID  string `json:"userId"`
	Online  bool   `json:"online"`
	Devices int    `json:"devices"`
}

func (c *opsController) RegisterOpenApi(group *gin.RouterGroup)  {}
func (c *opsController) RegisterInnerApi(group *gin.RouterGroup) {}
func (c *opsController) RegisterDebugApi(group *gin.RouterGroup) {}
func (c *opsController) RegisterPushApi(group *gin.RouterGroup)  {}

func (c *opsController) RegisterOpsApi(group *gin.RouterGroup) {
	group.GET("/presence", c.Summary)
	group.GET("/presence/:userId", c.User)
}

func (c *opsController) Summary(ctx *gin.Context) {
	summary := presenceSummary{
		OnlineUsers:      c.registry.OnlineUserCount(),
		TotalConnections: c.registry.TotalConnectionCount(),
	}
	if c.engine != nil {
		stats := c.engine.Stats()
		summary.Delivery = &stats
	}
	restapi.Success(ctx, summary)
}

func (c *opsController) User(ctx *gin.Context) {
	userID := ctx.Param("userId")
	restapi.Success(ctx, userPresence{
		UserID:  userID,
		Online:  c.registry.IsOnline(userID),
		Devices: c.registry.DeviceCount(userID),
	})
}
