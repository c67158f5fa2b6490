package ws

import (
	"github.com/gin-gonic/gin"

	"club-notification-service/pkg/manager"
)

func init() {
	manager.RegisterControllerPlugin(&PushControllerPlugin{})
}

// PushControllerPlugin mounts the WebSocket endpoint on the push group.
type PushControllerPlugin struct{}

func (p *PushControllerPlugin) Name() string {
	return "pushController"
}

func (p *PushControllerPlugin) MustCreateController(deps *manager.Dependencies) manager.Controller {
	if deps == nil || deps.Gate == nil || deps.Registry == nil {
		panic("pushController: gate and registry are required")
	}
	var opts Options
	if deps.Config != nil {
		opts = OptionsFromConfig(deps.Config.Push)
	}
	return &pushController{handler: NewHandler(deps.Gate, deps.Registry, opts)}
}

type pushController struct {
	handler *Handler
}

func (c *pushController) RegisterOpenApi(group *gin.RouterGroup)  {}
func (c *pushController) RegisterInnerApi(group *gin.RouterGroup) {}
func (c *pushController) RegisterDebugApi(group *gin.RouterGroup) {}
func (c *pushController) RegisterOpsApi(group *gin.RouterGroup)   {}

func (c *pushController) RegisterPushApi(group *gin.RouterGroup) {
	group.GET("/notifications", gin.WrapH(c.handler))
}
