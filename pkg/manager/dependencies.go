package manager

import (
	"github.com/gin-gonic/gin"

	"club-notification-service/ddd/application/app"
	"club-notification-service/ddd/application/dispatch"
	"club-notification-service/pkg/auth"
	"club-notification-service/pkg/config"
	"club-notification-service/pkg/presence"
)

// Dependencies 依赖注入容器，由 app.Run 组装后交给各个 Controller。
type Dependencies struct {
	Config   *config.Config
	App      app.NotificationApp
	Gate     *auth.Gate
	Registry *presence.Registry
	Engine   *dispatch.Engine
}

// RegisterAllRoutes 注册所有路由。
func RegisterAllRoutes(router *gin.Engine, deps *Dependencies) {
	MustInitControllers(deps, Groups{
		Open:  router.Group("/api"),
		Inner: router.Group("/api"),
		Debug: router.Group("/debug"),
		Ops:   router.Group("/ops"),
		Push:  router.Group("/ws"),
	})
}
