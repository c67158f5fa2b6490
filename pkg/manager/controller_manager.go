package manager

import (
	"fmt"
	"sort"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type (
	ControllerPlugin interface {
		Name() string
		MustCreateController(deps *Dependencies) Controller
	}

	Controller interface {
		RegisterOpenApi(group *gin.RouterGroup)
		RegisterInnerApi(group *gin.RouterGroup)
		RegisterDebugApi(group *gin.RouterGroup)
		RegisterOpsApi(group *gin.RouterGroup)
		RegisterPushApi(group *gin.RouterGroup)
	}

	// Groups holds the router groups handed to every controller. A nil group is skipped.
	Groups struct {
		Open  *gin.RouterGroup
		Inner *gin.RouterGroup
		Debug *gin.RouterGroup
		Ops   *gin.RouterGroup
		Push  *gin.RouterGroup
	}
)

var (
	controllerPlugins = map[string]ControllerPlugin{}
)

// RegisterControllerPlugin registers a controller plugin.
func RegisterControllerPlugin(p ControllerPlugin) {
	if p.Name() == "" {
		panic(fmt.Errorf("%T: empty name", p))
	}
	if existedPlugin, existed := controllerPlugins[p.Name()]; existed {
		panic(fmt.Errorf("%T and %T got same name: %s", p, existedPlugin, p.Name()))
	}
	controllerPlugins[p.Name()] = p
}

// MustInitControllers creates every registered controller, in name order, and attaches its routes.
func MustInitControllers(deps *Dependencies, groups Groups) {
	names := make([]string, 0, len(controllerPlugins))
	for n := range controllerPlugins {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		controller := controllerPlugins[n].MustCreateController(deps)
		if groups.Open != nil {
			controller.RegisterOpenApi(groups.Open)
		}
		if groups.Inner != nil {
			controller.RegisterInnerApi(groups.Inner)
		}
		if groups.Debug != nil {
			controller.RegisterDebugApi(groups.Debug)
		}
		if groups.Ops != nil {
			controller.RegisterOpsApi(groups.Ops)
		}
		if groups.Push != nil {
			controller.RegisterPushApi(groups.Push)
		}
		log.Infof("Register controller: plugin=%s", n)
	}
}
