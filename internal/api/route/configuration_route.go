package route

import (
	"time"

	"github.com/bassista/go_graphview/internal/api/controller"
	"github.com/bassista/go_graphview/internal/api/middleware"
	"github.com/bassista/go_graphview/internal/app"
	"github.com/bassista/go_graphview/internal/config"
	"github.com/gin-gonic/gin"
)

// NewConfigurationRouter sets up configuration-related routes.
func NewConfigurationRouter(timeout time.Duration, group *gin.RouterGroup, cfg *config.Config) {
	cc := controller.NewConfigurationController(cfg)
	timeoutMiddleware := middleware.RequestTimeout(timeout)
	group.GET("configuration", timeoutMiddleware, cc.GetConfiguration)
}

func NewHealthRouter(appCtx *app.App, group *gin.RouterGroup) {
	hc := controller.NewHealthController(appCtx.Config.Misc.ServiceName, appCtx.Renderer.Name(), appCtx.Hub)
	group.GET("health", hc.Health)
}
