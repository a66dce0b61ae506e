package route

import (
	"github.com/bassista/go_graphview/internal/api/middleware"
	"github.com/bassista/go_graphview/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes builds the engine serving the API, the websocket endpoint and the viewer.
func SetupRoutes(appCtx *app.App, logger *logrus.Logger) *gin.Engine {
	cfg := appCtx.Config

	r := gin.New()
	r.Use(middleware.JSONRecovery(logger))
	r.Use(middleware.HoneybadgerMiddleware(logger, cfg.Misc.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSAllowedOrigins))

	api := r.Group("/api")
	NewHealthRouter(appCtx, api)
	NewConfigurationRouter(cfg.Server.RequestTimeout, api, cfg)
	NewGraphRouter(appCtx, api)

	NewSocketRouter(appCtx, r)
	NewUIRouter(r, cfg.Server.UIDir)
	return r
}
