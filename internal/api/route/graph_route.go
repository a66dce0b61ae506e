package route

import (
	"github.com/bassista/go_graphview/internal/api/controller"
	"github.com/bassista/go_graphview/internal/api/middleware"
	"github.com/bassista/go_graphview/internal/app"
	"github.com/bassista/go_graphview/internal/notifier"
	"github.com/gin-gonic/gin"
)

// NewGraphRouter wires the query endpoints and the update endpoint.
// Updates get their own, longer budget and the body limit.
func NewGraphRouter(appCtx *app.App, group *gin.RouterGroup) {
	srv := appCtx.Config.Server
	gc := controller.NewGraphController(appCtx.Cache, appCtx.Updater)

	queryTimeout := middleware.RequestTimeout(srv.RequestTimeout)
	group.GET("graph", queryTimeout, gc.Graph)
	group.GET("graph-image", queryTimeout, gc.Image)

	group.POST("update", middleware.BodyLimit(srv.BodyLimit), middleware.RequestTimeout(srv.UpdateTimeout), gc.Update)
}

// NewSocketRouter registers the websocket endpoint. It has no request timeout.
func NewSocketRouter(appCtx *app.App, r *gin.Engine) {
	nc := appCtx.Config.Notifier
	sc := controller.NewSocketController(appCtx.Hub, notifier.SocketOptions{
		PingInterval: nc.PingInterval,
		WriteTimeout: nc.WriteTimeout,
	})
	r.GET(appCtx.Config.Server.WSPath, sc.Updates)
}
