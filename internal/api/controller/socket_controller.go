package controller

import (
	"github.com/bassista/go_graphview/internal/logger"
	"github.com/bassista/go_graphview/internal/notifier"
	"github.com/gin-gonic/gin"
)

// SocketController upgrades viewer connections and hands them to the hub.
type SocketController struct {
	hub  *notifier.Hub
	opts notifier.SocketOptions
}

func NewSocketController(hub *notifier.Hub, opts notifier.SocketOptions) *SocketController {
	return &SocketController{hub: hub, opts: opts}
}

// Updates blocks for the lifetime of the websocket connection.
func (sc *SocketController) Updates(c *gin.Context) {
	if err := notifier.Serve(sc.hub, c.Writer, c.Request, sc.opts); err != nil {
		logger.WithComponent("socket_controller").Debugf("websocket from %s ended: %v", c.ClientIP(), err)
	}
}
