package controller

import (
	"net/http"
	"time"

	"github.com/bassista/go_graphview/internal/graph"
	"github.com/gin-gonic/gin"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Service     string `json:"service"`
	Renderer    string `json:"renderer,omitempty"`
	Subscribers int    `json:"subscribers"`
}

// SubscriberCounter reports the number of live viewers.
type SubscriberCounter interface {
	Count() int
}

type HealthController struct {
	service  string
	renderer string
	subs     SubscriberCounter
}

func NewHealthController(service, renderer string, subs SubscriberCounter) *HealthController {
	return &HealthController{service: service, renderer: renderer, subs: subs}
}

func (hc *HealthController) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: graph.FormatTimestamp(time.Now()),
		Service:   hc.service,
		Renderer:  hc.renderer,
	}
	if hc.subs != nil {
		resp.Subscribers = hc.subs.Count()
	}
	c.JSON(http.StatusOK, resp)
}
