package controller

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/bassista/go_graphview/internal/cache"
	"github.com/bassista/go_graphview/internal/graph"
	"github.com/bassista/go_graphview/internal/logger"
	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"
)

// GraphUpdater runs one render cycle.
type GraphUpdater interface {
	Update(ctx context.Context, req graph.UpdateRequest) (graph.Artifact, error)
}

// GraphResponse is the body of GET /api/graph.
// PngPath is null while nothing has been rendered. GraphData is reserved and always null.
type GraphResponse struct {
	MermaidContent string  `json:"mermaidContent"`
	GraphData      any     `json:"graphData"`
	PngPath        *string `json:"pngPath"`
	Timestamp      string  `json:"timestamp"`
}

// UpdateResponse is the body of a successful POST /api/update.
type UpdateResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	PngPath   string `json:"pngPath"`
	Timestamp string `json:"timestamp"`
}

type GraphController struct {
	store   cache.ReadOnlyStore
	updater GraphUpdater
	now     func() time.Time
}

func NewGraphController(store cache.ReadOnlyStore, up GraphUpdater) *GraphController {
	return &GraphController{store: store, updater: up, now: time.Now}
}

// Graph returns the current diagram state. It never fails. An empty slot
// reports the response time as its timestamp.
func (gc *GraphController) Graph(c *gin.Context) {
	a, ok := gc.store.Get()
	if !ok {
		c.JSON(http.StatusOK, GraphResponse{Timestamp: graph.FormatTimestamp(gc.now())})
		return
	}
	locator := a.Locator
	resp := GraphResponse{
		MermaidContent: a.Source,
		PngPath:        &locator,
		Timestamp:      a.Timestamp,
	}
	c.JSON(http.StatusOK, resp)
}

// Image streams the current PNG. The file is opened before anything is written,
// so a concurrent replace cannot cut the response short.
func (gc *GraphController) Image(c *gin.Context) {
	a, ok := gc.store.Get()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Graph image not found"})
		return
	}

	f, err := os.Open(a.Path)
	if err != nil {
		logger.WithComponent("graph_controller").Debugf("artifact %s unavailable: %v", a.Path, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Graph image not found"})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Graph image not found"})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.DataFromReader(http.StatusOK, info.Size(), "image/png", f, nil)
}

// Update renders the posted diagram and makes it current.
func (gc *GraphController) Update(c *gin.Context) {
	var req graph.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": err.Error()})
		return
	}

	a, err := gc.updater.Update(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		switch {
		case errdefs.IsInvalidArgument(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": "mermaid_content is required"})
		case graph.IsRenderFailed(err):
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to render Mermaid diagram",
				"details": graph.RenderDetails(err),
			})
		case errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timeout", "details": err.Error()})
		default:
			logger.WithComponent("graph_controller").Errorf("update failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, UpdateResponse{
		Success:   true,
		Message:   "Graph updated successfully",
		PngPath:   a.Locator,
		Timestamp: a.Timestamp,
	})
}
