package route

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// NewUIRouter serves the viewer pages from uiDir and answers unknown routes with JSON.
func NewUIRouter(r *gin.Engine, uiDir string) {
	r.Static("/assets", filepath.Join(uiDir, "assets"))

	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(uiDir, "index.html"))
	})
	r.GET("/viewer", func(c *gin.Context) {
		c.File(filepath.Join(uiDir, "viewer.html"))
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "path": c.Request.URL.Path})
	})
}
