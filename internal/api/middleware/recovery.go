package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// JSONRecovery turns handler panics into a 500 JSON response.
// Register it before HoneybadgerMiddleware so the re-panic from reporting lands here.
func JSONRecovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(logger.Writer(), func(c *gin.Context, rec any) {
		logger.WithField("component", "http").Errorf("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, rec)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": fmt.Sprint(rec),
		})
	})
}

// RequestLogger logs one line per request through logrus.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		entry := logger.WithFields(logrus.Fields{
			"component": "http",
			"status":    c.Writer.Status(),
			"client":    c.ClientIP(),
		})
		msg := fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path)
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn(msg)
			return
		}
		entry.Debug(msg)
	}
}
