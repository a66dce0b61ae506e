package controller

import (
	"net/http"

	"github.com/bassista/go_graphview/internal/config"
	"github.com/gin-gonic/gin"
)

// ConfigurationResponse carries the settings the viewer needs at startup.
type ConfigurationResponse struct {
	WSPath              string `json:"wsPath"`
	ReconnectDelayMs    int64  `json:"reconnectDelayMs"`
	ReconnectMaxDelayMs int64  `json:"reconnectMaxDelayMs"`
	Service             string `json:"service"`
}

// ConfigurationController handles configuration-related API endpoints.
type ConfigurationController struct {
	config *config.Config
}

// NewConfigurationController creates a new ConfigurationController.
func NewConfigurationController(cfg *config.Config) *ConfigurationController {
	return &ConfigurationController{
		config: cfg,
	}
}

// GetConfiguration returns the viewer configuration.
func (cc *ConfigurationController) GetConfiguration(c *gin.Context) {
	response := ConfigurationResponse{
		WSPath:              cc.config.Server.WSPath,
		ReconnectDelayMs:    cc.config.Notifier.ReconnectDelay.Milliseconds(),
		ReconnectMaxDelayMs: cc.config.Notifier.ReconnectMaxDelay.Milliseconds(),
		Service:             cc.config.Misc.ServiceName,
	}
	c.JSON(http.StatusOK, response)
}
