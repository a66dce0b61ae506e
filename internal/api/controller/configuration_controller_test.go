package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bassista/go_graphview/internal/config"
	"github.com/gin-gonic/gin"
)

func TestConfigurationController_GetConfiguration(t *testing.T) {
	tests := []struct {
		name         string
		wsPath       string
		delay        time.Duration
		maxDelay     time.Duration
		expectedBody ConfigurationResponse
	}{
		{
			name:         "defaults",
			wsPath:       "/ws/graph-updates",
			delay:        time.Second,
			maxDelay:     30 * time.Second,
			expectedBody: ConfigurationResponse{WSPath: "/ws/graph-updates", ReconnectDelayMs: 1000, ReconnectMaxDelayMs: 30000, Service: "svc"},
		},
		{
			name:         "custom path and sub-second delay",
			wsPath:       "/live",
			delay:        250 * time.Millisecond,
			maxDelay:     5 * time.Second,
			expectedBody: ConfigurationResponse{WSPath: "/live", ReconnectDelayMs: 250, ReconnectMaxDelayMs: 5000, Service: "svc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Server:   config.ServerConfig{WSPath: tt.wsPath},
				Notifier: config.NotifierConfig{ReconnectDelay: tt.delay, ReconnectMaxDelay: tt.maxDelay},
				Misc:     config.MiscConfig{ServiceName: "svc"},
			}

			controller := NewConfigurationController(cfg)
			router := gin.New()
			router.GET("/api/configuration", controller.GetConfiguration)

			req, err := http.NewRequest(http.MethodGet, "/api/configuration", nil)
			if err != nil {
				t.Fatalf("failed to create request: %v", err)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", w.Code)
			}

			var response ConfigurationResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if response != tt.expectedBody {
				t.Errorf("expected %+v, got %+v", tt.expectedBody, response)
			}
		})
	}
}

func TestHealthController_Health(t *testing.T) {
	hc := NewHealthController("mermaid-system-graph-viewer", "text", countFunc(func() int { return 3 }))
	router := gin.New()
	router.GET("/api/health", hc.Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Status != "healthy" || resp.Service != "mermaid-system-graph-viewer" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Renderer != "text" || resp.Subscribers != 3 {
		t.Errorf("unexpected renderer/subscribers %+v", resp)
	}
	if _, err := time.Parse(time.RFC3339, resp.Timestamp); err != nil {
		t.Errorf("timestamp %q is not ISO-8601: %v", resp.Timestamp, err)
	}
}

type countFunc func() int

func (f countFunc) Count() int { return f() }
