package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bassista/go_graphview/internal/logger"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "GRAPH_VIEW"

// Config is the validated application configuration.
type Config struct {
	Server   ServerConfig
	Render   RenderConfig
	Source   SourceConfig
	Notifier NotifierConfig
	Misc     MiscConfig
}

type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	UpdateTimeout      time.Duration
	CORSAllowedOrigins string
	BodyLimit          int64
	UIDir              string
	WSPath             string
}

type RenderConfig struct {
	Backend             string `validate:"oneof=rod text"`
	WorkDir             string `validate:"required"`
	ChromePath          string
	RemoteURL           string
	Width               int `validate:"gt=0"`
	Height              int `validate:"gt=0"`
	PageLoadTimeout     time.Duration
	ContentReadyTimeout time.Duration
	LayoutTimeout       time.Duration
	Timeout             time.Duration
	MermaidURL          string `validate:"required"`
	Theme               string
	Background          string
	JanitorInterval     time.Duration
	JanitorMaxAge       time.Duration
}

type SourceConfig struct {
	WatchFile string
	Debounce  time.Duration
}

type NotifierConfig struct {
	SendBuffer        int `validate:"gt=0"`
	PingInterval      time.Duration
	WriteTimeout      time.Duration
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration
}

type MiscConfig struct {
	GinMode     string
	LogLevel    string
	ServiceName string
}

// LoadConfig reads defaults, the optional config file, .env and the environment,
// then validates the result and prepares the render work directory.
func LoadConfig() (*Config, error) {
	// .env is optional; variables already in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("config").Warnf("cannot load .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getEnvOrDefault(envPrefix+"_CONFIG_PATH", "./config"))

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Debug("no config file found, using defaults and env vars")
	}

	port, err := getEnvOrViperPort(v, "PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        v.GetDuration("server.read_timeout"),
			WriteTimeout:       v.GetDuration("server.write_timeout"),
			IdleTimeout:        v.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    v.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     v.GetDuration("server.request_timeout"),
			UpdateTimeout:      v.GetDuration("server.update_timeout"),
			CORSAllowedOrigins: v.GetString("server.cors_allowed_origins"),
			BodyLimit:          v.GetInt64("server.body_limit"),
			UIDir:              v.GetString("server.ui_dir"),
			WSPath:             v.GetString("server.ws_path"),
		},
		Render: RenderConfig{
			Backend:             strings.ToLower(v.GetString("render.backend")),
			WorkDir:             v.GetString("render.work_dir"),
			ChromePath:          v.GetString("render.chrome_path"),
			RemoteURL:           v.GetString("render.remote_url"),
			Width:               v.GetInt("render.width"),
			Height:              v.GetInt("render.height"),
			PageLoadTimeout:     v.GetDuration("render.page_load_timeout"),
			ContentReadyTimeout: v.GetDuration("render.content_ready_timeout"),
			LayoutTimeout:       v.GetDuration("render.layout_timeout"),
			Timeout:             v.GetDuration("render.timeout"),
			MermaidURL:          v.GetString("render.mermaid_url"),
			Theme:               v.GetString("render.theme"),
			Background:          v.GetString("render.background"),
			JanitorInterval:     v.GetDuration("render.janitor_interval"),
			JanitorMaxAge:       v.GetDuration("render.janitor_max_age"),
		},
		Source: SourceConfig{
			WatchFile: v.GetString("source.watch_file"),
			Debounce:  v.GetDuration("source.debounce"),
		},
		Notifier: NotifierConfig{
			SendBuffer:        v.GetInt("notifier.send_buffer"),
			PingInterval:      v.GetDuration("notifier.ping_interval"),
			WriteTimeout:      v.GetDuration("notifier.write_timeout"),
			ReconnectDelay:    v.GetDuration("notifier.reconnect_delay"),
			ReconnectMaxDelay: v.GetDuration("notifier.reconnect_max_delay"),
		},
		Misc: MiscConfig{
			GinMode:     v.GetString("misc.gin_mode"),
			LogLevel:    getEnvOrDefault("LOG_LEVEL", v.GetString("misc.log_level")),
			ServiceName: v.GetString("misc.service_name"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Render.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create render work dir: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	// Updates block for a whole render cycle.
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.request_timeout", "5s")
	v.SetDefault("server.update_timeout", "90s")
	v.SetDefault("server.cors_allowed_origins", "*")
	v.SetDefault("server.body_limit", 10<<20)
	v.SetDefault("server.ui_dir", "./ui")
	v.SetDefault("server.ws_path", "/ws/graph-updates")

	v.SetDefault("render.backend", "rod")
	v.SetDefault("render.work_dir", "./temp")
	v.SetDefault("render.chrome_path", "")
	v.SetDefault("render.remote_url", "")
	v.SetDefault("render.width", 3000)
	v.SetDefault("render.height", 2000)
	v.SetDefault("render.page_load_timeout", "30s")
	v.SetDefault("render.content_ready_timeout", "15s")
	v.SetDefault("render.layout_timeout", "10s")
	v.SetDefault("render.timeout", "60s")
	v.SetDefault("render.mermaid_url", "https://cdn.jsdelivr.net/npm/mermaid@10.6.1/dist/mermaid.min.js")
	v.SetDefault("render.theme", "dark")
	v.SetDefault("render.background", "#1a1a1a")
	v.SetDefault("render.janitor_interval", "10m")
	v.SetDefault("render.janitor_max_age", "30m")

	v.SetDefault("source.watch_file", "")
	v.SetDefault("source.debounce", "200ms")

	v.SetDefault("notifier.send_buffer", 16)
	v.SetDefault("notifier.ping_interval", "30s")
	v.SetDefault("notifier.write_timeout", "10s")
	v.SetDefault("notifier.reconnect_delay", "1s")
	v.SetDefault("notifier.reconnect_max_delay", "30s")

	v.SetDefault("misc.gin_mode", "release")
	v.SetDefault("misc.log_level", "info")
	v.SetDefault("misc.service_name", "mermaid-system-graph-viewer")
}

// validate checks ranges and required values that viper cannot express.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return errors.New("server read, write and idle timeouts must be positive")
	}
	if c.Server.ShutDownTimeout <= 0 {
		return errors.New("server shutdown timeout must be positive")
	}
	if c.Server.RequestTimeout < 0 || c.Server.UpdateTimeout < 0 {
		return errors.New("request timeouts must not be negative")
	}
	if c.Server.BodyLimit <= 0 {
		return fmt.Errorf("invalid body limit: %d", c.Server.BodyLimit)
	}
	if !strings.HasPrefix(c.Server.WSPath, "/") {
		return fmt.Errorf("websocket path must start with '/': %q", c.Server.WSPath)
	}

	if c.Render.PageLoadTimeout <= 0 || c.Render.ContentReadyTimeout <= 0 || c.Render.LayoutTimeout <= 0 {
		return errors.New("render page, content and layout timeouts must be positive")
	}
	if c.Render.Timeout <= 0 {
		return errors.New("render timeout must be positive")
	}
	if c.Render.JanitorInterval < 0 || c.Render.JanitorMaxAge < 0 {
		return errors.New("janitor interval and max age must not be negative")
	}

	if c.Source.WatchFile != "" && c.Source.Debounce <= 0 {
		return errors.New("source debounce must be positive when a watch file is set")
	}

	if c.Notifier.PingInterval <= 0 || c.Notifier.WriteTimeout <= 0 {
		return errors.New("notifier ping interval and write timeout must be positive")
	}
	if c.Notifier.ReconnectDelay <= 0 || c.Notifier.ReconnectMaxDelay < c.Notifier.ReconnectDelay {
		return errors.New("notifier reconnect delays must be positive and max >= base")
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// getEnvOrViperPort prefers a plain env var (e.g. PORT) over the viper key.
func getEnvOrViperPort(v *viper.Viper, envName, key string) (int, error) {
	if raw := os.Getenv(envName); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", envName, raw, err)
		}
		return port, nil
	}
	return v.GetInt(key), nil
}

func getEnvOrDefault(name, def string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return def
}
