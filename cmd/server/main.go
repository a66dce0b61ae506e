package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"syscall"

	route "github.com/bassista/go_graphview/internal/api/route"
	appctx "github.com/bassista/go_graphview/internal/app"
	"github.com/bassista/go_graphview/internal/cache"
	"github.com/bassista/go_graphview/internal/config"
	"github.com/bassista/go_graphview/internal/logger"
	"github.com/bassista/go_graphview/internal/notifier"
	"github.com/bassista/go_graphview/internal/renderer"
	"github.com/gin-gonic/gin"

	"github.com/enrichman/httpgrace"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	logLevel, err := logger.SetLevel(cfg.Misc.LogLevel)
	if err != nil {
		logger.WithComponent("main").Warnf("invalid log level '%s', keeping '%s': %v", cfg.Misc.LogLevel, logLevel, err)
	}
	logger.WithComponent("main").Debugf("log level set to: %s", logLevel.String())
	logger.WithComponent("main").Infof("%s will run on port: %d", cfg.Misc.ServiceName, cfg.Server.Port)

	backend, err := renderer.NewBackendFromConfig(cfg.Render.Backend, rendererOptions(cfg.Render))
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init renderer: %v", err)
	}
	logger.WithComponent("main").Infof("using %s render backend, work dir %s", backend.Name(), cfg.Render.WorkDir)

	cacheStore := cache.NewStore(nil)
	hub := notifier.NewHub(cacheStore, cfg.Notifier.SendBuffer)

	app, err := appctx.New(cfg, cacheStore, backend, hub)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	if err := app.StartWatchers(); err != nil {
		logger.WithComponent("main").Fatalf("cannot start watchers: %v", err)
	}

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r := route.SetupRoutes(app, logger.Logger)
	srv := createGraceHttpServer(app.BaseCtx, "graph-view", app.Config.Server, r, hub.Close)

	logger.WithComponent("main").Infof("viewer available at http://localhost:%d/viewer", cfg.Server.Port)
	if err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Error(err)
	}
}

// rendererOptions maps the render section of the configuration onto backend options.
func rendererOptions(rc config.RenderConfig) renderer.Options {
	return renderer.Options{
		Width:               rc.Width,
		Height:              rc.Height,
		PageLoadTimeout:     rc.PageLoadTimeout,
		ContentReadyTimeout: rc.ContentReadyTimeout,
		LayoutTimeout:       rc.LayoutTimeout,
		MermaidURL:          rc.MermaidURL,
		Theme:               rc.Theme,
		Background:          rc.Background,
		ChromePath:          rc.ChromePath,
		RemoteURL:           rc.RemoteURL,
	}
}

// createGraceHttpServer wraps r in a server that drains on SIGTERM/SIGINT.
// beforeShutdown runs first; websocket connections are hijacked and would
// otherwise outlive the drain.
func createGraceHttpServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine, beforeShutdown func()) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
			if beforeShutdown != nil {
				beforeShutdown()
			}
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
