package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bassista/go_graphview/internal/cache"
	"github.com/bassista/go_graphview/internal/config"
	"github.com/bassista/go_graphview/internal/graph"
	"github.com/bassista/go_graphview/internal/logger"
	"github.com/bassista/go_graphview/internal/notifier"
	"github.com/bassista/go_graphview/internal/renderer"
	"github.com/bassista/go_graphview/internal/updater"
	"github.com/bassista/go_graphview/internal/watcher"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config   *config.Config
	Cache    cache.AppStore
	Renderer renderer.Backend
	Hub      *notifier.Hub
	Updater  *updater.Updater

	BaseCtx context.Context
	Cancel  context.CancelFunc

	janitorDone  <-chan struct{}
	shutdownOnce sync.Once
}

func New(cfg *config.Config, store cache.AppStore, backend renderer.Backend, hub *notifier.Hub) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if store == nil {
		return nil, errors.New("cache store is nil")
	}
	if backend == nil {
		return nil, errors.New("render backend is nil")
	}
	if hub == nil {
		return nil, errors.New("notifier hub is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	up := updater.New(backend, store, hub, updater.Options{
		WorkDir:       cfg.Render.WorkDir,
		RenderTimeout: cfg.Render.Timeout,
	})
	return &App{
		Config:   cfg,
		Cache:    store,
		Renderer: backend,
		Hub:      hub,
		Updater:  up,
		BaseCtx:  ctx,
		Cancel:   cancel,
	}, nil
}

// Shutdown stops background work, disconnects viewers, closes the backend and
// releases the current artifact. Safe to call more than once.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.shutdownOnce.Do(func() {
		log := logger.WithComponent("app")
		a.Cancel()
		if a.janitorDone != nil {
			<-a.janitorDone
		}
		a.Hub.Close()
		if err := a.Renderer.Close(); err != nil {
			log.Warnf("closing %s backend: %v", a.Renderer.Name(), err)
		}
		a.Cache.Clear()
		log.Info("shutdown complete")
	})
}

// StartWatchers starts the work-dir janitor and, when configured, the source file watcher.
func (a *App) StartWatchers() error {
	rc := a.Config.Render
	if rc.JanitorInterval > 0 {
		a.janitorDone = updater.StartJanitor(a.BaseCtx, rc.WorkDir, a.Cache, rc.JanitorInterval, rc.JanitorMaxAge)
	}

	if a.Config.Source.WatchFile == "" {
		return nil
	}
	w, err := watcher.New(a.Config.Source.WatchFile, a.Config.Source.Debounce)
	if err != nil {
		return fmt.Errorf("cannot create source watcher: %w", err)
	}
	if err := w.Start(a.BaseCtx, a.renderSource(w.Path())); err != nil {
		return fmt.Errorf("cannot start source watcher: %w", err)
	}

	// Publish what is already on disk.
	if content, err := w.Read(); err == nil {
		go a.renderSource(w.Path())(a.BaseCtx, content)
	}
	return nil
}

// renderSource returns the watcher callback for path. Failures are pushed to
// viewers as error events since there is no HTTP caller to answer.
func (a *App) renderSource(path string) watcher.OnChange {
	return func(ctx context.Context, content string) {
		log := logger.WithComponent("watcher")
		_, err := a.Updater.Update(ctx, graph.UpdateRequest{
			Content:   content,
			FilePath:  path,
			Timestamp: graph.FormatTimestamp(time.Now()),
		})
		switch {
		case err == nil:
			log.Infof("published %s", path)
		case errors.Is(err, graph.ErrInvalidInput):
			log.Debugf("%s is empty, skipping", path)
		case ctx.Err() != nil:
			// shutting down
		default:
			log.Warnf("cannot render %s: %v", path, err)
			a.Hub.Notify(fmt.Sprintf("Failed to render %s: %s", path, graph.RenderDetails(err)))
		}
	}
}
