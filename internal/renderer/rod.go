package renderer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/bassista/go_graphview/internal/logger"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	// contentReadyJS resolves once Mermaid produced an svg or reported an error.
	contentReadyJS = `() => document.querySelector('.mermaid svg') !== null || window.__renderError !== undefined`
	// layoutReadyJS resolves once the svg has a measurable width.
	layoutReadyJS = `() => {
		const svg = document.querySelector('.mermaid svg');
		return svg !== null && svg.getBoundingClientRect().width > 0;
	}`
	renderErrorJS = `() => window.__renderError === undefined ? '' : window.__renderError`
)

// RodBackend renders diagrams in headless Chromium through go-rod.
// The browser is launched lazily and shared; every render gets its own page.
type RodBackend struct {
	opts Options

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewRodBackend creates a backend; no browser is started until the first render.
func NewRodBackend(opts Options) *RodBackend {
	opts.defaults()
	return &RodBackend{opts: opts}
}

func (r *RodBackend) Name() string { return "rod" }

// Render materializes the working page, loads it, waits for Mermaid and
// captures a full-page PNG. The page and the working file are always released.
func (r *RodBackend) Render(ctx context.Context, job Job) ([]byte, error) {
	log := logger.WithComponent("renderer").WithField("job", job.ID)

	b, err := r.acquire()
	if err != nil {
		return nil, err
	}

	pagePath, err := writePage(r.opts, job)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(pagePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warnf("cannot remove working page %s: %v", pagePath, err)
		}
	}()

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		if ctx.Err() == nil {
			r.discard(b)
		}
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		// Closing must outlive an expired render context.
		if err := page.Context(context.Background()).Close(); err != nil {
			log.Debugf("close page: %v", err)
		}
	}()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.opts.Width,
		Height:            r.opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	loadCtx, cancelLoad := context.WithTimeout(ctx, r.opts.PageLoadTimeout)
	defer cancelLoad()
	if err := page.Context(loadCtx).Navigate(fileURL(pagePath)); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := page.Context(loadCtx).WaitLoad(); err != nil {
		return nil, fmt.Errorf("page load: %w", err)
	}

	readyCtx, cancelReady := context.WithTimeout(ctx, r.opts.ContentReadyTimeout)
	defer cancelReady()
	if err := page.Context(readyCtx).Wait(rod.Eval(contentReadyJS)); err != nil {
		return nil, fmt.Errorf("waiting for diagram: %w", err)
	}

	if res, err := page.Context(ctx).Eval(renderErrorJS); err == nil {
		if msg := res.Value.Str(); msg != "" {
			return nil, errors.New(msg)
		}
	}

	layoutCtx, cancelLayout := context.WithTimeout(ctx, r.opts.LayoutTimeout)
	defer cancelLayout()
	if err := page.Context(layoutCtx).Wait(rod.Eval(layoutReadyJS)); err != nil {
		return nil, fmt.Errorf("waiting for layout: %w", err)
	}

	img, err := page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}

	log.Debugf("captured %d bytes", len(img))
	return img, nil
}

// Close shuts the browser down. Further renders fail.
func (r *RodBackend) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return r.cleanupLocked()
}

// acquire returns the shared browser, launching or connecting on first use.
func (r *RodBackend) acquire() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.New("renderer: backend is closed")
	}
	if r.browser != nil {
		return r.browser, nil
	}

	log := logger.WithComponent("renderer")

	wsURL := r.opts.RemoteURL
	if wsURL != "" {
		log.Infof("connecting to remote browser %s", wsURL)
	} else {
		l := launcher.New().
			Headless(true).
			NoSandbox(true).
			Set("disable-gpu").
			Set("disable-dev-shm-usage").
			Set("disable-web-security").
			Set("allow-file-access-from-files")
		if r.opts.ChromePath != "" {
			l = l.Bin(r.opts.ChromePath)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		r.lnch = l
		wsURL = u
		log.Infof("launched local browser %s", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if r.lnch != nil {
			r.lnch.Cleanup()
			r.lnch = nil
		}
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	r.browser = b
	return b, nil
}

// discard drops b after a browser-level failure so the next render relaunches.
func (r *RodBackend) discard(b *rod.Browser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != b {
		return
	}
	logger.WithComponent("renderer").Warn("discarding browser after failure")
	if err := r.cleanupLocked(); err != nil {
		logger.WithComponent("renderer").Debugf("cleanup browser: %v", err)
	}
}

func (r *RodBackend) cleanupLocked() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
		r.lnch = nil
	}
	return err
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
