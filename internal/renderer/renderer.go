// Package renderer turns Mermaid diagram source into PNG bytes.
package renderer

import (
	"context"
	"time"
)

// Backend renders diagram source. Implementations must honor ctx and release
// every per-render resource before returning.
type Backend interface {
	Render(ctx context.Context, job Job) ([]byte, error)
	Close() error
	Name() string
}

// Job is a single render request.
type Job struct {
	// ID is unique per render and is used to name working files.
	ID      string
	Source  string
	WorkDir string
}

// Options configures a backend.
type Options struct {
	Width  int
	Height int

	PageLoadTimeout     time.Duration
	ContentReadyTimeout time.Duration
	LayoutTimeout       time.Duration

	MermaidURL string
	Theme      string
	Background string

	// ChromePath overrides the browser binary. Empty lets rod find or download one.
	ChromePath string
	// RemoteURL is the DevTools websocket of an external Chrome. Empty launches locally.
	RemoteURL string
}

func (o *Options) defaults() {
	if o.Width <= 0 {
		o.Width = 3000
	}
	if o.Height <= 0 {
		o.Height = 2000
	}
	if o.PageLoadTimeout <= 0 {
		o.PageLoadTimeout = 30 * time.Second
	}
	if o.ContentReadyTimeout <= 0 {
		o.ContentReadyTimeout = 15 * time.Second
	}
	if o.LayoutTimeout <= 0 {
		o.LayoutTimeout = 10 * time.Second
	}
	if o.MermaidURL == "" {
		o.MermaidURL = "https://cdn.jsdelivr.net/npm/mermaid@10.6.1/dist/mermaid.min.js"
	}
	if o.Theme == "" {
		o.Theme = "dark"
	}
	if o.Background == "" {
		o.Background = "#1a1a1a"
	}
}
