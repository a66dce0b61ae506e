// Package updater runs the render cycle behind the update endpoint.
package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bassista/go_graphview/internal/cache"
	"github.com/bassista/go_graphview/internal/graph"
	"github.com/bassista/go_graphview/internal/logger"
	"github.com/bassista/go_graphview/internal/notifier"
	"github.com/bassista/go_graphview/internal/renderer"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const defaultRenderTimeout = 60 * time.Second

// Publisher installs a new state and broadcasts ev to live subscribers.
type Publisher interface {
	Publish(ev graph.Event, install notifier.InstallFunc) int
}

// Options configures an Updater.
type Options struct {
	WorkDir       string
	RenderTimeout time.Duration
}

// Updater turns diagram source into the current artifact, one request at a time.
type Updater struct {
	backend  renderer.Backend
	store    cache.ArtifactStore
	pub      Publisher
	opts     Options
	sem      *semaphore.Weighted
	validate *validator.Validate

	now   func() time.Time
	newID func() string
}

// New creates an Updater. pub may be nil, in which case the store is replaced
// without notifying anyone.
func New(backend renderer.Backend, store cache.ArtifactStore, pub Publisher, opts Options) *Updater {
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = defaultRenderTimeout
	}
	return &Updater{
		backend:  backend,
		store:    store,
		pub:      pub,
		opts:     opts,
		sem:      semaphore.NewWeighted(1),
		validate: validator.New(),
		now:      time.Now,
		newID:    newWorkID,
	}
}

func newWorkID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Update renders req and, on success, installs and broadcasts the result.
//
// Errors: graph.ErrInvalidInput for blank content, *graph.RenderError when the
// backend fails or times out, anything else is an internal failure. On error
// the cache is untouched and nothing is broadcast.
func (u *Updater) Update(ctx context.Context, req graph.UpdateRequest) (graph.Artifact, error) {
	if err := u.validate.Struct(req); err != nil || strings.TrimSpace(req.Content) == "" {
		return graph.Artifact{}, graph.ErrInvalidInput
	}

	// Updates are totally ordered; the last to finish is the one served.
	if err := u.sem.Acquire(ctx, 1); err != nil {
		return graph.Artifact{}, graph.NewRenderError(fmt.Errorf("waiting for render slot: %w", err))
	}
	defer u.sem.Release(1)

	log := logger.WithComponent("updater")
	id := u.newID()
	inputPath := filepath.Join(u.opts.WorkDir, fmt.Sprintf("input_%s.mmd", id))
	outputPath := filepath.Join(u.opts.WorkDir, fmt.Sprintf("output_%s.png", id))

	if err := os.WriteFile(inputPath, []byte(req.Content), 0o644); err != nil {
		return graph.Artifact{}, fmt.Errorf("write input file: %w", err)
	}
	defer removeQuietly(inputPath)

	log.Infof("rendering %s (%d bytes)", id, len(req.Content))
	start := u.now()

	png, err := u.render(ctx, renderer.Job{ID: id, Source: req.Content, WorkDir: u.opts.WorkDir})
	if err != nil {
		removeQuietly(outputPath)
		log.Warnf("render %s failed: %v", id, err)
		return graph.Artifact{}, err
	}

	if err := os.WriteFile(outputPath, png, 0o644); err != nil {
		removeQuietly(outputPath)
		return graph.Artifact{}, fmt.Errorf("write output file: %w", err)
	}

	created := u.now()
	ts := req.Timestamp
	if ts == "" {
		ts = graph.FormatTimestamp(created)
	}
	a := graph.Artifact{
		Source:    req.Content,
		Timestamp: ts,
		CreatedAt: created,
		Path:      outputPath,
		Locator:   graph.Locator,
		FilePath:  req.FilePath,
	}

	if u.pub != nil {
		n := u.pub.Publish(graph.GraphUpdated(a), func() func() { return u.store.Install(a) })
		log.Debugf("graph_updated queued for %d subscribers", n)
	} else {
		u.store.Replace(a)
	}

	log.Infof("rendered %s in %v", id, created.Sub(start).Round(time.Millisecond))
	return a, nil
}

// render invokes the backend under the per-invocation budget.
func (u *Updater) render(ctx context.Context, job renderer.Job) ([]byte, error) {
	rctx, cancel := context.WithTimeout(ctx, u.opts.RenderTimeout)
	defer cancel()

	png, err := u.backend.Render(rctx, job)
	if err != nil {
		if errors.Is(rctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("render timed out after %v: %w", u.opts.RenderTimeout, err)
		}
		return nil, graph.NewRenderError(err)
	}
	if len(png) == 0 {
		return nil, graph.NewRenderError(errors.New("backend produced an empty image"))
	}
	return png, nil
}

func removeQuietly(path string) {
	if err := cache.RemoveFile(path); err != nil {
		logger.WithComponent("updater").Warnf("cannot remove working file %s: %v", path, err)
	}
}
