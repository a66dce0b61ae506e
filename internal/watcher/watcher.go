// Package watcher pushes edits of a diagram source file to a callback.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bassista/go_graphview/internal/logger"
	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 200 * time.Millisecond

// OnChange receives the new file content after a debounced change.
type OnChange func(ctx context.Context, content string)

// FileWatcher watches a single diagram source file.
type FileWatcher struct {
	path     string
	dir      string
	base     string
	debounce time.Duration

	mu   sync.Mutex
	last string
}

// New creates a watcher for path. A non-positive debounce uses DefaultDebounce.
func New(path string, debounce time.Duration) (*FileWatcher, error) {
	if path == "" {
		return nil, errors.New("watch path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FileWatcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		base:     filepath.Base(abs),
		debounce: debounce,
	}, nil
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string { return w.path }

// Read returns the current file content.
func (w *FileWatcher) Read() (string, error) {
	b, err := os.ReadFile(w.path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Start listens for changes to the file and calls onChange after debounce.
// It watches the parent directory (not the file) so atomic replace sequences (temp+rename)
// are still observed. Events are filtered by basename and debounced to coalesce
// write+chmod/rename bursts. Content identical to the last delivered one is skipped.
// Cancel ctx to stop the goroutine and close the watcher.
func (w *FileWatcher) Start(ctx context.Context, onChange OnChange) error {
	if onChange == nil {
		return errors.New("onChange callback is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	log := logger.WithComponent("watcher")
	log.Infof("watching %s", w.path)

	go func() {
		defer fsw.Close()

		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.debounce, func() { w.fire(ctx, onChange) })
		}
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				log.Debugf("stopped watching %s", w.path)
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != w.base {
					continue
				}
				// Remove/Rename are followed by a Create on atomic replace; the read decides.
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Warnf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// fire reads the file and hands changed content to onChange. Calls are serialized.
func (w *FileWatcher) fire(ctx context.Context, onChange OnChange) {
	if ctx.Err() != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	content, err := w.Read()
	if err != nil {
		logger.WithComponent("watcher").Debugf("cannot read %s: %v", w.path, err)
		return
	}
	if content == w.last {
		return
	}
	w.last = content
	onChange(ctx, content)
}
