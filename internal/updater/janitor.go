package updater

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bassista/go_graphview/internal/cache"
	"github.com/bassista/go_graphview/internal/logger"
)

var workFilePrefixes = []string{"input_", "temp_", "output_"}

// StartJanitor runs a goroutine that periodically removes stale working files
// from workDir. The current artifact's file is never removed.
// Returns a channel that is closed when the janitor has stopped.
func StartJanitor(
	ctx context.Context,
	workDir string,
	store cache.ReadOnlyStore,
	interval, maxAge time.Duration,
) <-chan struct{} {
	done := make(chan struct{})
	log := logger.WithComponent("janitor")
	log.Debugf("starting janitor on %s with interval %v, max age %v", workDir, interval, maxAge)

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()

		// Leftovers of a previous process.
		Sweep(workDir, currentPath(store), maxAge, time.Now())
		for {
			select {
			case <-ctx.Done():
				log.Info("janitor stopped")
				return
			case now := <-ticker.C:
				log.Tracef("janitor tick")
				Sweep(workDir, currentPath(store), maxAge, now)
			}
		}
	}()
	return done
}

func currentPath(store cache.ReadOnlyStore) string {
	if store == nil {
		return ""
	}
	if a, ok := store.Get(); ok {
		return a.Path
	}
	return ""
}

// Sweep removes working files in dir older than maxAge, except keep.
// It returns the number of files removed.
func Sweep(dir, keep string, maxAge time.Duration, now time.Time) int {
	log := logger.WithComponent("janitor")
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warnf("cannot list %s: %v", dir, err)
		return 0
	}

	keepAbs := ""
	if keep != "" {
		keepAbs, _ = filepath.Abs(keep)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !isWorkFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if abs, _ := filepath.Abs(path); keepAbs != "" && abs == keepAbs {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := cache.RemoveFile(path); err != nil {
			log.Warnf("cannot remove %s: %v", path, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Infof("removed %d stale working files from %s", removed, dir)
	}
	return removed
}

func isWorkFile(name string) bool {
	for _, p := range workFilePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
