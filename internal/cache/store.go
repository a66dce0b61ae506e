package cache

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/bassista/go_graphview/internal/graph"
	"github.com/bassista/go_graphview/internal/logger"
)

// ReleaseFunc frees the backing storage of a superseded artifact.
type ReleaseFunc func(path string) error

// RemoveFile is the default ReleaseFunc. A file that is already gone is not an error.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Store holds at most one current artifact.
// Reads are lock-free; installs are serialized and release always follows install.
type Store struct {
	current atomic.Pointer[graph.Artifact]
	writeMu sync.Mutex
	release ReleaseFunc
}

// NewStore creates an empty store. A nil release defaults to RemoveFile.
func NewStore(release ReleaseFunc) *Store {
	if release == nil {
		release = RemoveFile
	}
	return &Store{release: release}
}

// Get returns a copy of the current artifact, if any.
func (s *Store) Get() (graph.Artifact, bool) {
	p := s.current.Load()
	if p == nil {
		return graph.Artifact{}, false
	}
	return *p, true
}

// Replace installs a as the current artifact, then releases the previous
// artifact's backing file unless it is the one being installed.
func (s *Store) Replace(a graph.Artifact) {
	s.Install(a)()
}

// Install swaps a in and returns the release of the superseded backing file
// without running it. Callers holding their own locks run it after unlocking.
// The returned func is never nil.
func (s *Store) Install(a graph.Artifact) (release func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	installed := a
	old := s.current.Swap(&installed)
	logger.WithComponent("cache").Debugf("installed artifact %s", a.Path)

	if old == nil || old.Path == "" || old.Path == a.Path {
		return func() {}
	}
	oldPath := old.Path
	return func() { s.releasePath(oldPath) }
}

// Clear empties the slot and releases the current backing file.
func (s *Store) Clear() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	old := s.current.Swap(nil)
	if old == nil || old.Path == "" {
		return
	}
	s.releasePath(old.Path)
}

func (s *Store) releasePath(path string) {
	if err := s.release(path); err != nil {
		logger.WithComponent("cache").Warnf("cannot release artifact %s: %v", path, err)
		return
	}
	logger.WithComponent("cache").Debugf("released artifact %s", path)
}
