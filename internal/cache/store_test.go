package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bassista/go_graphview/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRelease records released paths instead of touching the filesystem.
type recordingRelease struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recordingRelease) release(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return r.err
}

func (r *recordingRelease) released() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func artifact(n int) graph.Artifact {
	return graph.Artifact{
		Source:    fmt.Sprintf("graph TD; A%d-->B", n),
		Timestamp: fmt.Sprintf("ts-%d", n),
		Path:      fmt.Sprintf("/tmp/output_%d.png", n),
		Locator:   graph.Locator,
	}
}

func TestStore_EmptyAtStart(t *testing.T) {
	s := NewStore(nil)
	_, ok := s.Get()
	assert.False(t, ok)
}

func TestStore_ReplaceThenGet(t *testing.T) {
	rec := &recordingRelease{}
	s := NewStore(rec.release)

	s.Replace(artifact(1))

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, artifact(1), got)
	assert.Empty(t, rec.released(), "first install has nothing to release")
}

func TestStore_ReplaceReleasesPrevious(t *testing.T) {
	rec := &recordingRelease{}
	s := NewStore(rec.release)

	s.Replace(artifact(1))
	s.Replace(artifact(2))

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, artifact(2), got)
	assert.Equal(t, []string{"/tmp/output_1.png"}, rec.released())
}

func TestStore_ReplaceSamePathDoesNotRelease(t *testing.T) {
	rec := &recordingRelease{}
	s := NewStore(rec.release)

	a := artifact(1)
	s.Replace(a)
	a.Source = "graph LR; X-->Y"
	s.Replace(a)

	got, _ := s.Get()
	assert.Equal(t, "graph LR; X-->Y", got.Source)
	assert.Empty(t, rec.released())
}

func TestStore_LastWriteWins(t *testing.T) {
	rec := &recordingRelease{}
	s := NewStore(rec.release)

	for i := 1; i <= 10; i++ {
		s.Replace(artifact(i))
	}

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, artifact(10), got)
	assert.Len(t, rec.released(), 9)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore(func(string) error { return nil })
	s.Replace(artifact(1))

	got, _ := s.Get()
	got.Source = "mutated"

	again, _ := s.Get()
	assert.Equal(t, artifact(1).Source, again.Source)
}

func TestStore_ReleaseErrorIsSwallowed(t *testing.T) {
	rec := &recordingRelease{err: errors.New("permission denied")}
	s := NewStore(rec.release)

	s.Replace(artifact(1))
	s.Replace(artifact(2))

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, artifact(2), got)
}

func TestStore_Clear(t *testing.T) {
	rec := &recordingRelease{}
	s := NewStore(rec.release)

	s.Clear()
	assert.Empty(t, rec.released(), "clearing an empty slot releases nothing")

	s.Replace(artifact(1))
	s.Clear()

	_, ok := s.Get()
	assert.False(t, ok)
	assert.Equal(t, []string{"/tmp/output_1.png"}, rec.released())
}

func TestStore_InstallDefersRelease(t *testing.T) {
	rec := &recordingRelease{}
	s := NewStore(rec.release)

	s.Install(artifact(1))()
	release := s.Install(artifact(2))

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, artifact(2), got, "new artifact is visible before release runs")
	assert.Empty(t, rec.released())

	release()
	assert.Equal(t, []string{"/tmp/output_1.png"}, rec.released())

	// Same backing file: nothing to release, but the func is still callable.
	s.Install(artifact(2))()
	assert.Len(t, rec.released(), 1)
}

func TestStore_RemoveFileDeletesOnDisk(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "output_1.png")
	second := filepath.Join(dir, "output_2.png")
	require.NoError(t, os.WriteFile(first, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("two"), 0o644))

	s := NewStore(nil)
	s.Replace(graph.Artifact{Path: first})
	s.Replace(graph.Artifact{Path: second})

	_, err := os.Stat(first)
	assert.True(t, os.IsNotExist(err), "superseded file should be removed")
	_, err = os.Stat(second)
	assert.NoError(t, err, "installed file must survive")
}

func TestRemoveFile_MissingIsNotAnError(t *testing.T) {
	assert.NoError(t, RemoveFile(filepath.Join(t.TempDir(), "missing.png")))
}

func TestStore_ConcurrentReadersNeverSeeMixedState(t *testing.T) {
	s := NewStore(func(string) error { return nil })
	s.Replace(artifact(0))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan string, 1)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				a, ok := s.Get()
				if !ok {
					select {
					case errs <- "slot observed empty between two valid states":
					default:
					}
					return
				}
				var n int
				if _, err := fmt.Sscanf(a.Timestamp, "ts-%d", &n); err != nil || a.Path != fmt.Sprintf("/tmp/output_%d.png", n) {
					select {
					case errs <- fmt.Sprintf("mixed artifact observed: %+v", a):
					default:
					}
					return
				}
			}
		}()
	}

	for i := 1; i <= 500; i++ {
		s.Replace(artifact(i))
	}
	close(stop)
	wg.Wait()

	select {
	case msg := <-errs:
		t.Fatal(msg)
	default:
	}
}
