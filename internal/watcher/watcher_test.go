package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	contents []string
}

func (r *recorder) onChange(_ context.Context, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contents = append(r.contents, content)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.contents...)
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", 0)
	assert.Error(t, err)

	w, err := New("diagram.mmd", 0)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(w.Path()))
	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestStart_RequiresCallback(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "d.mmd"), 0)
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background(), nil))
}

func TestStart_MissingDir(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing", "d.mmd"), 0)
	require.NoError(t, err)
	rec := &recorder{}
	assert.Error(t, w.Start(context.Background(), rec.onChange))
}

func TestStart_DebouncesAndDeliversContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.mmd")
	w, err := New(path, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{}
	require.NoError(t, w.Start(ctx, rec.onChange))

	require.NoError(t, os.WriteFile(path, []byte("graph TD; A"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("graph TD; A-->B"), 0o644))

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"graph TD; A-->B"}, rec.snapshot())

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.mmd"), []byte("x"), 0o644))
	// Rewriting identical content is not a change.
	require.NoError(t, os.WriteFile(path, []byte("graph TD; A-->B"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestStart_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.mmd")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w, err := New(path, 50*time.Millisecond)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{}
	require.NoError(t, w.Start(ctx, rec.onChange))

	tmp := filepath.Join(dir, ".system.mmd.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("v2"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		s := rec.snapshot()
		return len(s) > 0 && s[len(s)-1] == "v2"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStart_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.mmd")
	w, err := New(path, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	require.NoError(t, w.Start(ctx, rec.onChange))
	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("late"), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
