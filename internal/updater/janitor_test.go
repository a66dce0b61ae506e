package updater

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bassista/go_graphview/internal/cache"
	"github.com/bassista/go_graphview/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	mt := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mt, mt))
	return path
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "input_old.mmd", time.Hour)
	touch(t, dir, "temp_old.html", time.Hour)
	touch(t, dir, "output_old.png", time.Hour)
	keep := touch(t, dir, "output_current.png", time.Hour)
	touch(t, dir, "input_fresh.mmd", time.Second)
	touch(t, dir, "notes.txt", time.Hour)

	removed := Sweep(dir, keep, 30*time.Minute, time.Now())

	assert.Equal(t, 3, removed)
	assert.ElementsMatch(t, []string{"output_current.png", "input_fresh.mmd", "notes.txt"}, listDir(t, dir))
}

func TestSweep_MissingDir(t *testing.T) {
	assert.Equal(t, 0, Sweep(filepath.Join(t.TempDir(), "nope"), "", time.Minute, time.Now()))
}

func TestStartJanitor_SweepsAndStops(t *testing.T) {
	dir := t.TempDir()
	store := cache.NewStore(nil)
	current := touch(t, dir, "output_current.png", time.Hour)
	store.Replace(graph.Artifact{Path: current, Locator: graph.Locator})
	touch(t, dir, "temp_crashed.html", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := StartJanitor(ctx, dir, store, 10*time.Millisecond, time.Minute)

	require.Eventually(t, func() bool {
		return len(listDir(t, dir)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"output_current.png"}, listDir(t, dir))

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
