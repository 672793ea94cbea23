package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the source watcher:
// - New fails for a missing root
// - A single .py change fires the callback after the debounce period
// - Rapid changes are coalesced into one sorted, de-duplicated batch
// - Non-Python files and __pycache__ contents don't fire
// - New directories are watched recursively
// - Pause accumulates changes and Resume delivers them
// - Stop is idempotent and works without Start

const testDebounce = 100 * time.Millisecond

func startWatcher(t *testing.T, root string) (Watcher, <-chan []string) {
	t.Helper()

	w, err := New([]string{root}, WithDebounce(testDebounce))
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	batches := make(chan []string, 10)
	require.NoError(t, w.Start(context.Background(), func(files []string) {
		batches <- files
	}))
	// let fsnotify settle
	time.Sleep(50 * time.Millisecond)
	return w, batches
}

func waitBatch(t *testing.T, batches <-chan []string) []string {
	t.Helper()
	select {
	case files := <-batches:
		return files
	case <-time.After(3 * time.Second):
		t.Fatal("callback not called before timeout")
		return nil
	}
}

func assertNoBatch(t *testing.T, batches <-chan []string, wait time.Duration) {
	t.Helper()
	select {
	case files := <-batches:
		t.Fatalf("unexpected callback with %v", files)
	case <-time.After(wait):
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNew_MissingRoot(t *testing.T) {
	t.Parallel()

	w, err := New([]string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestWatcher_SingleChange(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, batches := startWatcher(t, root)

	file := filepath.Join(root, "client.py")
	write(t, file, "x = 1\n")

	assert.Equal(t, []string{file}, waitBatch(t, batches))
}

func TestWatcher_CoalescesChanges(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, batches := startWatcher(t, root)

	b := filepath.Join(root, "b.py")
	a := filepath.Join(root, "a.py")
	write(t, b, "v = 1\n")
	time.Sleep(20 * time.Millisecond)
	write(t, a, "v = 1\n")
	time.Sleep(20 * time.Millisecond)
	write(t, b, "v = 2\n")

	assert.Equal(t, []string{a, b}, waitBatch(t, batches))
	assertNoBatch(t, batches, 3*testDebounce)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cache := filepath.Join(root, "__pycache__")
	require.NoError(t, os.MkdirAll(cache, 0755))
	_, batches := startWatcher(t, root)

	write(t, filepath.Join(root, "README.md"), "# docs\n")
	write(t, filepath.Join(root, "api.json"), "{}")
	write(t, filepath.Join(cache, "mod.py"), "")

	assertNoBatch(t, batches, 4*testDebounce)
}

func TestWatcher_NewDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, batches := startWatcher(t, root)

	pkg := filepath.Join(root, "pkg")
	require.NoError(t, os.MkdirAll(pkg, 0755))
	// the directory create is not a source change
	assertNoBatch(t, batches, 3*testDebounce)

	file := filepath.Join(pkg, "__init__.py")
	write(t, file, "")
	assert.Contains(t, waitBatch(t, batches), file)
}

func TestWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w, batches := startWatcher(t, root)

	w.Pause()
	file := filepath.Join(root, "paused.py")
	write(t, file, "")
	assertNoBatch(t, batches, 4*testDebounce)

	w.Resume()
	assert.Equal(t, []string{file}, waitBatch(t, batches))
}

func TestWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	w, err := New([]string{t.TempDir()})
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
