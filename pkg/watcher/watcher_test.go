package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanderheijden86/dndtree/pkg/loader"
	"github.com/vanderheijden86/dndtree/pkg/model"
)

const debounce = 50 * time.Millisecond

func startWatcher(t *testing.T, path string) *Watcher {
	t.Helper()
	w, err := New(path, debounce, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)
	return w
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestWatcherSignalsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	w := startWatcher(t, path)
	ch := w.Subscribe()
	assert.Equal(t, 1, w.SubscriberCount())

	require.NoError(t, os.WriteFile(path, []byte(`[{"key":"a"}]`), 0o644))
	waitSignal(t, ch)
}

func TestWatcherFollowsAtomicSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, loader.SaveTree(path, nil))

	w := startWatcher(t, path)
	ch := w.Subscribe()

	require.NoError(t, loader.SaveTree(path, []model.TreeNode{{Key: "a"}}))
	waitSignal(t, ch)

	// The watch survives the rename.
	require.NoError(t, loader.SaveTree(path, []model.TreeNode{{Key: "b"}}))
	waitSignal(t, ch)
}

func TestWatcherCoalescesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	w := startWatcher(t, path)
	ch := w.Subscribe()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
	}
	waitSignal(t, ch)

	select {
	case <-ch:
		t.Error("expected a single notification for one burst")
	case <-time.After(4 * debounce):
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	w := startWatcher(t, path)
	ch := w.Subscribe()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("[]"), 0o644))

	select {
	case <-ch:
		t.Error("unexpected notification for another file")
	case <-time.After(4 * debounce):
	}
}

func TestStopClosesSubscribers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	w, err := New(path, debounce, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	ch := w.Subscribe()

	w.Stop()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, w.SubscriberCount())
}

func TestStopWithoutStart(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "tree.json"), 0, nil)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(w.Path()))
	w.Stop()
}
