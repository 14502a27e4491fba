package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "removed", Removed.String())
	assert.Equal(t, "unknown", Op(42).String())
}

// waitFor reads events until one matches path and op or the timeout expires.
func waitFor(t *testing.T, w *Watcher, path string, op Op) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Path == path && ev.Op == op {
				return ev
			}
		case err := <-w.Errors():
			t.Fatalf("watcher error: %v", err)
		case <-timeout:
			t.Fatalf("timed out waiting for %s %s", op, path)
		}
	}
}

func TestWatcher_CreateAndRemove(t *testing.T) {
	v := newTestVault(t, map[string]string{"existing/keep.md": ""})
	w, err := NewWatcher(v)
	require.NoError(t, err)
	defer w.Close()

	abs := filepath.Join(v.Root(), "existing", "photo.png")
	require.NoError(t, os.WriteFile(abs, []byte("png"), 0644))
	ev := waitFor(t, w, "existing/photo.png", Created)
	assert.False(t, ev.Timestamp.IsZero())

	require.NoError(t, os.Remove(abs))
	waitFor(t, w, "existing/photo.png", Removed)
}

func TestWatcher_NewFolderIsWatchedAndAnnounced(t *testing.T) {
	v := newTestVault(t, nil)
	w, err := NewWatcher(v)
	require.NoError(t, err)
	defer w.Close()

	// A folder moved in with content already inside.
	staging := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staging, "scan.pdf"), nil, 0644))
	require.NoError(t, os.Rename(staging, filepath.Join(v.Root(), "incoming")))
	waitFor(t, w, "incoming/scan.pdf", Created)

	// Files added later in the new folder are seen too.
	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), "incoming", "late.png"), nil, 0644))
	waitFor(t, w, "incoming/late.png", Created)
}

func TestWatcher_BurstLargerThanBufferIsDelivered(t *testing.T) {
	v := newTestVault(t, nil)
	w, err := NewWatcher(v)
	require.NoError(t, err)
	defer w.Close()

	const n = 400
	want := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("img%03d.png", i)
		want[name] = true
		require.NoError(t, os.WriteFile(filepath.Join(v.Root(), name), []byte("png"), 0644))
	}

	seen := make(map[string]bool, n)
	timeout := time.After(10 * time.Second)
	for len(seen) < n {
		select {
		case ev := <-w.Events():
			if ev.Op == Created && want[ev.Path] {
				seen[ev.Path] = true
			}
		case err := <-w.Errors():
			t.Fatalf("watcher error: %v", err)
		case <-timeout:
			t.Fatalf("received %d of %d created events", len(seen), n)
		}
	}
	assert.Len(t, seen, n)
}

func TestWatcher_IgnoresHidden(t *testing.T) {
	v := newTestVault(t, map[string]string{".binmeta/config.yaml": ""})
	w, err := NewWatcher(v)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), ".binmeta", "binary-file-list.txt"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), ".dotfile.png"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), "visible.png"), nil, 0644))

	ev := waitFor(t, w, "visible.png", Created)
	assert.Equal(t, "visible.png", ev.Path)

	select {
	case extra := <-w.Events():
		assert.NotContains(t, extra.Path, ".binmeta")
		assert.NotEqual(t, ".dotfile.png", extra.Path)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	v := newTestVault(t, nil)
	w, err := NewWatcher(v)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
