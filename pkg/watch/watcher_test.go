package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/oometrics/pkg/config"
)

func newTestWatcher(t *testing.T, root string, onChange ChangeFunc, opts ...Option) *Watcher {
	t.Helper()
	opts = append([]Option{WithOutput(&bytes.Buffer{})}, opts...)
	w, err := NewWatcher(root, config.DefaultConfig(), onChange, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func TestNewWatcher(t *testing.T) {
	dir := t.TempDir()

	w := newTestWatcher(t, dir, nil)
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.Equal(t, dir, w.root)
	assert.NotNil(t, w.pending)

	w = newTestWatcher(t, dir, nil, WithDebounce(time.Second))
	assert.Equal(t, time.Second, w.debounce)

	w = newTestWatcher(t, dir, nil, WithDebounce(-time.Second))
	assert.Equal(t, DefaultDebounce, w.debounce)

	nilCfg, err := NewWatcher(dir, nil, nil)
	require.NoError(t, err)
	defer nilCfg.Stop()
	assert.NotNil(t, nilCfg.config)
}

func TestHandleEvent(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, nil)

	tests := []struct {
		name    string
		event   fsnotify.Event
		pending bool
	}{
		{"java write", fsnotify.Event{Name: filepath.Join(dir, "A.java"), Op: fsnotify.Write}, true},
		{"java remove", fsnotify.Event{Name: filepath.Join(dir, "B.java"), Op: fsnotify.Remove}, true},
		{"java chmod", fsnotify.Event{Name: filepath.Join(dir, "C.java"), Op: fsnotify.Chmod}, false},
		{"non java", fsnotify.Event{Name: filepath.Join(dir, "notes.md"), Op: fsnotify.Write}, false},
		{"excluded dir", fsnotify.Event{Name: filepath.Join(dir, "target", "D.java"), Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.handleEvent(tt.event)
			w.mu.Lock()
			_, ok := w.pending[tt.event.Name]
			w.mu.Unlock()
			assert.Equal(t, tt.pending, ok)
		})
	}
}

func TestHandleEvent_NewDirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, nil)

	sub := filepath.Join(dir, "src", "main")
	require.NoError(t, os.MkdirAll(sub, 0755))
	w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "src"), Op: fsnotify.Create})

	assert.Contains(t, w.WatchedDirs(), sub)
}

func TestReadyRespectsDebounce(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), nil, WithDebounce(time.Minute))
	now := time.Now()
	w.pending["B.java"] = now.Add(-2 * time.Minute)
	w.pending["A.java"] = now.Add(-90 * time.Second)
	w.pending["C.java"] = now

	assert.Equal(t, []string{"A.java", "B.java"}, w.ready(now))
	assert.Len(t, w.pending, 1, "fresh changes stay pending")
	assert.Empty(t, w.ready(now))
}

func TestProcessPendingBatchesCallback(t *testing.T) {
	dir := t.TempDir()
	var got [][]string
	w := newTestWatcher(t, dir, func(paths []string) { got = append(got, paths) }, WithDebounce(time.Millisecond))

	old := time.Now().Add(-time.Second)
	w.pending[filepath.Join(dir, "B.java")] = old
	w.pending[filepath.Join(dir, "A.java")] = old

	w.processPending()
	require.Len(t, got, 1)
	assert.Equal(t, []string{filepath.Join(dir, "A.java"), filepath.Join(dir, "B.java")}, got[0])

	w.processPending()
	assert.Len(t, got, 1, "nothing pending, no callback")
}

func TestStart_ExcludesDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "target", "classes"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))

	w := newTestWatcher(t, dir, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool { return len(w.WatchedDirs()) >= 2 }, 2*time.Second, 10*time.Millisecond)
	for _, p := range w.WatchedDirs() {
		assert.NotEqual(t, "target", filepath.Base(p))
		assert.NotEqual(t, "classes", filepath.Base(p))
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestStart_FileChange(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var changed []string
	w := newTestWatcher(t, dir, func(paths []string) {
		mu.Lock()
		changed = append(changed, paths...)
		mu.Unlock()
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()
	require.Eventually(t, func() bool { return len(w.WatchedDirs()) == 1 }, 2*time.Second, 10*time.Millisecond)

	file := filepath.Join(dir, "Order.java")
	require.NoError(t, os.WriteFile(file, []byte("class Order {}"), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changed) > 0 && changed[0] == file
	}, 3*time.Second, 20*time.Millisecond)
}
