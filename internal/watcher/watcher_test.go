package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"careeros/internal/config"
	"careeros/internal/errors"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func watchConfig() config.WatchConfig {
	return config.WatchConfig{DebounceDelay: 50 * time.Millisecond, Extensions: []string{".pdf"}}
}

// startWatcher runs a watcher over dir and reports every handled path on the returned channel
func startWatcher(t *testing.T, dir string) <-chan string {
	t.Helper()

	handled := make(chan string, 8)
	w, err := New(dir, watchConfig(), func(_ context.Context, path string) error {
		handled <- filepath.Base(path)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return handled
}

func waitFor(t *testing.T, handled <-chan string) string {
	t.Helper()
	select {
	case name := <-handled:
		return name
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the watcher")
		return ""
	}
}

func assertQuiet(t *testing.T, handled <-chan string) {
	t.Helper()
	select {
	case name := <-handled:
		t.Fatalf("unexpected file handled: %s", name)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherHandlesNewResume(t *testing.T) {
	dir := t.TempDir()
	handled := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resume.pdf"), []byte("%PDF"), 0600))

	assert.Equal(t, "resume.pdf", waitFor(t, handled))
	assertQuiet(t, handled)
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	handled := startWatcher(t, dir)

	path := filepath.Join(dir, "cv.PDF")
	f, err := os.Create(path)
	require.NoError(t, err)
	for range 5 {
		_, err := f.WriteString("chunk")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	assert.Equal(t, "cv.PDF", waitFor(t, handled))
	assertQuiet(t, handled)
}

func TestWatcherKeepsRunningAfterHandlerError(t *testing.T) {
	dir := t.TempDir()
	calls := make(chan string, 4)

	w, err := New(dir, watchConfig(), func(_ context.Context, path string) error {
		calls <- filepath.Base(path)
		return errors.NewNetworkError(errors.ErrCodeRequestFailed, "service down", nil)
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("a"), 0600))
	assert.Equal(t, "a.pdf", waitFor(t, calls))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("b"), 0600))
	assert.Equal(t, "b.pdf", waitFor(t, calls))
}

func TestNewRejectsBadDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	_, err := New(filepath.Join(dir, "missing"), watchConfig(), nil, nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))

	_, err = New(file, watchConfig(), nil, nil)
	assert.True(t, errors.HasCode(err, "INVALID_WATCH_DIR"))
}

func TestShouldProcessEvent(t *testing.T) {
	w := &Watcher{extensions: []string{".pdf"}}

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{"create pdf", fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Create}, true},
		{"write pdf", fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Write}, true},
		{"upper case extension", fsnotify.Event{Name: "/in/A.PDF", Op: fsnotify.Create}, true},
		{"remove pdf", fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Remove}, false},
		{"rename away", fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Rename}, false},
		{"chmod", fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Chmod}, false},
		{"other extension", fsnotify.Event{Name: "/in/a.docx", Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, w.shouldProcessEvent(tt.event))
		})
	}
}
