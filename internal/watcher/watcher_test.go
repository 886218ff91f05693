package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomchars42/Sortingshop/internal/logger"
)

func startWatcher(t *testing.T, paths ...string) *Watcher {
	t.Helper()
	w, err := New(logger.Discard().Logger, Options{SettleDelay: 20 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	for _, path := range paths {
		require.NoError(t, w.Watch(path))
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Start(ctx) //nolint:errcheck // Test goroutine
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case event := <-w.Events():
		return event
	case err := <-w.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestNew(t *testing.T) {
	w, err := New(logger.Discard().Logger, Options{})
	require.NoError(t, err)
	require.NotNil(t, w)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop(), "Stop should be idempotent")
}

func TestWatcher_Watch_MissingDirectory(t *testing.T) {
	w, err := New(logger.Discard().Logger, Options{})
	require.NoError(t, err)
	defer w.Stop() //nolint:errcheck // Test cleanup

	err = w.Watch(filepath.Join(t.TempDir(), "missing", "tagsets"))
	assert.Error(t, err)
}

func TestWatcher_FileModified(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tagsets")
	require.NoError(t, os.WriteFile(path, []byte("we Family\n"), 0o644))

	w := startWatcher(t, path)
	require.NoError(t, os.WriteFile(path, []byte("we Family,Event\n"), 0o644))

	event := waitEvent(t, w)
	assert.Equal(t, EventModified, event.Type)
	assert.Equal(t, path, event.Path)
	assert.False(t, event.ModTime.IsZero())
}

func TestWatcher_FileCreatedLater(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tagsets")

	w := startWatcher(t, path)
	require.NoError(t, os.WriteFile(path, []byte("we Family\n"), 0o644))

	event := waitEvent(t, w)
	assert.Equal(t, EventModified, event.Type)
	assert.Equal(t, path, event.Path)
}

func TestWatcher_FileRemoved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tagsets")
	require.NoError(t, os.WriteFile(path, []byte("we Family\n"), 0o644))

	w := startWatcher(t, path)
	require.NoError(t, os.Remove(path))

	event := waitEvent(t, w)
	assert.Equal(t, EventRemoved, event.Type)
	assert.Equal(t, path, event.Path)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tagsets")

	w := startWatcher(t, path)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "IMG_0001.jpg"), []byte("x"), 0o644))

	select {
	case event := <-w.Events():
		t.Fatalf("unexpected event: %+v", event)
	case <-time.After(200 * time.Millisecond):
	}
}
