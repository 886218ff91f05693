// Package watcher reports changes of individual files, such as the tagset
// files a session was started with.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a set of files. Editors often replace a file instead of
// writing it in place, so the parent directories are watched and events are
// filtered down to the registered files.
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	files   map[string]bool        // watched file paths
	pending map[string]*time.Timer // path -> settle timer
	mu      sync.Mutex             // protects files and pending

	events   chan Event
	errors   chan error
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new file watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		watcher: fsw,
		files:   make(map[string]bool),
		pending: make(map[string]*time.Timer),
		events:  make(chan Event, 16),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
	}, nil
}

// Watch registers a file. The file itself may not exist yet, but its
// directory must.
func (w *Watcher) Watch(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.mu.Lock()
	w.files[path] = true
	w.mu.Unlock()

	w.logger.Debug("watching file", "path", path)
	return nil
}

// Start begins watching for events.
// This method blocks until the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	go w.processEvents(ctx)

	select {
	case <-ctx.Done():
	case <-w.done:
	}
	return nil
}

// processEvents processes fsnotify events
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("dropping watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	watched := w.files[path]
	w.mu.Unlock()
	if !watched {
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.settle(path)
	}
}

// settle (re)starts the timer after which the file's state is reported.
func (w *Watcher) settle(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.opts.SettleDelay, func() {
		w.emitSettled(path)
	})
}

// emitSettled reports the file as modified if it exists, removed otherwise.
func (w *Watcher) emitSettled(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()

	event := Event{Type: EventRemoved, Path: path}
	if info, err := os.Stat(path); err == nil {
		event = Event{Type: EventModified, Path: path, ModTime: info.ModTime()}
	}

	select {
	case w.events <- event:
	case <-w.done:
	}
}

// Events returns the channel for receiving file events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel for receiving errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, timer := range w.pending {
			timer.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()

		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
