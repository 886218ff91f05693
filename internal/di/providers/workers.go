package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/randomchars42/Sortingshop/internal/config"
	"github.com/randomchars42/Sortingshop/internal/logger"
	"github.com/randomchars42/Sortingshop/internal/tagset"
	"github.com/randomchars42/Sortingshop/internal/watcher"
)

// TagsetWatcherHandle wraps the tagset file watcher with shutdown capability.
type TagsetWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *TagsetWatcherHandle) Shutdown() error {
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideTagsetWatcher watches the tagset files. Tagsets are resolved once per
// session, so a change is only reported.
func ProvideTagsetWatcher(i do.Injector) (*TagsetWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i).Component("watcher")

	w, err := watcher.New(log, watcher.Options{})
	if err != nil {
		return nil, err
	}

	for _, path := range []string{cfg.Paths.Tagsets, tagset.LocalPath(cfg.Paths.WorkingDir)} {
		if path == "" {
			continue
		}
		if err := w.Watch(path); err != nil {
			log.Warn("cannot watch tagset file", "path", path, "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("Tagset watcher error", "error", err)
		}
	}()

	go func() {
		for {
			select {
			case event := <-w.Events():
				log.Warn("tagset file changed, restart the session to reload",
					"path", event.Path,
					"type", event.Type,
				)
			case err := <-w.Errors():
				log.Warn("tagset watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	return &TagsetWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}
