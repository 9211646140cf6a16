package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fieldops/fieldsync/internal/eventbus"
	"github.com/fieldops/fieldsync/pkg/storage"
)

// DebounceInterval coalesces the bursts of fsnotify events a single atomic
// write produces (temp file create + rename).
const DebounceInterval = 100 * time.Millisecond

// Watcher turns filesystem writes to the local store directory into
// KeyChanged events on the bus. This is the cross-context notification
// channel: another process (a second "tab") writing worker_tasks shows up
// here, and consumers re-read the key. The event carries no delta.
type Watcher struct {
	dir string
	bus *eventbus.Bus
}

// New creates a watcher for a local storage backend's directory.
func New(store *storage.LocalStorage, bus *eventbus.Bus) *Watcher {
	return &Watcher{dir: store.BasePath(), bus: bus}
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	slog.Info("store watcher started", "dir", w.dir)

	pending := make(map[string]struct{})
	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			slog.Info("store watcher stopped")
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
				continue
			}
			key, ok := storage.KeyFromFilename(event.Name)
			if !ok {
				continue
			}
			pending[key] = struct{}{}
			if debounce == nil {
				debounce = time.NewTimer(DebounceInterval)
			} else {
				debounce.Reset(DebounceInterval)
			}
			debounceC = debounce.C
		case <-debounceC:
			for key := range pending {
				w.bus.PublishNew(eventbus.EventKeyChanged, key, nil)
			}
			clear(pending)
			debounceC = nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("store watcher error", "error", err)
		}
	}
}
