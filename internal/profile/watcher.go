package profile

// #region imports
import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// #endregion

// #region watcher

// Watcher reloads the profile document when it changes on disk, so
// external edits (the commitment CLI, a text editor) land without
// restarting the daemon. A broken edit keeps the last good copy.
type Watcher struct {
	mu          sync.Mutex
	store       *FileStore
	watcher     *fsnotify.Watcher
	onReload    func(Profile)
	pendingAt   time.Time
	pending     bool
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher over the store's document. onReload fires
// with a snapshot after every successful reload; nil is allowed.
func NewWatcher(store *FileStore, onReload func(Profile)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		store:       store,
		watcher:     fsw,
		onReload:    onReload,
		debounceDur: 500 * time.Millisecond, // editors save in bursts
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// #endregion

// #region start-stop

// Start begins watching the profile's directory. Watching the directory
// rather than the file survives atomic replace-by-rename saves.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.store.Path())); err != nil {
		return err
	}
	log.Printf("[PROFILE] watching %s", w.store.Path())

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		log.Printf("[PROFILE] close watcher: %v", err)
	}
}

// #endregion

// #region event-loop

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	settle := time.NewTicker(100 * time.Millisecond)
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[PROFILE] watch error: %v", err)
		case <-settle.C:
			w.reloadSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.store.Path()) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	w.mu.Lock()
	w.pending = true
	w.pendingAt = time.Now()
	w.mu.Unlock()
}

// reloadSettled reloads once the change burst has been quiet for the
// debounce window.
func (w *Watcher) reloadSettled() {
	w.mu.Lock()
	due := w.pending && time.Since(w.pendingAt) >= w.debounceDur
	if due {
		w.pending = false
	}
	w.mu.Unlock()
	if !due {
		return
	}

	if err := w.store.Load(); err != nil {
		log.Printf("[PROFILE] reload failed, keeping last good copy: %v", err)
		return
	}
	log.Printf("[PROFILE] reloaded %s", w.store.Path())
	if w.onReload != nil {
		if p, ok := w.store.Get(); ok {
			w.onReload(p)
		}
	}
}

// #endregion
