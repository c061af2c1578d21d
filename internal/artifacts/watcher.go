package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher follows a run's output directory and emits a fresh Summary after
// changes settle. Instance subdirectories are added to the watch as the
// external tool creates them, so trajectory writes inside them are seen too.
type Watcher struct {
	mu       sync.Mutex
	dir      string
	fsw      *fsnotify.Watcher
	updates  chan *Summary
	stopCh   chan struct{}
	doneCh   chan struct{}
	debounce time.Duration
	rootSeen bool
	watched  map[string]bool
	running  bool
	lastEvt  time.Time
	dirty    bool
}

// NewWatcher prepares a watcher over a run directory. The directory does not
// have to exist yet; the watcher picks it up once the external tool creates
// it.
func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	return &Watcher{
		dir:      dir,
		fsw:      fsw,
		updates:  make(chan *Summary, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		debounce: 500 * time.Millisecond,
		watched:  map[string]bool{},
	}, nil
}

// Updates delivers summaries as the directory changes. The channel keeps only
// the latest snapshot; slow consumers never block the watcher.
func (w *Watcher) Updates() <-chan *Summary {
	return w.updates
}

// Start performs the initial scan, emits it, and begins following events.
// Non-blocking; the event loop runs in its own goroutine until Stop or
// context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	summary, err := w.rescan()
	if err != nil {
		return err
	}
	w.emit(summary)

	go w.run(ctx)
	return nil
}

// Stop halts the event loop and releases the underlying watcher.
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
	w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}

		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addWatch(event.Name)
		}
	}
	w.mu.Lock()
	w.dirty = true
	w.lastEvt = time.Now()
	w.mu.Unlock()
}

// tick re-scans once events settle past the debounce window, and keeps
// trying to attach to a root directory that did not exist at Start.
func (w *Watcher) tick() {
	w.mu.Lock()
	rootSeen := w.rootSeen
	due := w.dirty && time.Since(w.lastEvt) >= w.debounce
	if due {
		w.dirty = false
	}
	w.mu.Unlock()

	if !rootSeen {
		if _, err := os.Stat(w.dir); err == nil {
			due = true
		}
	}
	if !due {
		return
	}

	summary, err := w.rescan()
	if err != nil {
		return
	}
	w.emit(summary)
}

// rescan walks the directory and refreshes which paths are watched.
func (w *Watcher) rescan() (*Summary, error) {
	summary, err := Scan(w.dir)
	if err != nil {
		return nil, err
	}

	if summary.Exists {
		w.mu.Lock()
		w.rootSeen = true
		w.mu.Unlock()
		w.addWatch(w.dir)
		for _, inst := range summary.Instances {
			w.addWatch(filepath.Dir(inst.TrajPath))
		}
	}
	return summary, nil
}

func (w *Watcher) addWatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[path] {
		return
	}
	if err := w.fsw.Add(path); err == nil {
		w.watched[path] = true
	}
}

// emit replaces any stale pending summary with the latest one.
func (w *Watcher) emit(summary *Summary) {
	for {
		select {
		case w.updates <- summary:
			return
		default:
			select {
			case <-w.updates:
			default:
			}
		}
	}
}
