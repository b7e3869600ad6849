package asset

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when using a closed watcher.
var ErrWatcherClosed = errors.New("watcher closed")

// Reload reports that a named asset's file changed and now loads to a new handle.
type Reload struct {
	Entry Entry
	Path  string
	Old   Handle
	New   Handle
}

// Watcher reloads manifest assets when their files change on disk.
// Reloaded content gets a new handle; old assets stay in the store until the
// host removes them, so entities that still reference them keep rendering.
type Watcher struct {
	mu sync.Mutex

	store   *Store
	watcher *fsnotify.Watcher
	files   map[string][]Entry
	current map[Entry]Handle

	debounce time.Duration
	pending  map[string]time.Time

	reloads chan Reload
	errors  chan error

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long a file must be quiet before it is reloaded.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// NewWatcher watches the directories of every file in the catalog.
func NewWatcher(store *Store, cat *Catalog, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		store:    store,
		watcher:  fsw,
		files:    make(map[string][]Entry, len(cat.Files)),
		current:  make(map[Entry]Handle),
		debounce: 50 * time.Millisecond,
		pending:  make(map[string]time.Time),
		reloads:  make(chan Reload, 16),
		errors:   make(chan error, 16),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]bool)
	for path, entries := range cat.Files {
		w.files[path] = entries
		for _, e := range entries {
			if h, ok := cat.Lookup(e); ok {
				w.current[e] = h
			}
		}
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	w.closedWg.Add(1)
	go w.processLoop()
	return w, nil
}

// Reloads returns the channel of successful reloads.
func (w *Watcher) Reloads() <-chan Reload {
	return w.reloads
}

// Errors returns the channel of reload failures.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.closedWg.Wait()
	close(w.reloads)
	close(w.errors)
	return err
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	tick := time.NewTicker(w.tickInterval())
	defer tick.Stop()

	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		case now := <-tick.C:
			w.flushPending(now)
		}
	}
}

func (w *Watcher) tickInterval() time.Duration {
	if w.debounce <= 0 {
		return 10 * time.Millisecond
	}
	return w.debounce / 2
}

func (w *Watcher) handleFSEvent(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return
	}
	path, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; ok {
		w.pending[path] = time.Now()
	}
}

func (w *Watcher) flushPending(now time.Time) {
	w.mu.Lock()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.reload(path)
	}
}

func (w *Watcher) reload(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.sendError(&LoadError{Path: path, Err: err})
		return
	}

	w.mu.Lock()
	entries := w.files[path]
	w.mu.Unlock()

	for _, e := range entries {
		h, err := w.store.Load(e.Kind, data)
		if err != nil {
			if le, ok := err.(*LoadError); ok {
				le.Path = path
			}
			w.sendError(err)
			continue
		}

		w.mu.Lock()
		old := w.current[e]
		w.current[e] = h
		w.mu.Unlock()

		if old == h {
			continue
		}
		select {
		case w.reloads <- Reload{Entry: e, Path: path, Old: old, New: h}:
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}
