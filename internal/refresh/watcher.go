package refresh

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher refreshes local sources on change. fsnotify watches
// each target's parent directory, so a file swapped in by rename
// is still seen; events for other files in that directory are
// ignored. A change fires once it has been quiet for debounce.
type Watcher struct {
	onChange func(paths []string)
	fsw      *fsnotify.Watcher
	debounce time.Duration
	targets  map[string]bool
	pending  map[string]time.Time
	mu       gosync.Mutex
	stop     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce gosync.Once
	now      func() time.Time
}

// NewWatcher returns a stopped watcher; call Start, then
// WatchFile for each source file.
func NewWatcher(
	debounce time.Duration, onChange func(paths []string),
) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is nil: %w", os.ErrInvalid)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		onChange: onChange,
		fsw:      fsw,
		debounce: debounce,
		targets:  make(map[string]bool),
		pending:  make(map[string]time.Time),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}, nil
}

// WatchFile registers path as a refresh target.
func (w *Watcher) WatchFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.mu.Lock()
	w.targets[abs] = true
	w.mu.Unlock()
	return nil
}

// Start runs the event loop in a goroutine.
func (w *Watcher) Start() {
	if w.started.Swap(true) {
		return
	}
	go w.run()
}

// Stop ends the event loop and releases the fsnotify handle.
// It is safe to call more than once, and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		if w.started.Load() {
			<-w.done
		}
		if w.fsw != nil {
			w.fsw.Close()
		}
	})
}

func (w *Watcher) run() {
	defer close(w.done)
	tick := time.NewTicker(w.debounce)
	defer tick.Stop()

	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		case <-tick.C:
			w.fireSettled()
		}
	}
}

// handleEvent marks a target as changed. Chmod and Remove are
// ignored: a removed file has nothing to reload.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Clean(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.targets[name] {
		w.pending[name] = w.now()
	}
}

// settled removes and returns targets quiet for at least debounce.
func (w *Watcher) settled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	var out []string
	for path, at := range w.pending {
		if now.Sub(at) < w.debounce {
			continue
		}
		out = append(out, path)
		delete(w.pending, path)
	}
	return out
}

func (w *Watcher) fireSettled() {
	paths := w.settled()
	if len(paths) == 0 {
		return
	}
	log.Printf("watcher: %s changed, refreshing",
		strings.Join(paths, ", "))
	w.onChange(paths)
}
