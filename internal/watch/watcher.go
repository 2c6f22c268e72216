// Package watch reloads curricula when their files change on disk.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ShayCichocki/curricula/internal/logging"
	"github.com/ShayCichocki/curricula/pkg/models"
)

// Reloader installs or drops curricula by file.
type Reloader interface {
	Reload(path string) (string, error)
	Remove(brain string) bool
}

// Event reports the outcome of handling one changed curriculum file.
type Event struct {
	Brain   string
	Path    string
	Removed bool
	Err     error
}

// Watcher monitors a curriculum folder and applies changes to a Reloader.
type Watcher struct {
	dir      string
	target   Reloader
	debounce time.Duration
	logger   logging.Logger

	watcher *fsnotify.Watcher
	events  chan Event
	fire    chan string
	done    chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// New starts watching dir. Changes to a file are applied once no further
// change to it has been seen for debounce.
func New(dir string, target Reloader, debounce time.Duration, logger logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:      dir,
		target:   target,
		debounce: debounce,
		logger:   logger,
		watcher:  fsw,
		events:   make(chan Event, 16),
		fire:     make(chan string),
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}

	go w.loop()

	return w, nil
}

// Events delivers one Event per applied change. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// loop monitors the folder and applies debounced changes.
func (w *Watcher) loop() {
	defer close(w.events)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ignored(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.schedule(event.Name)
			}
		case path := <-w.fire:
			w.apply(path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Log("watch %s: %v", w.dir, err)
		}
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		select {
		case w.fire <- path:
		case <-w.done:
		}
	})
}

// apply reloads or removes the curriculum for path and emits an Event.
func (w *Watcher) apply(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()

	ev := Event{Path: path, Brain: models.BrainName(path)}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		ev.Removed = w.target.Remove(ev.Brain)
		if !ev.Removed {
			return
		}
	case err != nil:
		ev.Err = err
	case info.IsDir():
		return
	default:
		ev.Brain, ev.Err = w.target.Reload(path)
	}

	if ev.Err != nil {
		w.logger.Log("curriculum %s not reloaded: %v", path, ev.Err)
	}

	select {
	case w.events <- ev:
	case <-w.done:
	}
}

// ignored skips hidden and editor backup files.
func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}

// Close stops watching. Pending changes are discarded.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.pending {
		t.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}
