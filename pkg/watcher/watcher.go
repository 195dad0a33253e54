// Package watcher reports changes to a tree file on disk so the TUI can
// reload it.
//
// The parent directory is watched rather than the file itself: editors and
// loader.SaveTree replace files by renaming a temp file over them, which
// would drop a watch placed on the old inode.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce coalesces bursts of events from a single save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher notifies subscribers when a file changes.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *logrus.Entry

	mu          sync.RWMutex
	subscribers map[chan struct{}]struct{}
	started     bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	debounce time.Duration
}

// New creates a watcher for path. A nil logger falls back to a default one.
func New(path string, debounce time.Duration, logger *logrus.Entry) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:        abs,
		watcher:     fw,
		logger:      logger.WithField("component", "watcher"),
		subscribers: make(map[chan struct{}]struct{}),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		debounce:    debounce,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching. It returns once the watch is registered.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.watchLoop()
	return nil
}

// Stop shuts the watcher down and closes every subscriber channel.
func (w *Watcher) Stop() {
	w.cancel()
	w.watcher.Close()

	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if started {
		<-w.done
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subscribers {
		close(ch)
	}
	w.subscribers = make(map[chan struct{}]struct{})
}

// Subscribe returns a channel that receives a value after each change. The
// channel holds at most one pending signal; further changes before it is
// drained are merged.
func (w *Watcher) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribers[ch] = struct{}{}
	return ch
}

// SubscriberCount returns the number of live subscribers.
func (w *Watcher) SubscriberCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.subscribers)
}

// relevant reports whether event touches the watched file in a way that
// changes its content.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// watchLoop processes file system events and notifies subscribers once the
// file has been quiet for the debounce interval.
func (w *Watcher) watchLoop() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.WithField("path", w.path).Debug("Tree file changed")
			w.notify()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Errors are logged but don't stop the watcher
			w.logger.WithError(err).Warn("File watch error")
		}
	}
}

// notify signals every subscriber without blocking.
func (w *Watcher) notify() {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for ch := range w.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
