// Package watcher follows a snapshot file with fsnotify and reports debounced changes.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 200 * time.Millisecond

// FileWatcher watches one file and invokes onChange after it has been written or
// replaced. The parent directory is watched rather than the file itself, because a
// snapshot is replaced by renaming a temp file over it.
type FileWatcher struct {
	path     string
	dir      string
	name     string
	onChange func(path string)
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// FileWatcherOption configures a FileWatcher.
type FileWatcherOption func(*FileWatcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) FileWatcherOption {
	return func(w *FileWatcher) { w.logger = l }
}

// WithDebounce sets how long the file must be quiet before onChange runs.
func WithDebounce(d time.Duration) FileWatcherOption {
	return func(w *FileWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewFileWatcher creates a watcher for path.
func NewFileWatcher(path string, onChange func(path string), opts ...FileWatcherOption) *FileWatcher {
	clean := filepath.Clean(path)
	w := &FileWatcher{
		path:     clean,
		dir:      filepath.Dir(clean),
		name:     filepath.Base(clean),
		onChange: onChange,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *FileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.logger.Debug("watching snapshot", zap.String("path", w.path))
	go w.run(ctx, watcher)
	return nil
}

func (w *FileWatcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err == nil {
				continue
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Debug("watcher error", zap.Error(err))
				continue
			}
			// events were dropped; assume the file changed
			w.schedule()
		}
	}
}

func (w *FileWatcher) handleEvent(ev fsnotify.Event) {
	if filepath.Base(ev.Name) != w.name {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
		w.schedule()
	}
}

func (w *FileWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		w.mu.Unlock()
		w.logger.Debug("snapshot changed (debounced)", zap.String("path", w.path))
		if w.onChange != nil {
			w.onChange(w.path)
		}
	})
}

// Stop stops the watcher and releases resources.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
