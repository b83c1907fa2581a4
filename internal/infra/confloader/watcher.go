package confloader

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/statevault/internal/telemetry/logger"
)

// Watcher reports files created or written in watched directories.
type Watcher struct {
	watcher   *fsnotify.Watcher
	callbacks []func(string)
	filter    func(string) bool
	mu        sync.RWMutex
	done      chan struct{}
	stopOnce  sync.Once
	logger    logger.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithFilter restricts notifications to paths for which keep returns true.
func WithFilter(keep func(path string) bool) WatcherOption {
	return func(w *Watcher) {
		w.filter = keep
	}
}

// NewWatcher creates a new file watcher.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		done:    make(chan struct{}),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch watches the directory containing path. Watching the directory rather
// than the file catches editors that save by rename.
func (w *Watcher) Watch(path string) error {
	return w.WatchDir(filepath.Dir(path))
}

// WatchDir watches dir for new and rewritten files.
func (w *Watcher) WatchDir(dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Error("failed to watch directory", "path", dir, "error", err)
		return err
	}
	w.logger.Debug("watching directory for changes", "path", dir)
	return nil
}

// OnChange registers a callback receiving the path of each changed file.
func (w *Watcher) OnChange(callback func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start dispatches events until Stop is called.
func (w *Watcher) Start() {
	w.logger.Debug("watcher started")

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.filter != nil && !w.filter(event.Name) {
				continue
			}
			w.logger.Debug("file changed", "file", event.Name, "op", event.Op.String())
			w.notifyCallbacks(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// StartAsync starts watching in a goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		if err = w.watcher.Close(); err != nil {
			w.logger.Error("failed to close watcher", "error", err)
			return
		}
		w.logger.Debug("watcher stopped")
	})
	return err
}

func (w *Watcher) notifyCallbacks(path string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, cb := range w.callbacks {
		cb(path)
	}
}
