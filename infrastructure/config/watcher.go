package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"kgview/application/scheduler"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 100 * time.Millisecond

// LayoutWatcher reloads the layout file when it changes on disk and notifies
// listeners with the new overlay. Invalid files are logged and ignored.
type LayoutWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce *scheduler.TimerDebouncer[fsnotify.Event]

	mu       sync.RWMutex
	current  *LayoutFile
	onChange []func(*LayoutFile)

	logger  *zap.Logger
	stopCh  chan struct{}
	done    chan struct{}
	started bool
}

// NewLayoutWatcher loads path and prepares a watcher for it
func NewLayoutWatcher(path string, logger *zap.Logger) (*LayoutWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	file, err := LoadLayoutFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial layout file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so atomic saves (write + rename) are seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch layout directory: %w", err)
	}

	w := &LayoutWatcher{
		path:    path,
		watcher: watcher,
		current: file,
		logger:  logger,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	w.debounce = scheduler.NewTimerDebouncer[fsnotify.Event](watchDebounce, func([]fsnotify.Event) { w.reload() }, logger)
	return w, nil
}

// Start begins watching for changes
func (w *LayoutWatcher) Start() {
	w.started = true
	go w.watchLoop()
	w.logger.Info("Layout watcher started", zap.String("path", w.path))
}

// Stop stops watching and waits for the loop to exit
func (w *LayoutWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.debounce.Stop()
	if w.started {
		<-w.done
	}
	w.logger.Info("Layout watcher stopped")
}

// OnChange registers a callback for reloaded files
func (w *LayoutWatcher) OnChange(handler func(*LayoutFile)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the last valid layout file
func (w *LayoutWatcher) Current() *LayoutFile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *LayoutWatcher) watchLoop() {
	defer close(w.done)
	name := filepath.Base(w.path)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.debounce.Push(event)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *LayoutWatcher) reload() {
	file, err := LoadLayoutFile(w.path)
	if err != nil {
		w.logger.Error("Invalid layout file, keeping current", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = file
	handlers := append([]func(*LayoutFile){}, w.onChange...)
	w.mu.Unlock()

	w.logger.Info("Layout file reloaded", zap.String("path", w.path), zap.String("mode", file.Mode))
	for _, handler := range handlers {
		handler(file)
	}
}
