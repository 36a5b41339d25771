package catalog

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// #region watcher

// Watcher hot-reloads the catalog when its source files change and notifies
// registered callbacks with the fresh Catalog.
type Watcher struct {
	streamsPath   string
	questionsPath string

	mu        sync.RWMutex
	current   *Catalog
	callbacks []func(*Catalog)

	logger  *zap.Logger
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// NewWatcher starts watching the directories containing the catalog files.
func NewWatcher(initial *Catalog, streamsPath, questionsPath string, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		streamsPath:   streamsPath,
		questionsPath: questionsPath,
		current:       initial,
		logger:        logger,
		watcher:       fsWatcher,
		stopCh:        make(chan struct{}),
	}

	// Watch directories, not files: editors replace files on save and the
	// inode-level watch would be lost.
	dirs := map[string]bool{
		filepath.Dir(streamsPath):   true,
		filepath.Dir(questionsPath): true,
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	go w.watchLoop()
	logger.Info("catalog hot reload enabled",
		zap.String("streams", streamsPath),
		zap.String("questions", questionsPath),
	)
	return w, nil
}

// #endregion watcher

// #region accessors

// Current returns the most recently loaded catalog.
func (w *Watcher) Current() *Catalog {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnReload registers a callback invoked after each successful reload.
func (w *Watcher) OnReload(fn func(*Catalog)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Stop terminates the watch loop and releases the fsnotify watcher.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	return w.watcher.Close()
}

// #endregion accessors

// #region watch-loop

func (w *Watcher) watchLoop() {
	// Debounce: editors emit several events per save.
	var timer *time.Timer
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(200*time.Millisecond, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	return filepath.Clean(name) == filepath.Clean(w.streamsPath) ||
		filepath.Clean(name) == filepath.Clean(w.questionsPath)
}

func (w *Watcher) reload() {
	cat, err := Load(w.streamsPath, w.questionsPath)
	if err != nil {
		// Keep serving the last good catalog on a broken edit.
		w.logger.Warn("catalog reload failed, keeping previous", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cat
	callbacks := make([]func(*Catalog), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("catalog reloaded",
		zap.Int("domains", len(cat.Streams)),
		zap.Int("unique_courses", len(cat.UniqueCourses())),
	)
	for _, fn := range callbacks {
		fn(cat)
	}
}

// #endregion watch-loop
