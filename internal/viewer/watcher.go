package viewer

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"physicell-studio/internal/mcds"
)

// FrameWatcher watches a simulation output directory and reports the index
// of any frame whose XML file is created or rewritten. Rapid writes to the
// same file are debounced so one save yields one event.
type FrameWatcher struct {
	watcher     *fsnotify.Watcher
	dir         string
	log         *zap.Logger
	events      chan int
	debounce    map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewFrameWatcher creates a watcher on an output directory.
func NewFrameWatcher(dir string, log *zap.Logger) (*FrameWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return &FrameWatcher{
		watcher:     watcher,
		dir:         dir,
		log:         log,
		events:      make(chan int, 16),
		debounce:    make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Events returns the channel of frame indices with fresh data on disk.
func (w *FrameWatcher) Events() <-chan int {
	return w.events
}

// Start begins watching in a background goroutine.
func (w *FrameWatcher) Start() {
	w.log.Info("watching output directory", zap.String("dir", w.dir))
	go w.run()
}

func (w *FrameWatcher) run() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			index, isFrame := mcds.ParseFrameIndex(ev.Name)
			if !isFrame {
				continue
			}
			if last, seen := w.debounce[ev.Name]; seen && time.Since(last) < w.debounceDur {
				continue
			}
			w.debounce[ev.Name] = time.Now()
			select {
			case w.events <- index:
			default:
				// Viewer is behind; dropping is fine, it reloads from disk.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// Stop stops watching and waits for the goroutine to exit.
func (w *FrameWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	<-w.doneCh
}
