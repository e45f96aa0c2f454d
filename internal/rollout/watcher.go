package rollout

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses editor save bursts into one reload.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a Controller whenever its flags file changes on disk.
// It watches the parent directory because editors commonly replace files
// rather than writing them in place.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	controller  *Controller
	path        string
	debounceDur time.Duration
	onReload    func(Config, error)
	logger      *zap.Logger
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	started     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity.
type WatcherStats struct {
	Events        int
	Reloads       int
	Errors        int
	LastEventTime time.Time
	LastEventType string
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounceDur = d }
}

// WithOnReload registers a callback run after every reload attempt.
func WithOnReload(fn func(Config, error)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// WithLogger sets the watcher logger.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a watcher for path that reloads controller.
func NewWatcher(path string, controller *Controller, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:     fw,
		controller:  controller,
		path:        filepath.Clean(path),
		debounceDur: DefaultDebounce,
		logger:      zap.NewNop(),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running || w.started {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.started = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		_ = w.watcher.Close()
		close(w.doneCh)
		return err
	}
	w.logger.Info("watching rollout flags", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit. Stopping a watcher
// that was never started releases its fsnotify handle.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.started = true
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
}

// Stats returns a copy of the watcher counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.stats.Events++
			w.stats.LastEventTime = time.Now()
			w.stats.LastEventType = event.Op.String()
			w.mu.Unlock()

			if timer == nil {
				timer = time.NewTimer(w.debounceDur)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounceDur)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			w.logger.Warn("flags watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	err := w.controller.Reload(ctx)

	w.mu.Lock()
	w.stats.Reloads++
	if err != nil {
		w.stats.Errors++
	}
	w.mu.Unlock()

	if w.onReload != nil {
		w.onReload(w.controller.Config(), err)
	}
}
