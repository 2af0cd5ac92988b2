package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/moolen/quizcheck/internal/logging"
)

// ReloadCallback receives every successfully loaded config. Errors are logged
// and the watcher keeps running.
type ReloadCallback func(cfg *Config) error

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	FilePath string

	// Debounce coalesces bursts of file events (editor save sequences).
	// Default: 500ms
	Debounce time.Duration
}

// Watcher reloads a config file when it changes. Invalid configs are logged
// and the previous config stays in effect.
type Watcher struct {
	opts     WatcherOptions
	callback ReloadCallback
	logger   *logging.Logger

	cancel  context.CancelFunc
	stopped chan struct{}
	ready   chan struct{}
	mu      sync.Mutex

	debounceTimer *time.Timer
}

// NewWatcher creates a watcher for opts.FilePath.
func NewWatcher(opts WatcherOptions, callback ReloadCallback) (*Watcher, error) {
	if opts.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}

	return &Watcher{
		opts:     opts,
		callback: callback,
		logger:   logging.GetLogger("config.watcher").WithField("file", opts.FilePath),
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Start loads the file, hands it to the callback and then watches for
// changes in the background. It returns once the fsnotify watch is in place.
func (w *Watcher) Start(ctx context.Context) error {
	initial, err := Load(w.opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial config: %w", err)
	}
	if err := w.callback(initial); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.watchLoop(watchCtx)

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}
}

func (w *Watcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.opts.FilePath); err != nil {
		w.logger.Error("failed to watch file: %v", err)
		return
	}

	w.logger.Debug("watching for changes (debounce %s)", w.opts.Debounce)
	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			w.stopDebounce()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			// Atomic saves replace the inode; re-add the watch.
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.opts.FilePath); err != nil {
					w.logger.Warn("failed to re-add watch after %s: %v", event.Op, err)
				}
			}
			w.scheduleReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error: %v", err)
		}
	}
}

func (w *Watcher) scheduleReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.opts.Debounce, func() {
		w.reload(ctx)
	})
}

func (w *Watcher) stopDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	cfg, err := Load(w.opts.FilePath)
	if err != nil {
		w.logger.Warn("reload failed, keeping previous config: %v", err)
		return
	}
	if err := w.callback(cfg); err != nil {
		w.logger.Warn("reload callback failed: %v", err)
		return
	}
	w.logger.Info("config reloaded")
}

// Stop cancels the watch loop and waits up to five seconds for it to exit.
func (w *Watcher) Stop() error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.stopped:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for watcher to stop")
	}
}
