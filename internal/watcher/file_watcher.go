// Package watcher reports debounced changes to Python source files.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 500 * time.Millisecond

// SourceExtensions are the file extensions that trigger a callback.
var SourceExtensions = []string{".py", ".pyi"}

// Option configures a source watcher.
type Option func(*sourceWatcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(sw *sourceWatcher) {
		if d > 0 {
			sw.debounce = d
		}
	}
}

// WithLogger sets the logger used for non-fatal watch errors.
func WithLogger(logger log.Logger) Option {
	return func(sw *sourceWatcher) {
		if logger != nil {
			sw.logger = logger
		}
	}
}

type sourceWatcher struct {
	fsw        *fsnotify.Watcher
	extensions map[string]bool
	debounce   time.Duration
	logger     log.Logger
	callback   func(files []string)
	cancel     context.CancelFunc

	paused   bool
	pausedMu sync.RWMutex

	pending   map[string]bool
	pendingMu sync.Mutex

	timer   *time.Timer
	timerMu sync.Mutex

	stopOnce sync.Once
	doneCh   chan struct{}
}

// New watches every directory under roots, recursively. Directories created
// later are added as they appear; hidden directories and __pycache__ are skipped.
func New(roots []string, opts ...Option) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	sw := &sourceWatcher{
		fsw:        fsw,
		extensions: make(map[string]bool, len(SourceExtensions)),
		debounce:   DefaultDebounce,
		logger:     log.NewNopLogger(),
		pending:    make(map[string]bool),
		doneCh:     make(chan struct{}),
	}
	for _, ext := range SourceExtensions {
		sw.extensions[ext] = true
	}
	for _, opt := range opts {
		opt(sw)
	}

	for _, root := range roots {
		if err := sw.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	return sw, nil
}

// Start begins watching for file changes.
func (sw *sourceWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	sw.callback = callback
	ctx, sw.cancel = context.WithCancel(ctx)

	go sw.loop(ctx)
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (sw *sourceWatcher) Stop() error {
	var err error
	sw.stopOnce.Do(func() {
		if sw.cancel != nil {
			sw.cancel()
			<-sw.doneCh
		} else {
			close(sw.doneCh)
		}
		err = sw.fsw.Close()
	})
	return err
}

func (sw *sourceWatcher) Pause() {
	sw.pausedMu.Lock()
	defer sw.pausedMu.Unlock()
	sw.paused = true
}

func (sw *sourceWatcher) Resume() {
	sw.pausedMu.Lock()
	wasPaused := sw.paused
	sw.paused = false
	sw.pausedMu.Unlock()

	if wasPaused {
		sw.flush()
	}
}

func (sw *sourceWatcher) loop(ctx context.Context) {
	defer close(sw.doneCh)

	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			sw.stopTimer()
			return

		case event, ok := <-sw.fsw.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := sw.addTree(event.Name); err != nil {
						level.Warn(sw.logger).Log("msg", "failed to watch new directory", "dir", event.Name, "err", err)
					}
				}
			}

			if !sw.relevant(event) {
				continue
			}

			sw.pendingMu.Lock()
			sw.pending[event.Name] = true
			sw.pendingMu.Unlock()

			sw.resetTimer(fire)

		case <-fire:
			sw.pausedMu.RLock()
			paused := sw.paused
			sw.pausedMu.RUnlock()
			if !paused {
				sw.flush()
			}

		case err, ok := <-sw.fsw.Errors:
			if !ok {
				return
			}
			level.Warn(sw.logger).Log("msg", "file watcher error", "err", err)
		}
	}
}

// flush hands the pending files to the callback, if there are any.
func (sw *sourceWatcher) flush() {
	sw.pendingMu.Lock()
	if len(sw.pending) == 0 {
		sw.pendingMu.Unlock()
		return
	}
	files := make([]string, 0, len(sw.pending))
	for file := range sw.pending {
		files = append(files, file)
	}
	sw.pending = make(map[string]bool)
	sw.pendingMu.Unlock()

	sort.Strings(files)
	if sw.callback != nil {
		sw.callback(files)
	}
}

func (sw *sourceWatcher) resetTimer(fire chan struct{}) {
	sw.timerMu.Lock()
	defer sw.timerMu.Unlock()

	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.timer = time.AfterFunc(sw.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (sw *sourceWatcher) stopTimer() {
	sw.timerMu.Lock()
	defer sw.timerMu.Unlock()

	if sw.timer != nil {
		sw.timer.Stop()
		sw.timer = nil
	}
}

// relevant reports whether event is a write, create, remove or rename of a source file.
func (sw *sourceWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return sw.extensions[filepath.Ext(event.Name)]
}

func (sw *sourceWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			level.Warn(sw.logger).Log("msg", "skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := sw.fsw.Add(path); err != nil {
			level.Warn(sw.logger).Log("msg", "failed to watch directory", "dir", path, "err", err)
		}
		return nil
	})
}

func skipDir(name string) bool {
	return name == "__pycache__" || strings.HasPrefix(name, ".")
}
