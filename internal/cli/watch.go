package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/drift-labs/pyapidoc/internal/watcher"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// executeWatch calls regenerate after every debounced batch of source changes
// under the search paths, until ctx is done. Failed runs are logged and the
// watch continues.
func executeWatch(ctx context.Context, opts GenerateOptions, debounce time.Duration, logger log.Logger, regenerate func() error) error {
	var roots []string
	for _, path := range opts.SearchPaths {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			roots = append(roots, path)
		} else {
			level.Warn(logger).Log("msg", "search path not watched", "path", path)
		}
	}
	if len(roots) == 0 {
		return fmt.Errorf("failed to start watcher: %w", ErrNoSearchPaths)
	}

	w, err := watcher.New(roots, watcher.WithDebounce(debounce), watcher.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	err = w.Start(ctx, func(files []string) {
		// changes made while regenerating are delivered on Resume
		w.Pause()
		defer w.Resume()

		level.Info(logger).Log("msg", "sources changed, regenerating", "files", len(files))
		if err := regenerate(); err != nil {
			level.Error(logger).Log("msg", "generation failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	level.Info(logger).Log("msg", "watching for changes", "roots", fmt.Sprint(roots))
	<-ctx.Done()
	return nil
}
