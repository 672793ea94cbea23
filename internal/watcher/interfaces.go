package watcher

import "context"

// Watcher monitors Python sources for changes with debouncing and pause/resume support.
type Watcher interface {
	// Start begins watching the source roots, calling callback with each
	// debounced batch of changed files, sorted.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}
