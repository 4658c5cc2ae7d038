// Package watcher uploads resumes as they appear in a directory.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"careeros/internal/config"
	"careeros/internal/errors"
	"careeros/internal/utils"

	"github.com/fsnotify/fsnotify"
)

// Handler processes one settled file
type Handler func(ctx context.Context, path string) error

// Watcher watches a directory and calls its handler once per new or changed
// resume, after writes to that file have been quiet for the debounce delay.
type Watcher struct {
	mu sync.Mutex

	dir           string
	extensions    []string
	debounceDelay time.Duration

	fsWatcher *fsnotify.Watcher
	timers    map[string]*time.Timer
	modTimes  map[string]time.Time
	settled   chan string
	done      chan struct{}

	handler Handler
	logger  *errors.Logger
}

// New starts watching dir. Events that arrive before Run are kept by the
// underlying watcher and handled once Run starts.
func New(dir string, cfg config.WatchConfig, handler Handler, logger *errors.Logger) (*Watcher, error) {
	if logger == nil {
		logger = errors.Discard()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("Cannot watch %s", dir), err)
	}
	if !info.IsDir() {
		return nil, errors.NewValidationError("INVALID_WATCH_DIR",
			fmt.Sprintf("%s is not a directory", dir), nil)
	}

	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = utils.ResumeExtensions
	}
	delay := cfg.DebounceDelay
	if delay <= 0 {
		delay = time.Second
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewInternalError("WATCHER_FAILED", "failed to create file watcher", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, errors.NewIOError("WATCHER_FAILED",
			fmt.Sprintf("failed to watch directory %s", dir), err)
	}

	return &Watcher{
		dir:           dir,
		extensions:    extensions,
		debounceDelay: delay,
		fsWatcher:     fsWatcher,
		timers:        make(map[string]*time.Timer),
		modTimes:      make(map[string]time.Time),
		settled:       make(chan string, 16),
		done:          make(chan struct{}),
		handler:       handler,
		logger:        logger.With("watch_dir", dir),
	}, nil
}

// Run handles files until ctx is cancelled. Files are handled one at a time,
// in the order they settle. Handler failures are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	w.logger.Info("Watching for resumes",
		"extensions", w.extensions,
		"debounce_delay", w.debounceDelay)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if w.shouldProcessEvent(event) {
				w.schedule(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.LogError(err, "File watcher error")

		case path := <-w.settled:
			if !w.hasFileChanged(path) {
				continue
			}
			w.logger.Info("Resume detected", "file", filepath.Base(path))
			if err := w.handler(ctx, path); err != nil {
				w.logger.LogError(err, "Failed to process resume", "file", filepath.Base(path))
			}

		case <-ctx.Done():
			w.logger.Info("Resume watcher stopped")
			return nil
		}
	}
}

// shouldProcessEvent keeps writes and creations of files with a watched extension
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if !utils.HasExtension(event.Name, w.extensions) {
		return false
	}
	// Renames report the old name; the new name arrives as Create
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

// schedule (re)starts the debounce timer for path
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}

	// The callback takes mu, so it cannot observe timer before it is assigned
	var timer *time.Timer
	timer = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		if w.timers[path] == timer {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		select {
		case w.settled <- path:
		case <-w.done:
		}
	})
	w.timers[path] = timer
}

// hasFileChanged reports whether path is a regular file modified since it was last handled
func (w *Watcher) hasFileChanged(path string) bool {
	stat, err := os.Stat(path)
	if err != nil || !stat.Mode().IsRegular() {
		return false
	}

	lastMod, seen := w.modTimes[path]
	if seen && !stat.ModTime().After(lastMod) {
		return false
	}
	w.modTimes[path] = stat.ModTime()
	return true
}

func (w *Watcher) close() {
	close(w.done)

	w.mu.Lock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	if err := w.fsWatcher.Close(); err != nil {
		w.logger.LogError(err, "Failed to close file watcher")
	}
}
