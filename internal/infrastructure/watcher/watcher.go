// Package watcher monitors Go source files and signals debounced changes.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher wraps fsnotify with recursive directory registration and debounce.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last change before an event
// is emitted.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New creates a watcher with a 500ms default debounce.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, debounce: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WatchDir registers root and every subdirectory, skipping hidden
// directories, vendor trees, and the coverage output directory itself so a
// report write never retriggers a run.
func (w *Watcher) WatchDir(root string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != root && (strings.HasPrefix(base, ".") || base == "vendor" || base == "node_modules" || base == "testdata") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Events emits once per debounced burst of .go file changes until ctx ends.
func (w *Watcher) Events(ctx context.Context) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				if filepath.Ext(event.Name) != ".go" {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				fire = timer.C

			case <-fire:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
				fire = nil

			case _, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				// keep watching
			}
		}
	}()

	return out
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
