// Package watch re-runs discovery when files under the module roots change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/pluginmanager/internal/ctxlog"
	"github.com/vk/pluginmanager/internal/discovery"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before starting a pass.
const DefaultDebounce = 250 * time.Millisecond

// PassFunc is called after every pass the watcher triggers.
type PassFunc func(res *discovery.Result, err error)

// Watcher triggers discovery passes on filesystem changes.
type Watcher struct {
	discoverer *discovery.Discoverer
	roots      []string
	debounce   time.Duration
	onPass     PassFunc
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithOnPass registers a callback for completed or failed passes.
func WithOnPass(fn PassFunc) Option {
	return func(w *Watcher) { w.onPass = fn }
}

// New creates a watcher over the given module roots.
func New(d *discovery.Discoverer, roots []string, opts ...Option) *Watcher {
	w := &Watcher{
		discoverer: d,
		roots:      append([]string(nil), roots...),
		debounce:   DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. A failed pass is logged and the previously
// published snapshot stays current.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	for _, root := range w.roots {
		if err := addTree(fsw, root); err != nil {
			return err
		}
	}
	logger.Info("👀 Watching module roots for plugin changes.", "roots", w.roots)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Watcher stopped.")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if isHidden(event.Name) {
				continue
			}
			logger.Debug("File change detected.", "path", event.Name, "op", event.Op.String())
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(fsw, event.Name); err != nil {
						logger.Warn("Failed to watch new directory.", "path", event.Name, "error", err)
					}
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)

		case <-timer.C:
			res, err := w.discoverer.Discover(ctx)
			if err != nil {
				logger.Error("Discovery pass failed, keeping previous snapshot.", "error", err)
			}
			if w.onPass != nil {
				w.onPass(res, err)
			}
		}
	}
}

// addTree watches root and every non-hidden directory below it. A root that
// does not exist yet is skipped.
func addTree(fsw *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(path) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	return nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
