package cache

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/dupes/pkg/dupes/logging"
)

// Watcher drops cache entries as files change on disk. A long-running
// process pairs one with a Cache so stale fingerprints disappear the
// moment a watched file is written, removed, or renamed, instead of
// lingering until the next scan touches them.
type Watcher struct {
	cache   *Cache
	watcher *fsnotify.Watcher
	paths   map[string]bool
	mu      sync.RWMutex
	closed  bool
	log     *logging.Logger
}

// NewWatcher creates a watcher that invalidates entries in c.
func NewWatcher(c *Cache) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		cache:   c,
		watcher: fsw,
		paths:   make(map[string]bool),
		log:     logging.Get("watch"),
	}, nil
}

// Watch starts watching a directory recursively. Symlinks are not
// followed to avoid loops.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	info, err := os.Lstat(absRoot)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil // Only watch directories
	}

	return filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			return w.addWatch(path)
		}
		return nil
	})
}

// addWatch adds a single directory to the watch list.
func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}

	if err := w.watcher.Add(path); err != nil {
		w.log.Warn("failed to add watch", "path", path, "error", err)
		return err
	}

	w.paths[path] = true
	return nil
}

// Run starts the event loop. It blocks until the context is cancelled.
// The onChange callback, if non-nil, is called after each event has been
// applied to the cache.
func (w *Watcher) Run(ctx context.Context, onChange func(path string, op fsnotify.Op)) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
			if onChange != nil {
				onChange(event.Name, event.Op)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

// handleEvent applies a single filesystem event to the cache.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create != 0:
		w.handleCreate(event.Name)
	case event.Op&fsnotify.Write != 0:
		w.invalidate(event.Name)
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		// A rename drops the old name; the new name arrives as a create.
		w.handleRemove(event.Name)
	}
}

// handleCreate watches newly created directories and invalidates any entry
// cached under a newly created file's path.
func (w *Watcher) handleCreate(path string) {
	info, err := os.Lstat(path)
	if err != nil {
		return // Gone already
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		return
	}

	if !info.IsDir() {
		w.invalidate(path)
		return
	}

	// Watch the new directory and anything created inside it before the
	// watch landed.
	_ = w.addWatch(path)
	_ = filepath.WalkDir(path, func(subpath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() && subpath != path {
			_ = w.addWatch(subpath)
		}
		return nil
	})
}

// handleRemove drops watches under path and removes the cached subtree.
func (w *Watcher) handleRemove(path string) {
	w.mu.Lock()
	if w.paths[path] {
		_ = w.watcher.Remove(path)
		delete(w.paths, path)
	}
	for child := range w.paths {
		if isSubPath(child, path) {
			_ = w.watcher.Remove(child)
			delete(w.paths, child)
		}
	}
	w.mu.Unlock()

	if err := w.cache.RemoveTree(path); err != nil {
		w.log.Warn("failed to invalidate removed path", "path", path, "error", err)
	}
}

// invalidate drops the cache entry for a single file.
func (w *Watcher) invalidate(path string) {
	if err := w.cache.Remove(path); err != nil {
		w.log.Warn("failed to invalidate entry", "path", path, "error", err)
		return
	}
	w.log.Debug("invalidated cache entry", "path", path)
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
