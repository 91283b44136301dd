// # internal/core/watcher/watcher.go
package watcher

import (
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"scopecheck/internal/shared/observability"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Watcher reports batches of changed .go files under a set of roots.
// Changes are collected until no event has arrived for the debounce
// interval, then handed to onChange as one sorted batch. Files whose
// content is unchanged since they were last seen are left out.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debounce     time.Duration
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	onChange     func([]string)
	callbackMu   sync.Mutex

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer

	hashes   map[string][sha256.Size]byte
	hashesMu sync.Mutex
}

func NewWatcher(debounce time.Duration, excludeDirs, excludeFiles []string, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	w := &Watcher{
		debounce: debounce,
		onChange: onChange,
		pending:  make(map[string]struct{}),
		hashes:   make(map[string][sha256.Size]byte),
	}
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		w.excludeDirs = append(w.excludeDirs, g)
	}
	for _, pattern := range excludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		w.excludeFiles = append(w.excludeFiles, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsWatcher = fsw
	return w, nil
}

// Watch registers every non-excluded directory under paths, records the
// current content of their .go files and starts delivering events.
func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if err := w.watchRecursive(path, false); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

// watchRecursive adds root and its subdirectories. With enqueue set, files
// found on the way are scheduled as changes.
func (w *Watcher) watchRecursive(root string, enqueue bool) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && w.shouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		if w.shouldExcludeFile(path) {
			return nil
		}
		if enqueue {
			w.schedule(path)
		} else {
			w.contentChanged(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.shouldExcludeDir(event.Name) {
				return
			}
			if err := w.watchRecursive(event.Name, true); err != nil {
				slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if w.shouldExcludeFile(event.Name) {
		return
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.schedule(event.Name)
	}
}

// contentChanged records the file's content hash and reports whether it
// differs from the last one seen. A file that cannot be read, usually
// because it was removed, counts as changed and is forgotten.
func (w *Watcher) contentChanged(path string) bool {
	data, err := os.ReadFile(path)

	w.hashesMu.Lock()
	defer w.hashesMu.Unlock()
	if err != nil {
		delete(w.hashes, path)
		return true
	}
	sum := sha256.Sum256(data)
	prev, seen := w.hashes[path]
	w.hashes[path] = sum
	return !seen || prev != sum
}

func (w *Watcher) schedule(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	// Hashing after the quiet period sees each file's settled content.
	paths := make([]string, 0, len(pending))
	for path := range pending {
		if w.contentChanged(path) {
			paths = append(paths, path)
		}
	}

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldExcludeFile(path string) bool {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), ".go") {
		return true
	}
	for _, g := range w.excludeFiles {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
