// # internal/core/watcher/watcher_test.go
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string, debounce time.Duration, excludeDirs, excludeFiles []string) <-chan []string {
	t.Helper()
	changed := make(chan []string, 16)
	w, err := NewWatcher(debounce, excludeDirs, excludeFiles, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	require.NoError(t, w.Watch([]string{dir}))
	return changed
}

// waitFor drains batches until one contains path.
func waitFor(t *testing.T, changed <-chan []string, path string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-changed:
			if slices.Contains(paths, path) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change to %s", path)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	_, err := NewWatcher(time.Millisecond, []string{"[bad"}, nil, func([]string) {})
	require.Error(t, err)
}

func TestWatcher_ReportsGoFiles(t *testing.T) {
	dir := t.TempDir()
	changed := startWatcher(t, dir, 100*time.Millisecond, []string{"skipme"}, []string{"*_gen.go"})

	goFile := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(goFile, []byte("package main"), 0o644))
	waitFor(t, changed, goFile, 2*time.Second)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zz_gen.go"), []byte("package main"), 0o644))

	select {
	case paths := <-changed:
		t.Fatalf("excluded files triggered a batch: %v", paths)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	changed := startWatcher(t, dir, 100*time.Millisecond, nil, nil)

	subdir := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(subdir, 0o755))
	nested := filepath.Join(subdir, "nested.go")
	require.NoError(t, os.WriteFile(nested, []byte("package pkg"), 0o644))

	waitFor(t, changed, nested, 2*time.Second)
}

func TestWatcher_SkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.go")
	content := []byte("package main\nfunc main() {}\n")
	require.NoError(t, os.WriteFile(target, content, 0o644))

	changed := startWatcher(t, dir, 50*time.Millisecond, nil, nil)

	require.NoError(t, os.WriteFile(target, content, 0o644))
	select {
	case paths := <-changed:
		t.Fatalf("identical content produced a batch: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(target, []byte("package main\nfunc main() { println(1) }\n"), 0o644))
	waitFor(t, changed, target, 2*time.Second)
}

func TestWatcher_RemoveTriggersChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "gone.go")
	require.NoError(t, os.WriteFile(target, []byte("package main"), 0o644))

	changed := startWatcher(t, dir, 50*time.Millisecond, nil, nil)
	require.NoError(t, os.Remove(target))

	waitFor(t, changed, target, 2*time.Second)
}

func TestWatcher_ShouldExcludeFile(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, []string{"*.pb.go"}, func([]string) {})
	require.NoError(t, err)
	defer w.Close()

	require.True(t, w.shouldExcludeFile("main.py"))
	require.True(t, w.shouldExcludeFile("api.pb.go"))
	require.False(t, w.shouldExcludeFile("main.go"))
	require.False(t, w.shouldExcludeFile("main_test.go"))
}
