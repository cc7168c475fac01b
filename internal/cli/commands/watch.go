package commands

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// watchDirs returns the directories holding the given paths plus the
// library directory.
func watchDirs(paths []string, libraryDir string) []string {
	seen := make(map[string]bool)
	add := func(dir string) {
		if dir != "" {
			seen[filepath.Clean(dir)] = true
		}
	}
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			add(p)
		} else {
			add(filepath.Dir(p))
		}
	}
	add(libraryDir)

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// addRecursive adds dir and its subdirectories to the watcher, skipping
// hidden directories.
func addRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && len(d.Name()) > 0 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// watch calls onChange after YAML files under dirs are written or
// created, coalescing bursts of events. It returns when ctx is done.
func watch(ctx context.Context, logger *slog.Logger, dirs []string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	for _, dir := range dirs {
		if err := addRecursive(w, dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	logger.Info("watching for changes", "dirs", dirs)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !isYAML(event.Name) {
				continue
			}
			logger.Debug("change detected", "file", event.Name)
			pending = time.After(watchDebounce)
		case <-pending:
			pending = nil
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
