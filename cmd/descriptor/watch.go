package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// debounce is how long the inputs must stay unchanged before a rebuild
const debounce = 250 * time.Millisecond

// watcher tracks the inputs of a job
type watcher struct {
	fs     *fsnotify.Watcher
	dirs   []string            // Watched directory trees
	files  map[string]struct{} // Watched files, their directory is watched too
	ignore string              // Output of the job
}

// watch calls build every time one of the paths changes, until the context is
// cancelled. Directories are watched along with their immediate subdirectories,
// changes to the ignored file are not reported.
func watch(ctx context.Context, logger zerolog.Logger, paths []string, ignore string, build func() error) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fs.Close()

	w := &watcher{
		fs:     fs,
		files:  make(map[string]struct{}),
		ignore: absolute(ignore),
	}

	for _, path := range paths {
		if err := w.add(absolute(path)); err != nil {
			return err
		}
	}

	logger.Info().Strs("paths", paths).Msg("watching for changes")
	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fs.Events:
			if !ok {
				return nil
			}

			if !w.relevant(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fs.Add(event.Name)
				}
			}

			logger.Debug().Str("path", event.Name).Stringer("op", event.Op).Msg("change")
			timer.Reset(debounce)

		case err, ok := <-fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watch error")

		case <-timer.C:
			if err := build(); err != nil {
				logger.Error().Err(err).Msg("build failed")
			}
		}
	}
}

// add starts watching a file or a directory tree
func (w *watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	if !info.IsDir() {
		w.files[path] = struct{}{}
		return w.fs.Add(filepath.Dir(path))
	}

	w.dirs = append(w.dirs, path)
	if err := w.fs.Add(path); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	items, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	for _, item := range items {
		if item.IsDir() {
			if err := w.fs.Add(filepath.Join(path, item.Name())); err != nil {
				return fmt.Errorf("watch: %w", err)
			}
		}
	}
	return nil
}

// relevant returns whether a change to the path affects the job
func (w *watcher) relevant(path string) bool {
	path = filepath.Clean(path)
	if path == w.ignore {
		return false
	}

	if _, ok := w.files[path]; ok {
		return true
	}

	for _, dir := range w.dirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// absolute returns the absolute form of a path, or the cleaned path on failure
func absolute(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
