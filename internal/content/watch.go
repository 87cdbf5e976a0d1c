package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for a burst of changes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads content when files under a directory change.
type Watcher struct {
	Dir      string
	Pattern  string
	Debounce time.Duration
	Logger   *slog.Logger

	// OnReload receives each successfully reloaded content set.
	OnReload func(*Content)
}

// Run watches until ctx is done. A reload that fails is logged and the
// previous content stays in use.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := addDirs(fw, w.Dir); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				// new subdirectories are watched too; errors mean it was a file
				_ = addDirs(fw, ev.Name)
			}
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("content watch error", "error", err)

		case <-timer.C:
			c, err := Load(w.Dir, w.Pattern)
			if err != nil {
				logger.Error("content reload failed", "dir", w.Dir, "error", err)
				continue
			}
			logger.Info("content reloaded", "dir", w.Dir, "packages", len(c.Packages()))
			if w.OnReload != nil {
				w.OnReload(c)
			}
		}
	}
}

func addDirs(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
