package importer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher re-imports notes as they change on disk, so a running service
// keeps the graph in step with the note collection. fsnotify does not watch
// recursively: every visible subdirectory joins the watch set at start, and
// directories created later are added as they appear.
type Watcher struct {
	root   string
	imp    *Importer
	logger *zap.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher creates a watcher over root that feeds file events into imp.
// A nil logger disables logging.
func NewWatcher(root string, imp *Importer, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		root:   root,
		imp:    imp,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start begins watching. Call Stop to clean up.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("importer: watcher: %w", err)
	}
	if err := addDirs(fsw, w.root); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("importer: watcher: %w", err)
	}
	w.fsw = fsw

	go w.loop(ctx)
	w.logger.Info("watching notes", zap.String("dir", w.root))
	return nil
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (w *Watcher) Stop() {
	if w.fsw != nil {
		_ = w.fsw.Close()
	}
	<-w.done
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, evt)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, evt fsnotify.Event) {
	if evt.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	name := filepath.Base(evt.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	// A new subdirectory joins the watch set instead of being imported.
	if evt.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(evt.Name); err != nil {
				w.logger.Warn("cannot watch new directory",
					zap.String("dir", evt.Name), zap.Error(err))
			}
			return
		}
	}

	if !isMarkdown(name) {
		return
	}

	id, action, err := w.imp.ImportFile(ctx, w.root, evt.Name)
	if err != nil {
		w.logger.Warn("import failed", zap.String("file", name), zap.Error(err))
		return
	}
	// Editors write in bursts; unchanged content was already skipped by the
	// importer's digest check.
	if action == ActionUnchanged || action == ActionSkipped {
		return
	}
	w.logger.Info("note imported",
		zap.String("file", name),
		zap.String("memory_id", id),
		zap.String("action", action))
}

// addDirs registers root and every visible subdirectory with the watcher.
func addDirs(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
