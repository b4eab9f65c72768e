package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay gives external recorders time to finish writing a file after
// the create event fires.
const settleDelay = 200 * time.Millisecond

// Watcher hands newly dropped WAV files to a handler, then renames them with
// a .processed suffix so they are picked up exactly once.
type Watcher struct {
	dir     string
	handler func(ctx context.Context, path string) error
	logger  *slog.Logger

	mu   sync.Mutex
	seen map[string]bool
}

func NewWatcher(dir string, handler func(ctx context.Context, path string) error, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:     dir,
		handler: handler,
		logger:  logger,
		seen:    make(map[string]bool),
	}
}

// Run watches the directory until the context is cancelled. Files already
// present at startup are processed first.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating watch dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	if err := w.drainExisting(ctx); err != nil {
		return err
	}

	w.logger.Info("watching for audio files", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.process(ctx, event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) drainExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading watch dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.process(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

func (w *Watcher) process(ctx context.Context, path string) {
	if strings.ToLower(filepath.Ext(path)) != ".wav" {
		return
	}

	w.mu.Lock()
	if w.seen[path] {
		w.mu.Unlock()
		return
	}
	w.seen[path] = true
	w.mu.Unlock()

	time.Sleep(settleDelay)

	w.logger.Info("processing audio file", "path", path)
	if err := w.handler(ctx, path); err != nil {
		w.logger.Error("handling audio file", "path", path, "error", err)
	}

	if err := os.Rename(path, path+".processed"); err != nil {
		w.logger.Error("renaming processed file", "path", path, "error", err)
	}
}
