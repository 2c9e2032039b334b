// Package watcher standardizes price files as they are written into the data
// directory by the scraper.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"nepsecli/internal/files"
	"nepsecli/internal/infrastructure"
)

// Handler processes one settled file.
type Handler func(ctx context.Context, path string)

// Watcher debounces filesystem events per path and hands settled files to a Handler.
type Watcher struct {
	dir      string
	debounce time.Duration
	handle   Handler
	fsw      *fsnotify.Watcher
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher on dir. The directory must exist.
func New(dir string, debounce time.Duration, handle Handler, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handle:   handle,
		fsw:      fsw,
		logger:   infrastructure.WithComponent(logger, "watcher"),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Run processes events until ctx is cancelled, then stops pending timers and
// waits for in-flight handlers.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("Watching data directory",
		slog.String("dir", w.dir),
		slog.Duration("debounce", w.debounce))

	defer w.close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !files.IsTabular(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", slog.String("error", err.Error()))
		}
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.pending[path] == timer {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.logger.Debug("File settled", slog.String("file", path))
		w.handle(infrastructure.EnsureTraceID(ctx), path)
	})
	w.pending[path] = timer
}

func (w *Watcher) close() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	w.fsw.Close()
	w.logger.Info("File watcher stopped")
}
