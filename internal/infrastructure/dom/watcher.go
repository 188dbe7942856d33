package dom

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Page whenever its backing file changes on disk.
// A reload counts as a navigation, after which onReload is invoked.
type Watcher struct {
	path     string
	page     *Page
	debounce time.Duration
	onReload func(ctx context.Context)
	logger   *slog.Logger

	fsw   *fsnotify.Watcher
	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher prepares a watcher; debounce defaults to 250ms.
func NewWatcher(path string, page *Page, debounce time.Duration, onReload func(ctx context.Context), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		page:     page,
		debounce: debounce,
		onReload: onReload,
		logger:   logger,
		fsw:      fsw,
	}, nil
}

// Start watches the parent directory so editors that replace the file are seen too.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	go w.loop(ctx)
	w.logger.Info("page watcher started", "path", w.path, "debounce", w.debounce)
	return nil
}

// Stop releases the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.schedule(ctx)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("page watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.reload(ctx) })
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := LoadFile(w.page, w.path); err != nil {
		w.logger.Warn("page reload failed", "path", w.path, "error", err)
		return
	}
	w.logger.Info("page reloaded", "path", w.path, "generation", w.page.Generation())
	if w.onReload != nil {
		w.onReload(ctx)
	}
}

// LoadFile navigates page to the contents of path.
func LoadFile(page *Page, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer f.Close()
	return page.Load(f, "text/html")
}
