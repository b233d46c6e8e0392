// Package watch re-runs analysis when Java sources under a directory change.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/panbanda/oometrics/pkg/config"
	"github.com/panbanda/oometrics/pkg/parser"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the changed files of one debounce window, sorted.
type ChangeFunc func(paths []string)

// Watcher monitors Java files for changes and triggers analysis.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	root      string
	onChange  ChangeFunc
	logger    *zap.Logger
	out       io.Writer

	mu      sync.Mutex
	pending map[string]time.Time
	// serializes callbacks so analyses never overlap
	runMu sync.Mutex
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOutput sets where status lines are printed (default stdout).
func WithOutput(out io.Writer) Option {
	return func(w *Watcher) {
		w.out = out
	}
}

// NewWatcher creates a watcher rooted at root.
func NewWatcher(root string, cfg *config.Config, onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  DefaultDebounce,
		root:      root,
		onChange:  onChange,
		logger:    zap.NewNop(),
		out:       os.Stdout,
		pending:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// addTree watches dir and every non-excluded directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.excluded(path, true) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) excluded(path string, isDir bool) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	if isDir {
		return w.config.ShouldExclude(rel + "/")
	}
	return w.config.ShouldExclude(rel)
}

// Start watches until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}

	color.New(color.FgCyan).Fprintf(w.out, "Watching for changes in %s...\n", w.root)
	color.New(color.FgCyan).Fprintln(w.out, "Press Ctrl+C to stop")
	fmt.Fprintln(w.out)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// handleEvent queues Java files that were written, created, removed or
// renamed, and starts watching new directories.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	path := event.Name

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.excluded(path, true) {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("failed to watch directory", zap.String("path", path), zap.Error(err))
				}
			}
			return
		}
	}

	if parser.DetectLanguage(path) != parser.LangJava || w.excluded(path, false) {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// ready removes and returns the files quiet for at least the debounce period.
func (w *Watcher) ready(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var paths []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			paths = append(paths, path)
			delete(w.pending, path)
		}
	}
	slices.Sort(paths)
	return paths
}

func (w *Watcher) processPending() {
	paths := w.ready(time.Now())
	if len(paths) == 0 || w.onChange == nil {
		return
	}

	w.runMu.Lock()
	defer w.runMu.Unlock()

	for _, p := range paths {
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			rel = p
		}
		color.New(color.FgYellow).Fprintf(w.out, "File changed: %s\n", rel)
	}
	w.onChange(paths)
	fmt.Fprintln(w.out)
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories currently watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
