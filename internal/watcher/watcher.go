// Package watcher keeps a project's source trees in step with the Java
// files on disk.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"typeguess/internal/javasrc"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// Event represents a file system event
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// ChangeHandler receives a debounced batch of source file events.
type ChangeHandler func(events []Event)

// Config contains watcher configuration
type Config struct {
	DebounceMs     int      `json:"debounceMs" mapstructure:"debounceMs"`
	IgnorePatterns []string `json:"ignorePatterns" mapstructure:"ignorePatterns"`
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() Config {
	return Config{
		DebounceMs: 200,
		IgnorePatterns: []string{
			"*.class",
			".git/**",
			".typeguess/**",
			"build/**",
			"target/**",
			"node_modules/**",
		},
	}
}

// Watcher reports changes to Java files under one or more roots.
type Watcher struct {
	config  Config
	logger  *slog.Logger
	handler ChangeHandler

	fs    *fsnotify.Watcher
	batch *BatchDebouncer

	mu    sync.RWMutex
	roots []string
	dirs  map[string]bool
}

// New creates a watcher that delivers batches to handler.
func New(config Config, logger *slog.Logger, handler ChangeHandler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		config:  config,
		logger:  logger,
		handler: handler,
		fs:      fw,
		dirs:    make(map[string]bool),
	}
	w.batch = NewBatchDebouncer(time.Duration(config.DebounceMs)*time.Millisecond, w.emit)
	return w, nil
}

// Watch adds root and every directory below it that is not ignored.
func (w *Watcher) Watch(root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.roots = append(w.roots, root)
	w.mu.Unlock()

	if err := w.addTree(root); err != nil {
		return err
	}
	w.logger.Info("Watching sources", "root", root, "dirs", len(w.WatchedDirs()))
	return nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.IsIgnored(path) {
			return filepath.SkipDir
		}
		return w.addDir(path)
	})
}

func (w *Watcher) addDir(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dirs[path] {
		return nil
	}
	if err := w.fs.Add(path); err != nil {
		return err
	}
	w.dirs[path] = true
	return nil
}

// Run delivers events until ctx is done. Pending events are dropped on
// return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.batch.Cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if w.IsIgnored(ev.Name) {
		return
	}
	var typ EventType
	switch {
	case ev.Has(fsnotify.Create):
		typ = EventCreate
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("Failed to watch directory", "path", ev.Name, "error", err)
			}
			return
		}
	case ev.Has(fsnotify.Write):
		typ = EventModify
	case ev.Has(fsnotify.Remove):
		typ = EventDelete
	case ev.Has(fsnotify.Rename):
		typ = EventRename
	default:
		return
	}
	if !javasrc.IsJavaFile(ev.Name) {
		return
	}
	w.batch.Add(Event{Type: typ, Path: ev.Name, Timestamp: time.Now()})
}

func (w *Watcher) emit(events []Event) {
	w.logger.Debug("Source changes detected", "eventCount", len(events))
	if w.handler != nil {
		w.handler(events)
	}
}

// Flush delivers pending events immediately.
func (w *Watcher) Flush() {
	w.batch.Flush()
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.batch.Cancel()
	return w.fs.Close()
}

// IsIgnored checks if a path matches ignore patterns. Patterns match the
// base name, or with a /** suffix, any path below a directory of that name
// relative to a watched root.
func (w *Watcher) IsIgnored(path string) bool {
	rel := filepath.ToSlash(w.relative(path))
	for _, pattern := range w.config.IgnorePatterns {
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			if rel == dir || strings.HasPrefix(rel, dir+"/") {
				return true
			}
			continue
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}

func (w *Watcher) relative(path string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, root := range w.roots {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return path
}

// WatchedDirs returns the watched directories.
func (w *Watcher) WatchedDirs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	dirs := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		dirs = append(dirs, d)
	}
	return dirs
}
