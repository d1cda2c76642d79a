package fs

import (
	"context"
	"fmt"
	"io"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/fsnotify/fsnotify"
)

// Watcher statuses reported by State.
const (
	WatchCreated = "created"
	WatchRunning = "running"
	WatchStopped = "stopped"
)

// DefaultQuietPeriod is how long the source tree must stay unchanged before
// a watch triggers a run. Scanners export a series as a burst of files.
const DefaultQuietPeriod = 2 * time.Second

// WatchConfig holds the configuration of a Watcher.
type WatchConfig struct {
	Root string
	// SkipDirs are not watched (typically the output root).
	SkipDirs []string
	Quiet    time.Duration
	Logger   *slog.Logger
}

// Watcher triggers a callback once the source tree settles after a change.
// Callbacks run on the watching goroutine, one at a time.
type Watcher struct {
	config WatchConfig
	skip   map[string]bool

	mu          sync.RWMutex
	status      string
	settles     int
	lastSettled time.Time
	lastErr     error
}

// WatcherState exposes the watcher for observability.
type WatcherState struct {
	Root        string        `json:"root"`
	Quiet       time.Duration `json:"quiet"`
	Status      string        `json:"status"`
	Settles     int           `json:"settles"`
	LastSettled time.Time     `json:"last_settled,omitzero"`
	LastError   string        `json:"last_error,omitempty"`
}

// NewWatcher creates a new watcher.
func NewWatcher(config WatchConfig) *Watcher {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Quiet <= 0 {
		config.Quiet = DefaultQuietPeriod
	}
	config.Root = resolveDir(config.Root)
	skip := make(map[string]bool, len(config.SkipDirs))
	for _, d := range config.SkipDirs {
		skip[resolveDir(d)] = true
	}
	return &Watcher{config: config, skip: skip, status: WatchCreated}
}

// State implements introspection.Introspectable.
func (w *Watcher) State() any {
	w.mu.RLock()
	defer w.mu.RUnlock()

	st := WatcherState{
		Root:        w.config.Root,
		Quiet:       w.config.Quiet,
		Status:      w.status,
		Settles:     w.settles,
		LastSettled: w.lastSettled,
	}
	if w.lastErr != nil {
		st.LastError = w.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (w *Watcher) ComponentType() string {
	return "fs-watcher"
}

func (w *Watcher) setStatus(status string) {
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()
}

var _ introspection.Introspectable = (*Watcher)(nil)
var _ introspection.Component = (*Watcher)(nil)

// Watch blocks until ctx is cancelled, calling onSettle after every burst of
// changes below the root. An error returned by onSettle is logged and
// watching continues.
func (w *Watcher) Watch(ctx context.Context, onSettle func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.config.Root); err != nil {
		return err
	}
	w.setStatus(WatchRunning)
	defer w.setStatus(WatchStopped)

	timer := time.NewTimer(w.config.Quiet)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.config.Logger.Warn("cannot watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			timer.Reset(w.config.Quiet)

		case wErr, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.config.Logger.Error("fsnotify error", "error", wErr)

		case <-timer.C:
			w.config.Logger.Info("source settled, sorting", "root", w.config.Root)
			err := onSettle(ctx)
			if err != nil {
				w.config.Logger.Error("sort failed", "error", err)
			}
			w.mu.Lock()
			w.settles++
			w.lastSettled = time.Now()
			w.lastErr = err
			w.mu.Unlock()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	for dir := range w.skip {
		if within(event.Name, dir) {
			return false
		}
	}
	return true
}

// addTree watches dir and every directory below it, except skipped ones.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.skip[filepath.Clean(path)] {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
