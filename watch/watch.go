// Package watch re-runs a function whenever one of a set of files changes.
//
// Parent directories are watched rather than the files themselves, so a file
// that is replaced by an editor (write to temp, rename over) keeps firing.
// When fsnotify is unavailable the watcher falls back to polling
// modification times.
//
//	w := watch.New([]string{"amp.kicad_pcb", "amp.stackup"}, 200*time.Millisecond)
//	err := w.Run(ctx, func(ctx context.Context) error {
//		return rebuild(ctx)
//	})
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is how often the polling fallback checks files.
const DefaultPollInterval = 250 * time.Millisecond

// Func is called once at start and again after each change.
type Func func(ctx context.Context) error

// Watcher triggers a Func when watched files change.
type Watcher struct {
	paths        []string
	debounce     time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
	forcePoll    bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger for watch events and Func errors.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithPollInterval sets the polling fallback interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithPolling skips fsnotify and always polls.
func WithPolling() Option {
	return func(w *Watcher) {
		w.forcePoll = true
	}
}

// New creates a watcher over paths. Changes closer together than debounce
// collapse into one call.
func New(paths []string, debounce time.Duration, opts ...Option) *Watcher {
	w := &Watcher{
		debounce:     debounce,
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
	}
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		w.paths = append(w.paths, filepath.Clean(p))
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Paths returns the watched files as absolute paths.
func (w *Watcher) Paths() []string {
	return append([]string(nil), w.paths...)
}

// Run calls fn once, then again after every debounced change, until ctx is
// done. Errors from fn are logged and do not stop the watcher. Run returns
// ctx.Err() when the context ends.
func (w *Watcher) Run(ctx context.Context, fn Func) error {
	w.call(ctx, fn)

	if w.forcePoll {
		return w.runPolling(ctx, fn)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("fsnotify unavailable, polling", slog.Any("error", err))
		return w.runPolling(ctx, fn)
	}
	defer watcher.Close()

	for _, dir := range w.dirs() {
		if err := watcher.Add(dir); err != nil {
			w.logger.Warn("watch dir failed, polling",
				slog.String("dir", dir),
				slog.Any("error", err))
			watcher.Close()
			return w.runPolling(ctx, fn)
		}
	}
	return w.runNotify(ctx, fn, watcher)
}

func (w *Watcher) runNotify(ctx context.Context, fn Func, watcher *fsnotify.Watcher) error {
	watched := make(map[string]bool, len(w.paths))
	for _, p := range w.paths {
		watched[p] = true
	}

	// Stopped timer; armed on the first relevant event.
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return ctx.Err()
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("file changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case <-timer.C:
			w.call(ctx, fn)

		case err, ok := <-watcher.Errors:
			if !ok {
				return ctx.Err()
			}
			w.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) runPolling(ctx context.Context, fn Func) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	last := w.snapshot()
	var pending time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-ticker.C:
			current := w.snapshot()
			if changed(last, current) {
				last = current
				pending = now.Add(w.debounce)
			}
			if !pending.IsZero() && !now.Before(pending) {
				pending = time.Time{}
				w.call(ctx, fn)
			}
		}
	}
}

func (w *Watcher) call(ctx context.Context, fn Func) {
	if ctx.Err() != nil {
		return
	}
	if err := fn(ctx); err != nil {
		w.logger.Error("run failed", slog.Any("error", err))
	}
}

// dirs returns the distinct parent directories of the watched paths.
func (w *Watcher) dirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range w.paths {
		dir := filepath.Dir(p)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// snapshot records modification time and size per path. Missing files are
// recorded as the zero stamp so that their creation counts as a change.
func (w *Watcher) snapshot() map[string]stamp {
	stamps := make(map[string]stamp, len(w.paths))
	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			stamps[p] = stamp{}
			continue
		}
		stamps[p] = stamp{modTime: info.ModTime(), size: info.Size()}
	}
	return stamps
}

type stamp struct {
	modTime time.Time
	size    int64
}

func changed(before, after map[string]stamp) bool {
	for p, s := range after {
		prev := before[p]
		if !prev.modTime.Equal(s.modTime) || prev.size != s.size {
			return true
		}
	}
	return false
}
