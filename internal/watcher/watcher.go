// Package watcher feeds export files dropped into a directory to the import worker.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Enqueuer accepts file paths for import.
type Enqueuer interface {
	Enqueue(path string)
}

// defaultDebounce is how long a file must stay quiet before it is enqueued.
const defaultDebounce = 500 * time.Millisecond

// Watcher notices SQLite export files in a directory and enqueues each one
// once its writes have settled.
type Watcher struct {
	dir      string
	queue    Enqueuer
	log      *logrus.Logger
	debounce time.Duration

	mu        sync.Mutex
	timers    map[string]timer
	afterFunc func(d time.Duration, f func()) timer
}

// timer is the part of *time.Timer the debounce needs.
type timer interface {
	Stop() bool
}

func afterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// New creates a Watcher for dir.
func New(dir string, queue Enqueuer, log *logrus.Logger) *Watcher {
	return &Watcher{
		dir:       dir,
		queue:     queue,
		log:       log,
		debounce:  defaultDebounce,
		timers:    make(map[string]timer),
		afterFunc: afterFunc,
	}
}

// WithDebounce sets the debounce duration.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// IsExportFile reports whether name looks like an unprocessed SQLite export.
func IsExportFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".sqlite", ".sqlite3", ".db":
		return true
	default:
		return false
	}
}

// Watch enqueues files already present in the directory, then watches it for
// new ones. It blocks until the context is cancelled or an error occurs.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	if err := w.scanExisting(); err != nil {
		return err
	}

	w.log.WithField("dir", w.dir).Info("watching for export files")

	defer w.stopTimers()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if !IsExportFile(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.schedule(event.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}

			w.log.WithError(err).Warn("watcher error")

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) scanExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.dir, err)
	}

	for _, e := range entries {
		if e.Type().IsRegular() && IsExportFile(e.Name()) {
			w.queue.Enqueue(filepath.Join(w.dir, e.Name()))
		}
	}

	return nil
}

// schedule (re)starts the quiet-period timer for path. A timer that fired
// after it was replaced or stopped enqueues nothing.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}

	var t timer

	t = w.afterFunc(w.debounce, func() {
		w.mu.Lock()
		current := w.timers[path] == t
		if current {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		if !current {
			return
		}

		w.log.WithField("path", path).Debug("export file settled")
		w.queue.Enqueue(path)
	})

	w.timers[path] = t
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}
