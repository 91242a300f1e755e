// Package watch reloads a scenario file whenever it changes on disk.
//
// Editors often save by writing a temporary file and renaming it over the
// original, so the watcher observes the containing directory and filters
// events by file name. Bursts of events are debounced into one reload.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/san-kum/ch4box/internal/config"
	"github.com/san-kum/ch4box/internal/logging"
)

const DefaultDebounce = 100 * time.Millisecond

// Handler receives the reloaded scenario, or the error that prevented
// loading it. It is called from the goroutine running Run.
type Handler func(*config.Scenario, error)

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	logger   *slog.Logger
}

// New starts watching the directory of path. Changes made after New returns
// are delivered once Run is called.
func New(path string, handler Handler, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		fsw:      fsw,
		handler:  handler,
		debounce: DefaultDebounce,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run delivers reloads until ctx is cancelled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("scenario file changed", "path", w.path, "op", ev.Op.String())
			pending = time.After(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "path", w.path, "err", err)

		case <-pending:
			pending = nil
			s, err := config.Load(w.path)
			if err != nil {
				w.logger.Warn("reload failed", "path", w.path, "err", err)
			}
			w.handler(s, err)
		}
	}
}
