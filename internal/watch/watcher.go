// Package watch regenerates assets whenever master images change, and
// serves a small status endpoint while doing so.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// RunFunc performs one full generation run. The closure is composed in cmd
// so watch mode stays ignorant of publishing and notification concerns.
type RunFunc func(ctx context.Context) error

const defaultDebounce = 500 * time.Millisecond

type Watcher struct {
	dir      string
	debounce time.Duration
	run      RunFunc
	logger   zerolog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	trigger chan struct{}
}

func New(dir string, debounce time.Duration, run RunFunc, logger zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		run:      run,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Start blocks, rerunning the generation after each settled burst of master
// edits, until the context is canceled. Failed runs are logged and the
// watch continues; the next edit gets a fresh chance.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info().Str("dir", w.dir).Dur("debounce", w.debounce).Msg("watching master images")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("master changed")
			w.kick()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("watch error")
		case <-w.trigger:
			w.logger.Info().Msg("masters settled, regenerating")
			if err := w.run(ctx); err != nil {
				w.logger.Error().Err(err).Msg("regeneration failed")
			}
		}
	}
}

// kick arms (or re-arms) the debounce timer. A burst of events folds into
// one trigger once the directory goes quiet for the debounce window.
func (w *Watcher) kick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}
