package seed

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

// Watcher re-applies a seed file each time it is saved. Re-applying an
// exercise replaces it, so item placements made by learners are reset.
type Watcher struct {
	path  string
	store question.Store
	log   *zap.Logger
	fsw   *fsnotify.Watcher
}

// NewWatcher starts watching the directory holding path, so editors that save
// by renaming a temp file over it are seen too.
func NewWatcher(path string, store question.Store, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
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
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &Watcher{path: abs, store: store, log: log, fsw: fsw}, nil
}

// Run blocks until ctx is done. Bursts of events closer together than
// debounce cause one reload.
func (w *Watcher) Run(ctx context.Context, debounce time.Duration) error {
	defer w.fsw.Close()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

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
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				timer.Reset(debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("seed watcher error", zap.Error(err))

		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	f, err := LoadFile(w.path)
	if err != nil {
		w.log.Warn("seed reload failed", zap.String("file", w.path), zap.Error(err))
		return
	}
	n, err := Apply(ctx, w.store, f, w.log)
	if err != nil {
		w.log.Warn("seed reload stopped early", zap.String("file", w.path), zap.Int("applied", n), zap.Error(err))
		return
	}
	w.log.Info("seed file reloaded", zap.String("file", w.path), zap.Int("questions", n))
}
