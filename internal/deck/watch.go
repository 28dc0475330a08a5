package deck

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a deck file whenever it changes on disk.
type Watcher struct {
	Path     string
	Defaults Defaults
	Debounce time.Duration
	Logger   *zap.Logger

	// OnChange receives every successfully parsed revision.
	OnChange func(*Deck)
	// OnError receives parse failures; the previous deck stays in use.
	OnError func(error)
}

// Run watches until ctx is cancelled. The parent directory is watched
// rather than the file so atomic rename-on-save is seen.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", w.Path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	logger.Debug("watching deck", zap.String("path", abs))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("deck watcher error", zap.Error(err))

		case <-timer.C:
			d, err := Load(abs, w.Defaults)
			if err != nil {
				logger.Warn("deck reload failed", zap.String("path", abs), zap.Error(err))
				if w.OnError != nil {
					w.OnError(err)
				}
				continue
			}
			logger.Info("deck reloaded",
				zap.String("path", abs),
				zap.Int("slides", len(d.Entries)))
			if w.OnChange != nil {
				w.OnChange(d)
			}
		}
	}
}
