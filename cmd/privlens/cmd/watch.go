package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cognicore/privlens/pkg/privlens/highlight"
)

// reloadDelay coalesces the bursts of events editors produce on save.
const reloadDelay = 200 * time.Millisecond

// vocabWatcher calls reload after the vocabulary file changes.
type vocabWatcher struct {
	path   string
	fsw    *fsnotify.Watcher
	reload *highlight.Debouncer
	logger *slog.Logger
}

// newVocabWatcher watches the directory holding path, so that files
// replaced by rename are still seen.
func newVocabWatcher(path string, logger *slog.Logger, reload func()) (*vocabWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &vocabWatcher{
		path:   abs,
		fsw:    fsw,
		reload: highlight.NewDebouncer(reloadDelay, reload),
		logger: logger,
	}, nil
}

// Run dispatches file events until ctx is done or the watcher closes.
func (w *vocabWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("vocabulary watch error", slog.Any("error", err))
		}
	}
}

func (w *vocabWatcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("vocabulary changed", slog.String("op", event.Op.String()))
	w.reload.Trigger()
}

// Close stops watching and drops any pending reload.
func (w *vocabWatcher) Close() error {
	w.reload.Stop()
	return w.fsw.Close()
}
