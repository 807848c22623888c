package configmgr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/veesix-networks/dhcpagent/pkg/logger"
)

const watchSettle = 200 * time.Millisecond

// Watcher signals changes to a single configuration file. The parent
// directory is watched so that editors replacing the file by rename are seen.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	events  chan struct{}
	logger  *slog.Logger
}

func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:    abs,
		watcher: fw,
		events:  make(chan struct{}, 1),
		logger:  logger.Get(logger.Config),
	}, nil
}

// Events delivers one value per burst of changes to the file.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Run forwards file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) && !e.Has(fsnotify.Rename) {
				continue
			}
			settle = time.After(watchSettle)
		case <-settle:
			settle = nil
			select {
			case w.events <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", "error", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
