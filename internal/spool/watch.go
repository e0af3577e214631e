package spool

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the spool directory and calls onNew each time the upstream
// collector hands off a completed bundle (a new envelope file appears).
// It runs until ctx is cancelled.
//
// Collectors that write through Store.Put commit via rename, which surfaces
// as a create event for the final envelope name; temp files are ignored.
func Watch(ctx context.Context, dir string, onNew func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	slog.Info("spool: watching for new bundles", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(event.Name, bundleExt) {
				continue
			}

			slog.Debug("spool: new bundle observed", "file", event.Name)
			onNew()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("spool: watcher error", "err", err)
		}
	}
}
