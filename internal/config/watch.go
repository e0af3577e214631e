package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is written. It runs until ctx is cancelled.
//
// Only the retry policy and flush interval are hot-swappable; a change to
// the endpoint or spool directory is logged as requiring a restart but
// onChange is still invoked so the caller can pick up the swappable parts.
//
// If a reload fails (e.g., invalid YAML), the error is logged and the
// previous config remains active — Watch does not call onChange.
func Watch(ctx context.Context, path string, current *Config, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)

	prev := current
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only reload on write or create events. Editors often write via
			// rename (atomic save), so also catch fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed — keeping previous config",
					"path", path, "err", err)
				continue
			}

			if prev != nil {
				if cfg.Relay.Endpoint != prev.Relay.Endpoint {
					slog.Warn("config: relay.endpoint changed — restart required to take effect",
						"old", prev.Relay.Endpoint, "new", cfg.Relay.Endpoint)
				}
				if cfg.Relay.SpoolDir != prev.Relay.SpoolDir {
					slog.Warn("config: relay.spool_dir changed — restart required to take effect",
						"old", prev.Relay.SpoolDir, "new", cfg.Relay.SpoolDir)
				}
			}

			slog.Info("config: reloaded",
				"path", path,
				"flush_interval", cfg.Relay.FlushInterval,
				"max_attempts", cfg.Relay.Retry.MaxAttempts,
			)
			prev = cfg
			onChange(cfg)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
