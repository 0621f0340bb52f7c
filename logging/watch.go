package logging

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"churnscope/config"
)

// WatchLevel applies log.level from the config file at path every time the file changes.
// The parent directory is watched so editors that replace the file are seen too.
// Watching stops when ctx is done.
func WatchLevel(ctx context.Context, path string, level zap.AtomicLevel, logger *zap.Logger) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					reloadLevel(target, level, logger)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func reloadLevel(path string, level zap.AtomicLevel, logger *zap.Logger) {
	c, err := config.Load(path)
	if err != nil {
		// a half-written file; the next write event retries
		logger.Warn("ignoring unreadable config", zap.String("path", path), zap.Error(err))
		return
	}

	previous := level.Level()
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		logger.Warn("ignoring invalid log level", zap.String("level", c.Log.Level), zap.Error(err))
		return
	}
	if level.Level() != previous {
		logger.Info("log level changed", zap.Stringer("from", previous), zap.Stringer("to", level.Level()))
	}
}
