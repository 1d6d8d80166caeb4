package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/esview/pkg/log"
)

// Watch reloads the configuration file whenever it changes and hands every
// successfully loaded configuration to onChange. Invalid files are logged and
// skipped so a half-saved edit never replaces a working configuration.
//
// The parent directory is watched rather than the file itself: editors often
// replace files with an atomic rename, which would silently drop a watch on
// the old inode.
//
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, configPath string, onChange func(*Config)) error {
	logger := log.ForService("config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warnf("failed to close config file watcher: %v", err)
		}
	}()

	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	logger.Infof("watching config file for changes: %s", configPath)

	target := filepath.Clean(configPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			// Let the writer finish.
			time.Sleep(100 * time.Millisecond)

			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				logger.Infof("config file was removed and not replaced, skipping reload")
				continue
			}

			cfg, err := LoadConfig(configPath)
			if err != nil {
				logger.Errorf("failed to reload configuration: %v", err)
				continue
			}
			logger.Infof("configuration reloaded (event: %s)", event.Op.String())
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("config file watcher error: %v", err)
		}
	}
}
