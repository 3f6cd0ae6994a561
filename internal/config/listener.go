package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
)

// Listen watches configPath and calls onChange with each successfully reloaded
// configuration until quit is closed. A file that fails to load is logged and the
// previous configuration stays in effect.
func Listen(configPath string, quit <-chan struct{}, onChange func(*MainConfig)) error {
	absConfigPath, err := filepath.Abs(configPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for config file '%s': %w", configPath, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// editors replace the file on save, so watch the directory
	if err := watcher.Add(filepath.Dir(absConfigPath)); err != nil {
		return fmt.Errorf("failed to watch config directory '%s': %w", filepath.Dir(absConfigPath), err)
	}

	for {
		select {
		case <-quit:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absConfigPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			c, err := LoadConfig(absConfigPath)
			if err != nil {
				logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Ignoring config change: %v", err))
				continue
			}
			logger.LogMessage(logger.LOGLEVEL_INFO, fmt.Sprintf("Configuration reloaded from %s", absConfigPath))
			onChange(c)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.LogMessage(logger.LOGLEVEL_WARNING, fmt.Sprintf("Config watcher error: %v", err))
		}
	}
}
