package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the global configuration whenever the config file is
// written or replaced, and calls onReload with the new value. It blocks
// until ctx is done. The directory is watched rather than the file so
// that editors replacing the file by rename are picked up.
func Watch(ctx context.Context, onReload func(*VoteMeConfig)) error {
	path := Get().ConfigFilePath()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := Reload(); err != nil {
				log.Printf("config: reload of %s failed: %v", path, err)
				continue
			}
			log.Printf("config: reloaded %s", path)
			if onReload != nil {
				onReload(Get())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("config: watcher error: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}
