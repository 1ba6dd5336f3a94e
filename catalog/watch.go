// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog whenever a template file changes, debouncing
// editor write bursts. Blocks until stop is closed. A reload that fails
// (e.g. half-written YAML) keeps the previous catalog and logs the error.
func (c *Catalog) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(c.dir); err != nil {
		return err
	}

	const debounce = 300 * time.Millisecond
	var timer *time.Timer
	defer func() {
		// A debounced reload must not fire after the watcher is gone.
		if timer != nil {
			timer.Stop()
		}
	}()
	reload := func() {
		if err := c.Reload(); err != nil {
			slog.Error("catalog reload failed, keeping previous catalog", "error", err)
			return
		}
		c.mu.RLock()
		n := len(c.order)
		c.mu.RUnlock()
		slog.Info("catalog reloaded", "templates", n)
	}

	for {
		select {
		case <-stop:
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("catalog watch error", "error", err)
		}
	}
}
