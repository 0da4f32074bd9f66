package theme

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the file must stay quiet before it is read again.
// A rewrite truncates first, so reading on the first event can see nothing.
var settle = 40 * time.Millisecond

// Watch reads path again once writes to it have settled and hands its
// contents to fn through post, which must run fn on the host thread.
// Empty reads are dropped. The parent directory is watched so editors
// that replace the file atomically are seen. Watching stops when ctx is
// done.
func Watch(ctx context.Context, path string, post func(func()), fn func(value string), log *slog.Logger) error {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("theme watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	go func() {
		defer watcher.Close()
		quiet := time.NewTimer(settle)
		quiet.Stop()
		defer quiet.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					quiet.Reset(settle)
				}
			case <-quiet.C:
				data, err := os.ReadFile(path)
				if err != nil {
					// Renamed away; the replacement arrives as a Create.
					log.Debug("theme marker unreadable", "path", path, "err", err)
					continue
				}
				value := string(data)
				if strings.TrimSpace(value) == "" {
					log.Debug("theme marker empty, keeping current theme", "path", path)
					continue
				}
				post(func() { fn(value) })
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("theme watcher", "err", err)
			}
		}
	}()
	return nil
}
