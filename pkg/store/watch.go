package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"phishjudge/pkg/logger"
)

const watchedOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watch reloads the blacklist whenever its backing file changes, until ctx is
// done. The directory is watched because writes replace the file by rename.
// onChange, when non-nil, receives the size after every reload.
func (b *Blacklist) Watch(ctx context.Context, onChange func(domains int)) error {
	if b.path == "" {
		return errors.New("blacklist has no backing file")
	}
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create blacklist dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create blacklist watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(b.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(watchedOps) {
				continue
			}
			if err := b.Reload(); err != nil {
				b.log.Warn("blacklist reload failed", logger.String("path", b.path), logger.Error(err))
				continue
			}
			n := b.Len()
			b.log.Debug("blacklist reloaded", logger.String("path", b.path), logger.Int("domains", n))
			if onChange != nil {
				onChange(n)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			b.log.Warn("blacklist watcher error", logger.Error(err))
		}
	}
}
