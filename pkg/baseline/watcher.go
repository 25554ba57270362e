package baseline

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch re-invokes onChange whenever the local snapshot file is written or
// replaced, until ctx is cancelled. It is a no-op when no snapshot path is
// configured. The parent directory is watched rather than the file itself so
// atomic rename-into-place saves are seen.
func (l *Loader) Watch(ctx context.Context, onChange func()) error {
	if l.snapshotPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(l.snapshotPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(l.snapshotPath)
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
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				l.logger.Info("Snapshot file changed, reloading baseline",
					zap.String("path", l.snapshotPath))
				onChange()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("Snapshot watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
