package watch

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the current-calls snapshot file and invokes a
// callback whenever the tracker rewrites it. The snapshot is replaced
// by rename, so the watch is placed on the containing directory.
type Watcher struct {
	path     string
	onChange func(ctx context.Context)
}

func New(snapshotPath string, onChange func(ctx context.Context)) *Watcher {
	return &Watcher{path: snapshotPath, onChange: onChange}
}

func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	target := filepath.Base(w.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if filepath.Base(evt.Name) != target {
					continue
				}
				w.onChange(ctx)
			case err := <-watcher.Errors:
				log.Printf("watcher error: %v", err)
			}
		}
	}()
	return watcher.Add(filepath.Dir(w.path))
}
