package scheduler

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/camwatch/camwatch-go/pkg/logger"
)

// FileWatcher signals when a watched file is rewritten. Used for the vendor
// credentials file, which an external refresher may replace at any time.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	log     *logger.Logger
	target  string
	changed chan struct{}
}

// NewFileWatcher watches path for writes. The parent directory is watched
// rather than the file itself so atomic replace (write temp, rename over)
// still produces an event.
func NewFileWatcher(path string, log *logger.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	return &FileWatcher{
		watcher: w,
		log:     log,
		target:  abs,
		changed: make(chan struct{}, 1),
	}, nil
}

// Changed delivers one element per detected rewrite. The channel has a
// buffer of one; consumers drain it at their own pace.
func (f *FileWatcher) Changed() <-chan struct{} {
	return f.changed
}

// Run pumps filesystem events until the context ends.
func (f *FileWatcher) Run(ctx context.Context) {
	defer f.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case f.changed <- struct{}{}:
			default:
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Mainf("WARNING: credentials watcher error: %v", err)
		}
	}
}
