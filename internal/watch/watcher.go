// Package watch re-reads a file whenever it changes on disk.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a single file and hands its contents to a callback after
// every write.
type Watcher struct {
	path     string
	mu       sync.RWMutex
	data     []byte
	watcher  *fsnotify.Watcher
	onChange func([]byte)
	done     chan struct{}
	once     sync.Once
}

// New reads path once and starts watching it. onChange is not called for
// the initial read; use Data for that.
func New(path string, onChange func([]byte)) (*Watcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		path:     path,
		data:     data,
		watcher:  fsWatcher,
		onChange: onChange,
		done:     make(chan struct{}),
	}

	// Watch the directory so editors that replace the file are still seen.
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	go w.watch()

	return w, nil
}

// Data returns the most recently read contents.
func (w *Watcher) Data() []byte {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.data
}

func (w *Watcher) watch() {
	filename := filepath.Base(w.path)

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		slog.Error("failed to re-read watched file",
			slog.String("path", w.path),
			slog.String("error", err.Error()),
		)
		return
	}

	w.mu.Lock()
	w.data = data
	w.mu.Unlock()

	slog.Debug("watched file changed", slog.String("path", w.path))

	if w.onChange != nil {
		w.onChange(data)
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
