package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// notifyBackend watches the parent directories of the watched files.
type notifyBackend struct {
	watcher *fsnotify.Watcher

	mu   sync.Mutex
	dirs map[string]int // watched files per directory
}

func newNotifyBackend() (*notifyBackend, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &notifyBackend{watcher: fsw, dirs: make(map[string]int)}, nil
}

func (b *notifyBackend) name() string { return "fsnotify" }

func (b *notifyBackend) add(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir := filepath.Dir(path)
	if b.dirs[dir] == 0 {
		if err := b.watcher.Add(dir); err != nil {
			return err
		}
	}
	b.dirs[dir]++
	return nil
}

func (b *notifyBackend) remove(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir := filepath.Dir(path)
	if b.dirs[dir] == 0 {
		return nil
	}
	b.dirs[dir]--
	if b.dirs[dir] > 0 {
		return nil
	}
	delete(b.dirs, dir)
	return b.watcher.Remove(dir)
}

func (b *notifyBackend) run(ctx context.Context, emit func(Event), onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			op, ok := operation(ev.Op)
			if !ok {
				continue
			}
			emit(Event{Path: filepath.Clean(ev.Name), Op: op, Time: time.Now()})
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			onError(err)
		}
	}
}

func (b *notifyBackend) close() error {
	return b.watcher.Close()
}

// operation maps an fsnotify op to an Operation. Attribute-only changes
// are dropped.
func operation(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	}
	return 0, false
}
