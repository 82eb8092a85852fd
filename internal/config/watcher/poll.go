package watcher

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"
)

// fileState is what polling compares between ticks.
type fileState struct {
	modTime time.Time
	size    int64
	exists  bool
}

// pollBackend stats every watched file at a fixed interval.
type pollBackend struct {
	interval time.Duration

	mu    sync.Mutex
	files map[string]fileState
}

func newPollBackend(interval time.Duration) *pollBackend {
	return &pollBackend{interval: interval, files: make(map[string]fileState)}
}

func (b *pollBackend) name() string { return "poll" }

func (b *pollBackend) add(path string) error {
	st, err := stat(path)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[path] = st
	return nil
}

func (b *pollBackend) remove(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.files, path)
	return nil
}

func (b *pollBackend) run(ctx context.Context, emit func(Event), onError func(error)) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ev := range b.check(onError) {
				emit(ev)
			}
		}
	}
}

func (b *pollBackend) close() error { return nil }

// check compares every file with its last known state.
func (b *pollBackend) check(onError func(error)) []Event {
	b.mu.Lock()
	paths := make([]string, 0, len(b.files))
	for p := range b.files {
		paths = append(paths, p)
	}
	b.mu.Unlock()
	sort.Strings(paths)

	var events []Event
	for _, path := range paths {
		cur, err := stat(path)
		if err != nil {
			onError(err)
			continue
		}

		b.mu.Lock()
		last, ok := b.files[path]
		if ok {
			b.files[path] = cur
		}
		b.mu.Unlock()
		if !ok {
			continue
		}

		now := time.Now()
		switch {
		case last.exists && !cur.exists:
			events = append(events, Event{Path: path, Op: OpRemove, Time: now})
		case !last.exists && cur.exists:
			events = append(events, Event{Path: path, Op: OpCreate, Time: now})
		case cur.exists && (!cur.modTime.Equal(last.modTime) || cur.size != last.size):
			events = append(events, Event{Path: path, Op: OpWrite, Time: now})
		}
	}
	return events
}

// stat treats a missing file as a state, not an error.
func stat(path string) (fileState, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fileState{}, nil
	}
	if err != nil {
		return fileState{}, err
	}
	return fileState{modTime: info.ModTime(), size: info.Size(), exists: true}, nil
}
