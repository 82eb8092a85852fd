// Package watcher reports changes to an explicit set of config files.
//
// The default backend uses fsnotify on the parent directories of the
// watched files, which also catches editors that save by renaming a new
// file into place. When fsnotify is unavailable, or when asked for, files
// are polled for modification time and size changes instead. Bursts of
// events on one file are coalesced by the debounce window.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Event is one change to a watched file.
type Event struct {
	// Path is the absolute path to the changed file.
	Path string

	// Op is the operation that triggered the event.
	Op Operation

	// Time is when the event occurred.
	Time time.Time
}

// Operation is the kind of change seen on a file.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates a new file was created.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler receives debounced change events.
type Handler func(event Event)

// ErrorHandler is called with backend errors.
type ErrorHandler func(err error)

// backend produces raw events for the watched files.
type backend interface {
	name() string
	add(path string) error
	remove(path string) error
	run(ctx context.Context, emit func(Event), onError func(error))
	close() error
}

// Watcher reports changes to a set of files through its handlers.
type Watcher struct {
	mu sync.RWMutex

	files    map[string]struct{}
	handlers []Handler
	onError  ErrorHandler
	backend  backend

	// Cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	running bool

	// Debounce settings
	debounce  time.Duration
	pendingMu sync.Mutex
	pending   map[string]Event
}

type config struct {
	poll     bool
	interval time.Duration
	debounce time.Duration
	onError  ErrorHandler
}

// Option configures a Watcher.
type Option func(*config)

// WithPolling selects the polling backend with the given interval.
func WithPolling(interval time.Duration) Option {
	return func(c *config) {
		c.poll = true
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithDebounce sets the debounce duration for rapid changes. Zero delivers
// every event as it arrives.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithErrorHandler sets the function told about backend errors.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) { c.onError = h }
}

// New creates a watcher. It falls back to polling when fsnotify cannot be
// initialised.
func New(opts ...Option) *Watcher {
	c := config{
		interval: 500 * time.Millisecond,
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&c)
	}

	var b backend
	if !c.poll {
		if nb, err := newNotifyBackend(); err == nil {
			b = nb
		}
	}
	if b == nil {
		b = newPollBackend(c.interval)
	}

	return &Watcher{
		files:    make(map[string]struct{}),
		onError:  c.onError,
		backend:  b,
		debounce: c.debounce,
		pending:  make(map[string]Event),
	}
}

// Backend returns "fsnotify" or "poll".
func (w *Watcher) Backend() string {
	return w.backend.name()
}

// Watch adds a file to the watch list. The file's directory must exist;
// the file itself may be created later.
func (w *Watcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[absPath]; ok {
		return nil
	}
	if err := w.backend.add(absPath); err != nil {
		return err
	}
	w.files[absPath] = struct{}{}
	return nil
}

// Unwatch stops reporting changes to path.
func (w *Watcher) Unwatch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[absPath]; !ok {
		return nil
	}
	delete(w.files, absPath)
	return w.backend.remove(absPath)
}

// Set replaces the watch list with paths.
func (w *Watcher) Set(paths []string) error {
	want := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		want[abs] = struct{}{}
	}

	for _, p := range w.WatchedFiles() {
		if _, ok := want[p]; !ok {
			if err := w.Unwatch(p); err != nil {
				return err
			}
		}
	}
	for p := range want {
		if err := w.Watch(p); err != nil {
			return err
		}
	}
	return nil
}

// OnChange adds a handler. Handlers run on the watcher goroutine.
func (w *Watcher) OnChange(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start launches the backend and the debounce loop. Calling it twice is a no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.running = true
	ctx := w.ctx
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.backend.run(ctx, w.receive, w.reportError)
	}()

	if w.debounce > 0 {
		w.wg.Add(1)
		go w.debounceLoop(ctx)
	}
}

// Stop halts delivery. The watch list is kept.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.running = false
	w.mu.Unlock()

	w.wg.Wait()
}

// Close stops the watcher and releases the backend.
func (w *Watcher) Close() error {
	w.Stop()
	return w.backend.close()
}

// IsRunning reports whether Start has been called without a matching Stop.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedFiles returns the sorted list of watched files.
func (w *Watcher) WatchedFiles() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	files := make([]string, 0, len(w.files))
	for path := range w.files {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

func (w *Watcher) watched(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.files[path]
	return ok
}

// receive takes a raw backend event.
func (w *Watcher) receive(event Event) {
	if !w.watched(event.Path) {
		return
	}
	if w.debounce > 0 {
		w.queueEvent(event)
		return
	}
	w.emitEvent(event)
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// queueEvent queues an event for debounced delivery. A remove wins over
// anything queued before it, a create is kept over later writes, and the
// pending time always moves to the latest event.
func (w *Watcher) queueEvent(event Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	existing, exists := w.pending[event.Path]
	if exists && event.Op == OpWrite && existing.Op != OpWrite {
		event.Op = existing.Op
	}
	w.pending[event.Path] = event
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPendingEvents()
		}
	}
}

// processPendingEvents emits events that have been stable for the debounce
// window.
func (w *Watcher) processPendingEvents() {
	w.pendingMu.Lock()
	stableThreshold := time.Now().Add(-w.debounce)

	var toEmit []Event
	for path, pending := range w.pending {
		if pending.Time.Before(stableThreshold) {
			toEmit = append(toEmit, pending)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	sort.Slice(toEmit, func(i, j int) bool { return toEmit[i].Path < toEmit[j].Path })
	for _, event := range toEmit {
		w.emitEvent(event)
	}
}

// emitEvent fans event out to a snapshot of the handlers.
func (w *Watcher) emitEvent(event Event) {
	w.mu.RLock()
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, handler := range handlers {
		w.safeCallHandler(handler, event)
	}
}

// safeCallHandler runs handler, turning a panic into an error report.
func (w *Watcher) safeCallHandler(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			w.reportError(fmt.Errorf("watcher handler panicked on %s: %v", event.Path, r))
		}
	}()
	handler(event)
}
