// Package notify delivers values to subscribed listeners.
//
// Subscriptions are released explicitly through the handle returned by
// Subscribe. Listeners are called in subscription order from a snapshot
// taken when delivery starts, so subscribing or unsubscribing from inside a
// listener affects only later deliveries. A panicking listener is recovered
// and reported, and the remaining listeners still run.
package notify

import (
	"fmt"
	"sort"
	"sync"
)

// Listener receives delivered values.
type Listener[T any] func(T)

// PanicHandler is called with the recovered value when a listener panics.
type PanicHandler func(recovered any)

// Subscription is the handle of a registered listener.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the listener. It is safe to call more than once and
// from inside the listener itself.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Notifier manages listener subscriptions for values of type T.
type Notifier[T any] struct {
	mu        sync.RWMutex
	listeners map[uint64]Listener[T]
	nextID    uint64

	onPanic PanicHandler
	closed  bool
}

// Option configures a Notifier.
type Option func(*options)

type options struct {
	onPanic PanicHandler
}

// WithPanicHandler sets the function told about listener panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(o *options) { o.onPanic = h }
}

// New creates a Notifier.
func New[T any](opts ...Option) *Notifier[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return &Notifier[T]{
		listeners: make(map[uint64]Listener[T]),
		onPanic:   o.onPanic,
	}
}

// Subscribe registers l and returns its handle.
func (n *Notifier[T]) Subscribe(l Listener[T]) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.listeners[id] = l

	return &Subscription{cancel: func() { n.unsubscribe(id) }}
}

// Len returns the number of subscribed listeners.
func (n *Notifier[T]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Notify delivers v to every listener on the calling goroutine and returns
// when the last listener has returned.
func (n *Notifier[T]) Notify(v T) {
	n.mu.RLock()
	closed := n.closed
	n.mu.RUnlock()
	if closed {
		return
	}
	n.deliver(v)
}

// Close makes later calls to Notify no-ops. It is safe to call Close
// multiple times.
func (n *Notifier[T]) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
}

func (n *Notifier[T]) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.listeners, id)
}

// snapshot returns the live listeners in subscription order.
func (n *Notifier[T]) snapshot() []Listener[T] {
	n.mu.RLock()
	defer n.mu.RUnlock()

	ids := make([]uint64, 0, len(n.listeners))
	for id := range n.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Listener[T], len(ids))
	for i, id := range ids {
		out[i] = n.listeners[id]
	}
	return out
}

func (n *Notifier[T]) deliver(v T) {
	// Call listeners outside the lock
	for _, l := range n.snapshot() {
		n.call(l, v)
	}
}

func (n *Notifier[T]) call(l Listener[T], v T) {
	defer func() {
		if r := recover(); r != nil && n.onPanic != nil {
			n.onPanic(r)
		}
	}()
	l(v)
}

// PanicError wraps a recovered listener panic as an error.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("listener panic: %v", e.Value)
}
