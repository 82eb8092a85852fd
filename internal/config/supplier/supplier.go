// Package supplier provides live, observable holders of a config record.
//
// A supplier starts empty and holds a record together with the time it was
// set. Setting a record equal to the current one does nothing: listeners are
// not called and the timestamp does not move. Otherwise listeners receive an
// Update on the goroutine that set the record, in subscription order, and
// each supplier serializes its own set and dispatch sequence.
//
// Suppliers compose. A File supplier parses a config file and reloads when
// any file that contributed to the parse changes; an Override supplier
// follows a parent and re-applies overrides to each new parent record. A
// failed reload is logged and the last good record stays current.
package supplier

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/typedconf/internal/config/convert"
	"github.com/dshills/typedconf/internal/config/notify"
	"github.com/dshills/typedconf/internal/config/telemetry"
	"github.com/dshills/typedconf/internal/config/value"
	"github.com/dshills/typedconf/internal/config/watcher"
)

// ErrNotInitialized is returned by Get before a record has been set.
var ErrNotInitialized = errors.New("config supplier not initialized")

// Update describes a change of the current record.
type Update struct {
	// Previous is the record replaced, nil for the first record.
	Previous *value.Message
	// Current is the new record.
	Current *value.Message
	// Timestamp is when Current was set.
	Timestamp time.Time
}

// Supplier is a live config record.
type Supplier interface {
	// Name identifies the supplier in logs and metrics.
	Name() string
	// Get returns the current record or ErrNotInitialized.
	Get() (*value.Message, error)
	// Timestamp returns when the current record was set, or the zero time.
	Timestamp() time.Time
	// AddListener registers fn for later updates. Listeners run on the
	// goroutine that changed the record and must not block for long.
	AddListener(fn func(Update)) *notify.Subscription
}

// Option configures a supplier.
type Option func(*options)

type options struct {
	name      string
	log       zerolog.Logger
	collector telemetry.Collector
	now       func() time.Time
	strict    bool
	watch     bool
	watchOpts []watcher.Option
	parent    Supplier
}

func newOptions(name string, opts []Option) options {
	o := options{
		name:      name,
		log:       zerolog.Nop(),
		collector: telemetry.Noop(),
		now:       time.Now,
		watch:     true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithName overrides the supplier name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger for reload and listener failures.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithCollector sets the metrics collector.
func WithCollector(c telemetry.Collector) Option {
	return func(o *options) {
		if c != nil {
			o.collector = c
		}
	}
}

// WithClock sets the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithStrict makes override path and range problems fatal.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithWatch turns file watching on or off. It is on by default.
func WithWatch(enable bool) Option {
	return func(o *options) { o.watch = enable }
}

// WithWatcherOptions configures the file watcher.
func WithWatcherOptions(opts ...watcher.Option) Option {
	return func(o *options) { o.watchOpts = append(o.watchOpts, opts...) }
}

// WithParent makes a file supplier parse on top of the parent's record and
// reload whenever the parent changes.
func WithParent(parent Supplier) Option {
	return func(o *options) { o.parent = parent }
}

// base implements the record holder shared by every supplier.
type base struct {
	name string
	id   string

	// setMu serializes compare, swap and dispatch.
	setMu sync.Mutex

	mu      sync.RWMutex
	current *value.Message
	ts      time.Time

	notifier  *notify.Notifier[Update]
	log       zerolog.Logger
	collector telemetry.Collector
	now       func() time.Time
}

func (b *base) init(o options) {
	b.name = o.name
	b.id = uuid.NewString()
	b.log = o.log.With().Str("supplier", o.name).Str("supplier_id", b.id).Logger()
	b.collector = o.collector
	b.now = o.now
	b.notifier = notify.New[Update](notify.WithPanicHandler(b.listenerPanic))
}

func (b *base) listenerPanic(recovered any) {
	b.collector.IncListenerPanic(b.name)
	b.log.Error().Err(&notify.PanicError{Value: recovered}).Msg("config listener panicked")
}

// Name returns the supplier name.
func (b *base) Name() string { return b.name }

// Get returns the current record.
func (b *base) Get() (*value.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return nil, fmt.Errorf("%s: %w", b.name, ErrNotInitialized)
	}
	return b.current, nil
}

// MustGet returns the current record and panics if there is none.
func (b *base) MustGet() *value.Message {
	m, err := b.Get()
	if err != nil {
		panic(err)
	}
	return m
}

// Timestamp returns when the current record was set.
func (b *base) Timestamp() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ts
}

// AddListener registers fn for later updates.
func (b *base) AddListener(fn func(Update)) *notify.Subscription {
	return b.notifier.Subscribe(fn)
}

// set stores m and notifies listeners unless m equals the current record.
// It reports whether the record changed. Listeners must not set the same
// supplier.
func (b *base) set(m *value.Message) bool {
	if m == nil {
		return false
	}

	b.setMu.Lock()
	defer b.setMu.Unlock()

	b.mu.Lock()
	prev := b.current
	if prev != nil && prev.Equal(m) {
		b.mu.Unlock()
		return false
	}
	b.current = m
	b.ts = b.now()
	u := Update{Previous: prev, Current: m, Timestamp: b.ts}
	b.mu.Unlock()

	b.notifier.Notify(u)
	return true
}

func (b *base) close() {
	b.notifier.Close()
}

// Holder is a supplier whose record is set programmatically.
type Holder struct {
	base
}

// NewHolder creates an empty holder.
func NewHolder(name string, opts ...Option) *Holder {
	h := &Holder{}
	h.init(newOptions(name, opts))
	return h
}

// Set replaces the record and reports whether it changed.
func (h *Holder) Set(m *value.Message) bool {
	return h.set(m)
}

// Close releases the listeners.
func (h *Holder) Close() {
	h.close()
}

// Fixed is a supplier whose record never changes.
type Fixed struct {
	base
}

// NewFixed creates a supplier that always returns m.
func NewFixed(m *value.Message, opts ...Option) *Fixed {
	f := &Fixed{}
	f.init(newOptions("fixed:"+m.Descriptor().QualifiedName(), opts))
	f.set(m)
	return f
}

// OnField calls fn whenever the value at the dotted path changes between
// updates of s. Unset fields read as their default. The first record is
// compared against nil.
func OnField(s Supplier, path string, fn func(old, cur value.Value)) *notify.Subscription {
	return s.AddListener(func(u Update) {
		var prev value.Value
		if u.Previous != nil {
			prev, _ = convert.Lookup(u.Previous, path)
		}
		cur, err := convert.Lookup(u.Current, path)
		if err != nil {
			return
		}
		if !value.Equal(prev, cur) {
			fn(prev, cur)
		}
	})
}
