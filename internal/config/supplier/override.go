package supplier

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/typedconf/internal/config/notify"
	"github.com/dshills/typedconf/internal/config/override"
	"github.com/dshills/typedconf/internal/config/telemetry"
	"github.com/dshills/typedconf/internal/config/value"
)

// Override is a supplier that applies a fixed set of overrides to every
// record of its parent.
type Override struct {
	base

	parent    Supplier
	apply     func(*value.Message) (*value.Message, error)
	parentSub *notify.Subscription
}

// NewOverride follows parent and applies the text overrides to each of its
// records. The first application error is returned.
func NewOverride(parent Supplier, o *override.Overrides[string], opts ...Option) (*Override, error) {
	return newOverride(parent, opts, func(strict bool) func(*value.Message) (*value.Message, error) {
		return func(m *value.Message) (*value.Message, error) {
			return override.ApplyStrings(m, o, strict)
		}
	})
}

// NewTypedOverride is NewOverride for values that are already typed.
func NewTypedOverride(parent Supplier, o *override.Overrides[any], opts ...Option) (*Override, error) {
	return newOverride(parent, opts, func(strict bool) func(*value.Message) (*value.Message, error) {
		return func(m *value.Message) (*value.Message, error) {
			return override.ApplyValues(m, o, strict)
		}
	})
}

func newOverride(parent Supplier, opts []Option, mk func(strict bool) func(*value.Message) (*value.Message, error)) (*Override, error) {
	o := newOptions("override:"+parent.Name(), opts)
	s := &Override{parent: parent, apply: mk(o.strict)}
	s.init(o)

	m, err := parent.Get()
	if err != nil {
		s.close()
		return nil, err
	}
	if err := s.derive(m); err != nil {
		s.close()
		return nil, err
	}

	s.parentSub = parent.AddListener(func(u Update) { _ = s.derive(u.Current) })
	return s, nil
}

// derive applies the overrides to a parent record. On failure the current
// record is kept.
func (s *Override) derive(parent *value.Message) error {
	start := time.Now()
	m, err := s.apply(parent)
	if err != nil {
		s.collector.ObserveReload(s.name, telemetry.ResultError, time.Since(start))
		s.log.Error().Err(err).Str("reload_id", uuid.NewString()).Msg("reload failed; keeping previous config")
		return err
	}
	result := telemetry.ResultUnchanged
	if s.set(m) {
		result = telemetry.ResultChanged
	}
	s.collector.ObserveReload(s.name, result, time.Since(start))
	return nil
}

// Close detaches from the parent and releases the listeners.
func (s *Override) Close() {
	s.parentSub.Unsubscribe()
	s.close()
}
