package value

import "github.com/dshills/typedconf/internal/config/schema"

// keyOf returns the identity of a value inside sets and maps.
func keyOf(v Value) string {
	return v.Kind().String() + ":" + Format(v)
}

// List is an immutable ordered sequence.
type List struct {
	items []Value
}

// NewList creates a list. Nil items are dropped.
func NewList(items ...Value) *List {
	l := &List{items: make([]Value, 0, len(items))}
	for _, it := range items {
		if !isNil(it) {
			l.items = append(l.items, it)
		}
	}
	return l
}

// Kind implements Value.
func (*List) Kind() schema.Kind { return schema.KindList }

// String renders the list in literal syntax.
func (l *List) String() string { return Format(l) }

func (*List) sealed() {}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// At returns the i-th item.
func (l *List) At(i int) Value { return l.items[i] }

// Items returns a copy of the items.
func (l *List) Items() []Value {
	out := make([]Value, len(l.items))
	copy(out, l.items)
	return out
}

// Set is an immutable collection of unique values. Iteration follows
// insertion order.
type Set struct {
	items []Value
	index map[string]struct{}
}

// NewSet creates a set. Duplicates and nil items are dropped.
func NewSet(items ...Value) *Set {
	s := &Set{
		items: make([]Value, 0, len(items)),
		index: make(map[string]struct{}, len(items)),
	}
	for _, it := range items {
		if isNil(it) {
			continue
		}
		k := keyOf(it)
		if _, dup := s.index[k]; dup {
			continue
		}
		s.index[k] = struct{}{}
		s.items = append(s.items, it)
	}
	return s
}

// Kind implements Value.
func (*Set) Kind() schema.Kind { return schema.KindSet }

// String renders the set in literal syntax.
func (s *Set) String() string { return Format(s) }

func (*Set) sealed() {}

// Len returns the number of items.
func (s *Set) Len() int { return len(s.items) }

// Has reports whether v is a member.
func (s *Set) Has(v Value) bool {
	if isNil(v) {
		return false
	}
	_, ok := s.index[keyOf(v)]
	return ok
}

// Items returns a copy of the items in insertion order.
func (s *Set) Items() []Value {
	out := make([]Value, len(s.items))
	copy(out, s.items)
	return out
}

// Entry is one key/value pair of a map.
type Entry struct {
	Key   Value
	Value Value
}

// Map is an immutable key to value mapping. Iteration follows insertion
// order.
type Map struct {
	keys  []Value
	vals  []Value
	index map[string]int
}

// NewMap creates a map from entries. Later entries replace earlier ones.
func NewMap(entries ...Entry) *Map {
	b := NewMapBuilder()
	for _, e := range entries {
		b.Put(e.Key, e.Value)
	}
	return b.Build()
}

// Kind implements Value.
func (*Map) Kind() schema.Kind { return schema.KindMap }

// String renders the map in literal syntax.
func (m *Map) String() string { return Format(m) }

func (*Map) sealed() {}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Get returns the value stored under k.
func (m *Map) Get(k Value) (Value, bool) {
	if isNil(k) {
		return nil, false
	}
	i, ok := m.index[keyOf(k)]
	if !ok {
		return nil, false
	}
	return m.vals[i], true
}

// Entries returns the entries in insertion order.
func (m *Map) Entries() []Entry {
	out := make([]Entry, len(m.keys))
	for i := range m.keys {
		out[i] = Entry{Key: m.keys[i], Value: m.vals[i]}
	}
	return out
}

// MapBuilder stages map entries.
type MapBuilder struct {
	keys  []Value
	vals  []Value
	index map[string]int
}

// NewMapBuilder creates an empty map builder.
func NewMapBuilder() *MapBuilder {
	return &MapBuilder{index: make(map[string]int)}
}

// PutAll copies every entry of m into the builder.
func (b *MapBuilder) PutAll(m *Map) *MapBuilder {
	if m == nil {
		return b
	}
	for i := range m.keys {
		b.Put(m.keys[i], m.vals[i])
	}
	return b
}

// Put stores v under k, keeping the position of an existing key.
// A nil key or value is ignored.
func (b *MapBuilder) Put(k, v Value) *MapBuilder {
	if isNil(k) || isNil(v) {
		return b
	}
	key := keyOf(k)
	if i, ok := b.index[key]; ok {
		b.vals[i] = v
		return b
	}
	b.index[key] = len(b.keys)
	b.keys = append(b.keys, k)
	b.vals = append(b.vals, v)
	return b
}

// Remove deletes the entry for k.
func (b *MapBuilder) Remove(k Value) *MapBuilder {
	if isNil(k) {
		return b
	}
	i, ok := b.index[keyOf(k)]
	if !ok {
		return b
	}
	b.keys = append(b.keys[:i], b.keys[i+1:]...)
	b.vals = append(b.vals[:i], b.vals[i+1:]...)
	b.index = make(map[string]int, len(b.keys))
	for j, key := range b.keys {
		b.index[keyOf(key)] = j
	}
	return b
}

// Len returns the number of staged entries.
func (b *MapBuilder) Len() int { return len(b.keys) }

// Build returns an immutable map. The builder may be reused.
func (b *MapBuilder) Build() *Map {
	m := &Map{
		keys:  make([]Value, len(b.keys)),
		vals:  make([]Value, len(b.vals)),
		index: make(map[string]int, len(b.keys)),
	}
	copy(m.keys, b.keys)
	copy(m.vals, b.vals)
	for k, i := range b.index {
		m.index[k] = i
	}
	return m
}
