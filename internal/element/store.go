package element

import (
	"fmt"

	"fortio.org/safecast"

	"refflow/internal/source"
	"refflow/internal/types"
)

type proxyLink struct {
	param  ID
	target ID
}

type entry struct {
	kind     Kind
	name     source.StringID
	union    types.UnionType
	flags    Flags
	ext      extFlags
	ctx      Context
	deflt    *DefaultValue
	class    string
	value    string
	proxy    proxyLink
	released bool
}

// Store is the arena owning every element of one analysis graph.
type Store struct {
	data    []entry
	strings *source.Interner
	live    int
}

// NewStore creates an arena. A nil strings table allocates a private one.
func NewStore(strings *source.Interner, capacity int) *Store {
	if capacity <= 0 {
		capacity = 64
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Store{
		data:    make([]entry, 1, capacity+1), // index 0 reserved for NoID
		strings: strings,
	}
}

// Strings exposes the name table.
func (s *Store) Strings() *source.Interner { return s.strings }

// Len reports the number of allocated elements including released ones.
func (s *Store) Len() int { return len(s.data) - 1 }

// Live reports the number of elements not yet released.
func (s *Store) Live() int { return s.live }

func (s *Store) alloc(e entry) ID {
	n, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("element arena overflow: %w", err))
	}
	s.data = append(s.data, e)
	s.live++
	return ID(n)
}

// NewVariable allocates a variable with an empty union.
func (s *Store) NewVariable(name string, ctx Context) ID {
	return s.alloc(entry{kind: KindVariable, name: s.strings.Intern(name), ctx: ctx})
}

// NewParameter allocates a formal parameter.
func (s *Store) NewParameter(spec ParameterSpec) ID {
	e := entry{
		kind:  KindParameter,
		name:  s.strings.Intern(spec.Name),
		union: spec.Union,
		ctx:   spec.Context,
	}
	if spec.ByRef {
		e.flags |= FlagByReference
	}
	if spec.Variadic {
		e.flags |= FlagVariadic
	}
	if spec.Deprecated {
		e.ext |= extDeprecated
	}
	if spec.Default != nil {
		d := *spec.Default
		e.deflt = &d
	}
	return s.alloc(e)
}

// NewProperty allocates a class property.
func (s *Store) NewProperty(spec PropertySpec) ID {
	e := entry{
		kind:  KindProperty,
		name:  s.strings.Intern(spec.Name),
		union: spec.Union,
		flags: spec.Flags,
		ctx:   spec.Context,
		class: spec.Class,
	}
	if spec.Deprecated {
		e.ext |= extDeprecated
	}
	if spec.Internal {
		e.ext |= extInternal
	}
	return s.alloc(e)
}

// NewConstant allocates a constant.
func (s *Store) NewConstant(spec ConstantSpec) ID {
	e := entry{
		kind:  KindConstant,
		name:  s.strings.Intern(spec.Name),
		union: spec.Union,
		ctx:   spec.Context,
		value: spec.Value,
	}
	if spec.Deprecated {
		e.ext |= extDeprecated
	}
	if spec.Internal {
		e.ext |= extInternal
	}
	return s.alloc(e)
}

// entry returns the slot for id, failing fast on invalid or released IDs.
func (s *Store) entry(id ID) *entry {
	if !id.IsValid() || int(id) >= len(s.data) {
		panic(contractf("unknown element #%d", id))
	}
	e := &s.data[id]
	if e.released {
		panic(fmt.Errorf("%w: #%d", ErrReleased, id))
	}
	return e
}

// owner resolves id to the entry that actually stores its state.
func (s *Store) owner(id ID) *entry {
	target, err := s.Resolve(id)
	if err != nil {
		panic(err)
	}
	return &s.data[target]
}

// Kind returns the variant of id itself (proxies report KindPassByReference).
func (s *Store) Kind(id ID) Kind { return s.entry(id).kind }

// IsReleased reports whether id has been released.
func (s *Store) IsReleased(id ID) bool {
	if !id.IsValid() || int(id) >= len(s.data) {
		return false
	}
	return s.data[id].released
}

// Release discards a transient element: a proxy or a local variable.
func (s *Store) Release(id ID) {
	e := s.entry(id)
	if e.kind != KindPassByReference && e.kind != KindVariable {
		panic(contractf("cannot release %s #%d", e.kind, id))
	}
	e.released = true
	s.live--
}
