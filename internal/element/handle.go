package element

import "refflow/internal/types"

// TypedElement is the capability set shared by every element variant,
// proxies included.
type TypedElement interface {
	ID() ID
	Kind() Kind
	Name() string
	UnionType() types.UnionType
	SetUnionType(types.UnionType)
	Flags() Flags
	SetFlags(Flags)
	Context() Context
	FileRef() FileRef
	IsDeprecated() bool
	SetIsDeprecated(bool)
	IsInternal() bool
}

// Handle is a store-bound element reference.
type Handle struct {
	store *Store
	id    ID
}

var _ TypedElement = Handle{}

// Handle wraps id for interface-style access.
func (s *Store) Handle(id ID) Handle { return Handle{store: s, id: id} }

func (h Handle) ID() ID                         { return h.id }
func (h Handle) Kind() Kind                     { return h.store.Kind(h.id) }
func (h Handle) Name() string                   { return h.store.Name(h.id) }
func (h Handle) UnionType() types.UnionType     { return h.store.UnionType(h.id) }
func (h Handle) SetUnionType(u types.UnionType) { h.store.SetUnionType(h.id, u) }
func (h Handle) Flags() Flags                   { return h.store.Flags(h.id) }
func (h Handle) SetFlags(f Flags)               { h.store.SetFlags(h.id, f) }
func (h Handle) Context() Context               { return h.store.Context(h.id) }
func (h Handle) FileRef() FileRef               { return h.store.FileRef(h.id) }
func (h Handle) IsDeprecated() bool             { return h.store.IsDeprecated(h.id) }
func (h Handle) SetIsDeprecated(v bool)         { h.store.SetIsDeprecated(h.id, v) }
func (h Handle) IsInternal() bool               { return h.store.IsInternal(h.id) }
