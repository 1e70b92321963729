package element

import (
	"refflow/internal/source"
	"refflow/internal/types"
)

// Name returns the identity used for scope lookup. For a proxy this is the
// bound parameter's name, never the target's.
func (s *Store) Name(id ID) string {
	return s.strings.MustLookup(s.NameID(id))
}

// NameID is Name as an interned string.
func (s *Store) NameID(id ID) source.StringID {
	e := s.entry(id)
	if e.kind == KindPassByReference {
		return s.NameID(e.proxy.param)
	}
	return e.name
}

// UnionType returns the inferred types of id's owner.
func (s *Store) UnionType(id ID) types.UnionType { return s.owner(id).union }

// SetUnionType stores u into id's owner slot.
func (s *Store) SetUnionType(id ID, u types.UnionType) { s.owner(id).union = u }

// Flags returns the declaration flags of id's owner.
func (s *Store) Flags(id ID) Flags { return s.owner(id).flags }

// SetFlags replaces the declaration flags of id's owner.
func (s *Store) SetFlags(id ID, f Flags) { s.owner(id).flags = f }

func (s *Store) extFlags(id ID) extFlags { return s.owner(id).ext }

func (s *Store) setExtFlags(id ID, f extFlags) { s.owner(id).ext = f }

// Context returns the declaration context of id's owner.
func (s *Store) Context(id ID) Context { return s.owner(id).ctx }

// FileRef returns the declaration location of id's owner.
func (s *Store) FileRef(id ID) FileRef { return s.owner(id).ctx.Ref }

// IsDeprecated reports the deprecation mark of id's owner.
func (s *Store) IsDeprecated(id ID) bool { return s.extFlags(id)&extDeprecated != 0 }

// SetIsDeprecated updates the deprecation mark of id's owner.
func (s *Store) SetIsDeprecated(id ID, deprecated bool) {
	s.setExtFlags(id, setExt(s.extFlags(id), extDeprecated, deprecated))
}

// IsInternal reports whether id's owner is marked internal API.
func (s *Store) IsInternal(id ID) bool { return s.extFlags(id)&extInternal != 0 }

// SetIsInternal marks an owning element as internal API. Internal status is
// a property of the declaration and cannot be changed through a proxy.
func (s *Store) SetIsInternal(id ID, internal bool) {
	if s.entry(id).kind == KindPassByReference {
		panic(contractf("internal status is read-only through proxy #%d", id))
	}
	s.setExtFlags(id, setExt(s.extFlags(id), extInternal, internal))
}

// IsPassByReference reports FlagByReference on id's owner.
func (s *Store) IsPassByReference(id ID) bool { return s.Flags(id)&FlagByReference != 0 }

// IsVariadic reports FlagVariadic on id's owner.
func (s *Store) IsVariadic(id ID) bool { return s.Flags(id)&FlagVariadic != 0 }

// DefaultValue returns the default of a parameter owner.
func (s *Store) DefaultValue(id ID) (DefaultValue, bool) {
	e := s.owner(id)
	if e.deflt == nil {
		return DefaultValue{}, false
	}
	return *e.deflt, true
}

// PropertyClass returns the declaring class of a property owner.
func (s *Store) PropertyClass(id ID) string { return s.owner(id).class }

// ConstantValue returns the source text of a constant owner's value.
func (s *Store) ConstantValue(id ID) string { return s.owner(id).value }

func setExt(f, bit extFlags, on bool) extFlags {
	if on {
		return f | bit
	}
	return f &^ bit
}
