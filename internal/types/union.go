package types

import (
	"slices"
	"strconv"
	"strings"
)

// UnionType is an immutable set of types an element may hold at a program
// point. Members keep insertion order for display; equality ignores order.
// The zero value is the empty union ("nothing known yet"), which is distinct
// from a union holding only null.
type UnionType struct {
	ids []TypeID
}

// NewUnion builds a union from ids, dropping duplicates and NoTypeID.
func NewUnion(ids ...TypeID) UnionType {
	var u UnionType
	for _, id := range ids {
		u = u.With(id)
	}
	return u
}

// With returns a union holding u's members plus id.
func (u UnionType) With(id TypeID) UnionType {
	if id == NoTypeID || u.Contains(id) {
		return u
	}
	next := make([]TypeID, len(u.ids), len(u.ids)+1)
	copy(next, u.ids)
	return UnionType{ids: append(next, id)}
}

// Merge returns the set union of u and other.
func (u UnionType) Merge(other UnionType) UnionType {
	if other.IsSubsetOf(u) {
		return u
	}
	if u.IsEmpty() {
		return other
	}
	next := make([]TypeID, len(u.ids), len(u.ids)+len(other.ids))
	copy(next, u.ids)
	for _, id := range other.ids {
		if !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	return UnionType{ids: next}
}

// IsEmpty reports whether no type information is known.
func (u UnionType) IsEmpty() bool { return len(u.ids) == 0 }

// Len returns the number of members.
func (u UnionType) Len() int { return len(u.ids) }

// Contains reports membership of id.
func (u UnionType) Contains(id TypeID) bool {
	return slices.Contains(u.ids, id)
}

// ContainsNull reports whether null is a member.
func (u UnionType) ContainsNull() bool { return u.Contains(NullType) }

// WithoutNull returns u with null removed.
func (u UnionType) WithoutNull() UnionType {
	idx := slices.Index(u.ids, NullType)
	if idx < 0 {
		return u
	}
	next := make([]TypeID, 0, len(u.ids)-1)
	next = append(next, u.ids[:idx]...)
	next = append(next, u.ids[idx+1:]...)
	return UnionType{ids: next}
}

// Members returns a copy of the members in insertion order.
func (u UnionType) Members() []TypeID {
	return slices.Clone(u.ids)
}

// IsSubsetOf reports whether every member of u is in other.
func (u UnionType) IsSubsetOf(other UnionType) bool {
	for _, id := range u.ids {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Equal compares members ignoring order.
func (u UnionType) Equal(other UnionType) bool {
	return len(u.ids) == len(other.ids) && u.IsSubsetOf(other)
}

// Key returns a canonical, order-independent encoding of the members,
// suitable as a map key or hash input within one interner.
func (u UnionType) Key() string {
	if len(u.ids) == 0 {
		return ""
	}
	sorted := slices.Clone(u.ids)
	slices.Sort(sorted)
	var b strings.Builder
	for i, id := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return b.String()
}

// MapMembers applies fn to every member and collects the results.
func (u UnionType) MapMembers(fn func(TypeID) TypeID) UnionType {
	var out UnionType
	for _, id := range u.ids {
		out = out.With(fn(id))
	}
	return out
}
