package types

import (
	"fmt"

	"fortio.org/safecast"

	"refflow/internal/source"
)

// Builtins stores TypeIDs for the scalar primitives.
type Builtins struct {
	Int    TypeID
	Float  TypeID
	String TypeID
	Bool   TypeID
	Null   TypeID
	Mixed  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types   []Type
	index   map[Type]TypeID
	sigs    []Signature
	sigIdx  map[string]TypeID
	strings *source.Interner
}

// NewInterner constructs an interner seeded with built-in primitives.
// Class names are stored in strings; nil allocates a private table.
func NewInterner(strings *source.Interner) *Interner {
	if strings == nil {
		strings = source.NewInterner()
	}
	in := &Interner{
		types:   make([]Type, 1, 64), // 0 reserved for NoTypeID
		index:   make(map[Type]TypeID, 64),
		sigs:    make([]Signature, 1, 8), // 0 reserved
		sigIdx:  make(map[string]TypeID),
		strings: strings,
	}
	for _, k := range []Kind{KindInt, KindFloat, KindString, KindBool, KindNull, KindMixed} {
		in.Intern(Type{Kind: k})
	}
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return Builtins{
		Int:    IntType,
		Float:  FloatType,
		String: StringType,
		Bool:   BoolType,
		Null:   NullType,
		Mixed:  MixedType,
	}
}

// Strings exposes the string table holding class names.
func (in *Interner) Strings() *source.Interner { return in.strings }

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internRaw(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// ArrayOf returns the TypeID of elem[].
func (in *Interner) ArrayOf(elem TypeID) TypeID {
	if elem == NoTypeID {
		elem = MixedType
	}
	return in.Intern(MakeArray(elem))
}

// Object returns the TypeID for instances of the named class.
func (in *Interner) Object(class string) TypeID {
	ref := ClassRef(in.strings.Intern(class))
	return in.Intern(Type{Kind: KindObject, Class: ref})
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// ClassName returns the class of an object type.
func (in *Interner) ClassName(id TypeID) (string, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindObject {
		return "", false
	}
	return in.strings.Lookup(source.StringID(tt.Class))
}

// Len reports the number of interned types excluding NoTypeID.
func (in *Interner) Len() int { return len(in.types) - 1 }
