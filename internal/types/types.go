package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Builtin scalar types occupy fixed slots in every interner, so a TypeID of a
// scalar means the same thing regardless of which interner produced it.
const (
	IntType TypeID = iota + 1
	FloatType
	StringType
	BoolType
	NullType
	MixedType
)

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindNull
	KindMixed
	KindArray
	KindObject
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindMixed:
		return "mixed"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindCallable:
		return "callable"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsScalar reports whether values of the kind are int, float, string or bool.
func (k Kind) IsScalar() bool {
	return k == KindInt || k == KindFloat || k == KindString || k == KindBool
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID   // for arrays
	Class   ClassRef // for objects
	Payload uint32   // signature slot for callables
}

// ClassRef names a class inside the interner's string table.
type ClassRef uint32

// MakeArray describes T[].
func MakeArray(elem TypeID) Type {
	return Type{Kind: KindArray, Elem: elem}
}
