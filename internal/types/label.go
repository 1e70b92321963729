package types

import (
	"strings"
)

// Label returns a user-friendly label for a TypeID.
func Label(in *Interner, id TypeID) string {
	return labelDepth(in, id, 0)
}

// LabelUnion renders a union as "int|string" in insertion order.
func LabelUnion(in *Interner, u UnionType) string {
	if u.IsEmpty() {
		return "(empty)"
	}
	parts := make([]string, 0, u.Len())
	for _, id := range u.ids {
		parts = append(parts, labelDepth(in, id, 0))
	}
	return strings.Join(parts, "|")
}

func labelDepth(in *Interner, id TypeID, depth int) string {
	if id == NoTypeID || in == nil {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindInt, KindFloat, KindString, KindBool, KindNull, KindMixed:
		return tt.Kind.String()
	case KindArray:
		elem := labelDepth(in, tt.Elem, depth+1)
		if strings.HasPrefix(elem, "callable(") {
			elem = "(" + elem + ")"
		}
		return elem + "[]"
	case KindObject:
		name, ok := in.ClassName(id)
		if !ok {
			return "object"
		}
		return name
	case KindCallable:
		return labelSignature(in, id, depth)
	default:
		return tt.Kind.String()
	}
}

func labelSignature(in *Interner, id TypeID, depth int) string {
	sig, ok := in.Signature(id)
	if !ok || (len(sig.Params) == 0 && sig.Result == NoTypeID) {
		return "callable"
	}
	var b strings.Builder
	b.WriteString("callable(")
	for i, p := range sig.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		if p.ByRef {
			b.WriteByte('&')
		}
		if p.Variadic {
			b.WriteString("...")
		}
		b.WriteString(labelDepth(in, p.Type, depth+1))
	}
	b.WriteByte(')')
	if sig.Result != NoTypeID {
		b.WriteByte(':')
		b.WriteString(labelDepth(in, sig.Result, depth+1))
	}
	return b.String()
}
