package types

import "fmt"

// TypeDesc is an interner-independent description of a type. It is the
// exchange format between workers and for persisted analysis state.
type TypeDesc struct {
	Kind   Kind        `json:"kind" msgpack:"k"`
	Class  string      `json:"class,omitempty" msgpack:"c,omitempty"`
	Elem   *TypeDesc   `json:"elem,omitempty" msgpack:"e,omitempty"`
	Params []ParamDesc `json:"params,omitempty" msgpack:"p,omitempty"`
	Result *TypeDesc   `json:"result,omitempty" msgpack:"r,omitempty"`
}

// ParamDesc describes one callable parameter inside a TypeDesc.
type ParamDesc struct {
	Type     TypeDesc `json:"type" msgpack:"t"`
	ByRef    bool     `json:"by_ref,omitempty" msgpack:"b,omitempty"`
	Variadic bool     `json:"variadic,omitempty" msgpack:"v,omitempty"`
}

// Describe converts id into a TypeDesc.
func (in *Interner) Describe(id TypeID) TypeDesc {
	tt, ok := in.Lookup(id)
	if !ok {
		return TypeDesc{}
	}
	d := TypeDesc{Kind: tt.Kind}
	switch tt.Kind {
	case KindArray:
		elem := in.Describe(tt.Elem)
		d.Elem = &elem
	case KindObject:
		d.Class, _ = in.ClassName(id)
	case KindCallable:
		sig, ok := in.Signature(id)
		if !ok {
			break
		}
		for _, p := range sig.Params {
			d.Params = append(d.Params, ParamDesc{Type: in.Describe(p.Type), ByRef: p.ByRef, Variadic: p.Variadic})
		}
		if sig.Result != NoTypeID {
			res := in.Describe(sig.Result)
			d.Result = &res
		}
	}
	return d
}

// Materialize interns the type described by d.
func (in *Interner) Materialize(d TypeDesc) (TypeID, error) {
	switch d.Kind {
	case KindInt:
		return IntType, nil
	case KindFloat:
		return FloatType, nil
	case KindString:
		return StringType, nil
	case KindBool:
		return BoolType, nil
	case KindNull:
		return NullType, nil
	case KindMixed:
		return MixedType, nil
	case KindArray:
		if d.Elem == nil {
			return in.ArrayOf(MixedType), nil
		}
		elem, err := in.Materialize(*d.Elem)
		if err != nil {
			return NoTypeID, err
		}
		return in.ArrayOf(elem), nil
	case KindObject:
		if d.Class == "" {
			return NoTypeID, fmt.Errorf("object type without class")
		}
		return in.Object(d.Class), nil
	case KindCallable:
		var sig Signature
		for _, p := range d.Params {
			id, err := in.Materialize(p.Type)
			if err != nil {
				return NoTypeID, err
			}
			sig.Params = append(sig.Params, SignatureParam{Type: id, ByRef: p.ByRef, Variadic: p.Variadic})
		}
		if d.Result != nil {
			id, err := in.Materialize(*d.Result)
			if err != nil {
				return NoTypeID, err
			}
			sig.Result = id
		}
		return in.Callable(sig), nil
	default:
		return NoTypeID, fmt.Errorf("cannot materialize %v", d.Kind)
	}
}

// DescribeUnion converts every member of u.
func (in *Interner) DescribeUnion(u UnionType) []TypeDesc {
	if u.IsEmpty() {
		return nil
	}
	out := make([]TypeDesc, 0, u.Len())
	for _, id := range u.ids {
		out = append(out, in.Describe(id))
	}
	return out
}

// MaterializeUnion interns every description and collects them into a union.
func (in *Interner) MaterializeUnion(descs []TypeDesc) (UnionType, error) {
	var u UnionType
	for _, d := range descs {
		id, err := in.Materialize(d)
		if err != nil {
			return UnionType{}, err
		}
		u = u.With(id)
	}
	return u, nil
}

// Key renders d canonically so descriptions from different interners can be
// compared and deduplicated without materializing them.
func (d TypeDesc) Key() string {
	switch d.Kind {
	case KindArray:
		if d.Elem == nil {
			return "mixed[]"
		}
		return "(" + d.Elem.Key() + ")[]"
	case KindObject:
		return "object:" + d.Class
	case KindCallable:
		s := "callable("
		for i, p := range d.Params {
			if i > 0 {
				s += ","
			}
			if p.ByRef {
				s += "&"
			}
			if p.Variadic {
				s += "..."
			}
			s += p.Type.Key()
		}
		s += ")"
		if d.Result != nil {
			s += ":" + d.Result.Key()
		}
		return s
	default:
		return d.Kind.String()
	}
}
