package codebase

import (
	"strings"

	"refflow/internal/ir"
	"refflow/internal/types"
)

// defaultUnion types a parameter default. Defaults are constant expressions,
// so only literals, arrays of literals and either-forms are understood.
func defaultUnion(in *types.Interner, e *ir.Expr) types.UnionType {
	switch e.Op {
	case ir.ExprLit:
		u, err := types.ParseUnion(in, e.Type)
		if err != nil {
			return types.NewUnion(types.MixedType)
		}
		return u
	case ir.ExprArray:
		var elem types.UnionType
		for i := range e.Args {
			elem = elem.Merge(defaultUnion(in, &e.Args[i]))
		}
		if elem.IsEmpty() {
			return types.NewUnion(in.ArrayOf(types.MixedType))
		}
		return elem.MapMembers(in.ArrayOf)
	case ir.ExprEither:
		return defaultUnion(in, e.Left).Merge(defaultUnion(in, e.Right))
	case ir.ExprNew:
		return types.NewUnion(in.Object(e.Class))
	default:
		return types.NewUnion(types.MixedType)
	}
}

func describeDefault(e *ir.Expr) string {
	switch e.Op {
	case ir.ExprLit:
		if e.Type == "null" {
			return "null"
		}
		return "<" + e.Type + ">"
	case ir.ExprArray:
		parts := make([]string, 0, len(e.Args))
		for i := range e.Args {
			parts = append(parts, describeDefault(&e.Args[i]))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ir.ExprConst:
		return e.Name
	case ir.ExprNew:
		return "new " + e.Class
	default:
		return string(e.Op)
	}
}
