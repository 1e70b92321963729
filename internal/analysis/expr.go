package analysis

import (
	"fmt"

	"refflow/internal/diag"
	"refflow/internal/element"
	"refflow/internal/ir"
	"refflow/internal/types"
)

// eval infers the union of e. Unknown names yield the empty union after a
// diagnostic.
func (a *Analyzer) eval(fr *frame, e *ir.Expr, line uint32) types.UnionType {
	if e == nil {
		return types.UnionType{}
	}
	switch e.Op {
	case ir.ExprLit:
		return a.literal(fr, e.Type, line)
	case ir.ExprVar:
		id, ok := a.lookup(fr, e.Name)
		if !ok {
			diag.ReportWarning(a.rep, diag.RefUndeclaredVariable, a.pos(fr, line),
				fmt.Sprintf("variable $%s is undeclared", e.Name)).Emit()
			return types.UnionType{}
		}
		if owner, err := a.store.Resolve(id); err == nil {
			a.noteRead(owner)
		}
		return a.store.UnionType(id)
	case ir.ExprArray:
		var elems types.UnionType
		for i := range e.Args {
			elems = elems.Merge(a.eval(fr, &e.Args[i], line))
		}
		return a.arrayOf(elems)
	case ir.ExprEither:
		return a.eval(fr, e.Left, line).Merge(a.eval(fr, e.Right, line))
	case ir.ExprCall:
		return a.call(fr, e, line)
	case ir.ExprNew:
		if !a.cb.HasClass(e.Class) {
			diag.ReportError(a.rep, diag.RefUndeclaredClass, a.pos(fr, line),
				fmt.Sprintf("class %s is undeclared", e.Class)).Emit()
		}
		return types.NewUnion(a.types.Object(e.Class))
	case ir.ExprProp:
		var u types.UnionType
		for _, id := range a.properties(fr, e, line, false) {
			a.noteRead(id)
			u = u.Merge(a.store.UnionType(id))
		}
		return u
	case ir.ExprConst:
		id, ok := a.cb.Constant(e.Name)
		if !ok {
			diag.ReportError(a.rep, diag.RefUndeclaredConstant, a.pos(fr, line),
				fmt.Sprintf("constant %s is undeclared", e.Name)).Emit()
			return types.UnionType{}
		}
		if a.store.IsDeprecated(id) {
			diag.ReportWarning(a.rep, diag.RefDeprecatedConstant, a.pos(fr, line),
				fmt.Sprintf("constant %s is deprecated", e.Name)).
				WithNote(a.store.FileRef(id).Pos(), "declared here").Emit()
		}
		a.checkInternal(fr, id, line, "constant "+e.Name)
		a.noteRead(id)
		return a.store.UnionType(id)
	}
	return types.UnionType{}
}

// literal parses a type string once per pass.
func (a *Analyzer) literal(fr *frame, s string, line uint32) types.UnionType {
	if u, ok := a.literals[s]; ok {
		return u
	}
	u, err := types.ParseUnion(a.types, s)
	if err != nil {
		diag.ReportError(a.rep, diag.IOInvalidTypeDecl, a.pos(fr, line), err.Error()).Emit()
		return types.NewUnion(types.MixedType)
	}
	a.literals[s] = u
	return u
}

// lookup resolves a variable name in the current scope. File-level code sees
// the program's globals.
func (a *Analyzer) lookup(fr *frame, name string) (element.ID, bool) {
	if id, ok := a.table.Lookup(fr.scope, name); ok {
		return id, true
	}
	if !fr.main {
		return element.NoID, false
	}
	id, ok := a.cb.LookupGlobal(name)
	if ok {
		a.table.Bind(fr.scope, name, id)
	}
	return id, ok
}

// lvalue returns the elements an assignment to e writes, declaring
// variables on first assignment.
func (a *Analyzer) lvalue(fr *frame, e *ir.Expr, line uint32) []element.ID {
	if e == nil {
		return nil
	}
	switch e.Op {
	case ir.ExprVar:
		if id, ok := a.lookup(fr, e.Name); ok {
			return []element.ID{id}
		}
		ctx := a.context(fr, line)
		if fr.main {
			id := a.cb.Global(e.Name, ctx)
			a.table.Bind(fr.scope, e.Name, id)
			return []element.ID{id}
		}
		id := a.store.NewVariable(e.Name, ctx)
		a.table.Declare(fr.scope, e.Name, id)
		return []element.ID{id}
	case ir.ExprProp:
		return a.properties(fr, e, line, true)
	}
	return nil
}

// properties finds the property elements e may denote: one per object class
// in the receiver's union, or the named class for static access.
func (a *Analyzer) properties(fr *frame, e *ir.Expr, line uint32, write bool) []element.ID {
	var classes []string
	if e.Left != nil {
		for _, t := range a.eval(fr, e.Left, line).Members() {
			if class, ok := a.types.ClassName(t); ok {
				classes = append(classes, class)
			}
		}
	} else if e.Class != "" {
		if !a.cb.HasClass(e.Class) {
			diag.ReportError(a.rep, diag.RefUndeclaredClass, a.pos(fr, line),
				fmt.Sprintf("class %s is undeclared", e.Class)).Emit()
			return nil
		}
		classes = append(classes, e.Class)
	}

	var ids []element.ID
	for _, class := range classes {
		id, ok := a.cb.Property(class, e.Name)
		if !ok {
			switch {
			case !a.cfg.AllowMissingProperties:
				diag.ReportWarning(a.rep, diag.RefUndeclaredProperty, a.pos(fr, line),
					fmt.Sprintf("property %s::$%s is undeclared", class, e.Name)).Emit()
			case write:
				ids = append(ids, a.cb.AddProperty(class, e.Name, a.context(fr, line)))
			}
			continue
		}
		if a.store.IsDeprecated(id) {
			diag.ReportWarning(a.rep, diag.RefDeprecatedProperty, a.pos(fr, line),
				fmt.Sprintf("property %s::$%s is deprecated", class, e.Name)).
				WithNote(a.store.FileRef(id).Pos(), "declared here").Emit()
		}
		a.checkInternal(fr, id, line, fmt.Sprintf("property %s::$%s", class, e.Name))
		ids = append(ids, id)
	}
	return ids
}

func (a *Analyzer) checkInternal(fr *frame, id element.ID, line uint32, what string) {
	if !a.store.IsInternal(id) {
		return
	}
	ns := a.store.Context(id).Namespace
	if ns == fr.file.Namespace {
		return
	}
	diag.ReportWarning(a.rep, diag.RefAccessInternal, a.pos(fr, line),
		fmt.Sprintf("%s is internal to namespace %q", what, ns)).Emit()
}

func (a *Analyzer) label(u types.UnionType) string {
	if u.IsEmpty() {
		return "nothing"
	}
	return types.LabelUnion(a.types, u)
}
