package analysis

import (
	"errors"
	"fmt"

	"refflow/internal/codebase"
	"refflow/internal/diag"
	"refflow/internal/element"
	"refflow/internal/ir"
	"refflow/internal/trace"
	"refflow/internal/types"
)

// binding is one parameter's argument at a call site.
type binding struct {
	value types.UnionType
	// owner is the caller element a by-reference parameter aliases;
	// NoID when the parameter is bound by value.
	owner element.ID
}

// call analyses a call site. By-reference parameters are bound to proxies of
// the caller's elements, so writes in the callee body land in the caller.
func (a *Analyzer) call(fr *frame, e *ir.Expr, line uint32) types.UnionType {
	fn, ok := a.cb.Function(e.Name)
	if !ok {
		diag.ReportError(a.rep, diag.RefUndeclaredFunction, a.pos(fr, line),
			fmt.Sprintf("function %s() is undeclared", e.Name)).Emit()
		for i := range e.Args {
			a.eval(fr, &e.Args[i], line)
		}
		return types.UnionType{}
	}
	if fn.Decl.Deprecated {
		diag.ReportWarning(a.rep, diag.RefDeprecatedFunction, a.pos(fr, line),
			fmt.Sprintf("function %s() is deprecated", fn.Name)).
			WithNote(fn.Context.Ref.Pos(), "declared here").Emit()
	}
	if fn.Decl.Internal && fn.Namespace != fr.file.Namespace {
		diag.ReportWarning(a.rep, diag.RefAccessInternal, a.pos(fr, line),
			fmt.Sprintf("function %s() is internal to namespace %q", fn.Name, fn.Namespace)).Emit()
	}

	binds := a.bind(fr, fn, e.Args, line)
	st := a.fns[fn]

	if st.depth > 0 {
		// Recursion: use what earlier analyses of the body produced.
		for i, b := range binds {
			if b.owner.IsValid() {
				a.write(b.owner, a.store.UnionType(b.owner).Merge(st.out[i]))
			}
		}
		return a.resultOf(fn, a.store.UnionType(fn.Result))
	}
	if (a.cfg.QuickMode && !fn.ByRef) || a.ctx.Err() != nil {
		return a.resultOf(fn, a.store.UnionType(fn.Result))
	}

	key := memoKey(fn, binds)
	if m, ok := a.memo[key]; ok && a.current(m) {
		trace.PointAt(a.tracer, trace.ScopeCall, "call:"+fn.Name, a.span, a.site(fr.file, line), "memo")
		for id := range m.reads {
			a.noteRead(id)
		}
		j := 0
		for _, b := range binds {
			if b.owner.IsValid() {
				a.write(b.owner, m.effects[j])
				j++
			}
		}
		return a.resultOf(fn, m.result)
	}

	span := trace.BeginAt(a.tracer, trace.ScopeCall, "call:"+fn.Name, a.span, a.site(fr.file, line))
	parent := a.span
	a.span = span.ID()

	entities := make([]element.ID, len(fn.Params))
	for i, pid := range fn.Params {
		if binds[i].owner.IsValid() {
			entities[i] = a.store.NewPassByReference(pid, binds[i].owner)
			continue
		}
		local := a.store.NewVariable(a.store.Name(pid), a.store.Context(pid))
		a.store.SetUnionType(local, binds[i].value)
		entities[i] = local
	}
	rec := newRecording(binds)
	a.recs = append(a.recs, rec)
	ret := a.body(st, entities)
	a.recs = a.recs[:len(a.recs)-1]
	for _, id := range entities {
		a.store.Release(id)
	}

	if !rec.impure {
		m := &memoEntry{result: ret, reads: rec.reads}
		for _, b := range binds {
			if b.owner.IsValid() {
				m.effects = append(m.effects, a.store.UnionType(b.owner))
			}
		}
		a.memo[key] = m
	}

	a.span = parent
	span.End("")
	return a.resultOf(fn, ret)
}

// bind evaluates arguments against fn's parameters, growing every
// Parameter element with what it receives.
func (a *Analyzer) bind(fr *frame, fn *codebase.Function, args []ir.Expr, line uint32) []binding {
	binds := make([]binding, len(fn.Params))
	required := 0
	for i, pid := range fn.Params {
		if _, ok := a.store.DefaultValue(pid); !ok && !a.store.IsVariadic(pid) {
			required = i + 1
		}
	}
	if len(args) < required {
		diag.ReportError(a.rep, diag.RefTooFewArguments, a.pos(fr, line),
			fmt.Sprintf("call to %s() has %d arguments, expects at least %d", fn.Name, len(args), required)).
			WithNote(fn.Context.Ref.Pos(), "declared here").Emit()
	}

	for i, pid := range fn.Params {
		if a.store.IsVariadic(pid) {
			var rest types.UnionType
			for j := i; j < len(args); j++ {
				u := a.eval(fr, &args[j], line)
				a.checkArgument(fr, fn, i, j, u, line)
				rest = rest.Merge(u)
			}
			a.write(pid, a.store.UnionType(pid).Merge(rest))
			binds[i].value = a.arrayOf(rest)
			continue
		}
		if i >= len(args) {
			if def, ok := a.store.DefaultValue(pid); ok {
				binds[i].value = def.Union
			}
			continue
		}
		arg := &args[i]
		if a.store.IsPassByReference(pid) {
			binds[i] = a.bindReference(fr, fn, i, arg, line)
		} else {
			binds[i].value = a.eval(fr, arg, line)
		}
		a.checkArgument(fr, fn, i, i, binds[i].value, line)
		a.write(pid, a.store.UnionType(pid).Merge(binds[i].value))
	}

	if n := len(fn.Params); len(args) > n && (n == 0 || !a.store.IsVariadic(fn.Params[n-1])) {
		for j := n; j < len(args); j++ {
			a.eval(fr, &args[j], line)
		}
		diag.ReportError(a.rep, diag.RefTooManyArguments, a.pos(fr, line),
			fmt.Sprintf("call to %s() has %d arguments, expects at most %d", fn.Name, len(args), n)).
			WithNote(fn.Context.Ref.Pos(), "declared here").Emit()
	}
	return binds
}

func (a *Analyzer) bindReference(fr *frame, fn *codebase.Function, i int, arg *ir.Expr, line uint32) binding {
	if arg.Op != ir.ExprVar && arg.Op != ir.ExprProp {
		diag.ReportError(a.rep, diag.RefNonVariableByReference, a.pos(fr, line),
			fmt.Sprintf("argument %d of %s() is passed by reference but is not a variable", i+1, fn.Name)).Emit()
		return binding{value: a.eval(fr, arg, line)}
	}
	ids := a.lvalue(fr, arg, line)
	if len(ids) != 1 {
		var u types.UnionType
		for _, id := range ids {
			u = u.Merge(a.store.UnionType(id))
		}
		return binding{value: u}
	}
	owner, err := a.store.Resolve(ids[0])
	if err != nil {
		var chain *element.ChainError
		msg := err.Error()
		if errors.As(err, &chain) {
			msg = fmt.Sprintf("reference chain through %d elements loops back on itself", len(chain.Chain))
		}
		diag.ReportError(a.rep, diag.RefInternalProxyChain, a.pos(fr, line),
			fmt.Sprintf("argument %d of %s() skipped: %s", i+1, fn.Name, msg)).Emit()
		return binding{}
	}
	a.noteRead(owner)
	return binding{value: a.store.UnionType(owner), owner: owner}
}

// checkArgument compares an argument against the parameter's declared union.
// param is the parameter index, arg the argument index.
func (a *Analyzer) checkArgument(fr *frame, fn *codebase.Function, param, arg int, u types.UnionType, line uint32) {
	declared := fn.Declared[param]
	if declared.IsEmpty() || u.IsEmpty() || a.compatible(u, declared) {
		return
	}
	diag.ReportWarning(a.rep, diag.RefTypeMismatchArgument, a.pos(fr, line),
		fmt.Sprintf("argument %d ($%s) of %s() is %s but %s is expected",
			arg+1, a.store.Name(fn.Params[param]), fn.Name, a.label(u), a.label(declared))).
		WithNote(a.store.FileRef(fn.Params[param]).Pos(), "parameter declared here").Emit()
}

func (a *Analyzer) resultOf(fn *codebase.Function, inferred types.UnionType) types.UnionType {
	if !fn.Returns.IsEmpty() {
		return fn.Returns
	}
	return inferred
}
