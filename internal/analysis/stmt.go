package analysis

import (
	"fmt"
	"slices"

	"refflow/internal/diag"
	"refflow/internal/element"
	"refflow/internal/ir"
	"refflow/internal/source"
	"refflow/internal/symbols"
	"refflow/internal/types"
)

// frame is the state of one body being walked.
type frame struct {
	file  *ir.File
	fn    *fnState // nil for file-level code
	scope symbols.ScopeID
	main  bool
	ret   types.UnionType
}

func (fr *frame) functionName() string {
	if fr.fn == nil {
		return ""
	}
	return fr.fn.fn.Name
}

func (a *Analyzer) pos(fr *frame, line uint32) source.Pos {
	return source.Pos{File: fr.file.ID, Line: line}
}

func (a *Analyzer) context(fr *frame, line uint32) element.Context {
	return element.Context{
		Ref:       element.FileRef{File: fr.file.ID, LineStart: line, LineEnd: line},
		Namespace: fr.file.Namespace,
		Function:  fr.functionName(),
	}
}

func (a *Analyzer) block(fr *frame, stmts []ir.Stmt) {
	for i := range stmts {
		a.stmt(fr, &stmts[i])
	}
}

func (a *Analyzer) stmt(fr *frame, s *ir.Stmt) {
	switch s.Op {
	case ir.StmtAssign:
		value := a.eval(fr, s.Value, s.Line)
		for _, id := range a.lvalue(fr, s.Target, s.Line) {
			a.assign(id, value)
		}
	case ir.StmtBranch:
		a.branch(fr, s)
	case ir.StmtCall, ir.StmtExpr:
		if s.Value != nil {
			a.eval(fr, s.Value, s.Line)
		}
	case ir.StmtReturn:
		a.ret(fr, s)
	case ir.StmtGlobal:
		if fr.main {
			return
		}
		for _, name := range s.Names {
			a.table.Bind(fr.scope, name, a.cb.Global(name, a.context(fr, s.Line)))
		}
	}
}

func (a *Analyzer) ret(fr *frame, s *ir.Stmt) {
	u := types.NewUnion(types.NullType)
	if s.Value != nil {
		u = a.eval(fr, s.Value, s.Line)
	}
	if fr.fn == nil {
		return
	}
	fn := fr.fn.fn
	fr.ret = fr.ret.Merge(u)
	a.write(fn.Result, a.store.UnionType(fn.Result).Merge(u))
	if !fn.Returns.IsEmpty() && !u.IsEmpty() && !a.compatible(u, fn.Returns) {
		diag.ReportWarning(a.rep, diag.RefTypeMismatchReturn, a.pos(fr, s.Line),
			fmt.Sprintf("%s() returns %s but is declared to return %s", fn.Name, a.label(u), a.label(fn.Returns))).Emit()
	}
}

// assign replaces a variable's union and grows a property's.
func (a *Analyzer) assign(id element.ID, u types.UnionType) {
	owner, err := a.store.Resolve(id)
	if err != nil {
		return
	}
	if a.store.Kind(owner) == element.KindProperty {
		u = a.store.UnionType(owner).Merge(u)
	}
	a.write(owner, u)
}

// write sets the union of id's owner, remembering the previous union in the
// innermost open branch.
func (a *Analyzer) write(id element.ID, u types.UnionType) {
	owner, err := a.store.Resolve(id)
	if err != nil {
		return
	}
	if n := len(a.undo); n > 0 {
		top := a.undo[n-1]
		if _, seen := top[owner]; !seen {
			top[owner] = a.store.UnionType(owner)
		}
	}
	a.noteWrite(owner)
	a.store.SetUnionType(owner, u)
}

// branch runs every arm from the same entry state and joins the results.
// Elements an arm did not touch contribute their entry union; a
// non-exhaustive branch also keeps the entry union of everything written.
func (a *Analyzer) branch(fr *frame, s *ir.Stmt) {
	log := make(map[element.ID]types.UnionType)
	a.undo = append(a.undo, log)
	results := make([]map[element.ID]types.UnionType, 0, len(s.Arms))
	for _, arm := range s.Arms {
		a.block(fr, arm)
		res := make(map[element.ID]types.UnionType, len(log))
		for id, orig := range log {
			if a.store.IsReleased(id) {
				continue
			}
			res[id] = a.store.UnionType(id)
			a.store.SetUnionType(id, orig)
		}
		results = append(results, res)
	}
	a.undo = a.undo[:len(a.undo)-1]

	for _, id := range orderedIDs(log) {
		if a.store.IsReleased(id) {
			continue
		}
		orig := log[id]
		var joined types.UnionType
		if !s.Exhaustive || len(s.Arms) == 0 {
			joined = orig
		}
		for _, res := range results {
			if v, ok := res[id]; ok {
				joined = joined.Merge(v)
			} else {
				joined = joined.Merge(orig)
			}
		}
		a.write(id, joined)
	}
}

func orderedIDs(m map[element.ID]types.UnionType) []element.ID {
	ids := make([]element.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
