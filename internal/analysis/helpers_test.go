package analysis

import (
	"context"
	"testing"

	"refflow/internal/config"
	"refflow/internal/diag"
	"refflow/internal/ir"
	"refflow/internal/source"
	"refflow/internal/types"
)

func lit(t string) *ir.Expr { return &ir.Expr{Op: ir.ExprLit, Type: t} }

func ref(name string) *ir.Expr { return &ir.Expr{Op: ir.ExprVar, Name: name} }

func callExpr(name string, args ...*ir.Expr) *ir.Expr {
	e := &ir.Expr{Op: ir.ExprCall, Name: name}
	for _, arg := range args {
		e.Args = append(e.Args, *arg)
	}
	return e
}

func arrayOf(elems ...*ir.Expr) *ir.Expr {
	e := &ir.Expr{Op: ir.ExprArray}
	for _, el := range elems {
		e.Args = append(e.Args, *el)
	}
	return e
}

func assign(line uint32, target, value *ir.Expr) ir.Stmt {
	return ir.Stmt{Op: ir.StmtAssign, Line: line, Target: target, Value: value}
}

func callStmt(line uint32, name string, args ...*ir.Expr) ir.Stmt {
	return ir.Stmt{Op: ir.StmtCall, Line: line, Value: callExpr(name, args...)}
}

func branch(line uint32, exhaustive bool, arms ...[]ir.Stmt) ir.Stmt {
	return ir.Stmt{Op: ir.StmtBranch, Line: line, Arms: arms, Exhaustive: exhaustive}
}

func returns(line uint32, value *ir.Expr) ir.Stmt {
	return ir.Stmt{Op: ir.StmtReturn, Line: line, Value: value}
}

func byRef(name string) ir.Param { return ir.Param{Name: name, ByRef: true} }

// register gives every file an ID in a fresh FileSet.
func register(t *testing.T, files ...*ir.File) *source.FileSet {
	t.Helper()
	fs := source.NewFileSet()
	for _, f := range files {
		f.ID = fs.AddVirtual(f.Path, nil)
		if err := f.Validate(); err != nil {
			t.Fatalf("invalid test program: %v", err)
		}
	}
	return fs
}

type outcome struct {
	a   *Analyzer
	res *Result
	bag *diag.Bag
	fs  *source.FileSet
}

func analyze(t *testing.T, cfg config.Config, files ...*ir.File) outcome {
	t.Helper()
	fs := register(t, files...)
	bag := diag.NewBag(0)
	a, err := New(Options{Files: files, FileSet: fs, Config: cfg, Reporter: diag.BagReporter{Bag: bag}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return outcome{a: a, res: res, bag: bag, fs: fs}
}

func (r outcome) global(t *testing.T, name string) types.UnionType {
	t.Helper()
	id, ok := r.a.Codebase().LookupGlobal(name)
	if !ok {
		t.Fatalf("global $%s not declared", name)
	}
	return r.a.Store().UnionType(id)
}

func (r outcome) expectUnion(t *testing.T, got types.UnionType, want string) {
	t.Helper()
	if !got.Equal(types.MustParseUnion(r.a.Types(), want)) {
		t.Fatalf("union = %s, want %s", types.LabelUnion(r.a.Types(), got), want)
	}
}

func (r outcome) codes() []string {
	var out []string
	for _, d := range r.bag.Items() {
		out = append(out, d.Code.ID())
	}
	return out
}

func (r outcome) count(code diag.Code) int {
	n := 0
	for _, d := range r.bag.Items() {
		if d.Code == code {
			n++
		}
	}
	return n
}
