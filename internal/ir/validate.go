package ir

import (
	"errors"
	"fmt"
)

// ErrInvalidProgram wraps every structural problem found by Validate.
var ErrInvalidProgram = errors.New("invalid program")

type validator struct {
	path string
	errs []error
}

func (v *validator) addf(line uint32, format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf("%w: %s:%d: %s", ErrInvalidProgram, v.path, line, fmt.Sprintf(format, args...)))
}

// Validate checks that every statement and expression is well-formed.
// All problems are reported, joined.
func (f *File) Validate() error {
	v := &validator{path: f.Path}
	names := make(map[string]uint32, len(f.Functions))
	for i := range f.Functions {
		fn := &f.Functions[i]
		if fn.Name == "" {
			v.addf(fn.Line, "function without name")
		}
		if prev, dup := names[fn.Name]; dup {
			v.addf(fn.Line, "function %s already declared at line %d", fn.Name, prev)
		}
		names[fn.Name] = fn.Line
		for j, p := range fn.Params {
			if p.Name == "" {
				v.addf(p.Line, "parameter %d of %s without name", j, fn.Name)
			}
			if p.Variadic && j != len(fn.Params)-1 {
				v.addf(p.Line, "variadic parameter $%s must be last", p.Name)
			}
			if p.Default != nil {
				v.expr(p.Line, p.Default)
			}
		}
		v.stmts(fn.Body)
	}
	for _, c := range f.Classes {
		if c.Name == "" {
			v.addf(c.Line, "class without name")
		}
		for _, p := range c.Properties {
			if p.Name == "" {
				v.addf(p.Line, "property of %s without name", c.Name)
			}
			switch p.Visibility {
			case "", "public", "protected", "private":
			default:
				v.addf(p.Line, "unknown visibility %q", p.Visibility)
			}
		}
	}
	for _, c := range f.Constants {
		if c.Name == "" {
			v.addf(c.Line, "constant without name")
		}
	}
	v.stmts(f.Main)
	return errors.Join(v.errs...)
}

func (v *validator) stmts(list []Stmt) {
	for i := range list {
		v.stmt(&list[i])
	}
}

func (v *validator) stmt(s *Stmt) {
	switch s.Op {
	case StmtAssign:
		if s.Target == nil || (s.Target.Op != ExprVar && s.Target.Op != ExprProp) {
			v.addf(s.Line, "assign target must be a variable or property")
		} else {
			v.expr(s.Line, s.Target)
		}
		if s.Value == nil {
			v.addf(s.Line, "assign without value")
		} else {
			v.expr(s.Line, s.Value)
		}
	case StmtBranch:
		if len(s.Arms) == 0 {
			v.addf(s.Line, "branch without arms")
		}
		for _, arm := range s.Arms {
			v.stmts(arm)
		}
	case StmtCall:
		if s.Value == nil || s.Value.Op != ExprCall {
			v.addf(s.Line, "call statement needs a call expression")
		} else {
			v.expr(s.Line, s.Value)
		}
	case StmtReturn:
		if s.Value != nil {
			v.expr(s.Line, s.Value)
		}
	case StmtGlobal:
		if len(s.Names) == 0 {
			v.addf(s.Line, "global without names")
		}
	case StmtExpr:
		if s.Value == nil {
			v.addf(s.Line, "expression statement without value")
		} else {
			v.expr(s.Line, s.Value)
		}
	default:
		v.addf(s.Line, "unknown statement op %q", s.Op)
	}
}

func (v *validator) expr(line uint32, e *Expr) {
	switch e.Op {
	case ExprLit:
		if e.Type == "" {
			v.addf(line, "literal without type")
		}
	case ExprVar, ExprConst, ExprCall:
		if e.Name == "" {
			v.addf(line, "%s without name", e.Op)
		}
	case ExprNew:
		if e.Class == "" {
			v.addf(line, "new without class")
		}
	case ExprProp:
		if e.Name == "" {
			v.addf(line, "property access without name")
		}
		if e.Left == nil && e.Class == "" {
			v.addf(line, "property access needs an object or a class")
		}
	case ExprEither:
		if e.Left == nil || e.Right == nil {
			v.addf(line, "either needs both sides")
		}
	case ExprArray:
	default:
		v.addf(line, "unknown expression op %q", e.Op)
		return
	}
	for i := range e.Args {
		v.expr(line, &e.Args[i])
	}
	if e.Left != nil {
		v.expr(line, e.Left)
	}
	if e.Right != nil {
		v.expr(line, e.Right)
	}
}
