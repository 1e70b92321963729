package ir

import "refflow/internal/source"

// File is one lowered script.
type File struct {
	ID        source.FileID `json:"-"`
	Path      string        `json:"path"`
	Namespace string        `json:"namespace,omitempty"`
	Functions []Function    `json:"functions,omitempty"`
	Classes   []Class       `json:"classes,omitempty"`
	Constants []Constant    `json:"constants,omitempty"`
	Main      []Stmt        `json:"main,omitempty"`
}

type Function struct {
	Name       string  `json:"name"`
	Line       uint32  `json:"line"`
	EndLine    uint32  `json:"end_line,omitempty"`
	Params     []Param `json:"params,omitempty"`
	Returns    string  `json:"returns,omitempty"`
	Body       []Stmt  `json:"body,omitempty"`
	Deprecated bool    `json:"deprecated,omitempty"`
	Internal   bool    `json:"internal,omitempty"`
}

type Param struct {
	Name     string `json:"name"`
	Line     uint32 `json:"line"`
	ByRef    bool   `json:"by_ref,omitempty"`
	Variadic bool   `json:"variadic,omitempty"`
	// Types is the declared type string; DocTypes comes from annotations.
	Types    string `json:"types,omitempty"`
	DocTypes string `json:"doc_types,omitempty"`
	Default  *Expr  `json:"default,omitempty"`
}

type Class struct {
	Name       string     `json:"name"`
	Line       uint32     `json:"line"`
	Properties []Property `json:"properties,omitempty"`
}

type Property struct {
	Name       string `json:"name"`
	Line       uint32 `json:"line"`
	Types      string `json:"types,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty"`
	Internal   bool   `json:"internal,omitempty"`
	Static     bool   `json:"static,omitempty"`
	Visibility string `json:"visibility,omitempty"`
}

type Constant struct {
	Name       string `json:"name"`
	Line       uint32 `json:"line"`
	Value      string `json:"value,omitempty"`
	Types      string `json:"types,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty"`
	Internal   bool   `json:"internal,omitempty"`
}

// StmtOp enumerates statement forms.
type StmtOp string

const (
	StmtAssign StmtOp = "assign"
	StmtBranch StmtOp = "branch"
	StmtCall   StmtOp = "call"
	StmtReturn StmtOp = "return"
	StmtGlobal StmtOp = "global"
	StmtExpr   StmtOp = "expr"
)

// Stmt is one statement. Fields are interpreted per Op:
//
//	assign  Target = Value
//	branch  Arms run alternatively; Exhaustive means one arm always runs
//	call    Value is a call expression evaluated for its effects
//	return  Value (optional)
//	global  Names bound to the file's globals
//	expr    Value evaluated and discarded
type Stmt struct {
	Op         StmtOp   `json:"op"`
	Line       uint32   `json:"line"`
	Target     *Expr    `json:"target,omitempty"`
	Value      *Expr    `json:"value,omitempty"`
	Arms       [][]Stmt `json:"arms,omitempty"`
	Exhaustive bool     `json:"exhaustive,omitempty"`
	Names      []string `json:"names,omitempty"`
}

// ExprOp enumerates expression forms.
type ExprOp string

const (
	ExprLit    ExprOp = "lit"
	ExprVar    ExprOp = "var"
	ExprArray  ExprOp = "array"
	ExprEither ExprOp = "either"
	ExprCall   ExprOp = "call"
	ExprNew    ExprOp = "new"
	ExprProp   ExprOp = "prop"
	ExprConst  ExprOp = "const"
)

// Expr is one expression:
//
//	lit     Type is a type string
//	var     Name
//	array   Args are the element expressions
//	either  Left or Right
//	call    Name(Args...)
//	new     Class
//	prop    Left->Name, or Class::Name when Left is absent
//	const   Name
type Expr struct {
	Op    ExprOp `json:"op"`
	Type  string `json:"type,omitempty"`
	Name  string `json:"name,omitempty"`
	Args  []Expr `json:"args,omitempty"`
	Left  *Expr  `json:"left,omitempty"`
	Right *Expr  `json:"right,omitempty"`
	Class string `json:"class,omitempty"`
}
