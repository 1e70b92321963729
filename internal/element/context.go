package element

import (
	"refflow/internal/source"
	"refflow/internal/types"
)

// FileRef locates a declaration.
type FileRef struct {
	File      source.FileID
	LineStart uint32
	LineEnd   uint32
}

// Pos returns the first line of the reference.
func (r FileRef) Pos() source.Pos {
	return source.Pos{File: r.File, Line: r.LineStart}
}

// ScopeKey is an opaque scope identity supplied by the symbol layer.
type ScopeKey uint32

// Context is the immutable declaration context of an element.
type Context struct {
	Ref       FileRef
	Namespace string
	Class     string
	Function  string
	Scope     ScopeKey
}

// DefaultValue records a parameter default.
type DefaultValue struct {
	Text  string
	Union types.UnionType
}

// ParameterSpec carries constructor arguments for NewParameter.
type ParameterSpec struct {
	Name       string
	Context    Context
	Union      types.UnionType
	ByRef      bool
	Variadic   bool
	Default    *DefaultValue
	Deprecated bool
}

// PropertySpec carries constructor arguments for NewProperty.
type PropertySpec struct {
	Name       string
	Class      string
	Context    Context
	Union      types.UnionType
	Flags      Flags
	Deprecated bool
	Internal   bool
}

// ConstantSpec carries constructor arguments for NewConstant.
type ConstantSpec struct {
	Name       string
	Context    Context
	Union      types.UnionType
	Value      string
	Deprecated bool
	Internal   bool
}
