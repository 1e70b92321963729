package symbols

import (
	"refflow/internal/element"
	"refflow/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeFile               // top-level statements of one file
	ScopeFunction           // one analysis of a function body
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFile:
		return "file"
	case ScopeFunction:
		return "function"
	default:
		return "invalid"
	}
}

// Scope maps names to elements. Several names may map to one element ID;
// that is how aliases (globals, by-reference parameters) share storage.
type Scope struct {
	Kind     ScopeKind
	File     source.FileID
	Function string
	Names    map[source.StringID]element.ID
	Order    []source.StringID
	// Locals are elements allocated for this scope and released with it.
	Locals   []element.ID
	Released bool
}
