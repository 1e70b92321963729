package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"refflow/internal/element"
	"refflow/internal/source"
)

// Hints provide optional capacity suggestions for the scope arena.
type Hints struct{ Scopes uint }

// Table aggregates the scope arena and the shared string table.
type Table struct {
	Scopes   *Scopes
	Strings  *source.Interner
	fileRoot map[source.FileID]ScopeID
}

// NewTable builds a fresh table with optional capacity hints.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Scopes:   NewScopes(scopeCap),
		Strings:  strings,
		fileRoot: make(map[source.FileID]ScopeID),
	}
}

// FileRoot returns (and creates if needed) the global scope of a file.
func (t *Table) FileRoot(file source.FileID) ScopeID {
	if scope, ok := t.fileRoot[file]; ok {
		return scope
	}
	scope := t.Scopes.New(ScopeFile, file, "")
	t.fileRoot[file] = scope
	return scope
}

// EnterFunction opens a fresh function scope. Function scopes have no parent:
// globals are visible only through explicit Bind.
func (t *Table) EnterFunction(file source.FileID, function string) ScopeID {
	return t.Scopes.New(ScopeFunction, file, function)
}

func (t *Table) live(scope ScopeID) *Scope {
	s := t.Scopes.Get(scope)
	if s == nil {
		panic(fmt.Errorf("symbols: unknown scope %d", scope))
	}
	if s.Released {
		panic(fmt.Errorf("symbols: scope %d used after Leave", scope))
	}
	return s
}

// Bind maps name to id in scope, replacing an earlier binding.
func (t *Table) Bind(scope ScopeID, name string, id element.ID) {
	s := t.live(scope)
	key := t.Strings.Intern(name)
	if _, ok := s.Names[key]; !ok {
		s.Order = append(s.Order, key)
	}
	s.Names[key] = id
}

// Declare binds name to a freshly allocated local owned by scope.
func (t *Table) Declare(scope ScopeID, name string, id element.ID) {
	t.Bind(scope, name, id)
	s := t.live(scope)
	s.Locals = append(s.Locals, id)
}

// Lookup finds the element bound to name.
func (t *Table) Lookup(scope ScopeID, name string) (element.ID, bool) {
	s := t.live(scope)
	key := t.Strings.Intern(name)
	id, ok := s.Names[key]
	return id, ok
}

// Names lists bound names in binding order.
func (t *Table) Names(scope ScopeID) []string {
	s := t.live(scope)
	out := make([]string, 0, len(s.Order))
	for _, key := range s.Order {
		out = append(out, t.Strings.MustLookup(key))
	}
	return out
}

// Leave closes a function scope and returns the locals it owned so the caller
// can release them. File scopes persist and cannot be left.
func (t *Table) Leave(scope ScopeID) []element.ID {
	s := t.live(scope)
	if s.Kind != ScopeFunction {
		panic(fmt.Errorf("symbols: cannot leave %s scope %d", s.Kind, scope))
	}
	locals := s.Locals
	s.Names = nil
	s.Order = nil
	s.Locals = nil
	s.Released = true
	return locals
}
