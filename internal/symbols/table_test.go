package symbols

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"refflow/internal/element"
	"refflow/internal/source"
)

func TestTableFileRootReuse(t *testing.T) {
	table := NewTable(Hints{}, nil)
	file := source.FileID(1)

	first := table.FileRoot(file)
	second := table.FileRoot(file)

	if !first.IsValid() {
		t.Fatalf("expected valid scope ID")
	}
	if first != second {
		t.Fatalf("expected FileRoot to reuse existing scope, got %v and %v", first, second)
	}

	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestTwoNamesOneElement(t *testing.T) {
	table := NewTable(Hints{}, nil)
	file := source.FileID(3)
	root := table.FileRoot(file)
	table.Bind(root, "g", element.ID(7))

	fn := table.EnterFunction(file, "f")
	if _, ok := table.Lookup(fn, "g"); ok {
		t.Fatalf("function scope must not see globals implicitly")
	}
	global, _ := table.Lookup(root, "g")
	table.Bind(fn, "g", global)
	table.Declare(fn, "local", element.ID(9))

	if id, _ := table.Lookup(fn, "g"); id != element.ID(7) {
		t.Fatalf("alias resolved to %d", id)
	}
	if diff := cmp.Diff([]string{"g", "local"}, table.Names(fn)); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	locals := table.Leave(fn)
	if diff := cmp.Diff([]element.ID{9}, locals); diff != "" {
		t.Fatalf("locals (-want +got):\n%s", diff)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate after leave: %v", err)
	}
}

func TestLeaveFileScopePanics(t *testing.T) {
	table := NewTable(Hints{}, nil)
	root := table.FileRoot(1)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	table.Leave(root)
}
