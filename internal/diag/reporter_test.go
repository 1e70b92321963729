package diag

import (
	"testing"

	"refflow/internal/source"
)

func TestDedupThenFilter(t *testing.T) {
	bag := NewBag(0)
	filter, err := NewFilterReporter(BagReporter{Bag: bag}, 5, []string{"UndeclaredVariable"})
	if err != nil {
		t.Fatalf("NewFilterReporter: %v", err)
	}
	r := NewDedupReporter(filter)
	pos := source.Pos{File: 1, Line: 3}

	ReportWarning(r, RefTypeMismatchArgument, pos, "mismatch").Emit()
	ReportWarning(r, RefTypeMismatchArgument, pos, "mismatch").Emit()
	ReportWarning(r, RefUndeclaredVariable, pos, "suppressed").Emit()
	ReportInfo(r, RefUnsoundByReference, pos, "below minimum").Emit()
	b := ReportError(r, RefUndeclaredFunction, pos, "kept").WithNote(pos, "n")
	b.Emit()
	b.Emit() // a builder sends once
	ReportError(r, RefUndeclaredFunction, pos, "kept").Emit()

	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d: %+v", bag.Len(), bag.Items())
	}
	bag.Sort()
	if bag.Items()[0].Code != RefUndeclaredFunction || len(bag.Items()[0].Notes) != 1 {
		t.Fatalf("sort or notes wrong: %+v", bag.Items())
	}
	if !bag.HasErrors() {
		t.Fatalf("HasErrors false")
	}
	if got := r.Suppressed(); got != 2 {
		t.Fatalf("Suppressed() = %d, want 2", got)
	}
}

func TestFilterRejectsUnknownIssueTypes(t *testing.T) {
	if _, err := NewFilterReporter(NopReporter{}, 0, []string{"REF1002", "NoSuchIssue"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBagLimit(t *testing.T) {
	bag := NewBag(1)
	if !bag.Add(Diagnostic{Code: RefInfo}) || bag.Add(Diagnostic{Code: RefInfo}) {
		t.Fatalf("limit not enforced")
	}
}

func TestCodeNames(t *testing.T) {
	if RefUnsoundByReference.ID() != "REF1901" {
		t.Fatalf("ID = %s", RefUnsoundByReference.ID())
	}
	if c, ok := LookupCode("typemismatchargument"); !ok || c != RefTypeMismatchArgument {
		t.Fatalf("LookupCode by name failed")
	}
	if SevError.Level() != 10 || SevInfo.Level() != 0 {
		t.Fatalf("levels wrong")
	}
}
