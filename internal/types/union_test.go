package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleUnions(in *Interner) []UnionType {
	arr := in.ArrayOf(IntType)
	obj := in.Object("Foo")
	return []UnionType{
		{},
		NewUnion(NullType),
		NewUnion(IntType),
		NewUnion(IntType, StringType),
		NewUnion(StringType, IntType, NullType),
		NewUnion(arr, obj),
		NewUnion(obj, FloatType, BoolType, MixedType),
	}
}

func TestMergeIsMonotonicCommutativeIdempotent(t *testing.T) {
	in := NewInterner(nil)
	samples := sampleUnions(in)
	for _, a := range samples {
		if !a.Merge(a).Equal(a) {
			t.Fatalf("merge not idempotent for %s", LabelUnion(in, a))
		}
		for _, b := range samples {
			ab := a.Merge(b)
			if !a.IsSubsetOf(ab) || !b.IsSubsetOf(ab) {
				t.Fatalf("%s ∪ %s = %s is not a superset", LabelUnion(in, a), LabelUnion(in, b), LabelUnion(in, ab))
			}
			if !ab.Equal(b.Merge(a)) {
				t.Fatalf("merge not commutative for %s, %s", LabelUnion(in, a), LabelUnion(in, b))
			}
			if ab.Key() != b.Merge(a).Key() {
				t.Fatalf("canonical keys differ for equal unions")
			}
		}
	}
}

func TestUnionIsImmutable(t *testing.T) {
	base := NewUnion(IntType)
	grown := base.With(StringType)
	_ = base.With(FloatType)
	if base.Len() != 1 {
		t.Fatalf("With mutated receiver: %v", base.Members())
	}
	if diff := cmp.Diff([]TypeID{IntType, StringType}, grown.Members()); diff != "" {
		t.Fatalf("unexpected members (-want +got):\n%s", diff)
	}

	members := grown.Members()
	members[0] = BoolType
	if !grown.Contains(IntType) {
		t.Fatalf("Members must return a copy")
	}
}

func TestEmptyDiffersFromNull(t *testing.T) {
	var empty UnionType
	null := NewUnion(NullType)
	if !empty.IsEmpty() || null.IsEmpty() {
		t.Fatalf("empty/null confusion")
	}
	if empty.Equal(null) {
		t.Fatalf("empty union must differ from {null}")
	}
	if empty.ContainsNull() || !null.ContainsNull() {
		t.Fatalf("ContainsNull wrong")
	}
}

func TestWithoutNull(t *testing.T) {
	in := NewInterner(nil)
	u := NewUnion(StringType, NullType, IntType)
	got := u.WithoutNull()
	if got.ContainsNull() || got.Len() != 2 {
		t.Fatalf("WithoutNull = %s", LabelUnion(in, got))
	}
	if LabelUnion(in, got) != "string|int" {
		t.Fatalf("order not preserved: %s", LabelUnion(in, got))
	}
	if !u.ContainsNull() {
		t.Fatalf("receiver changed")
	}
	if !NewUnion(IntType).WithoutNull().Equal(NewUnion(IntType)) {
		t.Fatalf("WithoutNull without null should be identity")
	}
}

func TestWithIsIdempotentAndSkipsInvalid(t *testing.T) {
	u := NewUnion(IntType).With(IntType).With(NoTypeID)
	if u.Len() != 1 {
		t.Fatalf("expected one member, got %v", u.Members())
	}
}

func TestMapMembers(t *testing.T) {
	in := NewInterner(nil)
	u := NewUnion(IntType, StringType).MapMembers(in.ArrayOf)
	if got := LabelUnion(in, u); got != "int[]|string[]" {
		t.Fatalf("MapMembers = %s", got)
	}
}
