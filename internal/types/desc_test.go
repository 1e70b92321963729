package types

import "testing"

func TestDescribeMaterializeAcrossInterners(t *testing.T) {
	src := NewInterner(nil)
	// разный порядок регистрации даёт разные TypeID
	dst := NewInterner(nil)
	dst.Object("Unrelated")
	dst.ArrayOf(BoolType)

	u := MustParseUnion(src, "int|Foo[]|callable(&string,...int):Bar|null")
	descs := src.DescribeUnion(u)

	got, err := dst.MaterializeUnion(descs)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if LabelUnion(dst, got) != LabelUnion(src, u) {
		t.Fatalf("round trip changed the union: %s vs %s", LabelUnion(dst, got), LabelUnion(src, u))
	}
}

func TestMaterializeRejectsInvalid(t *testing.T) {
	in := NewInterner(nil)
	if _, err := in.Materialize(TypeDesc{}); err == nil {
		t.Fatalf("expected error for invalid kind")
	}
	if _, err := in.Materialize(TypeDesc{Kind: KindObject}); err == nil {
		t.Fatalf("expected error for classless object")
	}
}
