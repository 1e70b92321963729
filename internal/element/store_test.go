package element

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"refflow/internal/types"
)

func newParam(s *Store, name string) ID {
	return s.NewParameter(ParameterSpec{
		Name:    name,
		ByRef:   true,
		Context: Context{Function: "callee", Ref: FileRef{File: 1, LineStart: 3, LineEnd: 3}},
	})
}

func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic wrapping %v", target)
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("panic %v does not wrap %v", r, target)
		}
	}()
	fn()
}

func TestProxyTransparency(t *testing.T) {
	s := NewStore(nil, 0)
	x := s.NewVariable("x", Context{Function: "caller"})
	p := s.NewPassByReference(newParam(s, "ref"), x)

	s.SetUnionType(p, types.NewUnion(types.IntType))
	if got := s.UnionType(x); !got.Equal(types.NewUnion(types.IntType)) {
		t.Fatalf("write through proxy not visible on target: %v", got.Members())
	}

	s.SetUnionType(x, s.UnionType(x).With(types.StringType))
	if got := s.UnionType(p); !got.Equal(types.NewUnion(types.IntType, types.StringType)) {
		t.Fatalf("target write not visible through proxy: %v", got.Members())
	}
}

func TestProxyNameComesFromParameter(t *testing.T) {
	s := NewStore(nil, 0)
	x := s.NewVariable("x", Context{})
	param := newParam(s, "out")
	p := s.NewPassByReference(param, x)

	if got := s.Name(p); got != "out" {
		t.Fatalf("proxy name = %q, want out", got)
	}
	if got := s.Name(x); got != "x" {
		t.Fatalf("target renamed: %q", got)
	}
	if s.Kind(p) != KindPassByReference || s.Kind(x) != KindVariable {
		t.Fatalf("kinds wrong: %s %s", s.Kind(p), s.Kind(x))
	}
	if s.ProxyParameter(p) != param || s.ProxyTarget(p) != x {
		t.Fatalf("proxy links wrong")
	}
}

func TestProxyForwardsFlagsAndContext(t *testing.T) {
	s := NewStore(nil, 0)
	ctx := Context{Namespace: `App`, Class: "C", Ref: FileRef{File: 2, LineStart: 10, LineEnd: 12}}
	prop := s.NewProperty(PropertySpec{Name: "items", Class: "C", Context: ctx, Flags: FlagPublic, Internal: true})
	p := s.NewPassByReference(newParam(s, "arr"), prop)

	if diff := cmp.Diff(ctx, s.Context(p)); diff != "" {
		t.Fatalf("context not forwarded (-want +got):\n%s", diff)
	}
	if s.FileRef(p) != ctx.Ref {
		t.Fatalf("file ref not forwarded")
	}
	if !s.IsInternal(p) {
		t.Fatalf("internal status not forwarded")
	}
	s.SetFlags(p, s.Flags(p)|FlagStatic)
	if s.Flags(prop)&FlagStatic == 0 {
		t.Fatalf("flag write not forwarded")
	}
	s.SetIsDeprecated(p, true)
	if !s.IsDeprecated(prop) {
		t.Fatalf("deprecation write not forwarded")
	}
	if s.IsPassByReference(p) {
		t.Fatalf("proxy must report the target's flags, not the parameter's")
	}
}

func TestChainedProxiesShareOneOwner(t *testing.T) {
	s := NewStore(nil, 0)
	x := s.NewVariable("x", Context{})
	inner := s.NewPassByReference(newParam(s, "a"), x)
	outer := s.NewPassByReference(newParam(s, "b"), inner)

	owner, err := s.Resolve(outer)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if owner != x {
		t.Fatalf("Resolve = #%d, want #%d", owner, x)
	}
	s.SetUnionType(outer, types.NewUnion(types.FloatType))
	for _, id := range []ID{x, inner, outer} {
		if !s.UnionType(id).Equal(types.NewUnion(types.FloatType)) {
			t.Fatalf("#%d does not observe chained write", id)
		}
	}
}

func TestResolveReportsCycle(t *testing.T) {
	s := NewStore(nil, 0)
	x := s.NewVariable("x", Context{})
	a := s.NewPassByReference(newParam(s, "a"), x)
	b := s.NewPassByReference(newParam(s, "b"), a)
	// not constructible through the API; forge the loop directly
	s.data[a].proxy.target = b

	_, err := s.Resolve(b)
	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("expected ChainError, got %v", err)
	}
	if !errors.Is(err, ErrProxyCycle) {
		t.Fatalf("ChainError must unwrap to ErrProxyCycle")
	}
	if diff := cmp.Diff([]ID{b, a, b}, chainErr.Chain); diff != "" {
		t.Fatalf("chain (-want +got):\n%s", diff)
	}
	expectPanic(t, ErrProxyCycle, func() { s.UnionType(a) })
}

func TestContractViolations(t *testing.T) {
	s := NewStore(nil, 0)
	x := s.NewVariable("x", Context{})
	y := s.NewVariable("y", Context{})
	param := newParam(s, "p")

	expectPanic(t, ErrContract, func() { s.NewPassByReference(y, x) })

	p := s.NewPassByReference(param, x)
	expectPanic(t, ErrContract, func() { s.SetIsInternal(p, true) })

	s.Release(p)
	if !s.IsReleased(p) {
		t.Fatalf("release not recorded")
	}
	expectPanic(t, ErrReleased, func() { s.SetUnionType(p, types.NewUnion(types.IntType)) })
	expectPanic(t, ErrReleased, func() { s.NewPassByReference(param, p) })
	expectPanic(t, ErrContract, func() { s.Release(param) })

	// target survives its proxy
	s.SetUnionType(x, types.NewUnion(types.BoolType))
}

func TestParameterAttributes(t *testing.T) {
	s := NewStore(nil, 0)
	def := &DefaultValue{Text: "[]", Union: types.NewUnion(types.NullType)}
	p := s.NewParameter(ParameterSpec{Name: "rest", Variadic: true, Default: def, Deprecated: true})

	if !s.IsVariadic(p) || s.IsPassByReference(p) {
		t.Fatalf("flags = %v", s.Flags(p).Strings())
	}
	got, ok := s.DefaultValue(p)
	if !ok || got.Text != "[]" {
		t.Fatalf("default = %+v, %v", got, ok)
	}
	def.Text = "changed"
	if again, _ := s.DefaultValue(p); again.Text != "[]" {
		t.Fatalf("default aliased caller memory")
	}
	if !s.IsDeprecated(p) {
		t.Fatalf("deprecated lost")
	}
}

func TestFingerprintTracksOwnerUnions(t *testing.T) {
	s := NewStore(nil, 0)
	x := s.NewVariable("x", Context{})
	c := s.NewConstant(ConstantSpec{Name: "LIMIT", Value: "10", Union: types.NewUnion(types.IntType)})
	ids := []ID{x, c}

	before := s.Fingerprint(ids)
	if s.Fingerprint(ids) != before {
		t.Fatalf("fingerprint not deterministic")
	}
	s.SetUnionType(x, types.NewUnion(types.StringType, types.IntType))
	grown := s.Fingerprint(ids)
	if grown == before {
		t.Fatalf("fingerprint ignored union growth")
	}
	s.SetUnionType(x, types.NewUnion(types.IntType, types.StringType))
	if s.Fingerprint(ids) != grown {
		t.Fatalf("fingerprint depends on member order")
	}
	if s.ConstantValue(c) != "10" {
		t.Fatalf("constant value lost")
	}
}

func TestHandleImplementsTypedElement(t *testing.T) {
	s := NewStore(nil, 0)
	x := s.NewVariable("x", Context{})
	var el TypedElement = s.Handle(s.NewPassByReference(newParam(s, "r"), x))
	el.SetUnionType(types.NewUnion(types.NullType))
	if el.Name() != "r" || !s.UnionType(x).ContainsNull() {
		t.Fatalf("handle does not forward")
	}
	if s.Live() != 3 || s.Len() != 3 {
		t.Fatalf("live=%d len=%d", s.Live(), s.Len())
	}
}
