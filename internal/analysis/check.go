package analysis

import "refflow/internal/types"

// compatible reports whether every member of actual may flow into a slot
// declared as declared.
func (a *Analyzer) compatible(actual, declared types.UnionType) bool {
	if declared.IsEmpty() || declared.Contains(types.MixedType) {
		return true
	}
	for _, t := range actual.Members() {
		if !a.accepts(declared, t) {
			return false
		}
	}
	return true
}

func (a *Analyzer) accepts(declared types.UnionType, t types.TypeID) bool {
	if declared.Contains(t) || t == types.MixedType {
		return true
	}
	if t == types.NullType && a.cfg.NullCastsAsAnyType {
		return true
	}
	tt, ok := a.types.Lookup(t)
	if !ok {
		return true
	}
	for _, d := range declared.Members() {
		dt, ok := a.types.Lookup(d)
		if !ok {
			continue
		}
		switch {
		case a.cfg.ScalarImplicitCast && tt.Kind.IsScalar() && dt.Kind.IsScalar():
			return true
		case tt.Kind == types.KindCallable && dt.Kind == types.KindCallable && a.isBareCallable(d):
			return true
		case tt.Kind == types.KindArray && dt.Kind == types.KindArray && dt.Elem == types.MixedType:
			return true
		case tt.Kind == types.KindArray && dt.Kind == types.KindArray && a.accepts(types.NewUnion(dt.Elem), tt.Elem):
			return true
		}
	}
	return false
}

// isBareCallable reports a callable declared without a signature.
func (a *Analyzer) isBareCallable(id types.TypeID) bool {
	sig, ok := a.types.Signature(id)
	return !ok || (len(sig.Params) == 0 && sig.Result == types.NoTypeID)
}
