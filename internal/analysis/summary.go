package analysis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"refflow/internal/element"
	"refflow/internal/types"
)

// Summary is the interner-independent view of every persistent union. It is
// what workers exchange at a barrier and what the state cache stores.
type Summary struct {
	Functions  map[string]FunctionSummary  `json:"functions,omitempty" msgpack:"functions,omitempty"`
	Properties map[string][]types.TypeDesc `json:"properties,omitempty" msgpack:"properties,omitempty"`
	Constants  map[string][]types.TypeDesc `json:"constants,omitempty" msgpack:"constants,omitempty"`
	Globals    map[string][]types.TypeDesc `json:"globals,omitempty" msgpack:"globals,omitempty"`
}

// FunctionSummary holds a function's parameter unions, accumulated
// by-reference outputs and inferred result.
type FunctionSummary struct {
	Params [][]types.TypeDesc `json:"params,omitempty" msgpack:"params,omitempty"`
	Outs   [][]types.TypeDesc `json:"outs,omitempty" msgpack:"outs,omitempty"`
	Result []types.TypeDesc   `json:"result,omitempty" msgpack:"result,omitempty"`
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{
		Functions:  make(map[string]FunctionSummary),
		Properties: make(map[string][]types.TypeDesc),
		Constants:  make(map[string][]types.TypeDesc),
		Globals:    make(map[string][]types.TypeDesc),
	}
}

func propertyKey(class, name string) string { return class + "::" + name }

// Summary describes the analyzer's current persistent state.
func (a *Analyzer) Summary() *Summary {
	s := NewSummary()
	for _, st := range a.fnOrder {
		fs := FunctionSummary{
			Params: make([][]types.TypeDesc, len(st.fn.Params)),
			Outs:   make([][]types.TypeDesc, len(st.out)),
			Result: a.types.DescribeUnion(a.store.UnionType(st.fn.Result)),
		}
		for i, pid := range st.fn.Params {
			fs.Params[i] = a.types.DescribeUnion(a.store.UnionType(pid))
		}
		for i, u := range st.out {
			fs.Outs[i] = a.types.DescribeUnion(u)
		}
		s.Functions[st.fn.Name] = fs
	}
	for _, p := range a.cb.Properties() {
		s.Properties[propertyKey(p.Class, p.Name)] = a.types.DescribeUnion(a.store.UnionType(p.ID))
	}
	for _, name := range a.cb.ConstantNames() {
		id, _ := a.cb.Constant(name)
		s.Constants[name] = a.types.DescribeUnion(a.store.UnionType(id))
	}
	for _, name := range a.cb.GlobalNames() {
		id, _ := a.cb.LookupGlobal(name)
		s.Globals[name] = a.types.DescribeUnion(a.store.UnionType(id))
	}
	return s
}

// applySummary merges s into the persistent elements. Entries naming
// declarations this program does not have are ignored.
func (a *Analyzer) applySummary(s *Summary) error {
	grow := func(id element.ID, descs []types.TypeDesc) error {
		u, err := a.types.MaterializeUnion(descs)
		if err != nil {
			return err
		}
		a.store.SetUnionType(id, a.store.UnionType(id).Merge(u))
		return nil
	}
	for name, fs := range s.Functions {
		fn, ok := a.cb.Function(name)
		if !ok {
			continue
		}
		st := a.fns[fn]
		for i, descs := range fs.Params {
			if i >= len(fn.Params) {
				break
			}
			if err := grow(fn.Params[i], descs); err != nil {
				return fmt.Errorf("function %s parameter %d: %w", name, i+1, err)
			}
		}
		for i, descs := range fs.Outs {
			if i >= len(st.out) {
				break
			}
			u, err := a.types.MaterializeUnion(descs)
			if err != nil {
				return fmt.Errorf("function %s output %d: %w", name, i+1, err)
			}
			st.out[i] = st.out[i].Merge(u)
		}
		if err := grow(fn.Result, fs.Result); err != nil {
			return fmt.Errorf("function %s result: %w", name, err)
		}
	}
	for key, descs := range s.Properties {
		class, name, ok := strings.Cut(key, "::")
		if !ok {
			return fmt.Errorf("malformed property key %q", key)
		}
		id, ok := a.cb.Property(class, name)
		if !ok {
			if !a.cfg.AllowMissingProperties {
				continue
			}
			id = a.cb.AddProperty(class, name, element.Context{Class: class})
		}
		if err := grow(id, descs); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	for name, descs := range s.Constants {
		if id, ok := a.cb.Constant(name); ok {
			if err := grow(id, descs); err != nil {
				return fmt.Errorf("constant %s: %w", name, err)
			}
		}
	}
	for name, descs := range s.Globals {
		if err := grow(a.cb.Global(name, element.Context{}), descs); err != nil {
			return fmt.Errorf("global $%s: %w", name, err)
		}
	}
	return nil
}

// Merge grows s with everything in other.
func (s *Summary) Merge(other *Summary) {
	if other == nil {
		return
	}
	s.ensure()
	for name, fs := range other.Functions {
		cur := s.Functions[name]
		cur.Params = mergeLists(cur.Params, fs.Params)
		cur.Outs = mergeLists(cur.Outs, fs.Outs)
		cur.Result = mergeDescs(cur.Result, fs.Result)
		s.Functions[name] = cur
	}
	mergeMap(s.Properties, other.Properties)
	mergeMap(s.Constants, other.Constants)
	mergeMap(s.Globals, other.Globals)
}

func (s *Summary) ensure() {
	if s.Functions == nil {
		s.Functions = make(map[string]FunctionSummary)
	}
	if s.Properties == nil {
		s.Properties = make(map[string][]types.TypeDesc)
	}
	if s.Constants == nil {
		s.Constants = make(map[string][]types.TypeDesc)
	}
	if s.Globals == nil {
		s.Globals = make(map[string][]types.TypeDesc)
	}
}

func mergeMap(dst, src map[string][]types.TypeDesc) {
	for k, v := range src {
		dst[k] = mergeDescs(dst[k], v)
	}
}

func mergeLists(dst, src [][]types.TypeDesc) [][]types.TypeDesc {
	for len(dst) < len(src) {
		dst = append(dst, nil)
	}
	for i, descs := range src {
		dst[i] = mergeDescs(dst[i], descs)
	}
	return dst
}

func mergeDescs(dst, src []types.TypeDesc) []types.TypeDesc {
	for _, d := range src {
		key := d.Key()
		if !slices.ContainsFunc(dst, func(x types.TypeDesc) bool { return x.Key() == key }) {
			dst = append(dst, d)
		}
	}
	return dst
}

// Digest hashes the summary independently of map and member order.
func (s *Summary) Digest() uint64 {
	if s == nil {
		return 0
	}
	h := xxhash.New()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = h.WriteString(p)
			_, _ = h.Write(separatorByte)
		}
	}
	for _, name := range sortedNames(s.Functions) {
		fs := s.Functions[name]
		write("fn", name)
		for _, descs := range fs.Params {
			write("p", descKey(descs))
		}
		for _, descs := range fs.Outs {
			write("o", descKey(descs))
		}
		write("r", descKey(fs.Result))
	}
	for _, group := range []struct {
		tag string
		m   map[string][]types.TypeDesc
	}{{"prop", s.Properties}, {"const", s.Constants}, {"global", s.Globals}} {
		for _, name := range sortedNames(group.m) {
			write(group.tag, name, descKey(group.m[name]))
		}
	}
	return h.Sum64()
}

// Equal reports whether both summaries describe the same unions.
func (s *Summary) Equal(other *Summary) bool {
	return s.Digest() == other.Digest()
}

func descKey(descs []types.TypeDesc) string {
	keys := make([]string, 0, len(descs))
	for _, d := range descs {
		keys = append(keys, d.Key())
	}
	slices.Sort(keys)
	return strings.Join(keys, "|")
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
