// Package codebase indexes the declarations of one program: functions with
// their Parameter elements, class properties, constants and globals.
// The index is built once per program and stays stable for a pass; the
// elements it hands out are the persistent ones whose unions the analyzer
// grows.
package codebase

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/cases"

	"refflow/internal/element"
	"refflow/internal/ir"
	"refflow/internal/source"
	"refflow/internal/types"
)

// DeclError locates a declaration problem found while building the index.
type DeclError struct {
	File source.FileID
	Path string
	Line uint32
	Err  error
}

func (e *DeclError) Error() string { return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err) }

func (e *DeclError) Unwrap() error { return e.Err }

func declErr(f *ir.File, line uint32, err error) error {
	return &DeclError{File: f.ID, Path: f.Path, Line: line, Err: err}
}

// Options control how declarations are turned into elements.
type Options struct {
	// ReadTypeAnnotations merges doc_types into declared parameter unions.
	ReadTypeAnnotations bool
}

// Function is one declared function.
type Function struct {
	Name      string
	File      *ir.File
	Decl      *ir.Function
	Context   element.Context
	Params    []element.ID
	Declared  []types.UnionType
	Returns   types.UnionType
	Result    element.ID
	ByRef     bool // at least one by-reference parameter
	Namespace string
}

// Class is one declared (or implicitly created) class.
type Class struct {
	Name       string
	Declared   bool
	props      map[string]element.ID
	propsOrder []string
}

// PropertyRef names one property element.
type PropertyRef struct {
	Class string
	Name  string
	ID    element.ID
}

// Codebase is the name -> declaring element index.
type Codebase struct {
	store *element.Store
	types *types.Interner
	fold  cases.Caser
	opts  Options

	Files      []*ir.File
	functions  map[string]*Function
	funcOrder  []*Function
	classes    map[string]*Class
	classOrder []*Class
	constants  map[string]element.ID
	constOrder []string
	globals    map[string]element.ID
	globOrder  []string
	persistent []element.ID
}

// Build declares every function, property and constant of files in store.
// Type-string errors are collected and returned joined; the index is still
// usable, offending declarations get an empty union.
func Build(store *element.Store, in *types.Interner, files []*ir.File, opts Options) (*Codebase, error) {
	cb := &Codebase{
		store:     store,
		types:     in,
		fold:      cases.Fold(),
		opts:      opts,
		Files:     files,
		functions: make(map[string]*Function),
		classes:   make(map[string]*Class),
		constants: make(map[string]element.ID),
		globals:   make(map[string]element.ID),
	}
	var errs []error
	parse := func(f *ir.File, line uint32, s string) types.UnionType {
		if s == "" {
			return types.UnionType{}
		}
		u, err := types.ParseUnion(in, s)
		if err != nil {
			errs = append(errs, declErr(f, line, err))
		}
		return u
	}

	for _, f := range files {
		for i := range f.Functions {
			decl := &f.Functions[i]
			key := cb.fold.String(decl.Name)
			if prev, dup := cb.functions[key]; dup {
				errs = append(errs, declErr(f, decl.Line, fmt.Errorf("function %s already declared in %s", decl.Name, prev.File.Path)))
				continue
			}
			fn := cb.declareFunction(f, decl, parse)
			cb.functions[key] = fn
			cb.funcOrder = append(cb.funcOrder, fn)
		}
		for _, c := range f.Classes {
			class := cb.class(c.Name)
			class.Declared = true
			for _, p := range c.Properties {
				if _, dup := class.props[p.Name]; dup {
					errs = append(errs, declErr(f, p.Line, fmt.Errorf("property %s::$%s already declared", c.Name, p.Name)))
					continue
				}
				id := store.NewProperty(element.PropertySpec{
					Name:       p.Name,
					Class:      c.Name,
					Context:    cb.context(f, c.Name, "", p.Line, p.Line),
					Union:      parse(f, p.Line, p.Types),
					Flags:      propertyFlags(p),
					Deprecated: p.Deprecated,
					Internal:   p.Internal,
				})
				cb.addProperty(class, p.Name, id)
			}
		}
		for _, c := range f.Constants {
			if _, dup := cb.constants[c.Name]; dup {
				errs = append(errs, declErr(f, c.Line, fmt.Errorf("constant %s already declared", c.Name)))
				continue
			}
			id := store.NewConstant(element.ConstantSpec{
				Name:       c.Name,
				Context:    cb.context(f, "", "", c.Line, c.Line),
				Union:      parse(f, c.Line, c.Types),
				Value:      c.Value,
				Deprecated: c.Deprecated,
				Internal:   c.Internal,
			})
			cb.constants[c.Name] = id
			cb.constOrder = append(cb.constOrder, c.Name)
			cb.persistent = append(cb.persistent, id)
		}
	}
	return cb, errors.Join(errs...)
}

func (cb *Codebase) declareFunction(f *ir.File, decl *ir.Function, parse func(*ir.File, uint32, string) types.UnionType) *Function {
	end := decl.EndLine
	if end < decl.Line {
		end = decl.Line
	}
	fn := &Function{
		Name:      decl.Name,
		File:      f,
		Decl:      decl,
		Context:   cb.context(f, "", decl.Name, decl.Line, end),
		Namespace: f.Namespace,
		Returns:   parse(f, decl.Line, decl.Returns),
	}
	for _, p := range decl.Params {
		declared := parse(f, p.Line, p.Types)
		if cb.opts.ReadTypeAnnotations {
			declared = declared.Merge(parse(f, p.Line, p.DocTypes))
		}
		var def *element.DefaultValue
		if p.Default != nil {
			def = &element.DefaultValue{Text: describeDefault(p.Default), Union: defaultUnion(cb.types, p.Default)}
		}
		id := cb.store.NewParameter(element.ParameterSpec{
			Name:       p.Name,
			Context:    cb.context(f, "", decl.Name, p.Line, p.Line),
			Union:      declared,
			ByRef:      p.ByRef,
			Variadic:   p.Variadic,
			Default:    def,
			Deprecated: decl.Deprecated,
		})
		fn.Params = append(fn.Params, id)
		fn.Declared = append(fn.Declared, declared)
		fn.ByRef = fn.ByRef || p.ByRef
		cb.persistent = append(cb.persistent, id)
	}
	fn.Result = cb.store.NewVariable("return", fn.Context)
	cb.persistent = append(cb.persistent, fn.Result)
	return fn
}

func (cb *Codebase) context(f *ir.File, class, function string, line, end uint32) element.Context {
	return element.Context{
		Ref:       element.FileRef{File: f.ID, LineStart: line, LineEnd: end},
		Namespace: f.Namespace,
		Class:     class,
		Function:  function,
	}
}

func propertyFlags(p ir.Property) element.Flags {
	var flags element.Flags
	switch p.Visibility {
	case "protected":
		flags |= element.FlagProtected
	case "private":
		flags |= element.FlagPrivate
	default:
		flags |= element.FlagPublic
	}
	if p.Static {
		flags |= element.FlagStatic
	}
	return flags
}

func (cb *Codebase) class(name string) *Class {
	key := cb.fold.String(name)
	if c, ok := cb.classes[key]; ok {
		return c
	}
	c := &Class{Name: name, props: make(map[string]element.ID)}
	cb.classes[key] = c
	cb.classOrder = append(cb.classOrder, c)
	return c
}

func (cb *Codebase) addProperty(c *Class, name string, id element.ID) {
	c.props[name] = id
	c.propsOrder = append(c.propsOrder, name)
	cb.persistent = append(cb.persistent, id)
}

// Function finds a function by case-insensitive name.
func (cb *Codebase) Function(name string) (*Function, bool) {
	fn, ok := cb.functions[cb.fold.String(name)]
	return fn, ok
}

// Functions lists functions in declaration order.
func (cb *Codebase) Functions() []*Function { return cb.funcOrder }

// HasClass reports whether class was declared in source.
func (cb *Codebase) HasClass(name string) bool {
	c, ok := cb.classes[cb.fold.String(name)]
	return ok && c.Declared
}

// Property finds a property; class names fold, property names do not.
func (cb *Codebase) Property(class, name string) (element.ID, bool) {
	c, ok := cb.classes[cb.fold.String(class)]
	if !ok {
		return element.NoID, false
	}
	id, ok := c.props[name]
	return id, ok
}

// AddProperty declares a dynamic public property discovered by assignment.
func (cb *Codebase) AddProperty(class, name string, ctx element.Context) element.ID {
	if id, ok := cb.Property(class, name); ok {
		return id
	}
	c := cb.class(class)
	id := cb.store.NewProperty(element.PropertySpec{
		Name:    name,
		Class:   c.Name,
		Context: ctx,
		Flags:   element.FlagPublic,
	})
	cb.addProperty(c, name, id)
	return id
}

// Properties lists every property in declaration order.
func (cb *Codebase) Properties() []PropertyRef {
	var out []PropertyRef
	for _, c := range cb.classOrder {
		for _, name := range c.propsOrder {
			out = append(out, PropertyRef{Class: c.Name, Name: name, ID: c.props[name]})
		}
	}
	return out
}

// Constant finds a constant by exact name.
func (cb *Codebase) Constant(name string) (element.ID, bool) {
	id, ok := cb.constants[name]
	return id, ok
}

// ConstantNames lists constants in declaration order.
func (cb *Codebase) ConstantNames() []string { return cb.constOrder }

// Global returns the program-wide global variable name, creating it on first use.
func (cb *Codebase) Global(name string, ctx element.Context) element.ID {
	if id, ok := cb.globals[name]; ok {
		return id
	}
	ctx.Function = ""
	ctx.Class = ""
	id := cb.store.NewVariable(name, ctx)
	cb.store.SetFlags(id, element.FlagGlobal)
	cb.globals[name] = id
	cb.globOrder = append(cb.globOrder, name)
	cb.persistent = append(cb.persistent, id)
	return id
}

// LookupGlobal finds an existing global without creating it.
func (cb *Codebase) LookupGlobal(name string) (element.ID, bool) {
	id, ok := cb.globals[name]
	return id, ok
}

// GlobalNames lists globals sorted by name.
func (cb *Codebase) GlobalNames() []string {
	out := append([]string(nil), cb.globOrder...)
	sort.Strings(out)
	return out
}

// Persistent lists every element the index owns, in creation order.
func (cb *Codebase) Persistent() []element.ID { return cb.persistent }

// Store exposes the element arena.
func (cb *Codebase) Store() *element.Store { return cb.store }

// Types exposes the type interner.
func (cb *Codebase) Types() *types.Interner { return cb.types }
