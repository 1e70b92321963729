package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadTypeString is returned for malformed type expressions.
var ErrBadTypeString = errors.New("malformed type string")

// ParseUnion parses a type expression such as "int|?string|Foo[]" or
// "callable(int,&string):bool". Unknown identifiers denote classes.
func ParseUnion(in *Interner, s string) (UnionType, error) {
	p := typeParser{in: in, src: s}
	p.skipSpace()
	if p.eof() {
		return UnionType{}, nil
	}
	u, err := p.union()
	if err != nil {
		return UnionType{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return UnionType{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return u, nil
}

// MustParseUnion is ParseUnion for literals known to be valid.
func MustParseUnion(in *Interner, s string) UnionType {
	u, err := ParseUnion(in, s)
	if err != nil {
		panic(err)
	}
	return u
}

type typeParser struct {
	in  *Interner
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %q at %d: %s", ErrBadTypeString, p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) eof() bool { return p.pos >= len(p.src) }

func (p *typeParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) skipSpace() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) accept(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *typeParser) union() (UnionType, error) {
	var u UnionType
	for {
		nullable := p.accept("?")
		id, err := p.single()
		if err != nil {
			return UnionType{}, err
		}
		u = u.With(id)
		if nullable {
			u = u.With(NullType)
		}
		if !p.accept("|") {
			return u, nil
		}
	}
}

func (p *typeParser) single() (TypeID, error) {
	id, err := p.base()
	if err != nil {
		return NoTypeID, err
	}
	for p.accept("[]") {
		id = p.in.ArrayOf(id)
	}
	return id, nil
}

func (p *typeParser) base() (TypeID, error) {
	if p.accept("(") {
		id, err := p.single()
		if err != nil {
			return NoTypeID, err
		}
		if !p.accept(")") {
			return NoTypeID, p.errorf("expected ')'")
		}
		return id, nil
	}
	name := p.ident()
	if name == "" {
		return NoTypeID, p.errorf("expected type name")
	}
	switch strings.ToLower(name) {
	case "int", "integer":
		return IntType, nil
	case "float", "double":
		return FloatType, nil
	case "string":
		return StringType, nil
	case "bool", "boolean":
		return BoolType, nil
	case "null", "void":
		return NullType, nil
	case "mixed":
		return MixedType, nil
	case "array":
		return p.in.ArrayOf(MixedType), nil
	case "callable":
		return p.callable()
	}
	return p.in.Object(strings.TrimPrefix(name, `\`)), nil
}

func (p *typeParser) callable() (TypeID, error) {
	var sig Signature
	if !p.accept("(") {
		return p.in.Callable(sig), nil
	}
	if !p.accept(")") {
		for {
			param := SignatureParam{ByRef: p.accept("&")}
			param.Variadic = p.accept("...")
			id, err := p.single()
			if err != nil {
				return NoTypeID, err
			}
			param.Type = id
			sig.Params = append(sig.Params, param)
			if p.accept(")") {
				break
			}
			if !p.accept(",") {
				return NoTypeID, p.errorf("expected ',' or ')'")
			}
		}
	}
	if p.accept(":") {
		id, err := p.single()
		if err != nil {
			return NoTypeID, err
		}
		sig.Result = id
	}
	return p.in.Callable(sig), nil
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if c == '_' || c == '\\' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9' && p.pos > start) {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}
