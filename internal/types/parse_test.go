package types

import (
	"errors"
	"testing"
)

func TestParseUnionLabels(t *testing.T) {
	in := NewInterner(nil)
	tests := []struct {
		src  string
		want string
	}{
		{"", "(empty)"},
		{"int", "int"},
		{"INT|string", "int|string"},
		{"?Foo", "Foo|null"},
		{`\App\User[]`, `App\User[]`},
		{"array", "mixed[]"},
		{"int[][]", "int[][]"},
		{"callable", "callable"},
		{"callable(int,&string):bool", "callable(int,&string):bool"},
		{"callable(...mixed)", "callable(...mixed)"},
		{"(callable():int)[]", "(callable():int)[]"},
		{"void|double|boolean", "null|float|bool"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			u, err := ParseUnion(in, tt.src)
			if err != nil {
				t.Fatalf("ParseUnion(%q): %v", tt.src, err)
			}
			if got := LabelUnion(in, u); got != tt.want {
				t.Fatalf("label = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseUnionErrors(t *testing.T) {
	in := NewInterner(nil)
	for _, src := range []string{"int|", "|int", "callable(int", "Foo bar", "(int", "int[", "9lives"} {
		if _, err := ParseUnion(in, src); !errors.Is(err, ErrBadTypeString) {
			t.Fatalf("ParseUnion(%q) error = %v, want ErrBadTypeString", src, err)
		}
	}
}
