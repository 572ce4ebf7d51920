package vm

import (
	"fmt"
	"strings"
)

// Kind identifies a field type. The eight primitive kinds correspond to the
// base type characters of the descriptor grammar.
type Kind int

const (
	KindByte Kind = iota
	KindChar
	KindDouble
	KindFloat
	KindInt
	KindLong
	KindShort
	KindBoolean
	KindReference
	KindArray
)

// Type is a parsed field type. Name is set for KindReference, Elem for
// KindArray.
type Type struct {
	Kind Kind
	Name string
	Elem *Type
}

// Descriptor renders the type back into descriptor syntax.
func (t Type) Descriptor() string {
	switch t.Kind {
	case KindByte:
		return "B"
	case KindChar:
		return "C"
	case KindDouble:
		return "D"
	case KindFloat:
		return "F"
	case KindInt:
		return "I"
	case KindLong:
		return "J"
	case KindShort:
		return "S"
	case KindBoolean:
		return "Z"
	case KindReference:
		return "L" + t.Name + ";"
	case KindArray:
		return "[" + t.Elem.Descriptor()
	}
	return "?"
}

func (t Type) String() string { return t.Descriptor() }

// DefaultValue returns the initial value of a field of this type: zero for
// numeric kinds, null for references and arrays.
func (t Type) DefaultValue() Value {
	switch t.Kind {
	case KindLong:
		return LongValue(0)
	case KindFloat:
		return FloatValue(0)
	case KindDouble:
		return DoubleValue(0)
	case KindReference, KindArray:
		return NullValue()
	}
	return IntValue(0)
}

// ParseType parses one field type from the front of s and returns the type
// and the unconsumed remainder.
func ParseType(s string) (Type, string, error) {
	if s == "" {
		return Type{}, "", fmt.Errorf("empty type descriptor")
	}
	switch s[0] {
	case 'B':
		return Type{Kind: KindByte}, s[1:], nil
	case 'C':
		return Type{Kind: KindChar}, s[1:], nil
	case 'D':
		return Type{Kind: KindDouble}, s[1:], nil
	case 'F':
		return Type{Kind: KindFloat}, s[1:], nil
	case 'I':
		return Type{Kind: KindInt}, s[1:], nil
	case 'J':
		return Type{Kind: KindLong}, s[1:], nil
	case 'S':
		return Type{Kind: KindShort}, s[1:], nil
	case 'Z':
		return Type{Kind: KindBoolean}, s[1:], nil
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return Type{}, "", fmt.Errorf("unterminated class type in %q", s)
		}
		if end == 1 {
			return Type{}, "", fmt.Errorf("empty class name in %q", s)
		}
		return Type{Kind: KindReference, Name: s[1:end]}, s[end+1:], nil
	case '[':
		elem, rest, err := ParseType(s[1:])
		if err != nil {
			return Type{}, "", err
		}
		return Type{Kind: KindArray, Elem: &elem}, rest, nil
	}
	return Type{}, "", fmt.Errorf("unexpected type character %q in %q", s[0], s)
}

// ParseFieldDescriptor parses a complete field descriptor; trailing bytes are
// an error.
func ParseFieldDescriptor(s string) (Type, error) {
	t, rest, err := ParseType(s)
	if err != nil {
		return Type{}, fmt.Errorf("field descriptor %q: %w", s, err)
	}
	if rest != "" {
		return Type{}, fmt.Errorf("field descriptor %q: trailing characters %q", s, rest)
	}
	return t, nil
}

// MethodSig is a method name with its parsed descriptor. Return is nil for
// void methods.
type MethodSig struct {
	Name       string
	Descriptor string
	Params     []Type
	Return     *Type
}

// ParseMethodDescriptor parses a method descriptor of the form
// (ParamTypes)ReturnType, where ReturnType may be V for void.
func ParseMethodDescriptor(name, desc string) (MethodSig, error) {
	sig := MethodSig{Name: name, Descriptor: desc}
	if desc == "" || desc[0] != '(' {
		return sig, fmt.Errorf("method descriptor %q: missing parameter list", desc)
	}
	rest := desc[1:]
	for {
		if rest == "" {
			return sig, fmt.Errorf("method descriptor %q: unterminated parameter list", desc)
		}
		if rest[0] == ')' {
			rest = rest[1:]
			break
		}
		t, r, err := ParseType(rest)
		if err != nil {
			return sig, fmt.Errorf("method descriptor %q: %w", desc, err)
		}
		sig.Params = append(sig.Params, t)
		rest = r
	}
	if rest == "V" {
		return sig, nil
	}
	ret, trailing, err := ParseType(rest)
	if err != nil {
		return sig, fmt.Errorf("method descriptor %q: %w", desc, err)
	}
	if trailing != "" {
		return sig, fmt.Errorf("method descriptor %q: trailing characters %q", desc, trailing)
	}
	sig.Return = &ret
	return sig, nil
}
