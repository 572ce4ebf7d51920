package vm

import "fmt"

// ValueType discriminates the kinds of values the runtime tracks. Narrow
// integer types (byte, short, char, boolean) are all carried as TypeInt.
type ValueType int

const (
	TypeInt ValueType = iota
	TypeLong
	TypeFloat
	TypeDouble
	TypeRef
	TypeNull
)

func (t ValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeRef:
		return "reference"
	case TypeNull:
		return "null"
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// Value is a single runtime value. Exactly one of the payload fields is
// meaningful, selected by Type.
type Value struct {
	Type   ValueType
	Int    int32
	Long   int64
	Float  float32
	Double float64
	Ref    any
}

func IntValue(v int32) Value       { return Value{Type: TypeInt, Int: v} }
func LongValue(v int64) Value      { return Value{Type: TypeLong, Long: v} }
func FloatValue(v float32) Value   { return Value{Type: TypeFloat, Float: v} }
func DoubleValue(v float64) Value  { return Value{Type: TypeDouble, Double: v} }
func RefValue(ref any) Value       { return Value{Type: TypeRef, Ref: ref} }
func NullValue() Value             { return Value{Type: TypeNull} }

// IsWide reports whether the value occupies two slots in a frame.
func (v Value) IsWide() bool {
	return v.Type == TypeLong || v.Type == TypeDouble
}
