package classfile

import "fmt"

// MagicError reports a file that does not start with the class file magic
// number.
type MagicError struct {
	Got uint32
}

func (e *MagicError) Error() string {
	return fmt.Sprintf("bad magic number 0x%08X, expected 0xCAFEBABE", e.Got)
}

// TruncatedError reports input that ends before a structure is complete.
type TruncatedError struct {
	What string
	Need int
	Have int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated input reading %s: need %d bytes, have %d", e.What, e.Need, e.Have)
}

// IndexError reports a constant pool index that does not name a usable
// entry: zero, out of range, or the second slot of a Long or Double.
type IndexError struct {
	Index uint16
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("constant pool index %d is not a usable entry", e.Index)
}

// TagMismatchError reports a constant pool reference whose target has the
// wrong tag.
type TagMismatchError struct {
	Index    uint16
	Expected Tag
	Actual   Tag
}

func (e *TagMismatchError) Error() string {
	return fmt.Sprintf("constant pool index %d is %s, expected %s", e.Index, e.Actual, e.Expected)
}

// UnknownTagError reports a tag byte outside the recognized set for some
// tagged structure.
type UnknownTagError struct {
	Kind string
	Tag  uint8
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown %s tag %d", e.Kind, e.Tag)
}

// ReservedTagError reports a stack map frame tag in the reserved range
// 128-246.
type ReservedTagError struct {
	Tag uint8
}

func (e *ReservedTagError) Error() string {
	return fmt.Sprintf("reserved stack map frame tag %d", e.Tag)
}

// AttributeLengthError reports an attribute whose decoded body does not
// occupy exactly its declared length.
type AttributeLengthError struct {
	Name     string
	Declared uint32
	Decoded  int
}

func (e *AttributeLengthError) Error() string {
	return fmt.Sprintf("attribute %s declares length %d but its body decodes %d bytes",
		e.Name, e.Declared, e.Decoded)
}
