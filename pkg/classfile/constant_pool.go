package classfile

import "fmt"

// Tag identifies the kind of a constant pool entry.
type Tag uint8

// Constant pool tags
const (
	TagUnusable           Tag = 0 // placeholder slot after a Long or Double
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagInvokeDynamic      Tag = 18
)

func (t Tag) String() string {
	switch t {
	case TagUnusable:
		return "Unusable"
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldref:
		return "Fieldref"
	case TagMethodref:
		return "Methodref"
	case TagInterfaceMethodref:
		return "InterfaceMethodref"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// RefKind is the reference_kind of a MethodHandle entry.
type RefKind uint8

const (
	RefGetField         RefKind = 1
	RefGetStatic        RefKind = 2
	RefPutField         RefKind = 3
	RefPutStatic        RefKind = 4
	RefInvokeVirtual    RefKind = 5
	RefInvokeStatic     RefKind = 6
	RefInvokeSpecial    RefKind = 7
	RefNewInvokeSpecial RefKind = 8
	RefInvokeInterface  RefKind = 9
)

// ConstantPoolEntry is implemented by all constant pool entry kinds.
type ConstantPoolEntry interface {
	Tag() Tag
}

// ConstantUtf8 holds a string constant. Bytes is the raw modified UTF-8
// payload; Value is the text decoded from it when the pool was parsed.
type ConstantUtf8 struct {
	Bytes []byte
	Value string
}

func (c *ConstantUtf8) Tag() Tag { return TagUtf8 }

// ConstantInteger holds the raw 4 bytes of an int constant.
type ConstantInteger struct {
	Bits uint32
}

func (c *ConstantInteger) Tag() Tag { return TagInteger }

// ConstantFloat holds the raw 4 bytes of a float constant.
type ConstantFloat struct {
	Bits uint32
}

func (c *ConstantFloat) Tag() Tag { return TagFloat }

// ConstantLong holds the raw 8 bytes of a long constant as two 32-bit
// halves. The entry occupies two pool slots.
type ConstantLong struct {
	HighBits uint32
	LowBits  uint32
}

func (c *ConstantLong) Tag() Tag { return TagLong }

// ConstantDouble holds the raw 8 bytes of a double constant as two 32-bit
// halves. The entry occupies two pool slots.
type ConstantDouble struct {
	HighBits uint32
	LowBits  uint32
}

func (c *ConstantDouble) Tag() Tag { return TagDouble }

type ConstantClass struct {
	NameIndex uint16
}

func (c *ConstantClass) Tag() Tag { return TagClass }

type ConstantString struct {
	StringIndex uint16
}

func (c *ConstantString) Tag() Tag { return TagString }

type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldref) Tag() Tag { return TagFieldref }

type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodref) Tag() Tag { return TagMethodref }

type ConstantInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodref) Tag() Tag { return TagInterfaceMethodref }

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndType) Tag() Tag { return TagNameAndType }

type ConstantMethodHandle struct {
	ReferenceKind  RefKind
	ReferenceIndex uint16
}

func (c *ConstantMethodHandle) Tag() Tag { return TagMethodHandle }

type ConstantMethodType struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodType) Tag() Tag { return TagMethodType }

type ConstantInvokeDynamic struct {
	BootstrapMethodIndex uint16
	NameAndTypeIndex     uint16
}

func (c *ConstantInvokeDynamic) Tag() Tag { return TagInvokeDynamic }

// ConstantUnusable fills the slot after a Long or Double entry. Referencing
// it from anywhere is an error.
type ConstantUnusable struct{}

func (c *ConstantUnusable) Tag() Tag { return TagUnusable }

// ConstantPool is the one-indexed constant pool table. Its length equals the
// constant_pool_count from the class file header; slot 0 is unused (nil).
type ConstantPool []ConstantPoolEntry

// Entry returns the entry at index. Index 0, out-of-bounds indices and the
// unusable slot after a Long or Double all yield an IndexError.
func (p ConstantPool) Entry(index uint16) (ConstantPoolEntry, error) {
	if index == 0 || int(index) >= len(p) || p[index] == nil {
		return nil, &IndexError{Index: index}
	}
	if _, unusable := p[index].(*ConstantUnusable); unusable {
		return nil, &IndexError{Index: index}
	}
	return p[index], nil
}

// checkTag verifies that index refers to an entry with the given tag.
func (p ConstantPool) checkTag(index uint16, tag Tag) error {
	e, err := p.Entry(index)
	if err != nil {
		return err
	}
	if e.Tag() != tag {
		return &TagMismatchError{Index: index, Expected: tag, Actual: e.Tag()}
	}
	return nil
}

// Utf8 returns the decoded string of the Utf8 entry at index.
func (p ConstantPool) Utf8(index uint16) (string, error) {
	e, err := p.Entry(index)
	if err != nil {
		return "", err
	}
	u, ok := e.(*ConstantUtf8)
	if !ok {
		return "", &TagMismatchError{Index: index, Expected: TagUtf8, Actual: e.Tag()}
	}
	return u.Value, nil
}

// ClassName returns the name referenced by the Class entry at index.
func (p ConstantPool) ClassName(index uint16) (string, error) {
	e, err := p.Entry(index)
	if err != nil {
		return "", err
	}
	c, ok := e.(*ConstantClass)
	if !ok {
		return "", &TagMismatchError{Index: index, Expected: TagClass, Actual: e.Tag()}
	}
	return p.Utf8(c.NameIndex)
}

// NameAndType returns the NameAndType entry at index.
func (p ConstantPool) NameAndType(index uint16) (*ConstantNameAndType, error) {
	e, err := p.Entry(index)
	if err != nil {
		return nil, err
	}
	nat, ok := e.(*ConstantNameAndType)
	if !ok {
		return nil, &TagMismatchError{Index: index, Expected: TagNameAndType, Actual: e.Tag()}
	}
	return nat, nil
}

// verify checks the internal cross-references of a fully decoded pool: every
// index held by an entry must point at an entry of the statically expected
// tag. Later structures (fields, methods, attributes) are checked separately
// as they are parsed.
func (p ConstantPool) verify() error {
	for i := 1; i < len(p); i++ {
		var err error
		switch e := p[i].(type) {
		case *ConstantClass:
			err = p.checkTag(e.NameIndex, TagUtf8)
		case *ConstantString:
			err = p.checkTag(e.StringIndex, TagUtf8)
		case *ConstantFieldref:
			err = p.checkRef(e.ClassIndex, e.NameAndTypeIndex)
		case *ConstantMethodref:
			err = p.checkRef(e.ClassIndex, e.NameAndTypeIndex)
		case *ConstantInterfaceMethodref:
			err = p.checkRef(e.ClassIndex, e.NameAndTypeIndex)
		case *ConstantNameAndType:
			if err = p.checkTag(e.NameIndex, TagUtf8); err == nil {
				err = p.checkTag(e.DescriptorIndex, TagUtf8)
			}
		case *ConstantMethodHandle:
			switch e.ReferenceKind {
			case RefGetField, RefGetStatic, RefPutField, RefPutStatic:
				err = p.checkTag(e.ReferenceIndex, TagFieldref)
			case RefInvokeInterface:
				err = p.checkTag(e.ReferenceIndex, TagInterfaceMethodref)
			case RefInvokeStatic, RefInvokeSpecial:
				// either kind of method reference is permitted here
				if err = p.checkTag(e.ReferenceIndex, TagMethodref); err != nil {
					err = p.checkTag(e.ReferenceIndex, TagInterfaceMethodref)
				}
			default:
				err = p.checkTag(e.ReferenceIndex, TagMethodref)
			}
		case *ConstantMethodType:
			err = p.checkTag(e.DescriptorIndex, TagUtf8)
		case *ConstantInvokeDynamic:
			err = p.checkTag(e.NameAndTypeIndex, TagNameAndType)
		}
		if err != nil {
			return fmt.Errorf("constant pool entry at index %d: %w", i, err)
		}
	}
	return nil
}

func (p ConstantPool) checkRef(classIndex, natIndex uint16) error {
	if err := p.checkTag(classIndex, TagClass); err != nil {
		return err
	}
	return p.checkTag(natIndex, TagNameAndType)
}
