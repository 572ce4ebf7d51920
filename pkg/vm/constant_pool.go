package vm

import (
	"fmt"
	"math"
	"sync"

	"github.com/sorane/javelin/pkg/classfile"
	"github.com/sorane/javelin/pkg/mutf8"
)

// RuntimeConstantPoolEntry is the runtime form of a constant pool entry.
// Symbolic references are parsed eagerly at class load; String constants
// stay unresolved until first use because materializing one needs the
// java/lang/String class.
type RuntimeConstantPoolEntry interface {
	runtimeEntry()
}

// ClassRefEntry is a symbolic class reference.
type ClassRefEntry struct {
	Ref ClassRef
}

// FieldRefEntry is a symbolic field reference.
type FieldRefEntry struct {
	Ref FieldRef
}

// MethodRefEntry is a symbolic method reference. Interface is set for
// InterfaceMethodref entries.
type MethodRefEntry struct {
	Ref       MethodRef
	Interface bool
}

// ResolvedLiteral is a loadable constant in its final runtime form.
type ResolvedLiteral struct {
	Value Value
}

// UnresolvedString is a String constant whose object has not been built yet.
// Raw holds the modified UTF-8 payload and Text its decoded form.
type UnresolvedString struct {
	Raw  []byte
	Text string
}

// StringValue is a Utf8 entry: the raw modified UTF-8 bytes alongside the
// decoded text. These back member names, descriptors and String constants.
type StringValue struct {
	Raw  []byte
	Text string
}

func (*ClassRefEntry) runtimeEntry()    {}
func (*FieldRefEntry) runtimeEntry()    {}
func (*MethodRefEntry) runtimeEntry()   {}
func (*ResolvedLiteral) runtimeEntry()  {}
func (*UnresolvedString) runtimeEntry() {}
func (*StringValue) runtimeEntry()      {}

// RuntimeConstantPool mirrors the class file pool's 1-based indexing. The
// slot after a long or double literal is nil, as are slots whose entry kind
// has no runtime form.
type RuntimeConstantPool struct {
	mu      sync.Mutex
	entries []RuntimeConstantPoolEntry
}

// NewRuntimeConstantPool converts a verified class file pool into runtime
// form. Every symbolic reference is parsed here, so malformed names and
// descriptors surface at load time rather than at first use.
func NewRuntimeConstantPool(pool classfile.ConstantPool) (*RuntimeConstantPool, error) {
	rp := &RuntimeConstantPool{entries: make([]RuntimeConstantPoolEntry, len(pool))}
	for i, raw := range pool {
		if raw == nil {
			continue
		}
		entry, err := convertEntry(pool, raw)
		if err != nil {
			return nil, fmt.Errorf("constant pool entry at index %d: %w", i, err)
		}
		rp.entries[i] = entry
	}
	return rp, nil
}

func convertEntry(pool classfile.ConstantPool, raw classfile.ConstantPoolEntry) (RuntimeConstantPoolEntry, error) {
	switch e := raw.(type) {
	case *classfile.ConstantUtf8:
		return &StringValue{Raw: e.Bytes, Text: e.Value}, nil

	case *classfile.ConstantInteger:
		return &ResolvedLiteral{Value: IntValue(int32(e.Bits))}, nil

	case *classfile.ConstantFloat:
		return &ResolvedLiteral{Value: FloatValue(math.Float32frombits(e.Bits))}, nil

	case *classfile.ConstantLong:
		bits := uint64(e.HighBits)<<32 | uint64(e.LowBits)
		return &ResolvedLiteral{Value: LongValue(int64(bits))}, nil

	case *classfile.ConstantDouble:
		bits := uint64(e.HighBits)<<32 | uint64(e.LowBits)
		return &ResolvedLiteral{Value: DoubleValue(math.Float64frombits(bits))}, nil

	case *classfile.ConstantClass:
		name, err := pool.Utf8(e.NameIndex)
		if err != nil {
			return nil, err
		}
		handle, err := ParseClassName(name)
		if err != nil {
			return nil, err
		}
		return &ClassRefEntry{Ref: ClassRef{Handle: handle}}, nil

	case *classfile.ConstantString:
		utf8, err := pool.Entry(e.StringIndex)
		if err != nil {
			return nil, err
		}
		u, ok := utf8.(*classfile.ConstantUtf8)
		if !ok {
			return nil, fmt.Errorf("String entry refers to %s, expected Utf8", utf8.Tag())
		}
		return &UnresolvedString{Raw: u.Bytes, Text: u.Value}, nil

	case *classfile.ConstantFieldref:
		handle, nat, err := refParts(pool, e.ClassIndex, e.NameAndTypeIndex)
		if err != nil {
			return nil, err
		}
		name, err := pool.Utf8(nat.NameIndex)
		if err != nil {
			return nil, err
		}
		desc, err := pool.Utf8(nat.DescriptorIndex)
		if err != nil {
			return nil, err
		}
		fieldType, err := ParseFieldDescriptor(desc)
		if err != nil {
			return nil, err
		}
		return &FieldRefEntry{Ref: FieldRef{Class: handle, Name: name, Type: fieldType}}, nil

	case *classfile.ConstantMethodref:
		ref, err := methodRef(pool, e.ClassIndex, e.NameAndTypeIndex)
		if err != nil {
			return nil, err
		}
		return &MethodRefEntry{Ref: ref}, nil

	case *classfile.ConstantInterfaceMethodref:
		ref, err := methodRef(pool, e.ClassIndex, e.NameAndTypeIndex)
		if err != nil {
			return nil, err
		}
		return &MethodRefEntry{Ref: ref, Interface: true}, nil
	}

	// NameAndType, MethodHandle, MethodType, InvokeDynamic and the unusable
	// placeholder have no standalone runtime form.
	return nil, nil
}

func refParts(pool classfile.ConstantPool, classIndex, natIndex uint16) (ClassHandle, *classfile.ConstantNameAndType, error) {
	className, err := pool.ClassName(classIndex)
	if err != nil {
		return ClassHandle{}, nil, err
	}
	handle, err := ParseClassName(className)
	if err != nil {
		return ClassHandle{}, nil, err
	}
	nat, err := pool.NameAndType(natIndex)
	if err != nil {
		return ClassHandle{}, nil, err
	}
	return handle, nat, nil
}

func methodRef(pool classfile.ConstantPool, classIndex, natIndex uint16) (MethodRef, error) {
	handle, nat, err := refParts(pool, classIndex, natIndex)
	if err != nil {
		return MethodRef{}, err
	}
	name, err := pool.Utf8(nat.NameIndex)
	if err != nil {
		return MethodRef{}, err
	}
	desc, err := pool.Utf8(nat.DescriptorIndex)
	if err != nil {
		return MethodRef{}, err
	}
	sig, err := ParseMethodDescriptor(name, desc)
	if err != nil {
		return MethodRef{}, err
	}
	return MethodRef{Class: handle, Sig: sig}, nil
}

// Entry returns the runtime entry at a 1-based index.
func (rp *RuntimeConstantPool) Entry(index uint16) (RuntimeConstantPoolEntry, error) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.entryLocked(index)
}

func (rp *RuntimeConstantPool) entryLocked(index uint16) (RuntimeConstantPoolEntry, error) {
	if index == 0 || int(index) >= len(rp.entries) || rp.entries[index] == nil {
		return nil, fmt.Errorf("no usable runtime constant at index %d", index)
	}
	return rp.entries[index], nil
}

// Text returns the decoded text of a Utf8 entry.
func (rp *RuntimeConstantPool) Text(index uint16) (string, error) {
	entry, err := rp.Entry(index)
	if err != nil {
		return "", err
	}
	sv, ok := entry.(*StringValue)
	if !ok {
		return "", fmt.Errorf("runtime constant at index %d is not a string value", index)
	}
	return sv.Text, nil
}

// Materializer builds the runtime objects a String constant needs. The
// object layer supplies one; the pool itself never constructs objects.
type Materializer interface {
	// NewCharArray allocates a char array of the given class holding units.
	NewCharArray(arrayClass *Class, units []uint16) (Value, error)
	// NewString builds a java/lang/String around an existing char array.
	NewString(stringClass *Class, chars Value) (Value, error)
}

const stringClassName = "java/lang/String"

// ResolveLiteral returns the runtime value of a loadable constant. Numeric
// literals are already resolved. A String constant is materialized on first
// use (char array from the UTF-16 units of the raw bytes, then the String
// object) and the result replaces the unresolved entry, so later loads of
// the same index return the same object.
func (rp *RuntimeConstantPool) ResolveLiteral(index uint16, loader *ClassLoader, mat Materializer) (Value, error) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	entry, err := rp.entryLocked(index)
	if err != nil {
		return Value{}, err
	}
	switch e := entry.(type) {
	case *ResolvedLiteral:
		return e.Value, nil

	case *UnresolvedString:
		charArrayClass, err := loader.Resolve(ArrayHandle(Type{Kind: KindChar}))
		if err != nil {
			return Value{}, fmt.Errorf("resolving char array class: %w", err)
		}
		units, err := mutf8.DecodeUTF16(e.Raw)
		if err != nil {
			return Value{}, fmt.Errorf("decoding string constant: %w", err)
		}
		chars, err := mat.NewCharArray(charArrayClass, units)
		if err != nil {
			return Value{}, err
		}
		stringClass, err := loader.Resolve(ScalarHandle(stringClassName))
		if err != nil {
			return Value{}, fmt.Errorf("resolving %s: %w", stringClassName, err)
		}
		str, err := mat.NewString(stringClass, chars)
		if err != nil {
			return Value{}, err
		}
		rp.entries[index] = &ResolvedLiteral{Value: str}
		return str, nil
	}
	return Value{}, fmt.Errorf("runtime constant at index %d is not loadable", index)
}
