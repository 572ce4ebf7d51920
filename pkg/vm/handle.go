package vm

import "fmt"

// ClassHandle identifies a class for loading and caching. Scalar classes are
// keyed by their binary name (e.g. "java/lang/String"); array classes by the
// full descriptor (e.g. "[I", "[Ljava/lang/Object;"). Handles are comparable
// and usable as map keys.
type ClassHandle struct {
	name string
}

// ScalarHandle returns the handle for a named (non-array) class.
func ScalarHandle(name string) ClassHandle {
	return ClassHandle{name: name}
}

// ArrayHandle returns the handle for an array class with the given element
// type.
func ArrayHandle(elem Type) ClassHandle {
	return ClassHandle{name: "[" + elem.Descriptor()}
}

// HandleForType returns the handle a field type resolves through. Only
// reference and array types have one.
func HandleForType(t Type) (ClassHandle, error) {
	switch t.Kind {
	case KindReference:
		return ScalarHandle(t.Name), nil
	case KindArray:
		return ArrayHandle(*t.Elem), nil
	}
	return ClassHandle{}, fmt.Errorf("type %s has no class", t)
}

// ParseClassName builds a handle from a constant pool class name. Names
// starting with '[' are array descriptors; everything else is a scalar
// binary name.
func ParseClassName(name string) (ClassHandle, error) {
	if len(name) == 0 {
		return ClassHandle{}, fmt.Errorf("empty class name")
	}
	if name[0] != '[' {
		return ScalarHandle(name), nil
	}
	t, err := ParseFieldDescriptor(name)
	if err != nil {
		return ClassHandle{}, fmt.Errorf("array class name: %w", err)
	}
	if t.Kind != KindArray {
		return ClassHandle{}, fmt.Errorf("array class name %q does not describe an array", name)
	}
	return ClassHandle{name: name}, nil
}

// IsArray reports whether the handle names an array class.
func (h ClassHandle) IsArray() bool {
	return len(h.name) > 0 && h.name[0] == '['
}

// Name returns the binary name of a scalar class, or the full descriptor of
// an array class.
func (h ClassHandle) Name() string { return h.name }

// Element returns the element type of an array handle.
func (h ClassHandle) Element() (Type, error) {
	if !h.IsArray() {
		return Type{}, fmt.Errorf("class %s is not an array", h.name)
	}
	t, err := ParseFieldDescriptor(h.name[1:])
	if err != nil {
		return Type{}, err
	}
	return t, nil
}

func (h ClassHandle) String() string { return h.name }

// ClassRef is a symbolic reference to a class, resolved on demand through a
// class loader.
type ClassRef struct {
	Handle ClassHandle
}

// FieldRef is a symbolic reference to a field of a named class.
type FieldRef struct {
	Class ClassHandle
	Name  string
	Type  Type
}

// MethodRef is a symbolic reference to a method of a named class.
type MethodRef struct {
	Class ClassHandle
	Sig   MethodSig
}
