package vm

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/sorane/javelin/pkg/classfile"
)

// imageSpec describes a synthetic class for loader tests.
type imageSpec struct {
	name       string
	super      string // empty only for the root class
	flags      uint16
	interfaces []string
	major      uint16 // zero means 52
}

// buildClassImage assembles minimal class file bytes: just the header, the
// constant pool entries naming the class and its supertypes, and empty
// member tables.
func buildClassImage(s imageSpec) []byte {
	if s.major == 0 {
		s.major = 52
	}

	var pool []byte
	slots := 0
	utf8 := func(v string) uint16 {
		pool = append(pool, 1)
		pool = binary.BigEndian.AppendUint16(pool, uint16(len(v)))
		pool = append(pool, v...)
		slots++
		return uint16(slots)
	}
	class := func(v string) uint16 {
		ni := utf8(v)
		pool = append(pool, 7)
		pool = binary.BigEndian.AppendUint16(pool, ni)
		slots++
		return uint16(slots)
	}

	thisClass := class(s.name)
	var superClass uint16
	if s.super != "" {
		superClass = class(s.super)
	}
	ifaces := make([]uint16, 0, len(s.interfaces))
	for _, i := range s.interfaces {
		ifaces = append(ifaces, class(i))
	}

	out := binary.BigEndian.AppendUint32(nil, 0xCAFEBABE)
	out = binary.BigEndian.AppendUint16(out, 0)       // minor
	out = binary.BigEndian.AppendUint16(out, s.major) // major
	out = binary.BigEndian.AppendUint16(out, uint16(slots+1))
	out = append(out, pool...)
	out = binary.BigEndian.AppendUint16(out, s.flags)
	out = binary.BigEndian.AppendUint16(out, thisClass)
	out = binary.BigEndian.AppendUint16(out, superClass)
	out = binary.BigEndian.AppendUint16(out, uint16(len(ifaces)))
	for _, i := range ifaces {
		out = binary.BigEndian.AppendUint16(out, i)
	}
	out = binary.BigEndian.AppendUint16(out, 0) // fields
	out = binary.BigEndian.AppendUint16(out, 0) // methods
	out = binary.BigEndian.AppendUint16(out, 0) // attributes
	return out
}

// mapSource serves classes from a map and counts loads per class.
type mapSource struct {
	classes map[string][]byte
	loads   map[string]int
}

func newMapSource(specs ...imageSpec) *mapSource {
	s := &mapSource{classes: make(map[string][]byte), loads: make(map[string]int)}
	for _, spec := range specs {
		s.classes[spec.name] = buildClassImage(spec)
	}
	return s
}

func (s *mapSource) ClassBytes(name string) ([]byte, error) {
	s.loads[name]++
	data, ok := s.classes[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return data, nil
}

func objectSpec() imageSpec {
	return imageSpec{name: "java/lang/Object"}
}

func TestResolveSimpleClass(t *testing.T) {
	source := newMapSource(
		objectSpec(),
		imageSpec{name: "Foo", super: "java/lang/Object"},
	)
	loader := NewClassLoader(source, nil)

	c, err := loader.Resolve(ScalarHandle("Foo"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.Name() != "Foo" {
		t.Errorf("name: got %q", c.Name())
	}
	if c.Super == nil || c.Super.Name() != "java/lang/Object" {
		t.Errorf("super: got %v", c.Super)
	}
	if c.Super.Super != nil {
		t.Error("java/lang/Object has a superclass")
	}
}

func TestResolveCached(t *testing.T) {
	source := newMapSource(
		objectSpec(),
		imageSpec{name: "Foo", super: "java/lang/Object"},
	)
	loader := NewClassLoader(source, nil)

	first, err := loader.Resolve(ScalarHandle("Foo"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := loader.Resolve(ScalarHandle("Foo"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first != second {
		t.Error("second Resolve returned a different class")
	}
	if source.loads["Foo"] != 1 {
		t.Errorf("source consulted %d times for Foo, want 1", source.loads["Foo"])
	}
	if source.loads["java/lang/Object"] != 1 {
		t.Errorf("source consulted %d times for Object, want 1", source.loads["java/lang/Object"])
	}
}

func TestResolveNotFound(t *testing.T) {
	loader := NewClassLoader(newMapSource(objectSpec()), nil)
	_, err := loader.Resolve(ScalarHandle("Missing"))
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	if nf.Name != "Missing" {
		t.Errorf("error names %q", nf.Name)
	}
}

func TestResolveInterfaces(t *testing.T) {
	source := newMapSource(
		objectSpec(),
		imageSpec{name: "Runnable", super: "java/lang/Object", flags: classfile.AccInterface},
		imageSpec{name: "Task", super: "java/lang/Object", interfaces: []string{"Runnable"}},
	)
	loader := NewClassLoader(source, nil)

	c, err := loader.Resolve(ScalarHandle("Task"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(c.Interfaces) != 1 || c.Interfaces[0].Name() != "Runnable" {
		t.Errorf("interfaces: got %v", c.Interfaces)
	}
	if !c.Interfaces[0].IsInterface() {
		t.Error("Runnable not marked as interface")
	}
}

func TestResolveCircularity(t *testing.T) {
	source := newMapSource(
		imageSpec{name: "A", super: "B"},
		imageSpec{name: "B", super: "A"},
	)
	loader := NewClassLoader(source, nil)

	_, err := loader.Resolve(ScalarHandle("A"))
	var circ *CircularityError
	if !errors.As(err, &circ) {
		t.Fatalf("got %v, want CircularityError", err)
	}
}

func TestResolveSelfSuper(t *testing.T) {
	source := newMapSource(imageSpec{name: "Ouro", super: "Ouro"})
	loader := NewClassLoader(source, nil)
	var circ *CircularityError
	if _, err := loader.Resolve(ScalarHandle("Ouro")); !errors.As(err, &circ) {
		t.Fatalf("got %v, want CircularityError", err)
	}
}

func TestResolveNameMismatch(t *testing.T) {
	source := newMapSource(objectSpec())
	source.classes["Foo"] = buildClassImage(imageSpec{name: "Bar", super: "java/lang/Object"})
	loader := NewClassLoader(source, nil)

	_, err := loader.Resolve(ScalarHandle("Foo"))
	var mismatch *NameMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, want NameMismatchError", err)
	}
	if mismatch.Requested != "Foo" || mismatch.Declared != "Bar" {
		t.Errorf("error reports %q/%q", mismatch.Requested, mismatch.Declared)
	}
}

func TestResolveUnsupportedVersion(t *testing.T) {
	for _, major := range []uint16{44, 99} {
		source := newMapSource(imageSpec{name: "java/lang/Object", major: major})
		loader := NewClassLoader(source, nil)
		_, err := loader.Resolve(ScalarHandle("java/lang/Object"))
		var ver *VersionError
		if !errors.As(err, &ver) {
			t.Errorf("major %d: got %v, want VersionError", major, err)
			continue
		}
		if ver.Major != major {
			t.Errorf("error reports major %d, want %d", ver.Major, major)
		}
	}
}

func TestResolveMissingSuper(t *testing.T) {
	// only java/lang/Object may omit its superclass
	source := newMapSource(imageSpec{name: "Rootless"})
	loader := NewClassLoader(source, nil)
	var format *FormatError
	if _, err := loader.Resolve(ScalarHandle("Rootless")); !errors.As(err, &format) {
		t.Fatalf("got %v, want FormatError", err)
	}
}

func TestResolveSuperIsInterface(t *testing.T) {
	source := newMapSource(
		objectSpec(),
		imageSpec{name: "I", super: "java/lang/Object", flags: classfile.AccInterface},
		imageSpec{name: "Foo", super: "I"},
	)
	loader := NewClassLoader(source, nil)

	_, err := loader.Resolve(ScalarHandle("Foo"))
	var incompatible *IncompatibleClassError
	if !errors.As(err, &incompatible) {
		t.Fatalf("got %v, want IncompatibleClassError", err)
	}
	if incompatible.Interface {
		t.Error("error direction wrong: interface used as class expected")
	}
}

func TestResolveClassAsInterface(t *testing.T) {
	source := newMapSource(
		objectSpec(),
		imageSpec{name: "NotAnInterface", super: "java/lang/Object"},
		imageSpec{name: "Foo", super: "java/lang/Object", interfaces: []string{"NotAnInterface"}},
	)
	loader := NewClassLoader(source, nil)

	_, err := loader.Resolve(ScalarHandle("Foo"))
	var incompatible *IncompatibleClassError
	if !errors.As(err, &incompatible) {
		t.Fatalf("got %v, want IncompatibleClassError", err)
	}
	if !incompatible.Interface {
		t.Error("error direction wrong: class used as interface expected")
	}
}

func TestResolveFailureNotCached(t *testing.T) {
	source := newMapSource(
		objectSpec(),
		imageSpec{name: "A", super: "B"},
	)
	loader := NewClassLoader(source, nil)

	if _, err := loader.Resolve(ScalarHandle("A")); err == nil {
		t.Fatal("Resolve succeeded with B missing")
	}

	// B appears; the earlier failure must not stick
	source.classes["B"] = buildClassImage(imageSpec{name: "B", super: "java/lang/Object"})
	c, err := loader.Resolve(ScalarHandle("A"))
	if err != nil {
		t.Fatalf("Resolve after fix: %v", err)
	}
	if c.Super.Name() != "B" {
		t.Errorf("super: got %q", c.Super.Name())
	}
}

func TestResolveMalformed(t *testing.T) {
	source := newMapSource(objectSpec())
	source.classes["Broken"] = []byte{0xca, 0xfe, 0xba, 0xbe, 0x00}
	loader := NewClassLoader(source, nil)

	_, err := loader.Resolve(ScalarHandle("Broken"))
	var format *FormatError
	if !errors.As(err, &format) {
		t.Fatalf("got %v, want FormatError", err)
	}
	if format.Name != "Broken" {
		t.Errorf("error names %q", format.Name)
	}
}

func TestResolvePrimitiveArray(t *testing.T) {
	loader := NewClassLoader(newMapSource(objectSpec()), nil)

	c, err := loader.Resolve(ArrayHandle(Type{Kind: KindInt}))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !c.IsArray() {
		t.Error("not an array class")
	}
	if c.Name() != "[I" {
		t.Errorf("name: got %q", c.Name())
	}
	if c.Super == nil || c.Super.Name() != "java/lang/Object" {
		t.Errorf("super: got %v", c.Super)
	}
	length, ok := c.InstanceFields["length"]
	if !ok || length.Kind != KindInt {
		t.Errorf("length field: got %v", c.InstanceFields)
	}
}

func TestResolveReferenceArray(t *testing.T) {
	source := newMapSource(
		objectSpec(),
		imageSpec{name: "Foo", super: "java/lang/Object"},
	)
	loader := NewClassLoader(source, nil)

	c, err := loader.Resolve(ScalarHandle("[LFoo;"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.Name() != "[LFoo;" {
		t.Errorf("name: got %q", c.Name())
	}
	// the element class loads as part of the array
	if source.loads["Foo"] != 1 {
		t.Errorf("element class loaded %d times, want 1", source.loads["Foo"])
	}
}

func TestResolveNestedArray(t *testing.T) {
	loader := NewClassLoader(newMapSource(objectSpec()), nil)
	c, err := loader.Resolve(ScalarHandle("[[I"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	elem, err := c.Ref.Handle.Element()
	if err != nil {
		t.Fatalf("Element: %v", err)
	}
	if elem.Kind != KindArray || elem.Elem.Kind != KindInt {
		t.Errorf("element type: got %v", elem)
	}
	// the inner array class is cached too
	if _, err := loader.Resolve(ArrayHandle(Type{Kind: KindInt})); err != nil {
		t.Fatalf("inner array: %v", err)
	}
}

func TestResolveArrayUnloadableElement(t *testing.T) {
	loader := NewClassLoader(newMapSource(objectSpec()), nil)
	_, err := loader.Resolve(ScalarHandle("[LMissing;"))
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestScalarHandleViaParse(t *testing.T) {
	h, err := ParseClassName("java/lang/String")
	if err != nil {
		t.Fatalf("ParseClassName: %v", err)
	}
	if h.IsArray() || h.Name() != "java/lang/String" {
		t.Errorf("handle: %v", h)
	}

	ah, err := ParseClassName("[Ljava/lang/String;")
	if err != nil {
		t.Fatalf("ParseClassName: %v", err)
	}
	if !ah.IsArray() {
		t.Error("array name not recognized")
	}
	if _, err := ParseClassName("[L;"); err == nil {
		t.Error("malformed array name accepted")
	}
	if _, err := ParseClassName(""); err == nil {
		t.Error("empty name accepted")
	}
}
