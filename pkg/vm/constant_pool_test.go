package vm

import (
	"math"
	"testing"

	"github.com/sorane/javelin/pkg/classfile"
	"github.com/sorane/javelin/pkg/mutf8"
)

func utf8Entry(s string) *classfile.ConstantUtf8 {
	return &classfile.ConstantUtf8{Bytes: mutf8.Encode(s), Value: s}
}

func TestRuntimePoolLiterals(t *testing.T) {
	pool := classfile.ConstantPool{
		nil,
		&classfile.ConstantInteger{Bits: 0xfffffffe}, // -2
		&classfile.ConstantFloat{Bits: math.Float32bits(1.5)},
		&classfile.ConstantLong{HighBits: 0x00000001, LowBits: 0x00000002},
		&classfile.ConstantUnusable{},
		&classfile.ConstantDouble{HighBits: uint32(math.Float64bits(-2.25) >> 32), LowBits: uint32(math.Float64bits(-2.25))},
		&classfile.ConstantUnusable{},
	}
	rp, err := NewRuntimeConstantPool(pool)
	if err != nil {
		t.Fatalf("NewRuntimeConstantPool: %v", err)
	}

	cases := []struct {
		index uint16
		want  Value
	}{
		{1, IntValue(-2)},
		{2, FloatValue(1.5)},
		{3, LongValue(1<<32 | 2)},
		{5, DoubleValue(-2.25)},
	}
	for _, c := range cases {
		entry, err := rp.Entry(c.index)
		if err != nil {
			t.Errorf("Entry(%d): %v", c.index, err)
			continue
		}
		lit, ok := entry.(*ResolvedLiteral)
		if !ok {
			t.Errorf("Entry(%d): got %T, want *ResolvedLiteral", c.index, entry)
			continue
		}
		if lit.Value != c.want {
			t.Errorf("Entry(%d): got %+v, want %+v", c.index, lit.Value, c.want)
		}
	}

	// slots after wide literals are unusable
	for _, index := range []uint16{0, 4, 6, 7} {
		if _, err := rp.Entry(index); err == nil {
			t.Errorf("Entry(%d) succeeded, want error", index)
		}
	}
}

func TestRuntimePoolSymbolicRefs(t *testing.T) {
	pool := classfile.ConstantPool{
		nil,
		utf8Entry("com/example/Widget"), // 1
		&classfile.ConstantClass{NameIndex: 1},       // 2
		utf8Entry("size"),                            // 3
		utf8Entry("I"),                               // 4
		&classfile.ConstantNameAndType{NameIndex: 3, DescriptorIndex: 4}, // 5
		&classfile.ConstantFieldref{ClassIndex: 2, NameAndTypeIndex: 5},  // 6
		utf8Entry("grow"),    // 7
		utf8Entry("(I)[I"),   // 8
		&classfile.ConstantNameAndType{NameIndex: 7, DescriptorIndex: 8},          // 9
		&classfile.ConstantMethodref{ClassIndex: 2, NameAndTypeIndex: 9},          // 10
		&classfile.ConstantInterfaceMethodref{ClassIndex: 2, NameAndTypeIndex: 9}, // 11
	}
	rp, err := NewRuntimeConstantPool(pool)
	if err != nil {
		t.Fatalf("NewRuntimeConstantPool: %v", err)
	}

	entry, err := rp.Entry(2)
	if err != nil {
		t.Fatalf("Entry(2): %v", err)
	}
	cref, ok := entry.(*ClassRefEntry)
	if !ok {
		t.Fatalf("Entry(2): got %T", entry)
	}
	if cref.Ref.Handle.Name() != "com/example/Widget" {
		t.Errorf("class ref: got %q", cref.Ref.Handle.Name())
	}

	entry, err = rp.Entry(6)
	if err != nil {
		t.Fatalf("Entry(6): %v", err)
	}
	fref, ok := entry.(*FieldRefEntry)
	if !ok {
		t.Fatalf("Entry(6): got %T", entry)
	}
	if fref.Ref.Name != "size" || fref.Ref.Type.Kind != KindInt {
		t.Errorf("field ref: %+v", fref.Ref)
	}
	if fref.Ref.Class.Name() != "com/example/Widget" {
		t.Errorf("field owner: got %q", fref.Ref.Class.Name())
	}

	entry, err = rp.Entry(10)
	if err != nil {
		t.Fatalf("Entry(10): %v", err)
	}
	mref, ok := entry.(*MethodRefEntry)
	if !ok {
		t.Fatalf("Entry(10): got %T", entry)
	}
	if mref.Interface {
		t.Error("Methodref entry marked as interface")
	}
	if mref.Ref.Sig.Name != "grow" || len(mref.Ref.Sig.Params) != 1 {
		t.Errorf("method sig: %+v", mref.Ref.Sig)
	}
	if mref.Ref.Sig.Return == nil || mref.Ref.Sig.Return.Kind != KindArray {
		t.Errorf("return type: %v", mref.Ref.Sig.Return)
	}

	entry, err = rp.Entry(11)
	if err != nil {
		t.Fatalf("Entry(11): %v", err)
	}
	iref := entry.(*MethodRefEntry)
	if !iref.Interface {
		t.Error("InterfaceMethodref entry not marked as interface")
	}
}

func TestRuntimePoolArrayClassRef(t *testing.T) {
	pool := classfile.ConstantPool{
		nil,
		utf8Entry("[[Ljava/lang/String;"),
		&classfile.ConstantClass{NameIndex: 1},
	}
	rp, err := NewRuntimeConstantPool(pool)
	if err != nil {
		t.Fatalf("NewRuntimeConstantPool: %v", err)
	}
	entry, err := rp.Entry(2)
	if err != nil {
		t.Fatalf("Entry(2): %v", err)
	}
	cref := entry.(*ClassRefEntry)
	if !cref.Ref.Handle.IsArray() {
		t.Error("array class ref not recognized as array")
	}
}

func TestRuntimePoolBadDescriptor(t *testing.T) {
	pool := classfile.ConstantPool{
		nil,
		utf8Entry("com/example/Widget"),
		&classfile.ConstantClass{NameIndex: 1},
		utf8Entry("size"),
		utf8Entry("Qnonsense"),
		&classfile.ConstantNameAndType{NameIndex: 3, DescriptorIndex: 4},
		&classfile.ConstantFieldref{ClassIndex: 2, NameAndTypeIndex: 5},
	}
	if _, err := NewRuntimeConstantPool(pool); err == nil {
		t.Fatal("NewRuntimeConstantPool accepted a malformed descriptor")
	}
}

func TestRuntimePoolText(t *testing.T) {
	pool := classfile.ConstantPool{
		nil,
		utf8Entry("hello"),
		&classfile.ConstantInteger{Bits: 1},
	}
	rp, err := NewRuntimeConstantPool(pool)
	if err != nil {
		t.Fatalf("NewRuntimeConstantPool: %v", err)
	}
	got, err := rp.Text(1)
	if err != nil {
		t.Fatalf("Text(1): %v", err)
	}
	if got != "hello" {
		t.Errorf("Text(1): got %q", got)
	}
	if _, err := rp.Text(2); err == nil {
		t.Error("Text(2) succeeded on an integer entry")
	}
}

// countingMaterializer builds placeholder objects and records calls.
type countingMaterializer struct {
	charCalls   int
	stringCalls int
	lastUnits   []uint16
}

func (m *countingMaterializer) NewCharArray(arrayClass *Class, units []uint16) (Value, error) {
	m.charCalls++
	m.lastUnits = units
	return RefValue(units), nil
}

func (m *countingMaterializer) NewString(stringClass *Class, chars Value) (Value, error) {
	m.stringCalls++
	return RefValue(&struct{ chars Value }{chars}), nil
}

func TestResolveLiteralString(t *testing.T) {
	pool := classfile.ConstantPool{
		nil,
		utf8Entry("hiあ"),
		&classfile.ConstantString{StringIndex: 1},
	}
	rp, err := NewRuntimeConstantPool(pool)
	if err != nil {
		t.Fatalf("NewRuntimeConstantPool: %v", err)
	}

	source := newMapSource(
		objectSpec(),
		imageSpec{name: "java/lang/String", super: "java/lang/Object"},
	)
	loader := NewClassLoader(source, nil)
	mat := &countingMaterializer{}

	v, err := rp.ResolveLiteral(2, loader, mat)
	if err != nil {
		t.Fatalf("ResolveLiteral: %v", err)
	}
	if v.Type != TypeRef {
		t.Fatalf("got %v, want a reference", v.Type)
	}
	want := []uint16{'h', 'i', 0x3042}
	if len(mat.lastUnits) != len(want) {
		t.Fatalf("units: got %v, want %v", mat.lastUnits, want)
	}
	for i := range want {
		if mat.lastUnits[i] != want[i] {
			t.Fatalf("units: got %v, want %v", mat.lastUnits, want)
		}
	}

	// the second load returns the cached object without rebuilding it
	again, err := rp.ResolveLiteral(2, loader, mat)
	if err != nil {
		t.Fatalf("ResolveLiteral again: %v", err)
	}
	if again.Ref != v.Ref {
		t.Error("second load produced a different object")
	}
	if mat.charCalls != 1 || mat.stringCalls != 1 {
		t.Errorf("materializer called %d/%d times, want 1/1", mat.charCalls, mat.stringCalls)
	}
}

func TestResolveLiteralNumeric(t *testing.T) {
	pool := classfile.ConstantPool{
		nil,
		&classfile.ConstantLong{HighBits: 0, LowBits: 42},
		&classfile.ConstantUnusable{},
	}
	rp, err := NewRuntimeConstantPool(pool)
	if err != nil {
		t.Fatalf("NewRuntimeConstantPool: %v", err)
	}
	loader := NewClassLoader(newMapSource(objectSpec()), nil)
	v, err := rp.ResolveLiteral(1, loader, &countingMaterializer{})
	if err != nil {
		t.Fatalf("ResolveLiteral: %v", err)
	}
	if v != LongValue(42) {
		t.Errorf("got %+v, want long 42", v)
	}
}

func TestResolveLiteralNotLoadable(t *testing.T) {
	pool := classfile.ConstantPool{
		nil,
		utf8Entry("com/example/Widget"),
		&classfile.ConstantClass{NameIndex: 1},
	}
	rp, err := NewRuntimeConstantPool(pool)
	if err != nil {
		t.Fatalf("NewRuntimeConstantPool: %v", err)
	}
	loader := NewClassLoader(newMapSource(objectSpec()), nil)
	if _, err := rp.ResolveLiteral(2, loader, &countingMaterializer{}); err == nil {
		t.Error("ResolveLiteral succeeded on a class ref")
	}
}
