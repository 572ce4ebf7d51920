package classfile

import (
	"fmt"
	"os"

	"github.com/sorane/javelin/pkg/mutf8"
)

const classMagic = 0xCAFEBABE

// ParseFile reads and parses a .class file from the given path.
func ParseFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a class file from raw bytes. The constant pool is decoded
// and cross-validated in full before any later structure, because fields,
// methods and attributes are validated against pool entry tags as they are
// read.
func Parse(data []byte) (*ClassFile, error) {
	p := &parser{r: &reader{data: data}}
	return p.parseClassFile()
}

type parser struct {
	r    *reader
	pool ConstantPool
}

func (p *parser) parseClassFile() (*ClassFile, error) {
	cf := &ClassFile{}

	magic, err := p.r.u4("magic number")
	if err != nil {
		return nil, err
	}
	if magic != classMagic {
		return nil, &MagicError{Got: magic}
	}

	if cf.MinorVersion, err = p.r.u2("minor version"); err != nil {
		return nil, err
	}
	if cf.MajorVersion, err = p.r.u2("major version"); err != nil {
		return nil, err
	}

	cpCount, err := p.r.u2("constant pool count")
	if err != nil {
		return nil, err
	}
	pool, err := p.parseConstantPool(cpCount)
	if err != nil {
		return nil, fmt.Errorf("parsing constant pool: %w", err)
	}
	cf.ConstantPool = pool
	p.pool = pool

	if cf.AccessFlags, err = p.r.u2("access flags"); err != nil {
		return nil, err
	}
	if cf.ThisClass, err = p.poolIndex(TagClass, "this_class"); err != nil {
		return nil, err
	}
	if cf.SuperClass, err = p.optionalPoolIndex(TagClass, "super_class"); err != nil {
		return nil, err
	}

	interfacesCount, err := p.r.u2("interfaces count")
	if err != nil {
		return nil, err
	}
	cf.Interfaces = make([]uint16, interfacesCount)
	for i := range cf.Interfaces {
		idx, err := p.poolIndex(TagClass, fmt.Sprintf("interface %d", i))
		if err != nil {
			return nil, err
		}
		cf.Interfaces[i] = idx
	}

	fieldsCount, err := p.r.u2("fields count")
	if err != nil {
		return nil, err
	}
	cf.Fields, err = p.parseFields(fieldsCount)
	if err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}

	methodsCount, err := p.r.u2("methods count")
	if err != nil {
		return nil, err
	}
	cf.Methods, err = p.parseMethods(methodsCount)
	if err != nil {
		return nil, fmt.Errorf("parsing methods: %w", err)
	}

	attrCount, err := p.r.u2("class attributes count")
	if err != nil {
		return nil, err
	}
	cf.Attributes, err = p.parseAttributes(attrCount)
	if err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}

	return cf, nil
}

// poolIndex reads a constant pool index that must be nonzero and refer to an
// entry with the given tag.
func (p *parser) poolIndex(tag Tag, what string) (uint16, error) {
	i, err := p.r.u2(what)
	if err != nil {
		return 0, err
	}
	if err := p.pool.checkTag(i, tag); err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return i, nil
}

// optionalPoolIndex reads a constant pool index that may be zero, meaning
// absent; if nonzero it must still refer to an entry with the given tag.
func (p *parser) optionalPoolIndex(tag Tag, what string) (uint16, error) {
	i, err := p.r.u2(what)
	if err != nil {
		return 0, err
	}
	if i == 0 {
		return 0, nil
	}
	if err := p.pool.checkTag(i, tag); err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return i, nil
}

// anyPoolIndex reads an index that must refer to some usable entry but has no
// statically fixed tag (ConstantValue targets, bootstrap arguments).
func (p *parser) anyPoolIndex(what string) (uint16, error) {
	i, err := p.r.u2(what)
	if err != nil {
		return 0, err
	}
	if _, err := p.pool.Entry(i); err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return i, nil
}

// parseConstantPool reads constant_pool_count-1 entries. The returned pool is
// 1-indexed: slot 0 is nil, and the slot after a Long or Double entry holds a
// ConstantUnusable placeholder.
func (p *parser) parseConstantPool(count uint16) (ConstantPool, error) {
	pool := make(ConstantPool, count)
	for i := uint16(1); i < count; i++ {
		entry, err := p.parseConstantPoolEntry()
		if err != nil {
			return nil, fmt.Errorf("constant pool entry at index %d: %w", i, err)
		}
		pool[i] = entry
		switch entry.Tag() {
		case TagLong, TagDouble:
			if i+1 >= count {
				return nil, fmt.Errorf(
					"constant pool entry at index %d: %s entry has no room for its second slot", i, entry.Tag())
			}
			i++
			pool[i] = &ConstantUnusable{}
		}
	}
	if err := pool.verify(); err != nil {
		return nil, err
	}
	return pool, nil
}

func (p *parser) parseConstantPoolEntry() (ConstantPoolEntry, error) {
	tag, err := p.r.u1("constant pool tag")
	if err != nil {
		return nil, err
	}

	switch Tag(tag) {
	case TagUtf8:
		length, err := p.r.u2("Utf8 length")
		if err != nil {
			return nil, err
		}
		raw, err := p.r.bytes(int(length), "Utf8 bytes")
		if err != nil {
			return nil, err
		}
		value, err := mutf8.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("Utf8 constant: %w", err)
		}
		return &ConstantUtf8{Bytes: raw, Value: value}, nil

	case TagInteger:
		bits, err := p.r.u4("Integer bytes")
		if err != nil {
			return nil, err
		}
		return &ConstantInteger{Bits: bits}, nil

	case TagFloat:
		bits, err := p.r.u4("Float bytes")
		if err != nil {
			return nil, err
		}
		return &ConstantFloat{Bits: bits}, nil

	case TagLong:
		hi, err := p.r.u4("Long high bytes")
		if err != nil {
			return nil, err
		}
		lo, err := p.r.u4("Long low bytes")
		if err != nil {
			return nil, err
		}
		return &ConstantLong{HighBits: hi, LowBits: lo}, nil

	case TagDouble:
		hi, err := p.r.u4("Double high bytes")
		if err != nil {
			return nil, err
		}
		lo, err := p.r.u4("Double low bytes")
		if err != nil {
			return nil, err
		}
		return &ConstantDouble{HighBits: hi, LowBits: lo}, nil

	case TagClass:
		nameIndex, err := p.r.u2("Class name_index")
		if err != nil {
			return nil, err
		}
		return &ConstantClass{NameIndex: nameIndex}, nil

	case TagString:
		stringIndex, err := p.r.u2("String string_index")
		if err != nil {
			return nil, err
		}
		return &ConstantString{StringIndex: stringIndex}, nil

	case TagFieldref:
		ci, nti, err := p.refIndices("Fieldref")
		if err != nil {
			return nil, err
		}
		return &ConstantFieldref{ClassIndex: ci, NameAndTypeIndex: nti}, nil

	case TagMethodref:
		ci, nti, err := p.refIndices("Methodref")
		if err != nil {
			return nil, err
		}
		return &ConstantMethodref{ClassIndex: ci, NameAndTypeIndex: nti}, nil

	case TagInterfaceMethodref:
		ci, nti, err := p.refIndices("InterfaceMethodref")
		if err != nil {
			return nil, err
		}
		return &ConstantInterfaceMethodref{ClassIndex: ci, NameAndTypeIndex: nti}, nil

	case TagNameAndType:
		ni, err := p.r.u2("NameAndType name_index")
		if err != nil {
			return nil, err
		}
		di, err := p.r.u2("NameAndType descriptor_index")
		if err != nil {
			return nil, err
		}
		return &ConstantNameAndType{NameIndex: ni, DescriptorIndex: di}, nil

	case TagMethodHandle:
		kind, err := p.r.u1("MethodHandle reference_kind")
		if err != nil {
			return nil, err
		}
		if kind < uint8(RefGetField) || kind > uint8(RefInvokeInterface) {
			return nil, &UnknownTagError{Kind: "method handle reference kind", Tag: kind}
		}
		ri, err := p.r.u2("MethodHandle reference_index")
		if err != nil {
			return nil, err
		}
		return &ConstantMethodHandle{ReferenceKind: RefKind(kind), ReferenceIndex: ri}, nil

	case TagMethodType:
		di, err := p.r.u2("MethodType descriptor_index")
		if err != nil {
			return nil, err
		}
		return &ConstantMethodType{DescriptorIndex: di}, nil

	case TagInvokeDynamic:
		bi, err := p.r.u2("InvokeDynamic bootstrap_method_attr_index")
		if err != nil {
			return nil, err
		}
		nti, err := p.r.u2("InvokeDynamic name_and_type_index")
		if err != nil {
			return nil, err
		}
		return &ConstantInvokeDynamic{BootstrapMethodIndex: bi, NameAndTypeIndex: nti}, nil
	}

	return nil, &UnknownTagError{Kind: "constant pool", Tag: tag}
}

func (p *parser) refIndices(what string) (uint16, uint16, error) {
	ci, err := p.r.u2(what + " class_index")
	if err != nil {
		return 0, 0, err
	}
	nti, err := p.r.u2(what + " name_and_type_index")
	if err != nil {
		return 0, 0, err
	}
	return ci, nti, nil
}

func (p *parser) parseFields(count uint16) ([]FieldInfo, error) {
	fields := make([]FieldInfo, count)
	for i := range fields {
		accessFlags, err := p.r.u2("field access flags")
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		nameIndex, err := p.poolIndex(TagUtf8, "field name")
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		descIndex, err := p.poolIndex(TagUtf8, "field descriptor")
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		attrCount, err := p.r.u2("field attributes count")
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		attrs, err := p.parseAttributes(attrCount)
		if err != nil {
			return nil, fmt.Errorf("field %d attributes: %w", i, err)
		}

		name, _ := p.pool.Utf8(nameIndex)
		desc, _ := p.pool.Utf8(descIndex)
		fields[i] = FieldInfo{
			AccessFlags: accessFlags,
			Name:        name,
			Descriptor:  desc,
			Attributes:  attrs,
		}
	}
	return fields, nil
}

func (p *parser) parseMethods(count uint16) ([]MethodInfo, error) {
	methods := make([]MethodInfo, count)
	for i := range methods {
		accessFlags, err := p.r.u2("method access flags")
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		nameIndex, err := p.poolIndex(TagUtf8, "method name")
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		descIndex, err := p.poolIndex(TagUtf8, "method descriptor")
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		attrCount, err := p.r.u2("method attributes count")
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		attrs, err := p.parseAttributes(attrCount)
		if err != nil {
			return nil, fmt.Errorf("method %d attributes: %w", i, err)
		}

		name, _ := p.pool.Utf8(nameIndex)
		desc, _ := p.pool.Utf8(descIndex)
		m := MethodInfo{
			AccessFlags: accessFlags,
			Name:        name,
			Descriptor:  desc,
			Attributes:  attrs,
		}
		for _, attr := range attrs {
			if code, ok := attr.(*CodeAttribute); ok {
				m.Code = code
				break
			}
		}
		methods[i] = m
	}
	return methods, nil
}

func (p *parser) parseAttributes(count uint16) ([]Attribute, error) {
	attrs := make([]Attribute, count)
	for i := range attrs {
		attr, err := p.parseAttribute()
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, err)
		}
		attrs[i] = attr
	}
	return attrs, nil
}

// parseAttribute decodes one attribute, dispatching on the decoded string
// value of the name entry. The declared length is authoritative: raw bodies
// consume exactly that many bytes, and self-describing bodies must land
// exactly on the declared end.
func (p *parser) parseAttribute() (Attribute, error) {
	nameIndex, err := p.poolIndex(TagUtf8, "attribute name")
	if err != nil {
		return nil, err
	}
	name, _ := p.pool.Utf8(nameIndex)
	length, err := p.r.u4("attribute length")
	if err != nil {
		return nil, err
	}
	end := p.r.pos + int(length)

	attr, err := p.parseAttributeBody(name, length)
	if err != nil {
		return nil, fmt.Errorf("attribute info, name %s, index %d, declared length %d: %w",
			name, nameIndex, length, err)
	}
	if p.r.pos != end {
		return nil, &AttributeLengthError{Name: name, Declared: length, Decoded: p.r.pos - (end - int(length))}
	}
	return attr, nil
}

func (p *parser) parseAttributeBody(name string, length uint32) (Attribute, error) {
	switch name {
	case "ConstantValue":
		ci, err := p.anyPoolIndex("constant value index")
		if err != nil {
			return nil, err
		}
		return &ConstantValueAttribute{ValueIndex: ci}, nil

	case "Code":
		return p.parseCodeAttribute()

	case "StackMapTable":
		count, err := p.r.u2("number of stack map entries")
		if err != nil {
			return nil, err
		}
		entries := make([]StackMapFrame, count)
		for i := range entries {
			frame, err := p.parseStackMapFrame()
			if err != nil {
				return nil, fmt.Errorf("stack map frame %d: %w", i, err)
			}
			entries[i] = frame
		}
		return &StackMapTableAttribute{Entries: entries}, nil

	case "Exceptions":
		count, err := p.r.u2("exceptions count")
		if err != nil {
			return nil, err
		}
		table := make([]uint16, count)
		for i := range table {
			idx, err := p.poolIndex(TagClass, fmt.Sprintf("exception class %d", i))
			if err != nil {
				return nil, err
			}
			table[i] = idx
		}
		return &ExceptionsAttribute{ExceptionIndexTable: table}, nil

	case "InnerClasses":
		count, err := p.r.u2("number of inner classes")
		if err != nil {
			return nil, err
		}
		classes := make([]InnerClass, count)
		for i := range classes {
			ic, err := p.parseInnerClass()
			if err != nil {
				return nil, fmt.Errorf("inner class %d: %w", i, err)
			}
			classes[i] = ic
		}
		return &InnerClassesAttribute{Classes: classes}, nil

	case "EnclosingMethod":
		ci, err := p.poolIndex(TagClass, "enclosing class")
		if err != nil {
			return nil, err
		}
		mi, err := p.poolIndex(TagNameAndType, "enclosing method")
		if err != nil {
			return nil, err
		}
		return &EnclosingMethodAttribute{ClassIndex: ci, MethodIndex: mi}, nil

	case "Synthetic":
		return &SyntheticAttribute{}, nil

	case "Signature":
		si, err := p.poolIndex(TagUtf8, "signature index")
		if err != nil {
			return nil, err
		}
		return &SignatureAttribute{SignatureIndex: si}, nil

	case "SourceFile":
		si, err := p.poolIndex(TagUtf8, "source file index")
		if err != nil {
			return nil, err
		}
		return &SourceFileAttribute{SourceFileIndex: si}, nil

	case "SourceDebugExtension":
		data, err := p.r.bytes(int(length), "debug extension")
		if err != nil {
			return nil, err
		}
		return &SourceDebugExtensionAttribute{DebugExtension: data}, nil

	case "LineNumberTable":
		count, err := p.r.u2("line number table length")
		if err != nil {
			return nil, err
		}
		table := make([]LineNumberEntry, count)
		for i := range table {
			if table[i].StartPC, err = p.r.u2("line number start_pc"); err != nil {
				return nil, err
			}
			if table[i].LineNumber, err = p.r.u2("line number"); err != nil {
				return nil, err
			}
		}
		return &LineNumberTableAttribute{Table: table}, nil

	case "LocalVariableTable":
		count, err := p.r.u2("local variable table length")
		if err != nil {
			return nil, err
		}
		table := make([]LocalVariableEntry, count)
		for i := range table {
			e, err := p.parseLocalVariableEntry()
			if err != nil {
				return nil, fmt.Errorf("local variable %d: %w", i, err)
			}
			table[i] = e
		}
		return &LocalVariableTableAttribute{Table: table}, nil

	case "LocalVariableTypeTable":
		count, err := p.r.u2("local variable type table length")
		if err != nil {
			return nil, err
		}
		table := make([]LocalVariableTypeEntry, count)
		for i := range table {
			e, err := p.parseLocalVariableTypeEntry()
			if err != nil {
				return nil, fmt.Errorf("local variable type %d: %w", i, err)
			}
			table[i] = e
		}
		return &LocalVariableTypeTableAttribute{Table: table}, nil

	case "Deprecated":
		return &DeprecatedAttribute{}, nil

	case "RuntimeVisibleAnnotations":
		annots, err := p.parseAnnotations()
		if err != nil {
			return nil, err
		}
		return &RuntimeVisibleAnnotationsAttribute{Annotations: annots}, nil

	case "RuntimeInvisibleAnnotations":
		annots, err := p.parseAnnotations()
		if err != nil {
			return nil, err
		}
		return &RuntimeInvisibleAnnotationsAttribute{Annotations: annots}, nil

	case "RuntimeVisibleParameterAnnotations":
		pa, err := p.parseParameterAnnotations()
		if err != nil {
			return nil, err
		}
		return &RuntimeVisibleParameterAnnotationsAttribute{ParameterAnnotations: pa}, nil

	case "RuntimeInvisibleParameterAnnotations":
		pa, err := p.parseParameterAnnotations()
		if err != nil {
			return nil, err
		}
		return &RuntimeInvisibleParameterAnnotationsAttribute{ParameterAnnotations: pa}, nil

	case "RuntimeVisibleTypeAnnotations":
		ta, err := p.parseTypeAnnotations()
		if err != nil {
			return nil, err
		}
		return &RuntimeVisibleTypeAnnotationsAttribute{Annotations: ta}, nil

	case "RuntimeInvisibleTypeAnnotations":
		ta, err := p.parseTypeAnnotations()
		if err != nil {
			return nil, err
		}
		return &RuntimeInvisibleTypeAnnotationsAttribute{Annotations: ta}, nil

	case "AnnotationDefault":
		ev, err := p.parseElementValue()
		if err != nil {
			return nil, err
		}
		return &AnnotationDefaultAttribute{DefaultValue: ev}, nil

	case "MethodParameters":
		count, err := p.r.u2("parameters count")
		if err != nil {
			return nil, err
		}
		params := make([]MethodParameter, count)
		for i := range params {
			ni, err := p.optionalPoolIndex(TagUtf8, "parameter name")
			if err != nil {
				return nil, fmt.Errorf("method parameter %d: %w", i, err)
			}
			flags, err := p.r.u2("parameter access flags")
			if err != nil {
				return nil, fmt.Errorf("method parameter %d: %w", i, err)
			}
			params[i] = MethodParameter{NameIndex: ni, AccessFlags: flags}
		}
		return &MethodParametersAttribute{Parameters: params}, nil

	case "BootstrapMethods":
		count, err := p.r.u2("number of bootstrap methods")
		if err != nil {
			return nil, err
		}
		methods := make([]BootstrapMethod, count)
		for i := range methods {
			bm, err := p.parseBootstrapMethod()
			if err != nil {
				return nil, fmt.Errorf("bootstrap method %d: %w", i, err)
			}
			methods[i] = bm
		}
		return &BootstrapMethodsAttribute{Methods: methods}, nil
	}

	// unrecognized name: raw passthrough of exactly the declared length
	data, err := p.r.bytes(int(length), "attribute data")
	if err != nil {
		return nil, err
	}
	return &UnknownAttribute{Name: name, Data: data}, nil
}

func (p *parser) parseCodeAttribute() (*CodeAttribute, error) {
	code := &CodeAttribute{}
	var err error
	if code.MaxStack, err = p.r.u2("max_stack"); err != nil {
		return nil, err
	}
	if code.MaxLocals, err = p.r.u2("max_locals"); err != nil {
		return nil, err
	}
	codeLength, err := p.r.u4("code length")
	if err != nil {
		return nil, err
	}
	if code.Code, err = p.r.bytes(int(codeLength), "bytecode"); err != nil {
		return nil, err
	}

	tableLength, err := p.r.u2("exception table length")
	if err != nil {
		return nil, err
	}
	code.ExceptionTable = make([]ExceptionTableEntry, tableLength)
	for i := range code.ExceptionTable {
		e := &code.ExceptionTable[i]
		if e.StartPC, err = p.r.u2("exception start_pc"); err != nil {
			return nil, fmt.Errorf("exception table entry %d: %w", i, err)
		}
		if e.EndPC, err = p.r.u2("exception end_pc"); err != nil {
			return nil, fmt.Errorf("exception table entry %d: %w", i, err)
		}
		if e.HandlerPC, err = p.r.u2("exception handler_pc"); err != nil {
			return nil, fmt.Errorf("exception table entry %d: %w", i, err)
		}
		if e.CatchType, err = p.optionalPoolIndex(TagClass, "catch_type"); err != nil {
			return nil, fmt.Errorf("exception table entry %d: %w", i, err)
		}
	}

	attrCount, err := p.r.u2("code attributes count")
	if err != nil {
		return nil, err
	}
	if code.Attributes, err = p.parseAttributes(attrCount); err != nil {
		return nil, err
	}
	return code, nil
}

func (p *parser) parseInnerClass() (InnerClass, error) {
	var ic InnerClass
	var err error
	if ic.InnerClassInfoIndex, err = p.poolIndex(TagClass, "inner_class_info"); err != nil {
		return ic, err
	}
	if ic.OuterClassInfoIndex, err = p.optionalPoolIndex(TagClass, "outer_class_info"); err != nil {
		return ic, err
	}
	if ic.InnerNameIndex, err = p.optionalPoolIndex(TagUtf8, "inner_name"); err != nil {
		return ic, err
	}
	if ic.AccessFlags, err = p.r.u2("inner class access flags"); err != nil {
		return ic, err
	}
	return ic, nil
}

func (p *parser) parseLocalVariableEntry() (LocalVariableEntry, error) {
	var e LocalVariableEntry
	var err error
	if e.StartPC, err = p.r.u2("start_pc"); err != nil {
		return e, err
	}
	if e.Length, err = p.r.u2("length"); err != nil {
		return e, err
	}
	if e.NameIndex, err = p.poolIndex(TagUtf8, "name"); err != nil {
		return e, err
	}
	if e.DescriptorIndex, err = p.poolIndex(TagUtf8, "descriptor"); err != nil {
		return e, err
	}
	if e.Index, err = p.r.u2("index"); err != nil {
		return e, err
	}
	return e, nil
}

func (p *parser) parseLocalVariableTypeEntry() (LocalVariableTypeEntry, error) {
	var e LocalVariableTypeEntry
	var err error
	if e.StartPC, err = p.r.u2("start_pc"); err != nil {
		return e, err
	}
	if e.Length, err = p.r.u2("length"); err != nil {
		return e, err
	}
	if e.NameIndex, err = p.poolIndex(TagUtf8, "name"); err != nil {
		return e, err
	}
	if e.SignatureIndex, err = p.poolIndex(TagUtf8, "signature"); err != nil {
		return e, err
	}
	if e.Index, err = p.r.u2("index"); err != nil {
		return e, err
	}
	return e, nil
}

func (p *parser) parseBootstrapMethod() (BootstrapMethod, error) {
	var bm BootstrapMethod
	var err error
	if bm.MethodRef, err = p.poolIndex(TagMethodHandle, "bootstrap method ref"); err != nil {
		return bm, err
	}
	argCount, err := p.r.u2("bootstrap arguments count")
	if err != nil {
		return bm, err
	}
	bm.Arguments = make([]uint16, argCount)
	for i := range bm.Arguments {
		if bm.Arguments[i], err = p.anyPoolIndex(fmt.Sprintf("bootstrap argument %d", i)); err != nil {
			return bm, err
		}
	}
	return bm, nil
}

// Stack map frame tag ranges. 128-246 is reserved and always an error.
func (p *parser) parseStackMapFrame() (StackMapFrame, error) {
	tag, err := p.r.u1("stack map frame tag")
	if err != nil {
		return nil, err
	}

	switch {
	case tag <= 63:
		return &SameFrame{OffsetDelta: tag}, nil

	case tag <= 127:
		item, err := p.parseVerificationType()
		if err != nil {
			return nil, err
		}
		return &SameLocals1StackItemFrame{OffsetDelta: tag - 64, StackItem: item}, nil

	case tag <= 246:
		return nil, &ReservedTagError{Tag: tag}

	case tag == 247:
		offset, err := p.r.u2("offset_delta")
		if err != nil {
			return nil, err
		}
		item, err := p.parseVerificationType()
		if err != nil {
			return nil, err
		}
		return &SameLocals1StackItemFrameExtended{OffsetDelta: offset, StackItem: item}, nil

	case tag <= 250:
		offset, err := p.r.u2("offset_delta")
		if err != nil {
			return nil, err
		}
		return &ChopFrame{OffsetDelta: offset, Chopped: 251 - tag}, nil

	case tag == 251:
		offset, err := p.r.u2("offset_delta")
		if err != nil {
			return nil, err
		}
		return &SameFrameExtended{OffsetDelta: offset}, nil

	case tag <= 254:
		offset, err := p.r.u2("offset_delta")
		if err != nil {
			return nil, err
		}
		locals := make([]VerificationType, tag-251)
		for i := range locals {
			if locals[i], err = p.parseVerificationType(); err != nil {
				return nil, err
			}
		}
		return &AppendFrame{OffsetDelta: offset, Locals: locals}, nil
	}

	// tag == 255
	offset, err := p.r.u2("offset_delta")
	if err != nil {
		return nil, err
	}
	numLocals, err := p.r.u2("number of locals")
	if err != nil {
		return nil, err
	}
	locals := make([]VerificationType, numLocals)
	for i := range locals {
		if locals[i], err = p.parseVerificationType(); err != nil {
			return nil, err
		}
	}
	numStack, err := p.r.u2("number of stack items")
	if err != nil {
		return nil, err
	}
	stack := make([]VerificationType, numStack)
	for i := range stack {
		if stack[i], err = p.parseVerificationType(); err != nil {
			return nil, err
		}
	}
	return &FullFrame{OffsetDelta: offset, Locals: locals, Stack: stack}, nil
}

func (p *parser) parseVerificationType() (VerificationType, error) {
	tag, err := p.r.u1("verification type tag")
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return &TopVariable{}, nil
	case 1:
		return &IntegerVariable{}, nil
	case 2:
		return &FloatVariable{}, nil
	case 3:
		return &DoubleVariable{}, nil
	case 4:
		return &LongVariable{}, nil
	case 5:
		return &NullVariable{}, nil
	case 6:
		return &UninitializedThisVariable{}, nil
	case 7:
		ci, err := p.poolIndex(TagClass, "object variable class")
		if err != nil {
			return nil, err
		}
		return &ObjectVariable{ClassIndex: ci}, nil
	case 8:
		offset, err := p.r.u2("uninitialized variable offset")
		if err != nil {
			return nil, err
		}
		return &UninitializedVariable{Offset: offset}, nil
	}
	return nil, &UnknownTagError{Kind: "verification type", Tag: tag}
}

func (p *parser) parseAnnotations() ([]Annotation, error) {
	count, err := p.r.u2("number of annotations")
	if err != nil {
		return nil, err
	}
	annots := make([]Annotation, count)
	for i := range annots {
		a, err := p.parseAnnotation()
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		annots[i] = a
	}
	return annots, nil
}

func (p *parser) parseParameterAnnotations() ([][]Annotation, error) {
	count, err := p.r.u2("number of parameters")
	if err != nil {
		return nil, err
	}
	pa := make([][]Annotation, count)
	for i := range pa {
		annots, err := p.parseAnnotations()
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		pa[i] = annots
	}
	return pa, nil
}

func (p *parser) parseAnnotation() (Annotation, error) {
	var a Annotation
	var err error
	if a.TypeIndex, err = p.poolIndex(TagUtf8, "annotation type"); err != nil {
		return a, err
	}
	if a.Pairs, err = p.parseElementValuePairs(); err != nil {
		return a, err
	}
	return a, nil
}

func (p *parser) parseElementValuePairs() ([]ElementValuePair, error) {
	count, err := p.r.u2("number of element value pairs")
	if err != nil {
		return nil, err
	}
	pairs := make([]ElementValuePair, count)
	for i := range pairs {
		ni, err := p.poolIndex(TagUtf8, "element name")
		if err != nil {
			return nil, fmt.Errorf("element value pair %d: %w", i, err)
		}
		value, err := p.parseElementValue()
		if err != nil {
			return nil, fmt.Errorf("element value pair %d: %w", i, err)
		}
		pairs[i] = ElementValuePair{NameIndex: ni, Value: value}
	}
	return pairs, nil
}

func (p *parser) parseElementValue() (ElementValue, error) {
	tag, err := p.r.u1("element value tag")
	if err != nil {
		return nil, err
	}
	switch tag {
	case 'B', 'C', 'I', 'S', 'Z':
		vi, err := p.poolIndex(TagInteger, "element value")
		if err != nil {
			return nil, err
		}
		return &ConstElementValue{TagByte: tag, ValueIndex: vi}, nil
	case 'D':
		vi, err := p.poolIndex(TagDouble, "element value")
		if err != nil {
			return nil, err
		}
		return &ConstElementValue{TagByte: tag, ValueIndex: vi}, nil
	case 'F':
		vi, err := p.poolIndex(TagFloat, "element value")
		if err != nil {
			return nil, err
		}
		return &ConstElementValue{TagByte: tag, ValueIndex: vi}, nil
	case 'J':
		vi, err := p.poolIndex(TagLong, "element value")
		if err != nil {
			return nil, err
		}
		return &ConstElementValue{TagByte: tag, ValueIndex: vi}, nil
	case 's':
		vi, err := p.poolIndex(TagUtf8, "element value")
		if err != nil {
			return nil, err
		}
		return &ConstElementValue{TagByte: tag, ValueIndex: vi}, nil
	case 'e':
		tni, err := p.poolIndex(TagUtf8, "enum type name")
		if err != nil {
			return nil, err
		}
		cni, err := p.poolIndex(TagUtf8, "enum constant name")
		if err != nil {
			return nil, err
		}
		return &EnumElementValue{TypeNameIndex: tni, ConstNameIndex: cni}, nil
	case 'c':
		ci, err := p.poolIndex(TagUtf8, "class info")
		if err != nil {
			return nil, err
		}
		return &ClassElementValue{ClassInfoIndex: ci}, nil
	case '@':
		a, err := p.parseAnnotation()
		if err != nil {
			return nil, err
		}
		return &AnnotationElementValue{Value: a}, nil
	case '[':
		count, err := p.r.u2("number of array values")
		if err != nil {
			return nil, err
		}
		values := make([]ElementValue, count)
		for i := range values {
			if values[i], err = p.parseElementValue(); err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
		}
		return &ArrayElementValue{Values: values}, nil
	}
	return nil, &UnknownTagError{Kind: "element value", Tag: tag}
}

func (p *parser) parseTypeAnnotations() ([]TypeAnnotation, error) {
	count, err := p.r.u2("number of type annotations")
	if err != nil {
		return nil, err
	}
	annots := make([]TypeAnnotation, count)
	for i := range annots {
		ta, err := p.parseTypeAnnotation()
		if err != nil {
			return nil, fmt.Errorf("type annotation %d: %w", i, err)
		}
		annots[i] = ta
	}
	return annots, nil
}

func (p *parser) parseTypeAnnotation() (TypeAnnotation, error) {
	var ta TypeAnnotation
	var err error
	if ta.Target, err = p.parseTargetInfo(); err != nil {
		return ta, err
	}
	if ta.Path, err = p.parseTypePath(); err != nil {
		return ta, err
	}
	if ta.TypeIndex, err = p.poolIndex(TagUtf8, "type annotation type"); err != nil {
		return ta, err
	}
	if ta.Pairs, err = p.parseElementValuePairs(); err != nil {
		return ta, err
	}
	return ta, nil
}

func (p *parser) parseTargetInfo() (TargetInfo, error) {
	tag, err := p.r.u1("target type tag")
	if err != nil {
		return nil, err
	}
	switch {
	case tag <= 0x01:
		i, err := p.r.u1("type parameter index")
		if err != nil {
			return nil, err
		}
		return &TypeParameterTarget{Index: i}, nil
	case tag == 0x10:
		i, err := p.r.u2("supertype index")
		if err != nil {
			return nil, err
		}
		return &SupertypeTarget{Index: i}, nil
	case tag == 0x11 || tag == 0x12:
		pi, err := p.r.u1("type parameter index")
		if err != nil {
			return nil, err
		}
		bi, err := p.r.u1("bound index")
		if err != nil {
			return nil, err
		}
		return &TypeParameterBoundTarget{ParamIndex: pi, BoundIndex: bi}, nil
	case tag >= 0x13 && tag <= 0x15:
		return &EmptyTarget{}, nil
	case tag == 0x16:
		i, err := p.r.u1("formal parameter index")
		if err != nil {
			return nil, err
		}
		return &FormalParameterTarget{Index: i}, nil
	case tag == 0x17:
		i, err := p.r.u2("throws type index")
		if err != nil {
			return nil, err
		}
		return &ThrowsTarget{Index: i}, nil
	case tag == 0x40 || tag == 0x41:
		count, err := p.r.u2("local variable target table length")
		if err != nil {
			return nil, err
		}
		table := make([]LocalVariableTargetEntry, count)
		for i := range table {
			if table[i].StartPC, err = p.r.u2("start_pc"); err != nil {
				return nil, err
			}
			if table[i].Length, err = p.r.u2("length"); err != nil {
				return nil, err
			}
			if table[i].Index, err = p.r.u2("index"); err != nil {
				return nil, err
			}
		}
		return &LocalVariableTarget{Table: table}, nil
	case tag == 0x42:
		i, err := p.r.u2("exception table index")
		if err != nil {
			return nil, err
		}
		return &CatchTarget{Index: i}, nil
	case tag >= 0x43 && tag <= 0x46:
		offset, err := p.r.u2("offset")
		if err != nil {
			return nil, err
		}
		return &OffsetTarget{Offset: offset}, nil
	case tag >= 0x47 && tag <= 0x4b:
		offset, err := p.r.u2("offset")
		if err != nil {
			return nil, err
		}
		i, err := p.r.u1("type argument index")
		if err != nil {
			return nil, err
		}
		return &TypeArgumentTarget{Offset: offset, Index: i}, nil
	}
	return nil, &UnknownTagError{Kind: "type annotation target", Tag: tag}
}

func (p *parser) parseTypePath() (TypePath, error) {
	var tp TypePath
	count, err := p.r.u1("type path length")
	if err != nil {
		return tp, err
	}
	tp.Path = make([]TypePathPart, count)
	for i := range tp.Path {
		if tp.Path[i].Kind, err = p.r.u1("type path kind"); err != nil {
			return tp, err
		}
		if tp.Path[i].ArgumentIndex, err = p.r.u1("type argument index"); err != nil {
			return tp, err
		}
	}
	return tp, nil
}
