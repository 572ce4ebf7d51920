package classfile

// Attribute is implemented by all parsed attribute variants. Attributes with
// names the parser does not recognize decode to UnknownAttribute.
type Attribute interface {
	// AttrName returns the attribute's name as it appears in the class file.
	AttrName() string
}

type ConstantValueAttribute struct {
	ValueIndex uint16 // Integer, Float, Long, Double or String entry
}

func (*ConstantValueAttribute) AttrName() string { return "ConstantValue" }

// ExceptionTableEntry is one handler range of a Code attribute. The handler
// is active in [StartPC, EndPC). CatchType is a Class entry index, or zero
// for a catch-all handler.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []Attribute
}

func (*CodeAttribute) AttrName() string { return "Code" }

type StackMapTableAttribute struct {
	Entries []StackMapFrame
}

func (*StackMapTableAttribute) AttrName() string { return "StackMapTable" }

type ExceptionsAttribute struct {
	ExceptionIndexTable []uint16 // Class entry indices
}

func (*ExceptionsAttribute) AttrName() string { return "Exceptions" }

type InnerClass struct {
	InnerClassInfoIndex uint16
	OuterClassInfoIndex uint16 // zero if not a member of another class
	InnerNameIndex      uint16 // zero if anonymous
	AccessFlags         uint16
}

type InnerClassesAttribute struct {
	Classes []InnerClass
}

func (*InnerClassesAttribute) AttrName() string { return "InnerClasses" }

type EnclosingMethodAttribute struct {
	ClassIndex  uint16
	MethodIndex uint16
}

func (*EnclosingMethodAttribute) AttrName() string { return "EnclosingMethod" }

type SyntheticAttribute struct{}

func (*SyntheticAttribute) AttrName() string { return "Synthetic" }

type SignatureAttribute struct {
	SignatureIndex uint16
}

func (*SignatureAttribute) AttrName() string { return "Signature" }

type SourceFileAttribute struct {
	SourceFileIndex uint16
}

func (*SourceFileAttribute) AttrName() string { return "SourceFile" }

// SourceDebugExtensionAttribute carries an opaque debug payload; the body is
// exactly the declared attribute length, uninterpreted.
type SourceDebugExtensionAttribute struct {
	DebugExtension []byte
}

func (*SourceDebugExtensionAttribute) AttrName() string { return "SourceDebugExtension" }

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

type LineNumberTableAttribute struct {
	Table []LineNumberEntry
}

func (*LineNumberTableAttribute) AttrName() string { return "LineNumberTable" }

type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

type LocalVariableTableAttribute struct {
	Table []LocalVariableEntry
}

func (*LocalVariableTableAttribute) AttrName() string { return "LocalVariableTable" }

type LocalVariableTypeEntry struct {
	StartPC        uint16
	Length         uint16
	NameIndex      uint16
	SignatureIndex uint16
	Index          uint16
}

type LocalVariableTypeTableAttribute struct {
	Table []LocalVariableTypeEntry
}

func (*LocalVariableTypeTableAttribute) AttrName() string { return "LocalVariableTypeTable" }

type DeprecatedAttribute struct{}

func (*DeprecatedAttribute) AttrName() string { return "Deprecated" }

type RuntimeVisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

func (*RuntimeVisibleAnnotationsAttribute) AttrName() string { return "RuntimeVisibleAnnotations" }

type RuntimeInvisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

func (*RuntimeInvisibleAnnotationsAttribute) AttrName() string { return "RuntimeInvisibleAnnotations" }

type RuntimeVisibleParameterAnnotationsAttribute struct {
	ParameterAnnotations [][]Annotation
}

func (*RuntimeVisibleParameterAnnotationsAttribute) AttrName() string {
	return "RuntimeVisibleParameterAnnotations"
}

type RuntimeInvisibleParameterAnnotationsAttribute struct {
	ParameterAnnotations [][]Annotation
}

func (*RuntimeInvisibleParameterAnnotationsAttribute) AttrName() string {
	return "RuntimeInvisibleParameterAnnotations"
}

type RuntimeVisibleTypeAnnotationsAttribute struct {
	Annotations []TypeAnnotation
}

func (*RuntimeVisibleTypeAnnotationsAttribute) AttrName() string {
	return "RuntimeVisibleTypeAnnotations"
}

type RuntimeInvisibleTypeAnnotationsAttribute struct {
	Annotations []TypeAnnotation
}

func (*RuntimeInvisibleTypeAnnotationsAttribute) AttrName() string {
	return "RuntimeInvisibleTypeAnnotations"
}

type AnnotationDefaultAttribute struct {
	DefaultValue ElementValue
}

func (*AnnotationDefaultAttribute) AttrName() string { return "AnnotationDefault" }

type MethodParameter struct {
	NameIndex   uint16 // zero if the parameter has no name
	AccessFlags uint16
}

type MethodParametersAttribute struct {
	Parameters []MethodParameter
}

func (*MethodParametersAttribute) AttrName() string { return "MethodParameters" }

type BootstrapMethod struct {
	MethodRef uint16 // MethodHandle entry index
	Arguments []uint16
}

type BootstrapMethodsAttribute struct {
	Methods []BootstrapMethod
}

func (*BootstrapMethodsAttribute) AttrName() string { return "BootstrapMethods" }

// UnknownAttribute is the raw passthrough for attribute names the parser does
// not recognize. Data is exactly the declared attribute length.
type UnknownAttribute struct {
	Name string
	Data []byte
}

func (a *UnknownAttribute) AttrName() string { return a.Name }

// StackMapFrame is the closed set of StackMapTable frame variants.
type StackMapFrame interface {
	stackMapFrame()
}

type SameFrame struct {
	OffsetDelta uint8 // the tag value itself, 0-63
}

type SameLocals1StackItemFrame struct {
	OffsetDelta uint8 // tag - 64
	StackItem   VerificationType
}

type SameLocals1StackItemFrameExtended struct {
	OffsetDelta uint16
	StackItem   VerificationType
}

type ChopFrame struct {
	OffsetDelta uint16
	Chopped     uint8 // 251 - tag
}

type SameFrameExtended struct {
	OffsetDelta uint16
}

type AppendFrame struct {
	OffsetDelta uint16
	Locals      []VerificationType // tag - 251 entries
}

type FullFrame struct {
	OffsetDelta uint16
	Locals      []VerificationType
	Stack       []VerificationType
}

func (*SameFrame) stackMapFrame()                         {}
func (*SameLocals1StackItemFrame) stackMapFrame()         {}
func (*SameLocals1StackItemFrameExtended) stackMapFrame() {}
func (*ChopFrame) stackMapFrame()                         {}
func (*SameFrameExtended) stackMapFrame()                 {}
func (*AppendFrame) stackMapFrame()                       {}
func (*FullFrame) stackMapFrame()                         {}

// VerificationType is the closed set of verification_type_info variants.
type VerificationType interface {
	verificationType()
}

type TopVariable struct{}
type IntegerVariable struct{}
type FloatVariable struct{}
type LongVariable struct{}
type DoubleVariable struct{}
type NullVariable struct{}
type UninitializedThisVariable struct{}

type ObjectVariable struct {
	ClassIndex uint16
}

type UninitializedVariable struct {
	Offset uint16 // offset of the new instruction that created the value
}

func (*TopVariable) verificationType()               {}
func (*IntegerVariable) verificationType()           {}
func (*FloatVariable) verificationType()             {}
func (*LongVariable) verificationType()              {}
func (*DoubleVariable) verificationType()            {}
func (*NullVariable) verificationType()              {}
func (*UninitializedThisVariable) verificationType() {}
func (*ObjectVariable) verificationType()            {}
func (*UninitializedVariable) verificationType()     {}

// Annotation is a single annotation with its element-value pairs.
type Annotation struct {
	TypeIndex uint16 // Utf8 entry holding the annotation type descriptor
	Pairs     []ElementValuePair
}

type ElementValuePair struct {
	NameIndex uint16
	Value     ElementValue
}

// ElementValue is the closed set of annotation element value variants.
type ElementValue interface {
	elementValue()
}

// ConstElementValue covers the primitive and string element tags
// ('B' 'C' 'D' 'F' 'I' 'J' 'S' 'Z' 's').
type ConstElementValue struct {
	TagByte    uint8
	ValueIndex uint16
}

type EnumElementValue struct {
	TypeNameIndex  uint16
	ConstNameIndex uint16
}

type ClassElementValue struct {
	ClassInfoIndex uint16
}

type AnnotationElementValue struct {
	Value Annotation
}

type ArrayElementValue struct {
	Values []ElementValue
}

func (*ConstElementValue) elementValue()      {}
func (*EnumElementValue) elementValue()       {}
func (*ClassElementValue) elementValue()      {}
func (*AnnotationElementValue) elementValue() {}
func (*ArrayElementValue) elementValue()      {}

// TypeAnnotation is one entry of a Runtime(In)VisibleTypeAnnotations table.
type TypeAnnotation struct {
	Target    TargetInfo
	Path      TypePath
	TypeIndex uint16
	Pairs     []ElementValuePair
}

// TargetInfo is the closed set of type annotation target variants.
type TargetInfo interface {
	targetInfo()
}

type TypeParameterTarget struct{ Index uint8 }
type SupertypeTarget struct{ Index uint16 }
type TypeParameterBoundTarget struct {
	ParamIndex uint8
	BoundIndex uint8
}
type EmptyTarget struct{}
type FormalParameterTarget struct{ Index uint8 }
type ThrowsTarget struct{ Index uint16 }

type LocalVariableTargetEntry struct {
	StartPC uint16
	Length  uint16
	Index   uint16
}

type LocalVariableTarget struct {
	Table []LocalVariableTargetEntry
}

type CatchTarget struct{ Index uint16 }
type OffsetTarget struct{ Offset uint16 }
type TypeArgumentTarget struct {
	Offset uint16
	Index  uint8
}

func (*TypeParameterTarget) targetInfo()      {}
func (*SupertypeTarget) targetInfo()          {}
func (*TypeParameterBoundTarget) targetInfo() {}
func (*EmptyTarget) targetInfo()              {}
func (*FormalParameterTarget) targetInfo()    {}
func (*ThrowsTarget) targetInfo()             {}
func (*LocalVariableTarget) targetInfo()      {}
func (*CatchTarget) targetInfo()              {}
func (*OffsetTarget) targetInfo()             {}
func (*TypeArgumentTarget) targetInfo()       {}

type TypePathPart struct {
	Kind          uint8
	ArgumentIndex uint8
}

type TypePath struct {
	Path []TypePathPart
}
