package vm

import (
	"fmt"
	"sync"

	"github.com/sorane/javelin/pkg/classfile"
)

// MethodKey identifies a method within a class by name and raw descriptor.
type MethodKey struct {
	Name       string
	Descriptor string
}

// Class is a loaded, linked class. Super is nil only for java/lang/Object
// and for no other class.
type Class struct {
	Ref        ClassRef
	Super      *Class
	Interfaces []*Class
	Pool       *RuntimeConstantPool

	AccessFlags    uint16
	InstanceFields map[string]Type
	Methods        map[MethodKey]*Method

	mu           sync.Mutex
	staticFields map[string]Value
}

// Method is a loaded method. Code is nil for abstract and native methods.
type Method struct {
	Ref            MethodRef
	AccessFlags    uint16
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []classfile.ExceptionTableEntry
}

func newClass(ref ClassRef, cf *classfile.ClassFile, super *Class, interfaces []*Class, pool *RuntimeConstantPool) (*Class, error) {
	c := &Class{
		Ref:            ref,
		Super:          super,
		Interfaces:     interfaces,
		Pool:           pool,
		AccessFlags:    cf.AccessFlags,
		InstanceFields: make(map[string]Type),
		Methods:        make(map[MethodKey]*Method),
		staticFields:   make(map[string]Value),
	}

	for _, f := range cf.Fields {
		fieldType, err := ParseFieldDescriptor(f.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if f.AccessFlags&classfile.AccStatic != 0 {
			c.staticFields[f.Name] = fieldType.DefaultValue()
		} else {
			c.InstanceFields[f.Name] = fieldType
		}
	}

	for _, m := range cf.Methods {
		sig, err := ParseMethodDescriptor(m.Name, m.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Name, err)
		}
		method := &Method{
			Ref:         MethodRef{Class: ref.Handle, Sig: sig},
			AccessFlags: m.AccessFlags,
		}
		if m.Code != nil {
			method.MaxStack = m.Code.MaxStack
			method.MaxLocals = m.Code.MaxLocals
			method.Code = m.Code.Code
			method.ExceptionTable = m.Code.ExceptionTable
		}
		c.Methods[MethodKey{Name: m.Name, Descriptor: m.Descriptor}] = method
	}

	return c, nil
}

// newArrayClass builds the synthetic class of an array type. Array classes
// have Object as their superclass, an empty runtime pool, and a single
// instance field "length" of type int.
func newArrayClass(handle ClassHandle, object *Class) *Class {
	return &Class{
		Ref:   ClassRef{Handle: handle},
		Super: object,
		Pool:  &RuntimeConstantPool{},
		InstanceFields: map[string]Type{
			"length": {Kind: KindInt},
		},
		Methods:      make(map[MethodKey]*Method),
		staticFields: make(map[string]Value),
	}
}

// Name returns the class's binary name or array descriptor.
func (c *Class) Name() string { return c.Ref.Handle.Name() }

// IsArray reports whether this is an array class.
func (c *Class) IsArray() bool { return c.Ref.Handle.IsArray() }

// IsInterface reports whether the class was declared as an interface.
func (c *Class) IsInterface() bool {
	return c.AccessFlags&classfile.AccInterface != 0
}

// Method looks up a declared method; the superclass chain is not searched.
func (c *Class) Method(name, descriptor string) (*Method, bool) {
	m, ok := c.Methods[MethodKey{Name: name, Descriptor: descriptor}]
	return m, ok
}

// Static reads a static field declared on this class.
func (c *Class) Static(name string) (Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.staticFields[name]
	if !ok {
		return Value{}, fmt.Errorf("class %s has no static field %s", c.Name(), name)
	}
	return v, nil
}

// SetStatic writes a static field declared on this class.
func (c *Class) SetStatic(name string, v Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.staticFields[name]; !ok {
		return fmt.Errorf("class %s has no static field %s", c.Name(), name)
	}
	c.staticFields[name] = v
	return nil
}
