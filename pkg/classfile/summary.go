package classfile

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Summary is a compact, deterministic digest of a parsed class file suitable
// for caching and diffing. Member descriptors are the decoded string values,
// not pool indices, so a summary stands alone without its constant pool.
type Summary struct {
	MinorVersion uint16          `cbor:"1,keyasint"`
	MajorVersion uint16          `cbor:"2,keyasint"`
	AccessFlags  uint16          `cbor:"3,keyasint"`
	ThisClass    string          `cbor:"4,keyasint"`
	SuperClass   string          `cbor:"5,keyasint,omitempty"`
	Interfaces   []string        `cbor:"6,keyasint,omitempty"`
	Fields       []MemberSummary `cbor:"7,keyasint,omitempty"`
	Methods      []MemberSummary `cbor:"8,keyasint,omitempty"`
	SourceFile   string          `cbor:"9,keyasint,omitempty"`
}

type MemberSummary struct {
	AccessFlags uint16 `cbor:"1,keyasint"`
	Name        string `cbor:"2,keyasint"`
	Descriptor  string `cbor:"3,keyasint"`
}

var cborEnc cbor.EncMode

func init() {
	var err error
	cborEnc, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// Summarize extracts a Summary from a parsed class file.
func (cf *ClassFile) Summarize() (*Summary, error) {
	thisName, err := cf.ClassName()
	if err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	s := &Summary{
		MinorVersion: cf.MinorVersion,
		MajorVersion: cf.MajorVersion,
		AccessFlags:  cf.AccessFlags,
		ThisClass:    thisName,
	}
	s.SuperClass = cf.SuperClassName()
	for _, idx := range cf.Interfaces {
		name, err := cf.ConstantPool.ClassName(idx)
		if err != nil {
			return nil, fmt.Errorf("interface: %w", err)
		}
		s.Interfaces = append(s.Interfaces, name)
	}
	for _, f := range cf.Fields {
		s.Fields = append(s.Fields, MemberSummary{
			AccessFlags: f.AccessFlags,
			Name:        f.Name,
			Descriptor:  f.Descriptor,
		})
	}
	for _, m := range cf.Methods {
		s.Methods = append(s.Methods, MemberSummary{
			AccessFlags: m.AccessFlags,
			Name:        m.Name,
			Descriptor:  m.Descriptor,
		})
	}
	for _, attr := range cf.Attributes {
		if sf, ok := attr.(*SourceFileAttribute); ok {
			name, err := cf.ConstantPool.Utf8(sf.SourceFileIndex)
			if err != nil {
				return nil, fmt.Errorf("source file: %w", err)
			}
			s.SourceFile = name
			break
		}
	}
	return s, nil
}

// MarshalSummary encodes a summary in canonical CBOR, so equal summaries
// always produce identical bytes.
func MarshalSummary(s *Summary) ([]byte, error) {
	return cborEnc.Marshal(s)
}

// UnmarshalSummary decodes a summary produced by MarshalSummary.
func UnmarshalSummary(data []byte) (*Summary, error) {
	var s Summary
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
