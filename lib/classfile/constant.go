// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package classfile

import (
	"fmt"
	"math"
)

// Tag identifies the kind of a constant pool entry.
type Tag uint8

// Constant pool tags (JVMS table 4.4-B).
const (
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
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

func (t Tag) String() string {
	switch t {
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
	case TagDynamic:
		return "Dynamic"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	case TagModule:
		return "Module"
	case TagPackage:
		return "Package"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Constant is one constant pool entry. Which fields are meaningful
// depends on Tag:
//
//	Utf8                      Text
//	Integer, Float            Raw (4 bytes)
//	Long, Double              Raw (8 bytes)
//	Class, Module, Package    First = name
//	String                    First = string
//	MethodType                First = descriptor
//	Fieldref, Methodref,
//	InterfaceMethodref        First = class, Second = name and type
//	NameAndType               First = name, Second = descriptor
//	MethodHandle              Kind, Second = reference
//	Dynamic, InvokeDynamic    First = bootstrap method, Second = name and type
//
// The slot after a Long or Double is unusable and holds a zero Tag.
type Constant struct {
	Tag    Tag
	Text   string
	Raw    []byte
	Kind   uint8
	First  uint16
	Second uint16
}

// ConstantPool is a class file constant pool. Index 0 is unused, as
// in the class file.
type ConstantPool struct {
	entries     []Constant
	utf8        map[string]uint16
	class       map[string]uint16
	nameAndType map[[2]uint16]uint16
}

// NewConstantPool returns an empty pool.
func NewConstantPool() *ConstantPool {
	pool := &ConstantPool{entries: make([]Constant, 1)}
	pool.index()
	return pool
}

// Len returns constant_pool_count: one more than the highest index.
func (p *ConstantPool) Len() int { return len(p.entries) }

// Entry returns the constant at index.
func (p *ConstantPool) Entry(index uint16) (Constant, error) {
	if index == 0 || int(index) >= len(p.entries) || p.entries[index].Tag == 0 {
		return Constant{}, fmt.Errorf("constant pool index %d out of range (count %d)", index, len(p.entries))
	}
	return p.entries[index], nil
}

// Set replaces the constant at index. The tag must not change.
func (p *ConstantPool) Set(index uint16, constant Constant) {
	p.entries[index] = constant
}

// Utf8 returns the text of the Utf8 entry at index.
func (p *ConstantPool) Utf8(index uint16) (string, error) {
	entry, err := p.expect(index, TagUtf8)
	if err != nil {
		return "", err
	}
	return entry.Text, nil
}

// ClassName returns the internal name referenced by the Class entry
// at index.
func (p *ConstantPool) ClassName(index uint16) (string, error) {
	entry, err := p.expect(index, TagClass)
	if err != nil {
		return "", err
	}
	return p.Utf8(entry.First)
}

// NameAndType returns the name and descriptor of the NameAndType
// entry at index.
func (p *ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	entry, err := p.expect(index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.Utf8(entry.First); err != nil {
		return "", "", err
	}
	if descriptor, err = p.Utf8(entry.Second); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

func (p *ConstantPool) expect(index uint16, tag Tag) (Constant, error) {
	entry, err := p.Entry(index)
	if err != nil {
		return Constant{}, err
	}
	if entry.Tag != tag {
		return Constant{}, fmt.Errorf("constant pool index %d is %s, want %s", index, entry.Tag, tag)
	}
	return entry, nil
}

// AddUtf8 returns the index of a Utf8 entry holding text, appending
// one if none exists.
func (p *ConstantPool) AddUtf8(text string) (uint16, error) {
	if index, ok := p.utf8[text]; ok {
		return index, nil
	}
	index, err := p.add(Constant{Tag: TagUtf8, Text: text})
	if err != nil {
		return 0, err
	}
	p.utf8[text] = index
	return index, nil
}

// AddClass returns the index of a Class entry for name, appending one
// (and its Utf8) if none exists.
func (p *ConstantPool) AddClass(name string) (uint16, error) {
	if index, ok := p.class[name]; ok {
		return index, nil
	}
	nameIndex, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	index, err := p.add(Constant{Tag: TagClass, First: nameIndex})
	if err != nil {
		return 0, err
	}
	p.class[name] = index
	return index, nil
}

// AddNameAndType returns the index of a NameAndType entry for name
// and descriptor, appending entries as needed.
func (p *ConstantPool) AddNameAndType(name, descriptor string) (uint16, error) {
	nameIndex, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	descriptorIndex, err := p.AddUtf8(descriptor)
	if err != nil {
		return 0, err
	}
	key := [2]uint16{nameIndex, descriptorIndex}
	if index, ok := p.nameAndType[key]; ok {
		return index, nil
	}
	index, err := p.add(Constant{Tag: TagNameAndType, First: nameIndex, Second: descriptorIndex})
	if err != nil {
		return 0, err
	}
	p.nameAndType[key] = index
	return index, nil
}

// Add appends constant and returns its index. Long and Double take
// two slots.
func (p *ConstantPool) Add(constant Constant) (uint16, error) {
	return p.add(constant)
}

func (p *ConstantPool) add(constant Constant) (uint16, error) {
	slots := 1
	if constant.Tag == TagLong || constant.Tag == TagDouble {
		slots = 2
	}
	if len(p.entries)+slots > math.MaxUint16 {
		return 0, fmt.Errorf("constant pool full (%d entries)", len(p.entries))
	}
	index := uint16(len(p.entries))
	p.entries = append(p.entries, constant)
	if slots == 2 {
		p.entries = append(p.entries, Constant{})
	}
	return index, nil
}

// index records existing entries so Add* reuses them.
func (p *ConstantPool) index() {
	p.utf8 = make(map[string]uint16)
	p.class = make(map[string]uint16)
	p.nameAndType = make(map[[2]uint16]uint16)
	for i, entry := range p.entries {
		index := uint16(i)
		switch entry.Tag {
		case TagUtf8:
			if _, ok := p.utf8[entry.Text]; !ok {
				p.utf8[entry.Text] = index
			}
		case TagNameAndType:
			key := [2]uint16{entry.First, entry.Second}
			if _, ok := p.nameAndType[key]; !ok {
				p.nameAndType[key] = index
			}
		}
	}
	for i, entry := range p.entries {
		if entry.Tag != TagClass {
			continue
		}
		if name, err := p.Utf8(entry.First); err == nil {
			if _, ok := p.class[name]; !ok {
				p.class[name] = uint16(i)
			}
		}
	}
}

func (p *ConstantPool) read(r *reader) error {
	count := int(r.u2())
	if r.err != nil {
		return r.err
	}
	if count == 0 {
		return fmt.Errorf("constant_pool_count is 0")
	}
	p.entries = make([]Constant, 1, count)
	for len(p.entries) < count {
		tag := Tag(r.u1())
		constant := Constant{Tag: tag}
		switch tag {
		case TagUtf8:
			length := r.u2()
			text, err := decodeModifiedUTF8(r.bytes(int(length)))
			if err != nil && r.err == nil {
				return fmt.Errorf("constant %d: %w", len(p.entries), err)
			}
			constant.Text = text
		case TagInteger, TagFloat:
			constant.Raw = r.bytes(4)
		case TagLong, TagDouble:
			constant.Raw = r.bytes(8)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			constant.First = r.u2()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			constant.First = r.u2()
			constant.Second = r.u2()
		case TagMethodHandle:
			constant.Kind = r.u1()
			constant.Second = r.u2()
		default:
			if r.err != nil {
				return r.err
			}
			return fmt.Errorf("constant %d: unknown tag %d", len(p.entries), tag)
		}
		if r.err != nil {
			return r.err
		}
		p.entries = append(p.entries, constant)
		if tag == TagLong || tag == TagDouble {
			p.entries = append(p.entries, Constant{})
		}
	}
	if len(p.entries) != count {
		return fmt.Errorf("constant pool overruns its count: %d entries for count %d", len(p.entries), count)
	}
	p.index()
	return nil
}

func (p *ConstantPool) write(w *writer) error {
	w.u2(uint16(len(p.entries)))
	for i := 1; i < len(p.entries); i++ {
		constant := p.entries[i]
		if constant.Tag == 0 {
			continue
		}
		w.u1(uint8(constant.Tag))
		switch constant.Tag {
		case TagUtf8:
			encoded := encodeModifiedUTF8(constant.Text)
			if len(encoded) > math.MaxUint16 {
				return fmt.Errorf("constant %d: string of %d bytes exceeds the class file limit", i, len(encoded))
			}
			w.u2(uint16(len(encoded)))
			w.bytes(encoded)
		case TagInteger, TagFloat, TagLong, TagDouble:
			w.bytes(constant.Raw)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			w.u2(constant.First)
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			w.u2(constant.First)
			w.u2(constant.Second)
		case TagMethodHandle:
			w.u1(constant.Kind)
			w.u2(constant.Second)
		default:
			return fmt.Errorf("constant %d: unknown tag %d", i, constant.Tag)
		}
	}
	return nil
}

// renameClass points the Class entry at index to name.
func (p *ConstantPool) renameClass(index uint16, name string) error {
	entry, err := p.expect(index, TagClass)
	if err != nil {
		return err
	}
	if previous, err := p.Utf8(entry.First); err == nil && p.class[previous] == index {
		delete(p.class, previous)
	}
	if entry.First, err = p.AddUtf8(name); err != nil {
		return err
	}
	p.entries[index] = entry
	if _, ok := p.class[name]; !ok {
		p.class[name] = index
	}
	return nil
}
