// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package classfile

import (
	"fmt"
	"strings"
)

// Remapper supplies new names. Field and Method receive the owner,
// name, and descriptor as they appear in the input class and return
// the new simple name; hierarchy resolution is the implementation's
// business. Every method returns its input for unknown symbols.
type Remapper interface {
	Class(name string) string
	Field(owner, name, descriptor string) string
	Method(owner, name, descriptor string) string
	Descriptor(descriptor string) string
	Signature(signature string) string
}

// Remap renames every class, member, descriptor, and signature the
// class refers to or declares. The constant pool only grows.
// Annotation payloads are copied unchanged.
func Remap(class *Class, remapper Remapper) error {
	owner, err := class.Name()
	if err != nil {
		return fmt.Errorf("reading class name: %w", err)
	}
	state := &remapping{
		class:    class,
		pool:     class.Pool,
		remapper: remapper,
		owner:    owner,
		classes:  make(map[uint16]string),
	}
	if err := state.run(); err != nil {
		return fmt.Errorf("remapping %s: %w", owner, err)
	}
	return nil
}

type remapping struct {
	class    *Class
	pool     *ConstantPool
	remapper Remapper
	owner    string

	// classes holds the input names of Class entries, keyed by index.
	classes map[uint16]string
}

func (s *remapping) run() error {
	count := uint16(s.pool.Len())
	for index := uint16(1); index < count; index++ {
		entry := s.pool.entries[index]
		if entry.Tag != TagClass {
			continue
		}
		name, err := s.pool.Utf8(entry.First)
		if err != nil {
			return fmt.Errorf("class constant %d: %w", index, err)
		}
		s.classes[index] = name
	}

	// Member references and call sites need the input owner names, so
	// they go before Class entries are renamed.
	for index := uint16(1); index < count; index++ {
		entry := s.pool.entries[index]
		var err error
		switch entry.Tag {
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			err = s.memberRef(index, entry)
		case TagInvokeDynamic, TagDynamic:
			err = s.callSite(index, entry)
		case TagMethodType:
			err = s.methodType(index, entry)
		}
		if err != nil {
			return err
		}
	}

	if err := s.members(s.class.Fields, s.remapper.Field); err != nil {
		return err
	}
	if err := s.members(s.class.Methods, s.remapper.Method); err != nil {
		return err
	}

	for index := uint16(1); index < count; index++ {
		name, ok := s.classes[index]
		if !ok {
			continue
		}
		mapped := s.mapClassEntry(name)
		if mapped == name {
			continue
		}
		if err := s.pool.renameClass(index, mapped); err != nil {
			return fmt.Errorf("class constant %d: %w", index, err)
		}
	}

	// Attributes last: InnerClasses reads the renamed Class entries.
	if err := s.attributes(s.class.Attributes); err != nil {
		return err
	}
	for _, members := range [][]*Member{s.class.Fields, s.class.Methods} {
		for _, member := range members {
			if err := s.attributes(member.Attributes); err != nil {
				return err
			}
		}
	}
	return nil
}

// mapClassEntry maps a Class constant's name, which is an array
// descriptor for array types.
func (s *remapping) mapClassEntry(name string) string {
	if strings.HasPrefix(name, "[") {
		return s.remapper.Descriptor(name)
	}
	return s.remapper.Class(name)
}

func (s *remapping) memberRef(index uint16, entry Constant) error {
	owner, ok := s.classes[entry.First]
	if !ok {
		return fmt.Errorf("member reference %d: class index %d is not a Class constant", index, entry.First)
	}
	name, descriptor, err := s.pool.NameAndType(entry.Second)
	if err != nil {
		return fmt.Errorf("member reference %d: %w", index, err)
	}
	var mappedName string
	if entry.Tag == TagFieldref {
		mappedName = s.remapper.Field(owner, name, descriptor)
	} else {
		mappedName = s.remapper.Method(owner, name, descriptor)
	}
	return s.retarget(index, entry, mappedName, s.remapper.Descriptor(descriptor), name, descriptor)
}

// callSite maps the descriptor of an invokedynamic or constant
// dynamic entry. The name is bootstrap-defined and kept.
func (s *remapping) callSite(index uint16, entry Constant) error {
	name, descriptor, err := s.pool.NameAndType(entry.Second)
	if err != nil {
		return fmt.Errorf("call site %d: %w", index, err)
	}
	return s.retarget(index, entry, name, s.remapper.Descriptor(descriptor), name, descriptor)
}

// retarget points entry at a fresh NameAndType when either part
// changed. The old NameAndType may be shared with other references.
func (s *remapping) retarget(index uint16, entry Constant, name, descriptor, oldName, oldDescriptor string) error {
	if name == oldName && descriptor == oldDescriptor {
		return nil
	}
	nameAndType, err := s.pool.AddNameAndType(name, descriptor)
	if err != nil {
		return err
	}
	entry.Second = nameAndType
	s.pool.Set(index, entry)
	return nil
}

func (s *remapping) methodType(index uint16, entry Constant) error {
	descriptor, err := s.pool.Utf8(entry.First)
	if err != nil {
		return fmt.Errorf("method type %d: %w", index, err)
	}
	mapped := s.remapper.Descriptor(descriptor)
	if mapped == descriptor {
		return nil
	}
	if entry.First, err = s.pool.AddUtf8(mapped); err != nil {
		return err
	}
	s.pool.Set(index, entry)
	return nil
}

func (s *remapping) members(members []*Member, mapName func(owner, name, descriptor string) string) error {
	for _, member := range members {
		name, descriptor, err := s.class.MemberName(member)
		if err != nil {
			return err
		}
		if mapped := mapName(s.owner, name, descriptor); mapped != name {
			if member.Name, err = s.pool.AddUtf8(mapped); err != nil {
				return err
			}
		}
		if mapped := s.remapper.Descriptor(descriptor); mapped != descriptor {
			if member.Descriptor, err = s.pool.AddUtf8(mapped); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *remapping) attributes(attributes []*Attribute) error {
	for _, attribute := range attributes {
		name, err := s.pool.Utf8(attribute.Name)
		if err != nil {
			return fmt.Errorf("attribute name: %w", err)
		}
		switch name {
		case "Signature":
			err = s.signatureAttribute(attribute)
		case "InnerClasses":
			err = s.innerClasses(attribute)
		case "EnclosingMethod":
			err = s.enclosingMethod(attribute)
		case "Code":
			err = s.code(attribute)
		case "LocalVariableTable":
			err = s.localVariables(attribute, s.remapper.Descriptor)
		case "LocalVariableTypeTable":
			err = s.localVariables(attribute, s.remapper.Signature)
		case "Record":
			err = s.record(attribute)
		}
		if err != nil {
			return fmt.Errorf("%s attribute: %w", name, err)
		}
	}
	return nil
}

// remapUtf8 maps the Utf8 entry at index through mapText and returns
// the index to use in its place.
func (s *remapping) remapUtf8(index uint16, mapText func(string) string) (uint16, error) {
	text, err := s.pool.Utf8(index)
	if err != nil {
		return 0, err
	}
	mapped := mapText(text)
	if mapped == text {
		return index, nil
	}
	return s.pool.AddUtf8(mapped)
}

func (s *remapping) signatureAttribute(attribute *Attribute) error {
	r := &reader{data: attribute.Info}
	index := r.u2()
	if r.err != nil {
		return r.err
	}
	mapped, err := s.remapUtf8(index, s.remapper.Signature)
	if err != nil {
		return err
	}
	w := &writer{}
	w.u2(mapped)
	attribute.Info = w.buffer.Bytes()
	return nil
}

func (s *remapping) innerClasses(attribute *Attribute) error {
	r := &reader{data: attribute.Info}
	w := &writer{}
	count := r.u2()
	w.u2(count)
	for range count {
		inner, outer, simpleName, flags := r.u2(), r.u2(), r.u2(), r.u2()
		if r.err != nil {
			return r.err
		}
		if simpleName != 0 {
			mapped, err := s.innerSimpleName(inner, outer, simpleName)
			if err != nil {
				return err
			}
			simpleName = mapped
		}
		w.u2(inner)
		w.u2(outer)
		w.u2(simpleName)
		w.u2(flags)
	}
	if r.err != nil {
		return r.err
	}
	attribute.Info = w.buffer.Bytes()
	return nil
}

// innerSimpleName derives an inner class's simple name from its
// renamed binary name.
func (s *remapping) innerSimpleName(inner, outer, simpleName uint16) (uint16, error) {
	original, ok := s.classes[inner]
	if !ok {
		return simpleName, nil
	}
	mapped := s.remapper.Class(original)
	if mapped == original {
		return simpleName, nil
	}
	var simple string
	if outerName, ok := s.classes[outer]; ok && strings.HasPrefix(mapped, s.remapper.Class(outerName)+"$") {
		simple = mapped[len(s.remapper.Class(outerName))+1:]
	} else {
		simple = mapped[strings.LastIndexAny(mapped, "$/")+1:]
	}
	return s.pool.AddUtf8(simple)
}

func (s *remapping) enclosingMethod(attribute *Attribute) error {
	r := &reader{data: attribute.Info}
	classIndex, method := r.u2(), r.u2()
	if r.err != nil {
		return r.err
	}
	if method != 0 {
		owner, ok := s.classes[classIndex]
		if !ok {
			return fmt.Errorf("class index %d is not a Class constant", classIndex)
		}
		name, descriptor, err := s.pool.NameAndType(method)
		if err != nil {
			return err
		}
		mappedName := s.remapper.Method(owner, name, descriptor)
		mappedDescriptor := s.remapper.Descriptor(descriptor)
		if mappedName != name || mappedDescriptor != descriptor {
			if method, err = s.pool.AddNameAndType(mappedName, mappedDescriptor); err != nil {
				return err
			}
		}
	}
	w := &writer{}
	w.u2(classIndex)
	w.u2(method)
	attribute.Info = w.buffer.Bytes()
	return nil
}

// code rewrites the attributes nested in a Code attribute. Bytecode
// is copied unchanged.
func (s *remapping) code(attribute *Attribute) error {
	r := &reader{data: attribute.Info}
	header := r.bytes(4) // max_stack, max_locals
	codeLength := r.u4()
	code := r.bytes(int(codeLength))
	exceptionCount := r.u2()
	exceptions := r.bytes(int(exceptionCount) * 8)
	nested := readAttributes(r)
	if r.err != nil {
		return r.err
	}
	if err := s.attributes(nested); err != nil {
		return err
	}
	w := &writer{}
	w.bytes(header)
	w.u4(codeLength)
	w.bytes(code)
	w.u2(exceptionCount)
	w.bytes(exceptions)
	if err := writeAttributes(w, nested); err != nil {
		return err
	}
	attribute.Info = w.buffer.Bytes()
	return nil
}

// localVariables handles LocalVariableTable and LocalVariableTypeTable,
// which share a layout; mapType is applied to the descriptor or
// signature column.
func (s *remapping) localVariables(attribute *Attribute, mapType func(string) string) error {
	r := &reader{data: attribute.Info}
	w := &writer{}
	count := r.u2()
	w.u2(count)
	for range count {
		start, length, name, typeIndex, slot := r.u2(), r.u2(), r.u2(), r.u2(), r.u2()
		if r.err != nil {
			return r.err
		}
		mapped, err := s.remapUtf8(typeIndex, mapType)
		if err != nil {
			return err
		}
		w.u2(start)
		w.u2(length)
		w.u2(name)
		w.u2(mapped)
		w.u2(slot)
	}
	if r.err != nil {
		return r.err
	}
	attribute.Info = w.buffer.Bytes()
	return nil
}

// record renames record components along with their backing fields.
func (s *remapping) record(attribute *Attribute) error {
	r := &reader{data: attribute.Info}
	w := &writer{}
	count := r.u2()
	w.u2(count)
	for range count {
		nameIndex, descriptorIndex := r.u2(), r.u2()
		nested := readAttributes(r)
		if r.err != nil {
			return r.err
		}
		name, err := s.pool.Utf8(nameIndex)
		if err != nil {
			return err
		}
		descriptor, err := s.pool.Utf8(descriptorIndex)
		if err != nil {
			return err
		}
		if mapped := s.remapper.Field(s.owner, name, descriptor); mapped != name {
			if nameIndex, err = s.pool.AddUtf8(mapped); err != nil {
				return err
			}
		}
		if descriptorIndex, err = s.remapUtf8(descriptorIndex, s.remapper.Descriptor); err != nil {
			return err
		}
		if err := s.attributes(nested); err != nil {
			return err
		}
		w.u2(nameIndex)
		w.u2(descriptorIndex)
		if err := writeAttributes(w, nested); err != nil {
			return err
		}
	}
	if r.err != nil {
		return r.err
	}
	attribute.Info = w.buffer.Bytes()
	return nil
}
