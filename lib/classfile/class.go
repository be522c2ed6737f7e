// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Magic is the first four bytes of every class file.
const Magic = 0xCAFEBABE

// Access flags molt inspects.
const (
	AccPublic    = 0x0001
	AccPrivate   = 0x0002
	AccStatic    = 0x0008
	AccFinal     = 0x0010
	AccBridge    = 0x0040
	AccInterface = 0x0200
	AccSynthetic = 0x1000
)

// Class is a parsed class file. Index fields refer to Pool.
type Class struct {
	MinorVersion uint16
	MajorVersion uint16
	Pool         *ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []*Member
	Methods      []*Member
	Attributes   []*Attribute
}

// Member is a field_info or method_info structure.
type Member struct {
	AccessFlags uint16
	Name        uint16
	Descriptor  uint16
	Attributes  []*Attribute
}

// Attribute is an attribute_info structure with its payload left
// undecoded.
type Attribute struct {
	Name uint16
	Info []byte
}

// Parse decodes a class file. The returned Class shares no memory
// with data.
func Parse(data []byte) (*Class, error) {
	r := &reader{data: bytes.Clone(data)}
	if magic := r.u4(); r.err == nil && magic != Magic {
		return nil, fmt.Errorf("not a class file (magic 0x%08X)", magic)
	}
	class := &Class{Pool: &ConstantPool{}}
	class.MinorVersion = r.u2()
	class.MajorVersion = r.u2()
	if r.err != nil {
		return nil, r.err
	}
	if err := class.Pool.read(r); err != nil {
		return nil, fmt.Errorf("reading constant pool: %w", err)
	}
	class.AccessFlags = r.u2()
	class.ThisClass = r.u2()
	class.SuperClass = r.u2()
	class.Interfaces = make([]uint16, r.u2())
	for i := range class.Interfaces {
		class.Interfaces[i] = r.u2()
	}
	class.Fields = readMembers(r)
	class.Methods = readMembers(r)
	class.Attributes = readAttributes(r)
	if r.err != nil {
		return nil, r.err
	}
	if r.offset != len(r.data) {
		return nil, fmt.Errorf("%d trailing bytes after class file", len(r.data)-r.offset)
	}
	return class, nil
}

func readMembers(r *reader) []*Member {
	count := r.u2()
	if r.err != nil {
		return nil
	}
	members := make([]*Member, 0, count)
	for range count {
		member := &Member{AccessFlags: r.u2(), Name: r.u2(), Descriptor: r.u2()}
		member.Attributes = readAttributes(r)
		if r.err != nil {
			return nil
		}
		members = append(members, member)
	}
	return members
}

func readAttributes(r *reader) []*Attribute {
	count := r.u2()
	if r.err != nil {
		return nil
	}
	attributes := make([]*Attribute, 0, count)
	for range count {
		name := r.u2()
		length := r.u4()
		if length > math.MaxInt32 {
			r.fail(fmt.Errorf("attribute length %d at offset %d is implausible", length, r.offset))
			return nil
		}
		info := r.bytes(int(length))
		if r.err != nil {
			return nil
		}
		attributes = append(attributes, &Attribute{Name: name, Info: info})
	}
	return attributes
}

// Bytes encodes the class file.
func (c *Class) Bytes() ([]byte, error) {
	w := &writer{}
	w.u4(Magic)
	w.u2(c.MinorVersion)
	w.u2(c.MajorVersion)
	if err := c.Pool.write(w); err != nil {
		return nil, err
	}
	w.u2(c.AccessFlags)
	w.u2(c.ThisClass)
	w.u2(c.SuperClass)
	if err := w.count(len(c.Interfaces), "interfaces"); err != nil {
		return nil, err
	}
	for _, index := range c.Interfaces {
		w.u2(index)
	}
	for _, members := range [][]*Member{c.Fields, c.Methods} {
		if err := w.count(len(members), "members"); err != nil {
			return nil, err
		}
		for _, member := range members {
			w.u2(member.AccessFlags)
			w.u2(member.Name)
			w.u2(member.Descriptor)
			if err := writeAttributes(w, member.Attributes); err != nil {
				return nil, err
			}
		}
	}
	if err := writeAttributes(w, c.Attributes); err != nil {
		return nil, err
	}
	return w.buffer.Bytes(), nil
}

func writeAttributes(w *writer, attributes []*Attribute) error {
	if err := w.count(len(attributes), "attributes"); err != nil {
		return err
	}
	for _, attribute := range attributes {
		w.u2(attribute.Name)
		w.u4(uint32(len(attribute.Info)))
		w.bytes(attribute.Info)
	}
	return nil
}

// Name returns the class's internal name.
func (c *Class) Name() (string, error) {
	return c.Pool.ClassName(c.ThisClass)
}

// SuperName returns the superclass's internal name, or "" for
// java/lang/Object and module-info.
func (c *Class) SuperName() (string, error) {
	if c.SuperClass == 0 {
		return "", nil
	}
	return c.Pool.ClassName(c.SuperClass)
}

// InterfaceNames returns the internal names of the directly
// implemented interfaces.
func (c *Class) InterfaceNames() ([]string, error) {
	names := make([]string, len(c.Interfaces))
	for i, index := range c.Interfaces {
		name, err := c.Pool.ClassName(index)
		if err != nil {
			return nil, fmt.Errorf("interface %d: %w", i, err)
		}
		names[i] = name
	}
	return names, nil
}

// MemberName returns a field or method's name and descriptor.
func (c *Class) MemberName(member *Member) (name, descriptor string, err error) {
	if name, err = c.Pool.Utf8(member.Name); err != nil {
		return "", "", err
	}
	if descriptor, err = c.Pool.Utf8(member.Descriptor); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// AttributeName returns the name of attribute.
func (c *Class) AttributeName(attribute *Attribute) (string, error) {
	return c.Pool.Utf8(attribute.Name)
}

type reader struct {
	data   []byte
	offset int
	err    error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.offset < n {
		r.fail(fmt.Errorf("unexpected end of data at offset %d (need %d bytes, have %d)", r.offset, n, len(r.data)-r.offset))
		return nil
	}
	chunk := r.data[r.offset : r.offset+n : r.offset+n]
	r.offset += n
	return chunk
}

func (r *reader) u1() uint8 {
	if chunk := r.take(1); chunk != nil {
		return chunk[0]
	}
	return 0
}

func (r *reader) u2() uint16 {
	if chunk := r.take(2); chunk != nil {
		return binary.BigEndian.Uint16(chunk)
	}
	return 0
}

func (r *reader) u4() uint32 {
	if chunk := r.take(4); chunk != nil {
		return binary.BigEndian.Uint32(chunk)
	}
	return 0
}

func (r *reader) bytes(n int) []byte {
	return r.take(n)
}

type writer struct {
	buffer bytes.Buffer
}

func (w *writer) u1(value uint8) { w.buffer.WriteByte(value) }

func (w *writer) u2(value uint16) {
	w.buffer.Write(binary.BigEndian.AppendUint16(nil, value))
}

func (w *writer) u4(value uint32) {
	w.buffer.Write(binary.BigEndian.AppendUint32(nil, value))
}

func (w *writer) bytes(data []byte) { w.buffer.Write(data) }

func (w *writer) count(n int, what string) error {
	if n > math.MaxUint16 {
		return fmt.Errorf("%d %s exceed the class file limit", n, what)
	}
	w.u2(uint16(n))
	return nil
}
