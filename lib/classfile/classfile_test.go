// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package classfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bureau-foundation/molt/lib/mapping"
)

// fixture indexes the interesting constants of the class built by
// buildWorld.
type fixture struct {
	data        []byte
	stringIndex uint16
	fieldRef    uint16
	methodRef   uint16
	longIndex   uint16
	arrayClass  uint16
	methodType  uint16
}

var longBytes = []byte{0, 0, 0, 0, 0, 0, 0x30, 0x39}

// buildWorld assembles an obfuscated class equivalent to:
//
//	class a {
//	    long b;
//	    java.util.List<d> f;
//	    void c(a other) { ... }
//	    class b {}
//	}
func buildWorld(t *testing.T) fixture {
	t.Helper()
	pool := NewConstantPool()
	must := func(index uint16, err error) uint16 {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return index
	}

	var f fixture
	this := must(pool.AddClass("a"))
	super := must(pool.AddClass("java/lang/Object"))
	owner := must(pool.AddClass("d"))
	inner := must(pool.AddClass("a$b"))
	f.arrayClass = must(pool.AddClass("[La;"))
	f.stringIndex = must(pool.Add(Constant{Tag: TagString, First: must(pool.AddUtf8("a"))}))
	f.longIndex = must(pool.Add(Constant{Tag: TagLong, Raw: longBytes}))
	f.fieldRef = must(pool.Add(Constant{Tag: TagFieldref, First: this, Second: must(pool.AddNameAndType("b", "J"))}))
	f.methodRef = must(pool.Add(Constant{Tag: TagMethodref, First: owner, Second: must(pool.AddNameAndType("e", "()La;"))}))
	f.methodType = must(pool.Add(Constant{Tag: TagMethodType, First: must(pool.AddUtf8("(La;)V"))}))

	code := &writer{}
	code.u2(2) // max_stack
	code.u2(2) // max_locals
	bytecode := []byte{0x2a, 0xb4, byte(f.fieldRef >> 8), byte(f.fieldRef), 0x58, 0xb1}
	code.u4(uint32(len(bytecode)))
	code.bytes(bytecode)
	code.u2(0)
	locals := &writer{}
	locals.u2(1)
	locals.u2(0)
	locals.u2(uint16(len(bytecode)))
	locals.u2(must(pool.AddUtf8("this")))
	locals.u2(must(pool.AddUtf8("La;")))
	locals.u2(0)
	if err := writeAttributes(code, []*Attribute{{Name: must(pool.AddUtf8("LocalVariableTable")), Info: locals.buffer.Bytes()}}); err != nil {
		t.Fatal(err)
	}

	innerClasses := &writer{}
	innerClasses.u2(1)
	innerClasses.u2(inner)
	innerClasses.u2(this)
	innerClasses.u2(must(pool.AddUtf8("b")))
	innerClasses.u2(0)

	class := &Class{
		MajorVersion: 65,
		Pool:         pool,
		AccessFlags:  AccPublic,
		ThisClass:    this,
		SuperClass:   super,
		Fields: []*Member{
			{Name: must(pool.AddUtf8("b")), Descriptor: must(pool.AddUtf8("J"))},
			{
				Name:       must(pool.AddUtf8("f")),
				Descriptor: must(pool.AddUtf8("Ljava/util/List;")),
				Attributes: []*Attribute{signature(t, pool, "Ljava/util/List<Ld;>;")},
			},
		},
		Methods: []*Member{{
			Name:       must(pool.AddUtf8("c")),
			Descriptor: must(pool.AddUtf8("(La;)V")),
			Attributes: []*Attribute{{Name: must(pool.AddUtf8("Code")), Info: code.buffer.Bytes()}},
		}},
		Attributes: []*Attribute{{Name: must(pool.AddUtf8("InnerClasses")), Info: innerClasses.buffer.Bytes()}},
	}
	data, err := class.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	f.data = data
	return f
}

func signature(t *testing.T, pool *ConstantPool, text string) *Attribute {
	t.Helper()
	name, err := pool.AddUtf8("Signature")
	if err != nil {
		t.Fatal(err)
	}
	value, err := pool.AddUtf8(text)
	if err != nil {
		t.Fatal(err)
	}
	w := &writer{}
	w.u2(value)
	return &Attribute{Name: name, Info: w.buffer.Bytes()}
}

type tableRemapper struct {
	classes map[string]string
	members map[string]string
}

func (r tableRemapper) Class(name string) string {
	if mapped, ok := r.classes[name]; ok {
		return mapped
	}
	return name
}

func (r tableRemapper) Field(owner, name, descriptor string) string {
	return r.member(owner, name, descriptor)
}

func (r tableRemapper) Method(owner, name, descriptor string) string {
	return r.member(owner, name, descriptor)
}

func (r tableRemapper) member(owner, name, descriptor string) string {
	if mapped, ok := r.members[owner+"."+name+":"+descriptor]; ok {
		return mapped
	}
	return name
}

func (r tableRemapper) Descriptor(descriptor string) string {
	return mapping.RemapDescriptor(descriptor, r.Class)
}

func (r tableRemapper) Signature(signature string) string {
	return mapping.RemapSignature(signature, r.Class)
}

var worldRemapper = tableRemapper{
	classes: map[string]string{
		"a":   "net/minecraft/World",
		"a$b": "net/minecraft/World$Chunk",
		"d":   "net/minecraft/Entity",
	},
	members: map[string]string{
		"a.b:J":      "time",
		"a.c:(La;)V": "merge",
		"d.e:()La;":  "getWorld",
	},
}

func TestParseWriteRoundTrip(t *testing.T) {
	f := buildWorld(t)
	class, err := Parse(f.data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := class.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.Equal(data, f.data) {
		t.Error("parse/write cycle changed the class file")
	}

	name, err := class.Name()
	if err != nil || name != "a" {
		t.Errorf("Name = %q, %v", name, err)
	}
	super, err := class.SuperName()
	if err != nil || super != "java/lang/Object" {
		t.Errorf("SuperName = %q, %v", super, err)
	}
	entry, err := class.Pool.Entry(f.longIndex)
	if err != nil || entry.Tag != TagLong || !bytes.Equal(entry.Raw, longBytes) {
		t.Errorf("long constant = %+v, %v", entry, err)
	}
	if _, err := class.Pool.Entry(f.longIndex + 1); err == nil {
		t.Error("slot after a Long should not be addressable")
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	f := buildWorld(t)
	tests := map[string][]byte{
		"empty":     nil,
		"bad magic": append([]byte{0xCA, 0xFE, 0xD0, 0x0D}, f.data[4:]...),
		"truncated": f.data[:len(f.data)-3],
		"trailing":  append(bytes.Clone(f.data), 0),
	}
	for name, data := range tests {
		if _, err := Parse(data); err == nil {
			t.Errorf("%s: Parse succeeded", name)
		}
	}
}

func TestRemap(t *testing.T) {
	f := buildWorld(t)
	class, err := Parse(f.data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	originalCount := class.Pool.Len()
	var originalTags []Tag
	for _, entry := range class.Pool.entries {
		originalTags = append(originalTags, entry.Tag)
	}

	if err := Remap(class, worldRemapper); err != nil {
		t.Fatalf("Remap: %v", err)
	}
	data, err := class.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	class, err = Parse(data)
	if err != nil {
		t.Fatalf("Parse remapped: %v", err)
	}
	pool := class.Pool

	if pool.Len() < originalCount {
		t.Fatalf("pool shrank from %d to %d", originalCount, pool.Len())
	}
	for index, tag := range originalTags {
		if pool.entries[index].Tag != tag {
			t.Errorf("constant %d changed tag from %s to %s", index, tag, pool.entries[index].Tag)
		}
	}

	if name, _ := class.Name(); name != "net/minecraft/World" {
		t.Errorf("Name = %q", name)
	}

	stringEntry, _ := pool.Entry(f.stringIndex)
	if text, _ := pool.Utf8(stringEntry.First); text != "a" {
		t.Errorf("string literal = %q, want it untouched", text)
	}

	assertMemberRef(t, pool, f.fieldRef, "net/minecraft/World", "time", "J")
	assertMemberRef(t, pool, f.methodRef, "net/minecraft/Entity", "getWorld", "()Lnet/minecraft/World;")

	if name, _ := pool.ClassName(f.arrayClass); name != "[Lnet/minecraft/World;" {
		t.Errorf("array class = %q", name)
	}
	methodType, _ := pool.Entry(f.methodType)
	if text, _ := pool.Utf8(methodType.First); text != "(Lnet/minecraft/World;)V" {
		t.Errorf("method type = %q", text)
	}

	fieldNames := memberNames(t, class, class.Fields)
	if want := "time:J f:Ljava/util/List;"; fieldNames != want {
		t.Errorf("fields = %q, want %q", fieldNames, want)
	}
	methodNames := memberNames(t, class, class.Methods)
	if want := "merge:(Lnet/minecraft/World;)V"; methodNames != want {
		t.Errorf("methods = %q, want %q", methodNames, want)
	}

	signatureIndex := u2At(class.Fields[1].Attributes[0].Info, 0)
	if text, _ := pool.Utf8(signatureIndex); text != "Ljava/util/List<Lnet/minecraft/Entity;>;" {
		t.Errorf("field signature = %q", text)
	}

	innerClasses := class.Attributes[0].Info
	if text, _ := pool.Utf8(u2At(innerClasses, 2+4)); text != "Chunk" {
		t.Errorf("inner class simple name = %q", text)
	}

	r := &reader{data: class.Methods[0].Attributes[0].Info}
	r.bytes(4)
	r.bytes(int(r.u4()))
	r.bytes(int(r.u2()) * 8)
	nested := readAttributes(r)
	if r.err != nil || len(nested) != 1 {
		t.Fatalf("Code attributes: %v, %d", r.err, len(nested))
	}
	if text, _ := pool.Utf8(u2At(nested[0].Info, 2+6)); text != "Lnet/minecraft/World;" {
		t.Errorf("local variable descriptor = %q", text)
	}
}

func TestRemapIdentityKeepsBytes(t *testing.T) {
	f := buildWorld(t)
	class, err := Parse(f.data)
	if err != nil {
		t.Fatal(err)
	}
	if err := Remap(class, tableRemapper{}); err != nil {
		t.Fatalf("Remap: %v", err)
	}
	data, err := class.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, f.data) {
		t.Error("identity remap changed the class file")
	}
}

func assertMemberRef(t *testing.T, pool *ConstantPool, index uint16, owner, name, descriptor string) {
	t.Helper()
	entry, err := pool.Entry(index)
	if err != nil {
		t.Fatal(err)
	}
	gotOwner, _ := pool.ClassName(entry.First)
	gotName, gotDescriptor, _ := pool.NameAndType(entry.Second)
	if gotOwner != owner || gotName != name || gotDescriptor != descriptor {
		t.Errorf("member ref %d = %s.%s%s, want %s.%s%s", index, gotOwner, gotName, gotDescriptor, owner, name, descriptor)
	}
}

func memberNames(t *testing.T, class *Class, members []*Member) string {
	t.Helper()
	var parts []string
	for _, member := range members {
		name, descriptor, err := class.MemberName(member)
		if err != nil {
			t.Fatal(err)
		}
		parts = append(parts, name+":"+descriptor)
	}
	return strings.Join(parts, " ")
}

func u2At(data []byte, offset int) uint16 {
	return uint16(data[offset])<<8 | uint16(data[offset+1])
}
