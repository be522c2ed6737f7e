// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remap

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/molt/lib/classfile"
	"github.com/bureau-foundation/molt/lib/mapping"
	"github.com/bureau-foundation/molt/lib/testutil"
)

const worldMappings = "tiny\t2\t0\tofficial\tintermediary\tnamed\n" +
	"c\ta\tnet/minecraft/class_1\tnet/minecraft/World\n" +
	"\tf\tJ\tb\tfield_1\ttime\n" +
	"\tm\t(La;)V\tc\tmethod_1\tmerge\n" +
	"c\th\tnet/minecraft/class_3\tnet/minecraft/Ticking\n" +
	"\tm\t()V\ti\tmethod_3\ttick\n"

// classSpec describes a class for buildClass.
type classSpec struct {
	name       string
	flags      uint16 // class access flags in addition to public
	super      string
	interfaces []string
	fields     []string // "name:descriptor"
	methods    []string
	access     map[string]uint16 // method "name:descriptor" -> flags
	fieldRefs  []string // "owner.name:descriptor"
	methodRefs []string
}

func buildClass(t *testing.T, spec classSpec) []byte {
	t.Helper()
	pool := classfile.NewConstantPool()
	must := func(index uint16, err error) uint16 {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return index
	}
	class := &classfile.Class{
		MajorVersion: 52,
		Pool:         pool,
		AccessFlags:  classfile.AccPublic | spec.flags,
		ThisClass:    must(pool.AddClass(spec.name)),
	}
	if spec.super != "" {
		class.SuperClass = must(pool.AddClass(spec.super))
	}
	for _, name := range spec.interfaces {
		class.Interfaces = append(class.Interfaces, must(pool.AddClass(name)))
	}
	member := func(text string) (uint16, uint16) {
		name, descriptor, _ := strings.Cut(text, ":")
		return must(pool.AddUtf8(name)), must(pool.AddUtf8(descriptor))
	}
	for _, field := range spec.fields {
		name, descriptor := member(field)
		class.Fields = append(class.Fields, &classfile.Member{Name: name, Descriptor: descriptor})
	}
	for _, method := range spec.methods {
		name, descriptor := member(method)
		class.Methods = append(class.Methods, &classfile.Member{
			AccessFlags: spec.access[method],
			Name:        name,
			Descriptor:  descriptor,
		})
	}
	reference := func(tag classfile.Tag, text string) {
		owner, rest, _ := strings.Cut(text, ".")
		name, descriptor, _ := strings.Cut(rest, ":")
		must(pool.Add(classfile.Constant{
			Tag:    tag,
			First:  must(pool.AddClass(owner)),
			Second: must(pool.AddNameAndType(name, descriptor)),
		}))
	}
	for _, ref := range spec.fieldRefs {
		reference(classfile.TagFieldref, ref)
	}
	for _, ref := range spec.methodRefs {
		reference(classfile.TagMethodref, ref)
	}
	data, err := class.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// references lists the member references of a class as
// "owner.name:descriptor", in pool order.
func references(t *testing.T, class *classfile.Class) []string {
	t.Helper()
	var refs []string
	for index := 1; index < class.Pool.Len(); index++ {
		entry, err := class.Pool.Entry(uint16(index))
		if err != nil {
			continue
		}
		switch entry.Tag {
		case classfile.TagFieldref, classfile.TagMethodref:
			owner, err := class.Pool.ClassName(entry.First)
			if err != nil {
				t.Fatal(err)
			}
			name, descriptor, err := class.Pool.NameAndType(entry.Second)
			if err != nil {
				t.Fatal(err)
			}
			refs = append(refs, owner+"."+name+":"+descriptor)
		}
	}
	return refs
}

func declared(t *testing.T, class *classfile.Class, members []*classfile.Member) []string {
	t.Helper()
	var names []string
	for _, member := range members {
		name, descriptor, err := class.MemberName(member)
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, name+":"+descriptor)
	}
	return names
}

func parseEntry(t *testing.T, entries map[string][]byte, name string) *classfile.Class {
	t.Helper()
	data, ok := entries[name]
	if !ok {
		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		t.Fatalf("jar has no %s (entries: %v)", name, keys)
	}
	class, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("parsing %s: %v", name, err)
	}
	return class
}

func loadTable(t *testing.T) *mapping.Table {
	t.Helper()
	table, err := mapping.ParseTiny(strings.NewReader(worldMappings))
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func writeObfuscatedJar(t *testing.T, path string) {
	t.Helper()
	testutil.WriteJar(t, path, map[string][]byte{
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
		"META-INF/MOJANG.SF":   []byte("signature"),
		"assets/lang/en.json":  []byte(`{"a": "b"}`),
		"a.class": buildClass(t, classSpec{
			name:    "a",
			super:   "java/lang/Object",
			fields:  []string{"b:J"},
			methods: []string{"<init>:()V", "c:(La;)V"},
		}),
		"h.class": buildClass(t, classSpec{
			name:    "h",
			super:   "java/lang/Object",
			methods: []string{"i:()V"},
		}),
		// f is not in the mappings: its override of a.c and its
		// implementation of h.i must follow the mapped names.
		"f.class": buildClass(t, classSpec{
			name:       "f",
			super:      "a",
			interfaces: []string{"h"},
			methods:    []string{"c:(La;)V", "i:()V", "helper:()V"},
		}),
		"g.class": buildClass(t, classSpec{
			name:       "g",
			super:      "java/lang/Object",
			fieldRefs:  []string{"f.b:J"},
			methodRefs: []string{"f.c:(La;)V", "a.c:(La;)V", "f.helper:()V"},
		}),
	})
}

func TestTransformRemapsThroughHierarchy(t *testing.T) {
	directory := t.TempDir()
	input := filepath.Join(directory, "raw.jar")
	writeObfuscatedJar(t, input)

	table := loadTable(t)
	intermediary, err := New(table, mapping.Obfuscated, mapping.Intermediary)
	if err != nil {
		t.Fatal(err)
	}
	intermediaryJar := filepath.Join(directory, "intermediary.jar")
	if err := intermediary.Transform(context.Background(), input, intermediaryJar, nil); err != nil {
		t.Fatalf("Transform to intermediary: %v", err)
	}

	entries := testutil.ReadJar(t, intermediaryJar)
	if _, ok := entries["META-INF/MOJANG.SF"]; ok {
		t.Error("signature file should be dropped")
	}
	if string(entries["assets/lang/en.json"]) != `{"a": "b"}` {
		t.Errorf("resource changed: %q", entries["assets/lang/en.json"])
	}
	if _, ok := entries["a.class"]; ok {
		t.Error("a.class should have been renamed")
	}

	world := parseEntry(t, entries, "net/minecraft/class_1.class")
	if got := strings.Join(declared(t, world, world.Fields), " "); got != "field_1:J" {
		t.Errorf("class_1 fields = %s", got)
	}
	if got := strings.Join(declared(t, world, world.Methods), " "); got != "<init>:()V method_1:(Lnet/minecraft/class_1;)V" {
		t.Errorf("class_1 methods = %s", got)
	}

	subclass := parseEntry(t, entries, "f.class")
	if super, _ := subclass.SuperName(); super != "net/minecraft/class_1" {
		t.Errorf("f super = %s", super)
	}
	if got := strings.Join(declared(t, subclass, subclass.Methods), " "); got != "method_1:(Lnet/minecraft/class_1;)V method_3:()V helper:()V" {
		t.Errorf("f methods = %s", got)
	}

	caller := parseEntry(t, entries, "g.class")
	want := []string{
		"f.field_1:J",
		"f.method_1:(Lnet/minecraft/class_1;)V",
		"net/minecraft/class_1.method_1:(Lnet/minecraft/class_1;)V",
		"f.helper:()V",
	}
	if got := references(t, caller); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("g references = %v, want %v", got, want)
	}

	// Second stage: intermediary to named.
	named, err := New(table, mapping.Intermediary, mapping.Named)
	if err != nil {
		t.Fatal(err)
	}
	namedJar := filepath.Join(directory, "named.jar")
	if err := named.Transform(context.Background(), intermediaryJar, namedJar, nil); err != nil {
		t.Fatalf("Transform to named: %v", err)
	}
	entries = testutil.ReadJar(t, namedJar)
	world = parseEntry(t, entries, "net/minecraft/World.class")
	if got := strings.Join(declared(t, world, world.Methods), " "); got != "<init>:()V merge:(Lnet/minecraft/World;)V" {
		t.Errorf("World methods = %s", got)
	}
	caller = parseEntry(t, entries, "g.class")
	want = []string{
		"f.time:J",
		"f.merge:(Lnet/minecraft/World;)V",
		"net/minecraft/World.merge:(Lnet/minecraft/World;)V",
		"f.helper:()V",
	}
	if got := references(t, caller); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("g references = %v, want %v", got, want)
	}
}

func TestTransformUsesClasspathForHierarchy(t *testing.T) {
	directory := t.TempDir()

	// The mapped interface lives on the classpath, not in the jar.
	library := filepath.Join(directory, "library.jar")
	testutil.WriteJar(t, library, map[string][]byte{
		"h.class": buildClass(t, classSpec{name: "h", super: "java/lang/Object", methods: []string{"i:()V"}}),
	})
	input := filepath.Join(directory, "input.jar")
	testutil.WriteJar(t, input, map[string][]byte{
		"k.class": buildClass(t, classSpec{
			name:       "k",
			super:      "java/lang/Object",
			interfaces: []string{"h"},
			methods:    []string{"i:()V"},
		}),
	})

	remapper, err := New(loadTable(t), mapping.Obfuscated, mapping.Named)
	if err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(directory, "output.jar")
	if err := remapper.Transform(context.Background(), input, output, []string{library}); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	class := parseEntry(t, testutil.ReadJar(t, output), "k.class")
	if got := strings.Join(declared(t, class, class.Methods), " "); got != "tick:()V" {
		t.Errorf("k methods = %s", got)
	}
	interfaces, _ := class.InterfaceNames()
	if len(interfaces) != 1 || interfaces[0] != "net/minecraft/Ticking" {
		t.Errorf("k interfaces = %v", interfaces)
	}
}

func TestPrivateMethodsDoNotInherit(t *testing.T) {
	directory := t.TempDir()
	input := filepath.Join(directory, "input.jar")
	testutil.WriteJar(t, input, map[string][]byte{
		"a.class": buildClass(t, classSpec{
			name:    "a",
			super:   "java/lang/Object",
			methods: []string{"c:(La;)V"},
			access:  map[string]uint16{"c:(La;)V": classfile.AccPrivate},
		}),
		"m.class": buildClass(t, classSpec{
			name:    "m",
			super:   "a",
			methods: []string{"c:(La;)V"},
		}),
	})
	remapper, err := New(loadTable(t), mapping.Obfuscated, mapping.Intermediary)
	if err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(directory, "output.jar")
	if err := remapper.Transform(context.Background(), input, output, nil); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	class := parseEntry(t, testutil.ReadJar(t, output), "m.class")
	if got := strings.Join(declared(t, class, class.Methods), " "); got != "c:(Lnet/minecraft/class_1;)V" {
		t.Errorf("m methods = %s, want the unrelated method to keep its name", got)
	}
}

func TestStaticMethodsResolveThroughSuperclass(t *testing.T) {
	directory := t.TempDir()
	input := filepath.Join(directory, "input.jar")
	testutil.WriteJar(t, input, map[string][]byte{
		"a.class": buildClass(t, classSpec{
			name:    "a",
			super:   "java/lang/Object",
			methods: []string{"c:(La;)V"},
			access:  map[string]uint16{"c:(La;)V": classfile.AccPublic | classfile.AccStatic},
		}),
		"f.class": buildClass(t, classSpec{name: "f", super: "a"}),
		"g.class": buildClass(t, classSpec{
			name:       "g",
			super:      "java/lang/Object",
			methodRefs: []string{"f.c:(La;)V"},
		}),
	})
	remapper, err := New(loadTable(t), mapping.Obfuscated, mapping.Intermediary)
	if err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(directory, "output.jar")
	if err := remapper.Transform(context.Background(), input, output, nil); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	caller := parseEntry(t, testutil.ReadJar(t, output), "g.class")
	want := "f.method_1:(Lnet/minecraft/class_1;)V"
	if got := strings.Join(references(t, caller), " "); got != want {
		t.Errorf("g references = %s, want %s", got, want)
	}
}

func TestStaticInterfaceMethodsDoNotInherit(t *testing.T) {
	directory := t.TempDir()
	input := filepath.Join(directory, "input.jar")
	testutil.WriteJar(t, input, map[string][]byte{
		"h.class": buildClass(t, classSpec{
			name:    "h",
			flags:   classfile.AccInterface,
			super:   "java/lang/Object",
			methods: []string{"i:()V"},
			access:  map[string]uint16{"i:()V": classfile.AccPublic | classfile.AccStatic},
		}),
		// k.i is its own method, unrelated to the interface's static i.
		"k.class": buildClass(t, classSpec{
			name:       "k",
			super:      "java/lang/Object",
			interfaces: []string{"h"},
			methods:    []string{"i:()V"},
		}),
	})
	remapper, err := New(loadTable(t), mapping.Obfuscated, mapping.Intermediary)
	if err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(directory, "output.jar")
	if err := remapper.Transform(context.Background(), input, output, nil); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	class := parseEntry(t, testutil.ReadJar(t, output), "k.class")
	if got := strings.Join(declared(t, class, class.Methods), " "); got != "i:()V" {
		t.Errorf("k methods = %s, want i:()V", got)
	}
}

func TestIdentity(t *testing.T) {
	table := loadTable(t)
	forward, _ := New(table, mapping.Obfuscated, mapping.Intermediary)
	backward, _ := New(table, mapping.Intermediary, mapping.Obfuscated)
	if !strings.HasPrefix(forward.Identity(), "remap/"+table.Version()+":") {
		t.Errorf("Identity = %s", forward.Identity())
	}
	if forward.Identity() == backward.Identity() {
		t.Error("direction should be part of the identity")
	}
	if _, err := New(table, mapping.Obfuscated, "srg"); err == nil {
		t.Error("New should reject an unknown namespace")
	}
}

func TestTransformHonoursCancellation(t *testing.T) {
	directory := t.TempDir()
	input := filepath.Join(directory, "raw.jar")
	writeObfuscatedJar(t, input)
	remapper, err := New(loadTable(t), mapping.Obfuscated, mapping.Intermediary)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := remapper.Transform(ctx, input, filepath.Join(directory, "out.jar"), nil); err == nil {
		t.Error("Transform with a cancelled context should fail")
	}
}
