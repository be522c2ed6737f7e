// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mapping

import (
	"fmt"
	"slices"
	"strings"
)

// Well-known namespace names.
const (
	Obfuscated   = "obfuscated"
	Intermediary = "intermediary"
	Named        = "named"
)

// namespaceAliases maps names used by mapping publications to molt's
// namespace names.
var namespaceAliases = map[string]string{
	"official": Obfuscated,
}

func canonicalNamespace(name string) string {
	if alias, ok := namespaceAliases[name]; ok {
		return alias
	}
	return name
}

// Member is a field or method. Names and Descriptors are indexed by
// namespace position.
type Member struct {
	Names       []string
	Descriptors []string
}

// Name returns the member's name in namespace position index.
func (m *Member) Name(index int) string { return m.Names[index] }

// Descriptor returns the member's descriptor in namespace position
// index.
func (m *Member) Descriptor(index int) string { return m.Descriptors[index] }

// Class is a class entry with its members. Names is indexed by
// namespace position.
type Class struct {
	Names   []string
	Fields  []*Member
	Methods []*Member

	fieldIndex  []map[string]*Member
	methodIndex []map[string]*Member
}

// Name returns the class's internal name in namespace position index.
func (c *Class) Name(index int) string { return c.Names[index] }

// Field returns the field declared with name and descriptor in
// namespace position index, or nil.
func (c *Class) Field(index int, name, descriptor string) *Member {
	return c.fieldIndex[index][memberKey(name, descriptor)]
}

// Method returns the method declared with name and descriptor in
// namespace position index, or nil.
func (c *Class) Method(index int, name, descriptor string) *Member {
	return c.methodIndex[index][memberKey(name, descriptor)]
}

func memberKey(name, descriptor string) string {
	return name + ":" + descriptor
}

// Table is an immutable multi-namespace symbol table. Build one with
// ParseTiny, LoadSnapshot, or Merge.
type Table struct {
	namespaces []string
	classes    []*Class
	classIndex []map[string]*Class
	version    string
}

// Namespaces returns the namespace names in column order.
func (t *Table) Namespaces() []string { return slices.Clone(t.namespaces) }

// NamespaceIndex returns the column position of namespace.
func (t *Table) NamespaceIndex(namespace string) (int, bool) {
	index := slices.Index(t.namespaces, canonicalNamespace(namespace))
	return index, index >= 0
}

// Classes returns every class entry. The slice must not be modified.
func (t *Table) Classes() []*Class { return t.classes }

// Class returns the class named name in namespace position index, or
// nil.
func (t *Table) Class(index int, name string) *Class {
	return t.classIndex[index][name]
}

// Version is the content fingerprint of the table.
func (t *Table) Version() string { return t.version }

// Mapper returns a view of the table that translates symbols from one
// namespace to another.
func (t *Table) Mapper(from, to string) (*Mapper, error) {
	fromIndex, ok := t.NamespaceIndex(from)
	if !ok {
		return nil, fmt.Errorf("mapping table has no namespace %q (have %v)", from, t.namespaces)
	}
	toIndex, ok := t.NamespaceIndex(to)
	if !ok {
		return nil, fmt.Errorf("mapping table has no namespace %q (have %v)", to, t.namespaces)
	}
	return &Mapper{table: t, from: fromIndex, to: toIndex}, nil
}

// Mapper translates symbols between two namespaces of a Table. Unknown
// symbols map to themselves.
type Mapper struct {
	table *Table
	from  int
	to    int
}

// Class maps an internal class name. Nested classes without their own
// entry keep their simple name under the mapped outer class.
func (m *Mapper) Class(name string) string {
	if class := m.table.classIndex[m.from][name]; class != nil {
		return class.Names[m.to]
	}
	if dollar := strings.LastIndexByte(name, '$'); dollar > 0 {
		outer := m.Class(name[:dollar])
		if outer != name[:dollar] {
			return outer + name[dollar:]
		}
	}
	return name
}

// HasClass reports whether name has an entry in the source namespace.
func (m *Mapper) HasClass(name string) bool {
	return m.table.classIndex[m.from][name] != nil
}

// Field maps a field declared directly on owner. ok is false when the
// table has no entry; the caller decides whether to look further up
// the hierarchy.
func (m *Mapper) Field(owner, name, descriptor string) (string, bool) {
	class := m.table.classIndex[m.from][owner]
	if class == nil {
		return name, false
	}
	if field := class.Field(m.from, name, descriptor); field != nil {
		return field.Names[m.to], true
	}
	return name, false
}

// Method maps a method declared directly on owner. ok is false when
// the table has no entry.
func (m *Mapper) Method(owner, name, descriptor string) (string, bool) {
	class := m.table.classIndex[m.from][owner]
	if class == nil {
		return name, false
	}
	if method := class.Method(m.from, name, descriptor); method != nil {
		return method.Names[m.to], true
	}
	return name, false
}

// Descriptor maps every class name inside a field or method
// descriptor.
func (m *Mapper) Descriptor(descriptor string) string {
	return RemapDescriptor(descriptor, m.Class)
}

// Signature maps every class name inside a generic signature.
func (m *Mapper) Signature(signature string) string {
	return RemapSignature(signature, m.Class)
}

// Namespaces returns the source and target namespace names.
func (m *Mapper) Namespaces() (from, to string) {
	return m.table.namespaces[m.from], m.table.namespaces[m.to]
}

// builder accumulates entries before finalize builds the indexes.
// descriptors are recorded in namespace position 0 only.
type builder struct {
	namespaces []string
	classes    []*Class
}

func newBuilder(namespaces []string) (*builder, error) {
	canonical := make([]string, len(namespaces))
	for i, namespace := range namespaces {
		canonical[i] = canonicalNamespace(namespace)
		if canonical[i] == "" {
			return nil, fmt.Errorf("namespace %d is empty", i)
		}
		if slices.Index(canonical[:i], canonical[i]) >= 0 {
			return nil, fmt.Errorf("namespace %q appears twice", canonical[i])
		}
	}
	if len(canonical) < 2 {
		return nil, fmt.Errorf("mapping table needs at least two namespaces, got %d", len(canonical))
	}
	return &builder{namespaces: canonical}, nil
}

func (b *builder) addClass(names []string) *Class {
	class := &Class{Names: b.fill(names)}
	b.classes = append(b.classes, class)
	return class
}

func (b *builder) addField(class *Class, descriptor string, names []string) {
	class.Fields = append(class.Fields, &Member{Names: b.fill(names), Descriptors: []string{descriptor}})
}

func (b *builder) addMethod(class *Class, descriptor string, names []string) {
	class.Methods = append(class.Methods, &Member{Names: b.fill(names), Descriptors: []string{descriptor}})
}

// fill pads names to one per namespace; missing or empty names fall
// back to the first namespace's name.
func (b *builder) fill(names []string) []string {
	filled := make([]string, len(b.namespaces))
	copy(filled, names)
	for i := 1; i < len(filled); i++ {
		if filled[i] == "" {
			filled[i] = filled[0]
		}
	}
	return filled
}

// finalize computes per-namespace descriptors, builds the lookup
// indexes, and enforces name uniqueness.
func (b *builder) finalize(version string) (*Table, error) {
	table := &Table{
		namespaces: b.namespaces,
		classes:    b.classes,
		classIndex: make([]map[string]*Class, len(b.namespaces)),
		version:    version,
	}
	for index := range b.namespaces {
		table.classIndex[index] = make(map[string]*Class, len(b.classes))
		for _, class := range b.classes {
			name := class.Names[index]
			if name == "" {
				return nil, fmt.Errorf("class with names %v has no name in namespace %q", class.Names, b.namespaces[index])
			}
			if existing := table.classIndex[index][name]; existing != nil {
				return nil, fmt.Errorf("duplicate class %q in namespace %q", name, b.namespaces[index])
			}
			table.classIndex[index][name] = class
		}
	}

	for index := 1; index < len(b.namespaces); index++ {
		mapper := &Mapper{table: table, from: 0, to: index}
		for _, class := range b.classes {
			for _, member := range class.Fields {
				member.Descriptors = append(member.Descriptors[:index], mapper.Descriptor(member.Descriptors[0]))
			}
			for _, member := range class.Methods {
				member.Descriptors = append(member.Descriptors[:index], mapper.Descriptor(member.Descriptors[0]))
			}
		}
	}

	for _, class := range b.classes {
		var err error
		if class.fieldIndex, err = indexMembers(b.namespaces, class, class.Fields, "field"); err != nil {
			return nil, err
		}
		if class.methodIndex, err = indexMembers(b.namespaces, class, class.Methods, "method"); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func indexMembers(namespaces []string, class *Class, members []*Member, kind string) ([]map[string]*Member, error) {
	indexes := make([]map[string]*Member, len(namespaces))
	for index := range namespaces {
		indexes[index] = make(map[string]*Member, len(members))
		for _, member := range members {
			key := memberKey(member.Names[index], member.Descriptors[index])
			if indexes[index][key] != nil {
				return nil, fmt.Errorf("duplicate %s %s%s in class %q, namespace %q",
					kind, member.Names[index], member.Descriptors[index], class.Names[index], namespaces[index])
			}
			indexes[index][key] = member
		}
	}
	return indexes, nil
}
