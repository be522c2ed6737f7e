// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remap

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/bureau-foundation/molt/lib/classfile"
	"github.com/bureau-foundation/molt/lib/mapping"
)

// classNode is the part of a class the hierarchy walk needs.
type classNode struct {
	name        string
	super       string
	interfaces  []string
	isInterface bool

	// methods and fields map name+descriptor to access flags.
	methods map[string]uint16
	fields  map[string]uint16
}

func newClassNode(class *classfile.Class) (*classNode, error) {
	name, err := class.Name()
	if err != nil {
		return nil, err
	}
	super, err := class.SuperName()
	if err != nil {
		return nil, err
	}
	interfaces, err := class.InterfaceNames()
	if err != nil {
		return nil, err
	}
	node := &classNode{
		name:        name,
		super:       super,
		interfaces:  interfaces,
		isInterface: class.AccessFlags&classfile.AccInterface != 0,
		methods:     make(map[string]uint16, len(class.Methods)),
		fields:      make(map[string]uint16, len(class.Fields)),
	}
	for _, method := range class.Methods {
		methodName, descriptor, err := class.MemberName(method)
		if err != nil {
			return nil, err
		}
		node.methods[memberKey(methodName, descriptor)] = method.AccessFlags
	}
	for _, field := range class.Fields {
		fieldName, descriptor, err := class.MemberName(field)
		if err != nil {
			return nil, err
		}
		node.fields[memberKey(fieldName, descriptor)] = field.AccessFlags
	}
	return node, nil
}

func memberKey(name, descriptor string) string {
	return name + ":" + descriptor
}

// hierarchy resolves member names through the class graph. It is used
// by one Transform call on one goroutine.
type hierarchy struct {
	mapper *mapping.Mapper
	logger *slog.Logger

	// nodes holds every class seen so far, including negative entries
	// (nil) for names found nowhere.
	nodes map[string]*classNode

	// classpath indexes library jar entries by class name; they are
	// parsed on first use.
	classpath map[string]*zip.File

	methodCache map[string]string
	fieldCache  map[string]string
}

func newHierarchy(mapper *mapping.Mapper, logger *slog.Logger) *hierarchy {
	return &hierarchy{
		mapper:      mapper,
		logger:      logger,
		nodes:       make(map[string]*classNode),
		classpath:   make(map[string]*zip.File),
		methodCache: make(map[string]string),
		fieldCache:  make(map[string]string),
	}
}

func (h *hierarchy) add(node *classNode) {
	h.nodes[node.name] = node
}

// indexClasspath records the class entries of a library jar. Earlier
// jars win, as on a JVM classpath.
func (h *hierarchy) indexClasspath(reader *zip.Reader) {
	for _, file := range reader.File {
		name, ok := strings.CutSuffix(file.Name, ".class")
		if !ok || strings.HasPrefix(name, "META-INF/") {
			continue
		}
		if _, exists := h.classpath[name]; !exists {
			h.classpath[name] = file
		}
	}
}

func (h *hierarchy) node(name string) *classNode {
	if node, ok := h.nodes[name]; ok {
		return node
	}
	var node *classNode
	if file := h.classpath[name]; file != nil {
		loaded, err := loadNode(file)
		if err != nil {
			h.logger.Warn("skipping unreadable classpath class", "class", name, "error", err)
		} else {
			node = loaded
		}
	}
	h.nodes[name] = node
	return node
}

func loadNode(file *zip.File) (*classNode, error) {
	stream, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	class, err := classfile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Name, err)
	}
	return newClassNode(class)
}

// Class implements classfile.Remapper.
func (h *hierarchy) Class(name string) string { return h.mapper.Class(name) }

// Descriptor implements classfile.Remapper.
func (h *hierarchy) Descriptor(descriptor string) string { return h.mapper.Descriptor(descriptor) }

// Signature implements classfile.Remapper.
func (h *hierarchy) Signature(signature string) string { return h.mapper.Signature(signature) }

// Method returns the mapped name of the method that owner.name
// resolves to: the first mapped declaration on owner, its superclass
// chain, or its superinterfaces. Private declarations above owner are
// not inherited. Static methods of a superclass are, but static
// methods of an interface are reachable only through the interface
// itself.
func (h *hierarchy) Method(owner, name, descriptor string) string {
	if strings.HasPrefix(name, "<") || strings.HasPrefix(owner, "[") {
		return name
	}
	key := owner + "." + memberKey(name, descriptor)
	if mapped, ok := h.methodCache[key]; ok {
		return mapped
	}
	mapped := h.walk(owner, func(class string, direct bool) (string, bool) {
		if node := h.node(class); node != nil && !direct {
			access, declared := node.methods[memberKey(name, descriptor)]
			if declared && access&classfile.AccPrivate != 0 {
				return "", false
			}
			if declared && node.isInterface && access&classfile.AccStatic != 0 {
				return "", false
			}
		}
		return h.mapper.Method(class, name, descriptor)
	})
	if mapped == "" {
		mapped = name
	}
	h.methodCache[key] = mapped
	return mapped
}

// Field resolves like Method. A declaration that shadows the field
// stops the walk even when it has no mapping.
func (h *hierarchy) Field(owner, name, descriptor string) string {
	if strings.HasPrefix(owner, "[") {
		return name
	}
	key := owner + "." + memberKey(name, descriptor)
	if mapped, ok := h.fieldCache[key]; ok {
		return mapped
	}
	stop := false
	mapped := h.walk(owner, func(class string, direct bool) (string, bool) {
		if stop {
			return "", false
		}
		if mapped, ok := h.mapper.Field(class, name, descriptor); ok {
			return mapped, true
		}
		if node := h.node(class); node != nil {
			if _, declared := node.fields[memberKey(name, descriptor)]; declared {
				stop = true
			}
		}
		return "", false
	})
	if mapped == "" {
		mapped = name
	}
	h.fieldCache[key] = mapped
	return mapped
}

// walk visits owner, then its superclasses, then every interface
// reachable from them, calling visit until it reports a match. direct
// is true only for owner itself.
func (h *hierarchy) walk(owner string, visit func(class string, direct bool) (string, bool)) string {
	seen := make(map[string]bool)
	var interfaces []string
	for class := owner; class != "" && !seen[class]; {
		seen[class] = true
		if mapped, ok := visit(class, class == owner); ok {
			return mapped
		}
		node := h.node(class)
		if node == nil {
			break
		}
		interfaces = append(interfaces, node.interfaces...)
		class = node.super
	}
	for len(interfaces) > 0 {
		class := interfaces[0]
		interfaces = interfaces[1:]
		if seen[class] {
			continue
		}
		seen[class] = true
		if mapped, ok := visit(class, false); ok {
			return mapped
		}
		if node := h.node(class); node != nil {
			interfaces = append(interfaces, node.interfaces...)
		}
	}
	return ""
}
