// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mapping

import (
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/zeebo/blake3"
)

// Merge joins two tables on a namespace they share. The result has
// every namespace of base followed by the namespaces of extension
// other than the shared one. Entries present in only one table fall
// back to the shared-namespace name in the other table's columns.
//
// The usual call joins an intermediary publication (obfuscated,
// intermediary) with a named one (intermediary, named) on
// Intermediary.
func Merge(base, extension *Table, shared string) (*Table, error) {
	baseShared, ok := base.NamespaceIndex(shared)
	if !ok {
		return nil, fmt.Errorf("merge: base table has no namespace %q", shared)
	}
	extensionShared, ok := extension.NamespaceIndex(shared)
	if !ok {
		return nil, fmt.Errorf("merge: extension table has no namespace %q", shared)
	}

	// Extension columns that survive, in order.
	var extra []int
	namespaces := slices.Clone(base.namespaces)
	for index, namespace := range extension.namespaces {
		if index == extensionShared {
			continue
		}
		if slices.Contains(namespaces, namespace) {
			return nil, fmt.Errorf("merge: namespace %q exists in both tables", namespace)
		}
		extra = append(extra, index)
		namespaces = append(namespaces, namespace)
	}

	merged, err := newBuilder(namespaces)
	if err != nil {
		return nil, err
	}

	// sharedToFirst maps descriptors written in the shared namespace
	// back to base column 0, for members only the extension knows.
	sharedToFirst := &Mapper{table: base, from: baseShared, to: 0}

	// row assembles one entry's names. Base columns of an entry the
	// base table lacks repeat the shared name, except column 0, which
	// is firstName.
	row := func(baseNames, extensionNames []string, sharedName, firstName string) []string {
		names := make([]string, 0, len(namespaces))
		if baseNames != nil {
			names = append(names, baseNames...)
		} else {
			for range base.namespaces {
				names = append(names, sharedName)
			}
			names[0] = firstName
		}
		for _, index := range extra {
			if extensionNames != nil {
				names = append(names, extensionNames[index])
			} else {
				names = append(names, sharedName)
			}
		}
		return names
	}

	for _, baseClass := range base.classes {
		sharedName := baseClass.Names[baseShared]
		extensionClass := extension.classIndex[extensionShared][sharedName]

		var extensionNames []string
		if extensionClass != nil {
			extensionNames = extensionClass.Names
		}
		class := merged.addClass(row(baseClass.Names, extensionNames, sharedName, ""))

		for _, field := range baseClass.Fields {
			var names []string
			if extensionClass != nil {
				if match := extensionClass.Field(extensionShared, field.Names[baseShared], field.Descriptors[baseShared]); match != nil {
					names = match.Names
				}
			}
			merged.addField(class, field.Descriptors[0], row(field.Names, names, field.Names[baseShared], ""))
		}
		for _, method := range baseClass.Methods {
			var names []string
			if extensionClass != nil {
				if match := extensionClass.Method(extensionShared, method.Names[baseShared], method.Descriptors[baseShared]); match != nil {
					names = match.Names
				}
			}
			merged.addMethod(class, method.Descriptors[0], row(method.Names, names, method.Names[baseShared], ""))
		}

		if extensionClass == nil {
			continue
		}
		for _, field := range extensionClass.Fields {
			if baseClass.Field(baseShared, field.Names[extensionShared], field.Descriptors[extensionShared]) != nil {
				continue
			}
			descriptor := sharedToFirst.Descriptor(field.Descriptors[extensionShared])
			merged.addField(class, descriptor, row(nil, field.Names, field.Names[extensionShared], field.Names[extensionShared]))
		}
		for _, method := range extensionClass.Methods {
			if baseClass.Method(baseShared, method.Names[extensionShared], method.Descriptors[extensionShared]) != nil {
				continue
			}
			descriptor := sharedToFirst.Descriptor(method.Descriptors[extensionShared])
			merged.addMethod(class, descriptor, row(nil, method.Names, method.Names[extensionShared], method.Names[extensionShared]))
		}
	}

	for _, extensionClass := range extension.classes {
		sharedName := extensionClass.Names[extensionShared]
		if base.classIndex[baseShared][sharedName] != nil {
			continue
		}
		class := merged.addClass(row(nil, extensionClass.Names, sharedName, sharedToFirst.Class(sharedName)))
		for _, field := range extensionClass.Fields {
			merged.addField(class, sharedToFirst.Descriptor(field.Descriptors[extensionShared]),
				row(nil, field.Names, field.Names[extensionShared], field.Names[extensionShared]))
		}
		for _, method := range extensionClass.Methods {
			merged.addMethod(class, sharedToFirst.Descriptor(method.Descriptors[extensionShared]),
				row(nil, method.Names, method.Names[extensionShared], method.Names[extensionShared]))
		}
	}

	hasher := blake3.New()
	for _, part := range []string{base.version, extension.version, shared} {
		hasher.Write([]byte(part))
		hasher.Write([]byte{0})
	}
	return merged.finalize(hex.EncodeToString(hasher.Sum(nil)))
}
