// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package remap renames every class and member of a jar from one
// mapping namespace to another.
//
// Mapping tables list a member only on the class that declares it.
// Call sites, however, name the class they were compiled against,
// which is often a subclass, and overriding methods in unmapped
// subclasses must receive the same name as the method they override.
// The hierarchy type resolves both by walking superclasses and
// interfaces of the jar being remapped and of its classpath.
package remap
