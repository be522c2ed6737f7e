// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package classfile reads and writes JVM class files (JVMS chapter 4)
// and rewrites the symbolic names inside them.
//
// Parsing keeps every structure molt does not interpret as opaque
// bytes, so a parse/write cycle reproduces the input exactly. Renaming
// never renumbers the constant pool: entries that need a new name get
// a freshly appended UTF-8 entry and the referencing structure is
// pointed at it. Bytecode operands therefore stay valid, and string
// literals that happen to share a UTF-8 entry with a class name are
// left alone.
package classfile
