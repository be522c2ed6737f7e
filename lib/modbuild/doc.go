// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package modbuild compiles a mod and packages it for distribution.
//
// A build runs in three steps:
//
//  1. Compile: every .java file under the project's source roots is
//     passed to an external compiler (javac by default) with the
//     named platform jar and the mod's dependencies on the classpath.
//  2. Package: compiled classes and resource directories are written
//     to a jar in the named namespace.
//  3. Remap: the jar is rewritten from the named to the intermediary
//     namespace, the form loaders expect at runtime, and written to
//     <build>/libs/<modid>-<version>.jar.
//
// Intermediate files live under <build>/classes and <build>/tmp and are
// replaced on every build.
package modbuild
