// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package project describes a mod project the way IDE generators see
// it: source and resource directories, library jars, and launch
// configurations.
//
// Projects and run configurations are assembled with builders and are
// immutable once built. Expensive inputs (the dependency list, a run
// configuration's classpath and arguments) are [lazy.Value] cells so a
// generator that never reads them never pays for them, and a generator
// that reads them twice pays once.
package project
