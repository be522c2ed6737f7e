// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mapping holds the multi-namespace symbol table that drives
// jar remapping.
//
// A [Table] lists classes, fields, and methods with one name per
// namespace. The namespaces molt cares about are [Obfuscated] (the
// names in the shipped platform jar), [Intermediary] (stable,
// machine-generated names), and [Named] (human-readable names mod
// source is written against). Mapping files call the obfuscated
// namespace "official"; the parser reads it as [Obfuscated].
//
// Tables are built once by [ParseTiny] (Tiny v1 and v2), optionally
// joined with [Merge], and never modified afterwards, so they are
// shared freely between goroutines. Within a namespace, class names
// are unique and member names are unique per owner and descriptor;
// a file that violates this is rejected at load time.
//
// [Table.Version] is a content fingerprint used in cache keys: two
// tables with the same version map every symbol identically.
//
// Loading a large table is not free, so [Cache] stores parsed tables
// as compressed CBOR snapshots keyed by the source fingerprint.
package mapping
