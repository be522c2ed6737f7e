// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides molt's standard CBOR encoding configuration.
//
// molt uses two serialization formats with a clear boundary:
//
//   - JSON and YAML for files people read or edit: molt.yaml, IDE
//     project files, CLI output.
//   - CBOR for files only molt reads back: stage manifests next to
//     cached jars and compiled mapping table snapshots.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same logical manifest always produces identical bytes, which keeps
// cache directories diffable and reproducible across machines.
//
//	data, err := codec.Marshal(manifest)
//	err = codec.Unmarshal(data, &manifest)
//
// Types that are only ever stored as CBOR use `cbor` struct tags.
package codec
