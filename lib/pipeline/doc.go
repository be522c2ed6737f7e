// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline produces the staged forms of a platform jar:
//
//	raw -> intermediary -> named -> decompiled
//
// Each stage is derived only from the previous stage plus the mapping
// table (remap stages) or the decompiler (decompiled stage). Results
// are memoized in memory per Pipeline and cached on disk under a key
// that covers everything the output depends on, so a second run with
// unchanged inputs performs no transformation at all.
//
// On-disk layout below the cache directory:
//
//	<stage>/<key[:2]>/<key>.jar         stage output
//	<stage>/<key[:2]>/<key>.cbor        manifest (CBOR)
//	tmp/                                in-progress outputs
//
// The decompiled stage names its output <key>-sources.jar. Outputs are
// written under tmp/ and renamed into place, so readers never observe
// a partial jar. When two processes race on the same key, the first
// rename wins and the loser discards its copy.
package pipeline
