// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package maven resolves artifact coordinates to local files.
//
// A [Coordinate] names an artifact the way Maven repositories do
// (group:artifact:version[:classifier]) and maps to the conventional
// repository path. A [Resolver] owns a local cache directory laid out
// the same way; resolution checks the cache first, then asks each
// [Repository] in order, and stores the first successful download in
// the cache through a temp file and a rename.
//
// Resolution is memoized per coordinate with a lazy.Group: any number
// of concurrent callers asking for the same coordinate share a single
// download, and the same *[ResolvedArtifact] is returned to all of
// them. Different coordinates resolve in parallel. When every
// repository fails, the error is a *[ResolutionError] listing each
// repository and why it failed.
//
// Integrity checking is optional and limited to the SHA-1 sidecar
// files Maven repositories publish next to each artifact. There is no
// POM parsing and no transitive resolution: callers list every
// coordinate they need.
package maven
