// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the two places molt touches processes
// directly: reporting a fatal error from main before a logger exists,
// and running the external tools (decompiler, compiler) the build
// drives. Tool failures are reported as *ToolError with the exit code
// and the tail of the tool's stderr.
package process
