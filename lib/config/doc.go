// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads molt.yaml, the project file that describes a
// mod: its identity, the platform jar and mappings it builds against,
// the repositories to resolve from, and the tools molt runs.
//
// Configuration comes from a single file, found by [Find]: the
// MOLT_CONFIG environment variable if set, otherwise molt.yaml in the
// project directory. The file is merged over [Default], so it only
// needs the fields that differ.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${PROJECT_DIR} (the directory containing the file), and
// ${VAR:-default} patterns are expanded. Relative paths are resolved
// against the project directory. No other environment variables
// override config values.
//
// Key exports:
//
//   - [Config] -- master struct, one field per molt.yaml section
//   - [Default] -- returns a Config with every default filled in
//   - [Find] and [LoadFile] -- locating and loading the file
//   - [Config.Validate] -- reports every problem at once
package config
