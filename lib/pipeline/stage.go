// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"

	"github.com/bureau-foundation/molt/lib/mapping"
)

// Stage identifies a form of the platform jar. Stages are totally
// ordered; each is derived from the one before it.
type Stage int

const (
	Raw Stage = iota
	Intermediary
	Named
	Decompiled
)

var stageNames = [...]string{
	Raw:          "raw",
	Intermediary: "intermediary",
	Named:        "named",
	Decompiled:   "decompiled",
}

// Stages returns every stage in order.
func Stages() []Stage {
	return []Stage{Raw, Intermediary, Named, Decompiled}
}

func (s Stage) String() string {
	if s.valid() {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ParseStage parses a stage name as printed by String.
func ParseStage(name string) (Stage, error) {
	for stage, stageName := range stageNames {
		if stageName == name {
			return Stage(stage), nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q (want raw, intermediary, named, or decompiled)", name)
}

func (s Stage) valid() bool {
	return s >= Raw && s <= Decompiled
}

// namespaces returns the remap direction that produces s, or ok false
// for stages that are not produced by remapping.
func (s Stage) namespaces() (from, to string, ok bool) {
	switch s {
	case Intermediary:
		return mapping.Obfuscated, mapping.Intermediary, true
	case Named:
		return mapping.Intermediary, mapping.Named, true
	}
	return "", "", false
}

// StagedJar is a stage output on disk. Values are shared between
// callers and must not be modified.
type StagedJar struct {
	Stage Stage

	// Path is the jar file. For Raw it is the source file itself.
	Path string

	// Fingerprint is the content hash of the file at Path.
	Fingerprint Fingerprint
}
