// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ide

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/molt/lib/project"
)

// Generator writes one IDE's project files.
type Generator interface {
	// Name is the generator's task name ("vscode").
	Name() string

	// Generate writes the files for p under root. It reads the
	// project's lazy fields, so it may trigger dependency resolution.
	Generate(root string, p *project.Project) error
}

// Generators returns every built-in generator.
func Generators() []Generator {
	return []Generator{VSCode{}, NetBeans{}}
}

// runDirs creates each run configuration's working directory. IDEs
// refuse to launch into a directory that does not exist.
func runDirs(p *project.Project) error {
	for _, config := range p.RunConfigs() {
		if err := os.MkdirAll(config.WorkingDir(), 0o755); err != nil {
			return fmt.Errorf("creating working directory for %s: %w", config.Name(), err)
		}
	}
	return nil
}

// writeFile replaces path atomically so an IDE watching it never reads
// a partial file.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	temporary, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	temporaryPath := temporary.Name()
	defer os.Remove(temporaryPath)

	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return err
	}
	if err := temporary.Close(); err != nil {
		return err
	}
	return os.Rename(temporaryPath, path)
}
