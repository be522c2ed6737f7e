// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package modbuild

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bureau-foundation/molt/lib/clock"
	"github.com/bureau-foundation/molt/lib/mapping"
	"github.com/bureau-foundation/molt/lib/process"
	"github.com/bureau-foundation/molt/lib/project"
	"github.com/bureau-foundation/molt/lib/remap"
)

// DefaultCompiler is used when Config.Compiler is empty.
var DefaultCompiler = []string{"javac"}

// ErrNoSources is returned when the source roots contain no .java
// files.
var ErrNoSources = errors.New("no Java sources found")

// Config describes one mod build.
type Config struct {
	ModID   string
	Version string

	// Project supplies source roots, resource directories, the
	// dependency jars, and the Java version.
	Project *project.Project

	// Platform is the named platform jar the sources compile against.
	Platform string

	// Mappings must have the named and intermediary namespaces.
	Mappings *mapping.Table

	// BuildDir receives classes/, tmp/, and libs/.
	BuildDir string

	// Compiler is the compiler command, program first. Compiler
	// options are appended after it.
	Compiler []string

	Clock  clock.Clock
	Logger *slog.Logger
}

// Result describes a finished build.
type Result struct {
	// Jar is the distributable, intermediary-namespace jar.
	Jar string

	// NamedJar is the packaged jar before remapping.
	NamedJar string

	Sources int
	Entries int
}

// Build compiles, packages, and remaps the mod described by config.
func Build(ctx context.Context, config Config) (*Result, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	start := clk.Now()

	dependencies, err := config.Project.Dependencies()
	if err != nil {
		return nil, fmt.Errorf("resolving dependencies: %w", err)
	}
	classpath := []string{config.Platform}
	for _, dependency := range dependencies {
		if dependency.Jar != config.Platform {
			classpath = append(classpath, dependency.Jar)
		}
	}

	sources, err := findSources(config.Project)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	classesDir := filepath.Join(config.BuildDir, "classes")
	temporaryDir := filepath.Join(config.BuildDir, "tmp")
	libsDir := filepath.Join(config.BuildDir, "libs")
	for _, directory := range []string{classesDir, temporaryDir} {
		if err := os.RemoveAll(directory); err != nil {
			return nil, fmt.Errorf("cleaning %s: %w", directory, err)
		}
	}
	for _, directory := range []string{classesDir, temporaryDir, libsDir} {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", directory, err)
		}
	}

	if err := compile(ctx, config, sources, classpath, classesDir, temporaryDir, logger); err != nil {
		return nil, err
	}

	baseName := config.ModID + "-" + config.Version
	namedJar := filepath.Join(temporaryDir, baseName+"-named.jar")
	roots := append([]string{classesDir}, config.Project.ResourcePaths()...)
	entries, err := packageJar(namedJar, roots, clk.Now())
	if err != nil {
		return nil, fmt.Errorf("packaging: %w", err)
	}

	remapper, err := remap.New(config.Mappings, mapping.Named, mapping.Intermediary)
	if err != nil {
		return nil, err
	}
	remapper.Logger = logger
	remapped := filepath.Join(temporaryDir, baseName+".jar")
	if err := remapper.Transform(ctx, namedJar, remapped, classpath); err != nil {
		return nil, fmt.Errorf("remapping to intermediary: %w", err)
	}
	output := filepath.Join(libsDir, baseName+".jar")
	if err := os.Rename(remapped, output); err != nil {
		return nil, fmt.Errorf("writing %s: %w", output, err)
	}

	logger.Info("mod built",
		"mod", config.ModID,
		"jar", output,
		"sources", len(sources),
		"entries", entries,
		"duration", clock.Since(clk, start),
	)
	return &Result{Jar: output, NamedJar: namedJar, Sources: len(sources), Entries: entries}, nil
}

func (c *Config) validate() error {
	switch {
	case c.ModID == "":
		return errors.New("modbuild: mod id is required")
	case c.Version == "":
		return errors.New("modbuild: version is required")
	case c.Project == nil:
		return errors.New("modbuild: project is required")
	case c.Platform == "":
		return errors.New("modbuild: platform jar is required")
	case c.Mappings == nil:
		return errors.New("modbuild: mappings are required")
	case c.BuildDir == "":
		return errors.New("modbuild: build directory is required")
	}
	if strings.ContainsAny(c.ModID+c.Version, `/\`) {
		return fmt.Errorf("modbuild: mod id %q and version %q must not contain path separators", c.ModID, c.Version)
	}
	return nil
}

// findSources returns every .java file under the project's source
// roots, sorted. Missing roots are skipped.
func findSources(p *project.Project) ([]string, error) {
	var sources []string
	for _, name := range p.SourceNames() {
		root := p.SourcePaths()[name]
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				if path == root && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				return err
			}
			if !entry.IsDir() && strings.HasSuffix(path, ".java") {
				sources = append(sources, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning source root %s: %w", root, err)
		}
	}
	slices.Sort(sources)
	return sources, nil
}

// compile runs the compiler with the source list in an argument file,
// which keeps large projects under the platform's command line limit.
func compile(ctx context.Context, config Config, sources, classpath []string, classesDir, temporaryDir string, logger *slog.Logger) error {
	argumentFile := filepath.Join(temporaryDir, "sources.txt")
	var list strings.Builder
	for _, source := range sources {
		list.WriteString(quoteArgument(source))
		list.WriteByte('\n')
	}
	if err := os.WriteFile(argumentFile, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("writing source list: %w", err)
	}

	command := config.Compiler
	if len(command) == 0 {
		command = DefaultCompiler
	}
	release := config.Project.JavaRelease()
	args := append(slices.Clone(command),
		"-d", classesDir,
		"-classpath", strings.Join(classpath, string(os.PathListSeparator)),
		"-source", release,
		"-target", release,
		"-encoding", "UTF-8",
		"@"+argumentFile,
	)
	logger.Info("compiling", "mod", config.ModID, "sources", len(sources), "release", release)
	_, err := process.Tool{Name: "compiler", Args: args, Logger: logger}.Run(ctx)
	return err
}

// quoteArgument quotes a path for a javac argument file, where
// whitespace separates arguments and backslashes escape.
func quoteArgument(path string) string {
	if !strings.ContainsAny(path, " \t\"'\\#") {
		return path
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(path) + `"`
}
