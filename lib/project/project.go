// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"maps"
	"slices"
	"strconv"

	"github.com/bureau-foundation/molt/lib/lazy"
	"github.com/bureau-foundation/molt/lib/maven"
)

// Defaults applied by NewProject.
const (
	DefaultName        = "MoltProject"
	DefaultJavaVersion = 8
)

// Dependency is a library jar on the project's compile classpath.
type Dependency struct {
	// Jar is the library's class jar.
	Jar string

	// Sources is the matching sources jar, or empty.
	Sources string
}

// DependencyFromArtifact converts a resolver result.
func DependencyFromArtifact(artifact *maven.ResolvedArtifact) Dependency {
	return Dependency{Jar: artifact.Path, Sources: artifact.SourcesPath}
}

// Project is the IDE-facing view of a mod project.
type Project struct {
	name          string
	dependencies  *lazy.Value[[]Dependency]
	runConfigs    []*RunConfig
	sourcePaths   map[string]string
	resourcePaths []string
	javaVersion   int
}

// Name is the project name IDEs display.
func (p *Project) Name() string { return p.name }

// Dependencies returns the library jars, computing them on first use.
// Every caller shares one computation.
func (p *Project) Dependencies() ([]Dependency, error) {
	dependencies, err := p.dependencies.Get()
	if err != nil {
		return nil, err
	}
	return slices.Clone(dependencies), nil
}

// RunConfigs returns the launch configurations in declaration order.
func (p *Project) RunConfigs() []*RunConfig { return slices.Clone(p.runConfigs) }

// SourcePaths maps source root names to directories.
func (p *Project) SourcePaths() map[string]string { return maps.Clone(p.sourcePaths) }

// SourceNames returns the source root names in sorted order.
func (p *Project) SourceNames() []string {
	return slices.Sorted(maps.Keys(p.sourcePaths))
}

// ResourcePaths returns the resource directories.
func (p *Project) ResourcePaths() []string { return slices.Clone(p.resourcePaths) }

// JavaVersion is the language level as a feature release number
// (8, 17, 21).
func (p *Project) JavaVersion() int { return p.javaVersion }

// JavaRelease formats JavaVersion the way tools expect it: "1.8" for
// releases before 9, the bare number after.
func (p *Project) JavaRelease() string {
	if p.javaVersion < 9 {
		return "1." + strconv.Itoa(p.javaVersion)
	}
	return strconv.Itoa(p.javaVersion)
}

// ProjectBuilder assembles a Project. Start with NewProject.
type ProjectBuilder struct {
	name          string
	dependencies  func() ([]Dependency, error)
	runConfigs    []*RunConfig
	sourcePaths   map[string]string
	resourcePaths []string
	javaVersion   int
}

// NewProject returns a builder with the default name and Java version
// and no dependencies, run configurations, or paths.
func NewProject() *ProjectBuilder {
	return &ProjectBuilder{
		name:         DefaultName,
		dependencies: constant[Dependency](nil),
		javaVersion:  DefaultJavaVersion,
	}
}

// Name sets the project name. Empty fails Build.
func (b *ProjectBuilder) Name(name string) *ProjectBuilder {
	b.name = name
	return b
}

// Dependencies sets a fixed dependency list.
func (b *ProjectBuilder) Dependencies(dependencies ...Dependency) *ProjectBuilder {
	b.dependencies = constant(dependencies)
	return b
}

// DependenciesFunc defers computing the dependency list until a
// generator reads it.
func (b *ProjectBuilder) DependenciesFunc(compute func() ([]Dependency, error)) *ProjectBuilder {
	b.dependencies = compute
	return b
}

// RunConfigs replaces the launch configurations.
func (b *ProjectBuilder) RunConfigs(configs ...*RunConfig) *ProjectBuilder {
	b.runConfigs = configs
	return b
}

// SourcePaths replaces every source root. Keys are root names.
func (b *ProjectBuilder) SourcePaths(paths map[string]string) *ProjectBuilder {
	b.sourcePaths = paths
	return b
}

// SourcePath replaces every source root with a single root named
// "src".
func (b *ProjectBuilder) SourcePath(path string) *ProjectBuilder {
	b.sourcePaths = map[string]string{"src": path}
	return b
}

// ResourcePaths replaces the resource directories.
func (b *ProjectBuilder) ResourcePaths(paths ...string) *ProjectBuilder {
	b.resourcePaths = paths
	return b
}

// JavaVersion sets the language level. Below 1 fails Build.
func (b *ProjectBuilder) JavaVersion(version int) *ProjectBuilder {
	b.javaVersion = version
	return b
}

// Build validates the builder and returns a Project that shares no
// mutable state with it.
func (b *ProjectBuilder) Build() (*Project, error) {
	if b.name == "" {
		return nil, &ValidationError{Type: "Project", Field: "Name"}
	}
	if b.javaVersion < 1 {
		return nil, &ValidationError{Type: "Project", Field: "JavaVersion", Reason: "must be at least 1, got " + strconv.Itoa(b.javaVersion)}
	}
	for _, config := range b.runConfigs {
		if config == nil {
			return nil, &ValidationError{Type: "Project", Field: "RunConfigs", Reason: "contains a nil entry"}
		}
	}
	sourcePaths := maps.Clone(b.sourcePaths)
	if sourcePaths == nil {
		sourcePaths = map[string]string{}
	}
	return &Project{
		name:          b.name,
		dependencies:  lazy.New(b.dependencies),
		runConfigs:    slices.Clone(b.runConfigs),
		sourcePaths:   sourcePaths,
		resourcePaths: slices.Clone(b.resourcePaths),
		javaVersion:   b.javaVersion,
	}, nil
}
