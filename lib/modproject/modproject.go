// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package modproject

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/molt/lib/clock"
	"github.com/bureau-foundation/molt/lib/lazy"
	"github.com/bureau-foundation/molt/lib/mapping"
	"github.com/bureau-foundation/molt/lib/maven"
	"github.com/bureau-foundation/molt/lib/modbuild"
	"github.com/bureau-foundation/molt/lib/pipeline"
	"github.com/bureau-foundation/molt/lib/project"
	"github.com/bureau-foundation/molt/lib/task"
)

// Main classes of the loader's development launchers.
const (
	ClientMainClass = "net.fabricmc.loader.launch.knot.KnotClient"
	ServerMainClass = "net.fabricmc.loader.launch.knot.KnotServer"
)

// developmentVMArgs tell the loader it runs from a development
// classpath rather than an installed profile.
var developmentVMArgs = []string{"-Dfabric.development=true"}

// Project is one mod project. It is safe for concurrent use.
type Project struct {
	config Config
	logger *slog.Logger
	clock  clock.Clock
	output io.Writer

	ctx    context.Context
	cancel context.CancelFunc

	mappings     *lazy.Value[*mapping.Table]
	dependencies *lazy.Value[[]*maven.ResolvedArtifact]
	pipeline     *pipeline.Pipeline
	tasks        *task.Registry
}

// New validates config and assembles a Project. Nothing is resolved
// until it is needed.
func New(config Config) (*Project, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("mod project: %w", err)
	}
	config.Sources = maps.Clone(config.Sources)
	config.Resources = slices.Clone(config.Resources)
	config.Mappings = slices.Clone(config.Mappings)
	config.Dependencies = slices.Clone(config.Dependencies)
	config.Repositories = slices.Clone(config.Repositories)

	p := &Project{
		config: config,
		logger: config.Logger,
		clock:  config.Clock,
		output: &lockedWriter{w: config.Output},
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	p.logger = p.logger.With("mod", config.ModID)
	if p.clock == nil {
		p.clock = clock.Real()
	}
	if config.Output == nil {
		p.output = io.Discard
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.mappings = lazy.New(p.loadMappings)
	p.dependencies = lazy.New(p.resolveDependencies)

	stages, err := pipeline.New(pipeline.Config{
		CacheDir:   config.StageCache,
		Raw:        config.Platform,
		Mappings:   p.mappings,
		Classpath:  lazy.New(p.dependencyJars),
		Remapper:   config.Remapper,
		Decompiler: config.Decompiler,
		Clock:      p.clock,
		Logger:     p.logger,
	})
	if err != nil {
		p.cancel()
		return nil, err
	}
	p.pipeline = stages

	p.tasks = &task.Registry{}
	if err := p.registerTasks(); err != nil {
		p.cancel()
		return nil, err
	}
	return p, nil
}

// Close cancels resolutions and transformations still running on the
// project's behalf.
func (p *Project) Close() {
	p.cancel()
}

// ModID returns the mod identifier.
func (p *Project) ModID() string { return p.config.ModID }

// Pipeline returns the platform jar pipeline.
func (p *Project) Pipeline() *pipeline.Pipeline { return p.pipeline }

// Tasks returns the project's task registry.
func (p *Project) Tasks() *task.Registry { return p.tasks }

// Mappings returns the merged mapping table, loading it on first use.
func (p *Project) Mappings(ctx context.Context) (*mapping.Table, error) {
	return p.mappings.Wait(ctx)
}

// Dependencies returns the resolved mod dependencies followed by the
// loader, if one is configured.
func (p *Project) Dependencies(ctx context.Context) ([]*maven.ResolvedArtifact, error) {
	return p.dependencies.Wait(ctx)
}

func (p *Project) loadMappings() (*mapping.Table, error) {
	artifacts, err := p.config.Resolver.ResolveAll(p.ctx, p.config.Mappings, p.config.Repositories)
	if err != nil {
		return nil, fmt.Errorf("resolving mappings: %w", err)
	}

	key, err := snapshotKey(artifacts)
	if err != nil {
		return nil, err
	}
	cache := &mapping.Cache{
		Dir:    filepath.Join(p.config.StageCache, "mappings"),
		Codec:  p.config.SnapshotCodec,
		Logger: p.logger,
	}
	return cache.Load(key, func() (*mapping.Table, error) {
		start := p.clock.Now()
		table, err := mapping.ReadFile(artifacts[0].Path)
		if err != nil {
			return nil, err
		}
		for _, artifact := range artifacts[1:] {
			extension, err := mapping.ReadFile(artifact.Path)
			if err != nil {
				return nil, err
			}
			if table, err = mapping.Merge(table, extension, mapping.Intermediary); err != nil {
				return nil, fmt.Errorf("merging %s: %w", artifact.Coordinate, err)
			}
		}
		p.logger.Info("mappings loaded",
			"namespaces", table.Namespaces(),
			"classes", len(table.Classes()),
			"duration", clock.Since(p.clock, start),
		)
		return table, nil
	})
}

// snapshotKey fingerprints the mapping source files in order, so any
// change to a publication or to their order selects a new snapshot.
func snapshotKey(artifacts []*maven.ResolvedArtifact) (string, error) {
	hasher := blake3.New()
	for _, artifact := range artifacts {
		fingerprint, err := pipeline.HashFile(artifact.Path)
		if err != nil {
			return "", fmt.Errorf("fingerprinting %s: %w", artifact.Coordinate, err)
		}
		hasher.Write(fingerprint[:])
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// dependencyJars is the decompiler's library classpath: the resolved
// dependency jars in declaration order, loader last.
func (p *Project) dependencyJars() ([]string, error) {
	artifacts, err := p.dependencies.Get()
	if err != nil {
		return nil, err
	}
	jars := make([]string, len(artifacts))
	for i, artifact := range artifacts {
		jars[i] = artifact.Path
	}
	return jars, nil
}

func (p *Project) resolveDependencies() ([]*maven.ResolvedArtifact, error) {
	coordinates := slices.Clone(p.config.Dependencies)
	if p.config.HasLoader() {
		coordinates = append(coordinates, p.config.Loader)
	}
	artifacts, err := p.config.Resolver.ResolveAll(p.ctx, coordinates, p.config.Repositories)
	if err != nil {
		return nil, fmt.Errorf("resolving dependencies: %w", err)
	}
	return artifacts, nil
}

// RunConfigs returns the client and server launch configurations. The
// classpath is the named platform jar, the dependencies, and the
// loader, computed on first use with ctx.
func (p *Project) RunConfigs(ctx context.Context) ([]*project.RunConfig, error) {
	classpath := func() ([]string, error) {
		named, err := p.pipeline.Get(ctx, pipeline.Named)
		if err != nil {
			return nil, err
		}
		dependencies, err := p.Dependencies(ctx)
		if err != nil {
			return nil, err
		}
		paths := []string{named.Path}
		for _, dependency := range dependencies {
			paths = append(paths, dependency.Path)
		}
		return paths, nil
	}
	runDir := filepath.Join(p.config.ProjectDir, "run")

	client, err := project.NewRunConfig().
		Name("client").
		MainClass(ClientMainClass).
		WorkingDir(runDir).
		VMArgs(developmentVMArgs...).
		ClasspathFunc(classpath).
		ResourcePaths(p.config.Resources...).
		Build()
	if err != nil {
		return nil, err
	}
	server, err := project.NewRunConfig().
		Name("server").
		MainClass(ServerMainClass).
		WorkingDir(runDir).
		VMArgs(developmentVMArgs...).
		Args("nogui").
		ClasspathFunc(classpath).
		ResourcePaths(p.config.Resources...).
		Build()
	if err != nil {
		return nil, err
	}
	return []*project.RunConfig{client, server}, nil
}

// IDEProject returns the project model IDE generators consume. Its
// dependencies are the named platform jar (with the decompiled sources
// when a decompiler is configured) followed by the resolved
// dependencies.
func (p *Project) IDEProject(ctx context.Context) (*project.Project, error) {
	runConfigs, err := p.RunConfigs(ctx)
	if err != nil {
		return nil, err
	}
	return project.NewProject().
		Name(p.config.ModID).
		DependenciesFunc(func() ([]project.Dependency, error) {
			return p.ideDependencies(ctx)
		}).
		RunConfigs(runConfigs...).
		SourcePaths(p.config.Sources).
		ResourcePaths(p.config.Resources...).
		JavaVersion(p.javaVersion()).
		Build()
}

func (p *Project) ideDependencies(ctx context.Context) ([]project.Dependency, error) {
	named, err := p.pipeline.Get(ctx, pipeline.Named)
	if err != nil {
		return nil, err
	}
	platform := project.Dependency{Jar: named.Path}
	if p.config.Decompiler != nil {
		decompiled, err := p.pipeline.Get(ctx, pipeline.Decompiled)
		if err != nil {
			return nil, err
		}
		platform.Sources = decompiled.Path
	}

	artifacts, err := p.Dependencies(ctx)
	if err != nil {
		return nil, err
	}
	dependencies := []project.Dependency{platform}
	for _, artifact := range artifacts {
		dependencies = append(dependencies, project.DependencyFromArtifact(artifact))
	}
	return dependencies, nil
}

// Build compiles the mod against the named platform jar and writes
// the intermediary jar to <build>/libs.
func (p *Project) Build(ctx context.Context) (*modbuild.Result, error) {
	named, err := p.pipeline.Get(ctx, pipeline.Named)
	if err != nil {
		return nil, err
	}
	table, err := p.Mappings(ctx)
	if err != nil {
		return nil, err
	}
	// Build needs only the binary jars, so skip the decompiled sources.
	model, err := project.NewProject().
		Name(p.config.ModID).
		DependenciesFunc(func() ([]project.Dependency, error) {
			artifacts, err := p.Dependencies(ctx)
			if err != nil {
				return nil, err
			}
			dependencies := make([]project.Dependency, 0, len(artifacts))
			for _, artifact := range artifacts {
				dependencies = append(dependencies, project.DependencyFromArtifact(artifact))
			}
			return dependencies, nil
		}).
		SourcePaths(p.config.Sources).
		ResourcePaths(p.config.Resources...).
		JavaVersion(p.javaVersion()).
		Build()
	if err != nil {
		return nil, err
	}
	return modbuild.Build(ctx, modbuild.Config{
		ModID:    p.config.ModID,
		Version:  p.config.Version,
		Project:  model,
		Platform: named.Path,
		Mappings: table,
		BuildDir: p.config.buildDir(),
		Compiler: p.config.Compiler,
		Clock:    p.clock,
		Logger:   p.logger,
	})
}

func (p *Project) javaVersion() int {
	if p.config.JavaVersion > 0 {
		return p.config.JavaVersion
	}
	return project.DefaultJavaVersion
}

// lockedWriter serializes writes from concurrently running tasks.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(data []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(data)
}
