// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package modproject

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/bureau-foundation/molt/lib/clock"
	"github.com/bureau-foundation/molt/lib/compress"
	"github.com/bureau-foundation/molt/lib/config"
	"github.com/bureau-foundation/molt/lib/decompile"
	"github.com/bureau-foundation/molt/lib/maven"
	"github.com/bureau-foundation/molt/lib/pipeline"
)

// Config is the capability set of a mod project. The zero value of an
// optional field selects the default behaviour.
type Config struct {
	ModID         string
	Version       string
	TargetVersion string

	// JavaVersion defaults to project.DefaultJavaVersion.
	JavaVersion int

	// ProjectDir is the root IDE files and run directories are
	// written under. Required.
	ProjectDir string

	// BuildDir defaults to <ProjectDir>/build.
	BuildDir string

	// Sources maps source root names to directories.
	Sources   map[string]string
	Resources []string

	// Platform locates the obfuscated platform jar. Required.
	Platform pipeline.RawSource

	// Mappings are resolved in order. The first publication must carry
	// the obfuscated and intermediary namespaces; each later one is
	// merged on intermediary.
	Mappings []maven.Coordinate

	// Loader is added to the runtime classpath. The zero Coordinate
	// means no loader.
	Loader maven.Coordinate

	Dependencies []maven.Coordinate

	// Decompiler produces the decompiled stage and the sources attached
	// to the named jar in IDE projects. Nil disables both.
	Decompiler decompile.Decompiler

	Resolver     *maven.Resolver
	Repositories []maven.Repository

	// StageCache is the pipeline cache root. Mapping snapshots live in
	// its mappings/ subdirectory.
	StageCache    string
	SnapshotCodec compress.Codec

	// Remapper overrides the pipeline's remap stage transformer.
	Remapper pipeline.TransformerFactory

	// Compiler defaults to modbuild.DefaultCompiler.
	Compiler []string

	// Output receives the paths tasks produce. Nil discards them.
	Output io.Writer

	Clock  clock.Clock
	Logger *slog.Logger
}

// HasLoader reports whether a loader coordinate is configured.
func (c *Config) HasLoader() bool {
	return c.Loader != maven.Coordinate{}
}

func (c *Config) validate() error {
	var errs []error
	if c.ModID == "" {
		errs = append(errs, errors.New("mod id is required"))
	}
	if c.Version == "" {
		errs = append(errs, errors.New("mod version is required"))
	}
	if c.ProjectDir == "" {
		errs = append(errs, errors.New("project directory is required"))
	}
	if c.Platform == nil {
		errs = append(errs, errors.New("platform jar source is required"))
	}
	if len(c.Mappings) == 0 {
		errs = append(errs, errors.New("at least one mapping coordinate is required"))
	}
	if c.Resolver == nil {
		errs = append(errs, errors.New("resolver is required"))
	}
	if c.StageCache == "" {
		errs = append(errs, errors.New("stage cache directory is required"))
	}
	return errors.Join(errs...)
}

// FromConfig builds the capability set described by a validated
// project file: repositories with the configured timeout, a resolver
// over the local repository, parsed coordinates, and the decompiler
// process when a command is configured.
func FromConfig(file *config.Config, logger *slog.Logger) (Config, error) {
	client := &http.Client{Timeout: file.ResolverTimeout()}
	repositories, err := maven.RepositoriesFromURLs(file.Repositories, client)
	if err != nil {
		return Config{}, err
	}
	resolver, err := maven.NewResolver(maven.Options{
		CacheDir:        file.Paths.LocalRepository,
		VerifyChecksums: file.Resolver.VerifyChecksums,
		FetchSources:    file.Resolver.FetchSources,
		Logger:          logger,
	})
	if err != nil {
		return Config{}, err
	}

	mappings, err := parseCoordinates("mappings", file.Mappings)
	if err != nil {
		return Config{}, err
	}
	dependencies, err := parseCoordinates("dependencies", file.Dependencies)
	if err != nil {
		return Config{}, err
	}

	result := Config{
		ModID:         file.Mod.ID,
		Version:       file.Mod.Version,
		TargetVersion: file.Mod.TargetVersion,
		JavaVersion:   file.Mod.JavaVersion,
		ProjectDir:    file.Paths.Project,
		BuildDir:      file.Paths.Build,
		Sources:       file.Mod.Sources,
		Resources:     file.Mod.Resources,
		Mappings:      mappings,
		Dependencies:  dependencies,
		Resolver:      resolver,
		Repositories:  repositories,
		StageCache:    file.Paths.StageCache,
		SnapshotCodec: file.SnapshotCodec(),
		Compiler:      file.Compiler.Command,
		Logger:        logger,
	}

	if file.Loader != "" {
		if result.Loader, err = maven.ParseCoordinate(file.Loader); err != nil {
			return Config{}, fmt.Errorf("loader: %w", err)
		}
	}

	switch {
	case file.Minecraft.Path != "":
		result.Platform = pipeline.FromPath(file.Minecraft.Path)
	case file.Minecraft.Coordinate != "":
		coordinate, err := maven.ParseCoordinate(file.Minecraft.Coordinate)
		if err != nil {
			return Config{}, fmt.Errorf("minecraft.coordinate: %w", err)
		}
		result.Platform = pipeline.FromResolver(resolver, coordinate, repositories)
	}

	if len(file.Decompiler.Command) > 0 {
		result.Decompiler = &decompile.Process{
			Name:    file.Decompiler.Name,
			Version: file.Decompiler.Version,
			Command: file.Decompiler.Command,
			Logger:  logger,
		}
	}
	return result, nil
}

func parseCoordinates(field string, texts []string) ([]maven.Coordinate, error) {
	coordinates := make([]maven.Coordinate, 0, len(texts))
	for i, text := range texts {
		coordinate, err := maven.ParseCoordinate(text)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		coordinates = append(coordinates, coordinate)
	}
	return coordinates, nil
}

func (c *Config) buildDir() string {
	if c.BuildDir != "" {
		return c.BuildDir
	}
	return filepath.Join(c.ProjectDir, "build")
}
