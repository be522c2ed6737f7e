// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/molt/lib/compress"
	"github.com/bureau-foundation/molt/lib/maven"
)

// FileName is the project file molt looks for in the project
// directory.
const FileName = "molt.yaml"

// EnvironmentVariable overrides the project file location.
const EnvironmentVariable = "MOLT_CONFIG"

// Config is the contents of molt.yaml.
type Config struct {
	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Repositories are Maven repository URLs, tried in order.
	// file:// URLs and bare paths name local directories.
	Repositories []string `yaml:"repositories"`

	// Mod describes the mod being built.
	Mod ModConfig `yaml:"mod"`

	// Minecraft locates the obfuscated platform jar.
	Minecraft PlatformConfig `yaml:"minecraft"`

	// Mappings are the coordinates of the mapping publications. The
	// first must have the obfuscated and intermediary namespaces; each
	// later one is merged in on intermediary.
	Mappings []string `yaml:"mappings"`

	// Loader is the mod loader coordinate. Its jar joins the run
	// classpath.
	Loader string `yaml:"loader"`

	// Dependencies are additional library coordinates.
	Dependencies []string `yaml:"dependencies"`

	// Decompiler configures the external decompiler.
	Decompiler DecompilerConfig `yaml:"decompiler"`

	// Compiler configures the Java compiler.
	Compiler CompilerConfig `yaml:"compiler"`

	// Resolver configures dependency resolution.
	Resolver ResolverConfig `yaml:"resolver"`

	// Tasks configures task dispatch.
	Tasks TasksConfig `yaml:"tasks"`

	// Cache configures on-disk caches.
	Cache CacheConfig `yaml:"cache"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Project is the mod's root directory.
	// Default: the directory containing molt.yaml.
	Project string `yaml:"project"`

	// LocalRepository is the resolver's download cache, shared
	// between projects.
	// Default: ${HOME}/.cache/molt/repository
	LocalRepository string `yaml:"local_repository"`

	// StageCache holds remapped and decompiled platform jars, shared
	// between projects.
	// Default: ${HOME}/.cache/molt/stages
	StageCache string `yaml:"stage_cache"`

	// Build receives compiled classes and the mod jar.
	// Default: ${PROJECT_DIR}/build
	Build string `yaml:"build"`
}

// ModConfig describes the mod being built.
type ModConfig struct {
	// ID is the mod id. Required.
	ID string `yaml:"id"`

	// Version is the mod's own version. Required.
	Version string `yaml:"version"`

	// TargetVersion is the platform version the mod targets.
	TargetVersion string `yaml:"target_version"`

	// JavaVersion is the Java language level. Default: 8.
	JavaVersion int `yaml:"java_version"`

	// Sources maps source root names to directories.
	// Default: {main: src/main/java}
	Sources map[string]string `yaml:"sources"`

	// Resources lists resource directories.
	// Default: [src/main/resources]
	Resources []string `yaml:"resources"`
}

// PlatformConfig locates the obfuscated platform jar. Exactly one of
// Coordinate and Path must be set.
type PlatformConfig struct {
	Coordinate string `yaml:"coordinate"`
	Path       string `yaml:"path"`
}

// DecompilerConfig configures the external decompiler. An empty
// Command disables the decompiled stage.
type DecompilerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Command is the argument vector with {input}, {output}, and
	// {classpath} placeholders.
	Command []string `yaml:"command"`
}

// CompilerConfig configures the Java compiler.
type CompilerConfig struct {
	// Command is the compiler program and any fixed options.
	// Default: [javac]
	Command []string `yaml:"command"`
}

// ResolverConfig configures dependency resolution.
type ResolverConfig struct {
	// VerifyChecksums compares downloads against .sha1 sidecars.
	// Default: true
	VerifyChecksums bool `yaml:"verify_checksums"`

	// FetchSources also resolves sources jars for IDE attachment.
	// Default: true
	FetchSources bool `yaml:"fetch_sources"`

	// Timeout bounds each HTTP request.
	// Default: 5m
	Timeout string `yaml:"timeout"`
}

// TasksConfig configures task dispatch.
type TasksConfig struct {
	// Strict warns about requested task names the project lacks.
	Strict bool `yaml:"strict"`

	// Parallelism bounds concurrently running tasks. Zero means no
	// bound.
	Parallelism int `yaml:"parallelism"`
}

// CacheConfig configures on-disk caches.
type CacheConfig struct {
	// SnapshotCompression is the codec for parsed mapping snapshots:
	// none, lz4, or zstd.
	// Default: lz4
	SnapshotCompression string `yaml:"snapshot_compression"`
}

// Default returns the default configuration. Path fields contain
// variables that LoadFile expands.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Project:         "${PROJECT_DIR}",
			LocalRepository: "${HOME}/.cache/molt/repository",
			StageCache:      "${HOME}/.cache/molt/stages",
			Build:           "${PROJECT_DIR}/build",
		},
		Repositories: []string{
			"https://maven.fabricmc.net/",
			"https://libraries.minecraft.net/",
			"https://repo.maven.apache.org/maven2/",
		},
		Mod: ModConfig{
			JavaVersion: 8,
			Sources:     map[string]string{"main": "src/main/java"},
			Resources:   []string{"src/main/resources"},
		},
		Compiler: CompilerConfig{
			Command: []string{"javac"},
		},
		Resolver: ResolverConfig{
			VerifyChecksums: true,
			FetchSources:    true,
			Timeout:         "5m",
		},
		Cache: CacheConfig{
			SnapshotCompression: "lz4",
		},
	}
}

// Find returns the project file to load: $MOLT_CONFIG if set,
// otherwise molt.yaml in projectDir.
func Find(projectDir string) (string, error) {
	if path := os.Getenv(EnvironmentVariable); path != "" {
		return path, nil
	}
	path := filepath.Join(projectDir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("no %s in %s; create one or set %s", FileName, projectDir, EnvironmentVariable)
		}
		return "", err
	}
	return path, nil
}

// LoadFile loads configuration from path, merged over Default.
//
// Lists and maps in the file replace the defaults rather than
// extending them.
func LoadFile(path string) (*Config, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := cfg.loadFile(absolute); err != nil {
		return nil, err
	}
	cfg.expandVariables(filepath.Dir(absolute))
	return cfg, nil
}

// loadFile merges a single configuration file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// yaml.v3 decodes a mapping into an existing map by merging, so a
	// sources section in the file would otherwise keep the default
	// root.
	var present struct {
		Mod struct {
			Sources map[string]string `yaml:"sources"`
		} `yaml:"mod"`
	}
	if err := yaml.Unmarshal(data, &present); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if present.Mod.Sources != nil {
		c.Mod.Sources = nil
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths
// and resolves relative paths against the project directory.
func (c *Config) expandVariables(configDir string) {
	vars := map[string]string{
		"PROJECT_DIR": configDir,
		"HOME":        os.Getenv("HOME"),
	}

	c.Paths.Project = absolute(expandVars(c.Paths.Project, vars), configDir)
	vars["PROJECT_DIR"] = c.Paths.Project // Update for dependent paths.

	c.Paths.LocalRepository = absolute(expandVars(c.Paths.LocalRepository, vars), c.Paths.Project)
	c.Paths.StageCache = absolute(expandVars(c.Paths.StageCache, vars), c.Paths.Project)
	c.Paths.Build = absolute(expandVars(c.Paths.Build, vars), c.Paths.Project)
	if c.Minecraft.Path != "" {
		c.Minecraft.Path = absolute(expandVars(c.Minecraft.Path, vars), c.Paths.Project)
	}
	for name, path := range c.Mod.Sources {
		c.Mod.Sources[name] = absolute(expandVars(path, vars), c.Paths.Project)
	}
	for i, path := range c.Mod.Resources {
		c.Mod.Resources[i] = absolute(expandVars(path, vars), c.Paths.Project)
	}
	for i, repository := range c.Repositories {
		c.Repositories[i] = expandVars(repository, vars)
	}
}

func absolute(path, base string) string {
	if path == "" || filepath.IsAbs(path) || strings.Contains(path, "://") {
		return path
	}
	return filepath.Join(base, path)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors and reports all of
// them.
func (c *Config) Validate() error {
	var errs []error

	if c.Mod.ID == "" {
		errs = append(errs, errors.New("mod.id is required"))
	}
	if c.Mod.Version == "" {
		errs = append(errs, errors.New("mod.version is required"))
	}
	if c.Mod.JavaVersion < 1 {
		errs = append(errs, fmt.Errorf("mod.java_version must be at least 1, got %d", c.Mod.JavaVersion))
	}

	switch {
	case c.Minecraft.Coordinate == "" && c.Minecraft.Path == "":
		errs = append(errs, errors.New("minecraft.coordinate or minecraft.path is required"))
	case c.Minecraft.Coordinate != "" && c.Minecraft.Path != "":
		errs = append(errs, errors.New("minecraft.coordinate and minecraft.path are mutually exclusive"))
	case c.Minecraft.Coordinate != "":
		errs = appendCoordinateError(errs, "minecraft.coordinate", c.Minecraft.Coordinate)
	}

	if len(c.Mappings) == 0 {
		errs = append(errs, errors.New("mappings must list at least one coordinate"))
	}
	for i, coordinate := range c.Mappings {
		errs = appendCoordinateError(errs, fmt.Sprintf("mappings[%d]", i), coordinate)
	}
	if c.Loader != "" {
		errs = appendCoordinateError(errs, "loader", c.Loader)
	}
	for i, coordinate := range c.Dependencies {
		errs = appendCoordinateError(errs, fmt.Sprintf("dependencies[%d]", i), coordinate)
	}

	if len(c.Repositories) == 0 {
		errs = append(errs, errors.New("repositories must list at least one URL"))
	}
	if len(c.Compiler.Command) == 0 {
		errs = append(errs, errors.New("compiler.command is required"))
	}
	if len(c.Decompiler.Command) > 0 {
		joined := strings.Join(c.Decompiler.Command, " ")
		for _, placeholder := range []string{"{input}", "{output}"} {
			if !strings.Contains(joined, placeholder) {
				errs = append(errs, fmt.Errorf("decompiler.command must contain %s", placeholder))
			}
		}
		if c.Decompiler.Name == "" {
			errs = append(errs, errors.New("decompiler.name is required when decompiler.command is set"))
		}
	}

	if _, err := time.ParseDuration(c.Resolver.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("resolver.timeout: %w", err))
	}
	if c.Tasks.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("tasks.parallelism must not be negative, got %d", c.Tasks.Parallelism))
	}
	if _, err := compress.ParseCodec(c.Cache.SnapshotCompression); err != nil {
		errs = append(errs, fmt.Errorf("cache.snapshot_compression: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func appendCoordinateError(errs []error, field, text string) []error {
	if _, err := maven.ParseCoordinate(text); err != nil {
		return append(errs, fmt.Errorf("%s: %w", field, err))
	}
	return errs
}

// ResolverTimeout returns Resolver.Timeout parsed. Call after Validate.
func (c *Config) ResolverTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Resolver.Timeout)
	return timeout
}

// SnapshotCodec returns Cache.SnapshotCompression parsed. Call after
// Validate.
func (c *Config) SnapshotCodec() compress.Codec {
	codec, _ := compress.ParseCodec(c.Cache.SnapshotCompression)
	return codec
}

// SourceNames returns the source root names, sorted.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Mod.Sources))
	for name := range c.Mod.Sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.LocalRepository,
		c.Paths.StageCache,
		c.Paths.Build,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
