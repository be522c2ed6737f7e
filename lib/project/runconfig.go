// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"slices"

	"github.com/bureau-foundation/molt/lib/lazy"
)

// RunConfig is one launch configuration of a project.
type RunConfig struct {
	name          string
	mainClass     string
	workingDir    string
	vmArgs        *lazy.Value[[]string]
	args          *lazy.Value[[]string]
	classpath     *lazy.Value[[]string]
	resourcePaths []string
}

// Name is the configuration name shown by the IDE.
func (r *RunConfig) Name() string { return r.name }

// MainClass is the fully qualified class whose main method is launched.
func (r *RunConfig) MainClass() string { return r.mainClass }

// WorkingDir is the directory the program starts in. It is not
// required to exist; generators create it when they need to.
func (r *RunConfig) WorkingDir() string { return r.workingDir }

// VMArgs returns the JVM arguments, computing them on first use.
func (r *RunConfig) VMArgs() ([]string, error) { return cloned(r.vmArgs) }

// Args returns the program arguments, computing them on first use.
func (r *RunConfig) Args() ([]string, error) { return cloned(r.args) }

// Classpath returns the launch classpath, computing it on first use.
func (r *RunConfig) Classpath() ([]string, error) { return cloned(r.classpath) }

// ResourcePaths returns the resource directories added to the launch
// classpath ahead of Classpath.
func (r *RunConfig) ResourcePaths() []string { return slices.Clone(r.resourcePaths) }

func cloned(value *lazy.Value[[]string]) ([]string, error) {
	list, err := value.Get()
	if err != nil {
		return nil, err
	}
	return slices.Clone(list), nil
}

// RunConfigBuilder assembles a RunConfig. The zero value is not
// usable; start with NewRunConfig.
type RunConfigBuilder struct {
	name          string
	mainClass     string
	workingDir    string
	vmArgs        func() ([]string, error)
	args          func() ([]string, error)
	classpath     func() ([]string, error)
	resourcePaths []string
}

// NewRunConfig returns a builder with empty argument lists and no
// required fields set.
func NewRunConfig() *RunConfigBuilder {
	return &RunConfigBuilder{
		vmArgs:    constant[string](nil),
		args:      constant[string](nil),
		classpath: constant[string](nil),
	}
}

// Name sets the configuration name. Required.
func (b *RunConfigBuilder) Name(name string) *RunConfigBuilder {
	b.name = name
	return b
}

// MainClass sets the launched class. Required.
func (b *RunConfigBuilder) MainClass(mainClass string) *RunConfigBuilder {
	b.mainClass = mainClass
	return b
}

// WorkingDir sets the launch directory. Required.
func (b *RunConfigBuilder) WorkingDir(dir string) *RunConfigBuilder {
	b.workingDir = dir
	return b
}

// VMArgs sets fixed JVM arguments.
func (b *RunConfigBuilder) VMArgs(args ...string) *RunConfigBuilder {
	b.vmArgs = constant(args)
	return b
}

// VMArgsFunc defers computing the JVM arguments until they are read.
func (b *RunConfigBuilder) VMArgsFunc(compute func() ([]string, error)) *RunConfigBuilder {
	b.vmArgs = compute
	return b
}

// Args sets fixed program arguments.
func (b *RunConfigBuilder) Args(args ...string) *RunConfigBuilder {
	b.args = constant(args)
	return b
}

// ArgsFunc defers computing the program arguments until they are read.
func (b *RunConfigBuilder) ArgsFunc(compute func() ([]string, error)) *RunConfigBuilder {
	b.args = compute
	return b
}

// Classpath sets a fixed launch classpath.
func (b *RunConfigBuilder) Classpath(paths ...string) *RunConfigBuilder {
	b.classpath = constant(paths)
	return b
}

// ClasspathFunc defers computing the classpath until it is read.
func (b *RunConfigBuilder) ClasspathFunc(compute func() ([]string, error)) *RunConfigBuilder {
	b.classpath = compute
	return b
}

// ResourcePaths sets the resource directories.
func (b *RunConfigBuilder) ResourcePaths(paths ...string) *RunConfigBuilder {
	b.resourcePaths = paths
	return b
}

// Build validates the builder and returns the RunConfig. Required
// fields are checked in the order name, main class, working dir; the
// first missing one is reported.
func (b *RunConfigBuilder) Build() (*RunConfig, error) {
	switch {
	case b.name == "":
		return nil, &ValidationError{Type: "RunConfig", Field: "Name"}
	case b.mainClass == "":
		return nil, &ValidationError{Type: "RunConfig", Field: "MainClass"}
	case b.workingDir == "":
		return nil, &ValidationError{Type: "RunConfig", Field: "WorkingDir"}
	}
	return &RunConfig{
		name:          b.name,
		mainClass:     b.mainClass,
		workingDir:    b.workingDir,
		vmArgs:        lazy.New(b.vmArgs),
		args:          lazy.New(b.args),
		classpath:     lazy.New(b.classpath),
		resourcePaths: slices.Clone(b.resourcePaths),
	}, nil
}

// constant captures a copy of list so later changes to the caller's
// slice do not leak into a built value.
func constant[T any](list []T) func() ([]T, error) {
	list = slices.Clone(list)
	return func() ([]T, error) { return list, nil }
}
