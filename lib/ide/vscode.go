// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ide

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/molt/lib/project"
)

// launchVersion is the launch.json schema version VS Code writes.
const launchVersion = "0.2.0"

// VSCode writes .vscode/launch.json and .vscode/settings.json for the
// Java extension pack.
type VSCode struct{}

func (VSCode) Name() string { return "vscode" }

// launchConfiguration is one entry of launch.json's configurations
// array, in the shape the Java debugger expects.
type launchConfiguration struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Request     string   `json:"request"`
	MainClass   string   `json:"mainClass"`
	ProjectName string   `json:"projectName,omitempty"`
	CWD         string   `json:"cwd"`
	VMArgs      string   `json:"vmArgs,omitempty"`
	Args        string   `json:"args,omitempty"`
	ClassPaths  []string `json:"classPaths"`
	Console     string   `json:"console"`
}

type launchFile struct {
	Version        string            `json:"version"`
	Configurations []json.RawMessage `json:"configurations"`
	Compounds      json.RawMessage   `json:"compounds,omitempty"`
}

func (v VSCode) Generate(root string, p *project.Project) error {
	if err := runDirs(p); err != nil {
		return err
	}
	directory := filepath.Join(root, ".vscode")
	if err := v.writeLaunch(filepath.Join(directory, "launch.json"), p); err != nil {
		return fmt.Errorf("vscode launch.json: %w", err)
	}
	if err := v.writeSettings(filepath.Join(directory, "settings.json"), p); err != nil {
		return fmt.Errorf("vscode settings.json: %w", err)
	}
	return nil
}

func (VSCode) writeLaunch(path string, p *project.Project) error {
	var existing launchFile
	if err := readJSONC(path, &existing); err != nil {
		return err
	}

	ours := make(map[string]bool)
	var configurations []json.RawMessage
	for _, config := range p.RunConfigs() {
		entry, err := launchEntry(p, config)
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		ours[config.Name()] = true
		configurations = append(configurations, encoded)
	}
	// Configurations the user added by hand stay, after ours.
	for _, raw := range existing.Configurations {
		var named struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(raw, &named) == nil && ours[named.Name] {
			continue
		}
		configurations = append(configurations, raw)
	}

	file := launchFile{
		Version:        existing.Version,
		Configurations: configurations,
		Compounds:      existing.Compounds,
	}
	if file.Version == "" {
		file.Version = launchVersion
	}
	if file.Configurations == nil {
		file.Configurations = []json.RawMessage{}
	}
	return writeJSON(path, file)
}

func launchEntry(p *project.Project, config *project.RunConfig) (*launchConfiguration, error) {
	vmArgs, err := config.VMArgs()
	if err != nil {
		return nil, fmt.Errorf("run config %s: vm args: %w", config.Name(), err)
	}
	args, err := config.Args()
	if err != nil {
		return nil, fmt.Errorf("run config %s: args: %w", config.Name(), err)
	}
	classpath, err := config.Classpath()
	if err != nil {
		return nil, fmt.Errorf("run config %s: classpath: %w", config.Name(), err)
	}
	return &launchConfiguration{
		Type:        "java",
		Name:        config.Name(),
		Request:     "launch",
		MainClass:   config.MainClass(),
		ProjectName: p.Name(),
		CWD:         config.WorkingDir(),
		VMArgs:      strings.Join(vmArgs, " "),
		Args:        strings.Join(args, " "),
		ClassPaths:  nonNil(append(config.ResourcePaths(), classpath...)),
		Console:     "internalConsole",
	}, nil
}

// Settings keys molt manages. Every other key in settings.json is the
// user's.
const (
	settingSourcePaths       = "java.project.sourcePaths"
	settingReferencedLibs    = "java.project.referencedLibraries"
	settingOutputPath        = "java.project.outputPath"
	settingUpdateBuildConfig = "java.configuration.updateBuildConfiguration"
)

type referencedLibraries struct {
	Include []string          `json:"include"`
	Sources map[string]string `json:"sources,omitempty"`
}

func (VSCode) writeSettings(path string, p *project.Project) error {
	settings := make(map[string]json.RawMessage)
	if err := readJSONC(path, &settings); err != nil {
		return err
	}

	dependencies, err := p.Dependencies()
	if err != nil {
		return fmt.Errorf("dependencies: %w", err)
	}
	libraries := referencedLibraries{Include: []string{}}
	for _, dependency := range dependencies {
		libraries.Include = append(libraries.Include, dependency.Jar)
		if dependency.Sources != "" {
			if libraries.Sources == nil {
				libraries.Sources = make(map[string]string)
			}
			libraries.Sources[dependency.Jar] = dependency.Sources
		}
	}

	var sourcePaths []string
	for _, name := range p.SourceNames() {
		sourcePaths = append(sourcePaths, p.SourcePaths()[name])
	}
	sourcePaths = append(sourcePaths, p.ResourcePaths()...)

	managed := map[string]any{
		settingSourcePaths:       nonNil(sourcePaths),
		settingReferencedLibs:    libraries,
		settingOutputPath:        filepath.Join(".vscode", "out"),
		settingUpdateBuildConfig: "automatic",
	}
	for key, value := range managed {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		settings[key] = encoded
	}
	return writeJSON(path, settings)
}

// readJSONC decodes path into target. A missing file leaves target
// untouched.
func readJSONC(path string, target any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), target); err != nil {
		return fmt.Errorf("parsing existing %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, append(data, '\n'))
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
