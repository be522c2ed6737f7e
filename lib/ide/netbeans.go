// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ide

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bureau-foundation/molt/lib/project"
)

// NetBeans writes nbproject/project.properties for a free-form Java
// project, plus one nbproject/configs/<name>.properties per run
// configuration.
type NetBeans struct{}

func (NetBeans) Name() string { return "netbeans" }

func (NetBeans) Generate(root string, p *project.Project) error {
	if err := runDirs(p); err != nil {
		return err
	}
	dependencies, err := p.Dependencies()
	if err != nil {
		return fmt.Errorf("netbeans: dependencies: %w", err)
	}
	directory := filepath.Join(root, "nbproject")

	properties := map[string]string{
		"application.title": p.Name(),
		"javac.source":      p.JavaRelease(),
		"javac.target":      p.JavaRelease(),
		"build.dir":         "build",
		"build.classes.dir": "${build.dir}/classes",
	}
	var roots []string
	for _, name := range p.SourceNames() {
		key := "src." + name + ".dir"
		properties[key] = p.SourcePaths()[name]
		roots = append(roots, "${"+key+"}")
	}
	for i, path := range p.ResourcePaths() {
		key := fmt.Sprintf("resources.%d.dir", i)
		properties[key] = path
		roots = append(roots, "${"+key+"}")
	}
	properties["source.roots"] = strings.Join(roots, ":")
	var jars []string
	for _, dependency := range dependencies {
		jars = append(jars, dependency.Jar)
	}
	properties["javac.classpath"] = strings.Join(jars, ":")

	configs := p.RunConfigs()
	if len(configs) > 0 {
		if err := runProperties(configs[0], properties); err != nil {
			return fmt.Errorf("netbeans: %w", err)
		}
	}
	if err := writeFile(filepath.Join(directory, "project.properties"), formatProperties(properties)); err != nil {
		return fmt.Errorf("netbeans project.properties: %w", err)
	}

	for _, config := range configs {
		values := map[string]string{"$label": config.Name()}
		if err := runProperties(config, values); err != nil {
			return fmt.Errorf("netbeans: %w", err)
		}
		path := filepath.Join(directory, "configs", config.Name()+".properties")
		if err := writeFile(path, formatProperties(values)); err != nil {
			return fmt.Errorf("netbeans run config %s: %w", config.Name(), err)
		}
	}
	return nil
}

func runProperties(config *project.RunConfig, properties map[string]string) error {
	vmArgs, err := config.VMArgs()
	if err != nil {
		return fmt.Errorf("run config %s: vm args: %w", config.Name(), err)
	}
	args, err := config.Args()
	if err != nil {
		return fmt.Errorf("run config %s: args: %w", config.Name(), err)
	}
	classpath, err := config.Classpath()
	if err != nil {
		return fmt.Errorf("run config %s: classpath: %w", config.Name(), err)
	}
	properties["main.class"] = config.MainClass()
	properties["work.dir"] = config.WorkingDir()
	properties["run.jvmargs"] = strings.Join(vmArgs, " ")
	properties["application.args"] = strings.Join(args, " ")
	properties["run.classpath"] = strings.Join(append(config.ResourcePaths(), classpath...), ":")
	return nil
}

// formatProperties renders a Java properties file with keys sorted.
func formatProperties(properties map[string]string) []byte {
	var builder strings.Builder
	for _, key := range slices.Sorted(maps.Keys(properties)) {
		builder.WriteString(escapeProperty(key, true))
		builder.WriteByte('=')
		builder.WriteString(escapeProperty(properties[key], false))
		builder.WriteByte('\n')
	}
	return []byte(builder.String())
}

// escapeProperty applies java.util.Properties escaping. Keys also
// escape separators and spaces; values only a leading space.
// Characters outside printable ASCII become \uXXXX (surrogate pairs
// above the BMP).
func escapeProperty(text string, key bool) string {
	var builder strings.Builder
	for i, r := range text {
		switch {
		case r == '\\':
			builder.WriteString(`\\`)
		case r == '\n':
			builder.WriteString(`\n`)
		case r == '\r':
			builder.WriteString(`\r`)
		case r == '\t':
			builder.WriteString(`\t`)
		case key && (r == '=' || r == ':' || r == '#' || r == '!'):
			builder.WriteByte('\\')
			builder.WriteRune(r)
		case r == ' ' && (key || i == 0):
			builder.WriteString(`\ `)
		case r < 0x20 || r > 0x7e:
			if r > 0xffff {
				r -= 0x10000
				fmt.Fprintf(&builder, `\u%04X\u%04X`, 0xd800+(r>>10), 0xdc00+(r&0x3ff))
			} else {
				fmt.Fprintf(&builder, `\u%04X`, r)
			}
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
