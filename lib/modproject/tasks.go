// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package modproject

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/molt/lib/ide"
	"github.com/bureau-foundation/molt/lib/pipeline"
	"github.com/bureau-foundation/molt/lib/task"
)

// Task names registered on every project.
const (
	TaskBuild     = "build"
	TaskDecompile = "decompile"
)

func (p *Project) registerTasks() error {
	tasks := []task.Task{
		{
			Name:        TaskBuild,
			Description: "compile the mod and write the intermediary jar",
			Run: func(ctx context.Context, _ []string) error {
				result, err := p.Build(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(p.output, result.Jar)
				return err
			},
		},
		{
			Name:        TaskDecompile,
			Description: "decompile the named platform jar and print its path",
			Run: func(ctx context.Context, _ []string) error {
				decompiled, err := p.pipeline.Get(ctx, pipeline.Decompiled)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(p.output, decompiled.Path)
				return err
			},
		},
	}
	for _, generator := range ide.Generators() {
		tasks = append(tasks, task.Task{
			Name:        generator.Name(),
			Description: "generate " + generator.Name() + " project files",
			Run: func(ctx context.Context, _ []string) error {
				model, err := p.IDEProject(ctx)
				if err != nil {
					return err
				}
				if err := generator.Generate(p.config.ProjectDir, model); err != nil {
					return fmt.Errorf("generating %s project: %w", generator.Name(), err)
				}
				p.logger.Info("ide project written", "generator", generator.Name(), "root", p.config.ProjectDir)
				return nil
			},
		})
	}

	for _, t := range tasks {
		if err := p.tasks.Register(t); err != nil {
			return err
		}
	}
	return nil
}
