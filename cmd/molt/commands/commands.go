// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the molt CLI command tree.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/molt/cmd/molt/cli"
	"github.com/bureau-foundation/molt/lib/maven"
	"github.com/bureau-foundation/molt/lib/modproject"
	"github.com/bureau-foundation/molt/lib/pipeline"
	"github.com/bureau-foundation/molt/lib/task"
	"github.com/bureau-foundation/molt/lib/version"
)

// Root builds and returns the complete molt CLI command tree writing
// to the process's standard streams.
func Root() *cli.Command {
	return newRoot(os.Stdout, os.Stderr)
}

func newRoot(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name: "molt",
		Description: `molt: mod development toolchain.

Fetches the platform jar and its mappings, remaps it into readable
names, and runs project tasks (build, IDE generation, decompilation)
described by molt.yaml.`,
		Subcommands: []*cli.Command{
			runCommand(stdout, stderr),
			tasksCommand(stdout),
			resolveCommand(stdout),
			stageCommand(stdout),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string) error {
					fmt.Fprintf(stdout, "molt %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{Description: "Generate VS Code and NetBeans projects", Command: "molt run vscode netbeans"},
			{Description: "Build the mod jar", Command: "molt run build"},
			{Description: "Print the path of the named platform jar", Command: "molt stage named"},
		},
	}
}

func runCommand(stdout, stderr io.Writer) *cli.Command {
	var options projectOptions
	var strict bool
	var parallelism int
	return &cli.Command{
		Name:    "run",
		Summary: "Run project tasks",
		Usage:   "molt run [flags] <task>... [-- args...]",
		Description: `Run every named task of the project concurrently and print a summary.

Names that match no task are skipped; --strict (or tasks.strict in
molt.yaml) reports them with the closest known name. Arguments after
"--" are passed to every task. The exit status is zero only when every
invoked task succeeded.`,
		Examples: []cli.Example{
			{Description: "Regenerate only the VS Code project", Command: "molt run vscode"},
			{Description: "Decompile the platform jar and print the sources jar path", Command: "molt run decompile"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			options.addFlags(flagSet)
			flagSet.BoolVar(&strict, "strict", false, "report task names that match no task")
			flagSet.IntVar(&parallelism, "parallelism", 0, "maximum tasks running at once (default: tasks.parallelism, or all)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			names, forwarded := cli.SplitAtDash(args)
			if len(names) == 0 {
				return errors.New("at least one task name is required")
			}
			project, file, logger, err := options.open("run", stdout)
			if err != nil {
				return err
			}
			defer project.Close()

			if parallelism == 0 {
				parallelism = file.Tasks.Parallelism
			}
			strict = strict || file.Tasks.Strict
			report, err := project.Tasks().Dispatch(ctx, names, forwarded, task.Options{
				Strict:      strict,
				Parallelism: parallelism,
				Logger:      logger,
			})
			if !strict {
				report.NotFound = nil
			}
			writeSummary(stderr, report)
			if err != nil {
				logger.Debug("tasks failed", "error", err)
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func tasksCommand(stdout io.Writer) *cli.Command {
	var options projectOptions
	return &cli.Command{
		Name:    "tasks",
		Summary: "List the project's tasks",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("tasks", pflag.ContinueOnError)
			options.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			project, _, _, err := options.open("tasks", stdout)
			if err != nil {
				return err
			}
			defer project.Close()

			tw := tabwriter.NewWriter(stdout, 2, 0, 3, ' ', 0)
			for _, t := range project.Tasks().Tasks() {
				fmt.Fprintf(tw, "%s\t%s\n", t.Name, t.Description)
			}
			return tw.Flush()
		},
	}
}

func resolveCommand(stdout io.Writer) *cli.Command {
	var options projectOptions
	return &cli.Command{
		Name:    "resolve",
		Summary: "Download artifacts into the local repository",
		Usage:   "molt resolve [flags] [coordinate...]",
		Description: `Resolve each coordinate (group:artifact:version[:classifier][@extension])
through the project's repositories and print "coordinate<TAB>path".

Without arguments, resolves the project's mappings, dependencies, and
loader.`,
		Examples: []cli.Example{
			{Command: "molt resolve net.fabricmc:yarn:1.16.5+build.1:v2"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
			options.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			file, err := options.loadConfig()
			if err != nil {
				return err
			}
			logger := cli.NewCommandLogger(options.Verbose).With("command", "resolve")
			capabilities, err := modproject.FromConfig(file, logger)
			if err != nil {
				return err
			}

			var coordinates []maven.Coordinate
			if len(args) == 0 {
				coordinates = slices.Concat(capabilities.Mappings, capabilities.Dependencies)
				if capabilities.HasLoader() {
					coordinates = append(coordinates, capabilities.Loader)
				}
			}
			for _, arg := range args {
				coordinate, err := maven.ParseCoordinate(arg)
				if err != nil {
					return err
				}
				coordinates = append(coordinates, coordinate)
			}

			artifacts, err := capabilities.Resolver.ResolveAll(ctx, coordinates, capabilities.Repositories)
			tw := tabwriter.NewWriter(stdout, 2, 0, 1, ' ', 0)
			for _, artifact := range artifacts {
				if artifact == nil {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\n", artifact.Coordinate, artifact.Path)
				if artifact.SourcesPath != "" {
					fmt.Fprintf(tw, "%s\t%s\n", artifact.Coordinate.WithClassifier("sources"), artifact.SourcesPath)
				}
			}
			if flushErr := tw.Flush(); err == nil {
				err = flushErr
			}
			return err
		},
	}
}

func stageCommand(stdout io.Writer) *cli.Command {
	var options projectOptions
	return &cli.Command{
		Name:    "stage",
		Summary: "Produce a platform jar stage and print its path",
		Usage:   "molt stage [flags] <raw|intermediary|named|decompiled>",
		Description: `Produce the named stage of the platform jar, reusing the stage cache,
and print the path of the jar.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("stage", pflag.ContinueOnError)
			options.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("exactly one stage name is required")
			}
			stage, err := pipeline.ParseStage(args[0])
			if err != nil {
				return err
			}
			project, _, logger, err := options.open("stage", stdout)
			if err != nil {
				return err
			}
			defer project.Close()

			jar, err := project.Pipeline().Get(ctx, stage)
			if err != nil {
				return err
			}
			logger.Debug("stage ready", "stage", stage, "fingerprint", jar.Fingerprint)
			_, err = fmt.Fprintln(stdout, jar.Path)
			return err
		},
	}
}
