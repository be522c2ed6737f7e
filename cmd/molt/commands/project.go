// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/molt/cmd/molt/cli"
	"github.com/bureau-foundation/molt/lib/config"
	"github.com/bureau-foundation/molt/lib/modproject"
)

// projectOptions are the flags shared by every command that opens a
// project.
type projectOptions struct {
	ConfigPath string
	ProjectDir string
	Verbose    bool
}

func (o *projectOptions) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&o.ConfigPath, "config", "",
		"project file (default: $"+config.EnvironmentVariable+" or "+config.FileName+" in the project directory)")
	flagSet.StringVar(&o.ProjectDir, "project-dir", "", "directory searched for "+config.FileName+" (default: current directory)")
	flagSet.BoolVarP(&o.Verbose, "verbose", "v", false, "log debug messages")
}

// loadConfig finds, loads, and validates the project file, then
// creates its cache and build directories.
func (o *projectOptions) loadConfig() (*config.Config, error) {
	path := o.ConfigPath
	if path == "" {
		directory := o.ProjectDir
		if directory == "" {
			var err error
			if directory, err = os.Getwd(); err != nil {
				return nil, err
			}
		}
		var err error
		if path, err = config.Find(directory); err != nil {
			return nil, err
		}
	}

	file, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := file.EnsurePaths(); err != nil {
		return nil, err
	}
	return file, nil
}

// open loads the project file and assembles the mod project. Paths
// tasks produce are written to stdout. The caller closes the project.
func (o *projectOptions) open(command string, stdout io.Writer) (*modproject.Project, *config.Config, *slog.Logger, error) {
	file, err := o.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := cli.NewCommandLogger(o.Verbose).With(
		"command", command,
		"project", file.Paths.Project,
	)

	capabilities, err := modproject.FromConfig(file, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	capabilities.Output = stdout
	project, err := modproject.New(capabilities)
	if err != nil {
		return nil, nil, nil, err
	}
	return project, file, logger, nil
}
