// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sandwork/cmd/sandwork/cli"
	"github.com/bureau-foundation/sandwork/lib/config"
	"github.com/bureau-foundation/sandwork/sandbox"
)

// commonFlags are accepted by every command that reads the configuration.
type commonFlags struct {
	configPath string
	verbose    bool
}

func (f *commonFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "",
		"configuration file (default $"+config.EnvironmentVariable+" or ~/.sandwork/config.toml)")
	flagSet.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
}

// compileOptions selects how a plan is produced.
type compileOptions struct {
	flags *commonFlags

	// command replaces the default shell when non-empty.
	command []string

	// dirs creates staging directories. Nil means the real filesystem.
	dirs sandbox.DirMaker
}

// compilePlan discovers the layout, loads the configuration and compiles
// it. The home directory is resolved before anything touches the
// filesystem.
func compilePlan(options compileOptions) (*sandbox.Plan, *slog.Logger, error) {
	logger := cli.NewCommandLogger(options.flags.verbose)

	layout, err := sandbox.DiscoverLayout()
	if err != nil {
		return nil, logger, err
	}

	dirs := options.dirs
	if dirs == nil {
		dirs = sandbox.OSDirMaker{}
	}
	if err := layout.Prepare(dirs); err != nil {
		return nil, logger, err
	}

	path := config.Locate(options.flags.configPath, layout.ConfigPath())
	cfg, err := config.Load(path)
	if err != nil {
		return nil, logger, err
	}
	logger.Debug("loaded configuration", "path", path)

	compiler := &sandbox.Compiler{
		Layout:      layout,
		Environment: sandbox.EnvironmentFromOS(),
		Dirs:        dirs,
		Classifier:  sandbox.LstatClassifier{},
		Command:     options.command,
		Logger:      logger,
	}
	plan, err := compiler.Compile(cfg)
	if err != nil {
		return nil, logger, err
	}
	return plan, logger, nil
}
