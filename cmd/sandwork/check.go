// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sandwork/cmd/sandwork/cli"
	"github.com/bureau-foundation/sandwork/lib/config"
	"github.com/bureau-foundation/sandwork/sandbox"
)

func checkCommand(a *app) *cli.Command {
	var flags commonFlags

	return &cli.Command{
		Name:    "check",
		Summary: "Check that the host and configuration are ready",
		Description: `Run pre-flight checks without creating or launching anything.

Reports whether bwrap is installed, whether unprivileged user namespaces
are enabled, whether the configuration loads, what each configured path
currently is, and whether the display socket exists. Missing bind
sources and overlay targets are warnings; sandwork check exits 1 only
when a check fails.`,
		Usage: "sandwork check [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			layout, err := sandbox.DiscoverLayout()
			if err != nil {
				return err
			}

			path := config.Locate(flags.configPath, layout.ConfigPath())
			cfg, loadErr := config.Load(path)

			validator := sandbox.NewValidator()
			validator.ValidateAll(layout, path, cfg, loadErr, sandbox.EnvironmentFromOS())
			validator.PrintResults(a.stdout, cli.IsTerminal(a.stdout))

			if validator.HasErrors() {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
