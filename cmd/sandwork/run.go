// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sandwork/cmd/sandwork/cli"
	"github.com/bureau-foundation/sandwork/sandbox"
)

func runCommand(a *app) *cli.Command {
	var (
		flags commonFlags
		wait  bool
	)

	return &cli.Command{
		Name:    "run",
		Summary: "Launch the sandbox (the default command)",
		Description: `Provision the overlay staging directories and start bwrap.

By default sandwork replaces itself with bwrap, which runs
` + sandbox.DefaultShell + `. Arguments after "--" replace the shell. With
--wait, bwrap runs as a child process and sandwork exits with its status.`,
		Usage: "sandwork run [flags] [-- command [args...]]",
		Examples: []cli.Example{
			{Description: "Start a sandboxed shell", Command: "sandwork run"},
			{Description: "Run the test suite without network-visible secrets", Command: "sandwork run -- make test"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&wait, "wait", false, "run bwrap as a child and exit with its status")
			return flagSet
		},
		Run: func(args []string) error {
			plan, logger, err := compilePlan(compileOptions{flags: &flags, command: args})
			if err != nil {
				return err
			}

			invoker := a.invoker
			if invoker == nil {
				if wait {
					invoker = sandbox.ChildInvoker{Stdin: a.stdin, Stdout: a.stdout, Stderr: a.stderr}
				} else {
					invoker = sandbox.ExecInvoker{}
				}
			}

			launcher := &sandbox.Launcher{
				Invoker:   invoker,
				BwrapPath: a.bwrapPath,
				Logger:    logger,
			}
			return launcher.Launch(plan)
		},
	}
}
