// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"os"

	"github.com/bureau-foundation/sandwork/cmd/sandwork/cli"
	"github.com/bureau-foundation/sandwork/lib/process"
	"github.com/bureau-foundation/sandwork/sandbox"
)

func main() {
	process.Exit(run())
}

func run() error {
	return rootCommand(&app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}).Execute(os.Args[1:])
}

// app carries the process boundary the commands act on. Tests substitute
// buffers and a recording invoker.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// invoker overrides the launcher handoff. Nil selects ExecInvoker,
	// or ChildInvoker with --wait.
	invoker sandbox.Invoker

	// bwrapPath overrides bwrap discovery.
	bwrapPath string
}

func rootCommand(a *app) *cli.Command {
	runSubcommand := runCommand(a)
	return &cli.Command{
		Name: "sandwork",
		Description: `Run a shell inside a bubblewrap sandbox.

The sandbox sees a read-only system, a private /tmp, and only the parts
of the home directory named in ~/.sandwork/config.toml. Without a
subcommand, sandwork behaves as "sandwork run".`,
		Usage: "sandwork [command] [flags] [-- command [args...]]",
		Examples: []cli.Example{
			{Description: "Start a sandboxed shell", Command: "sandwork"},
			{Description: "Run one command in the sandbox", Command: "sandwork run -- make test"},
			{Description: "Show the bwrap command without running it", Command: "sandwork plan --no-provision"},
		},
		Flags: runSubcommand.Flags,
		Run:   runSubcommand.Run,
		Subcommands: []*cli.Command{
			runSubcommand,
			planCommand(a),
			checkCommand(a),
			versionCommand(a),
		},
	}
}
