// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command-tree framework behind the sandwork binary.
//
// A [Command] has a name, help text, an optional pflag flag set, and
// either a Run function or subcommands. [Command.Execute] dispatches on
// the first positional argument, parses flags, and reports unknown
// commands or flags with an edit-distance suggestion. A command may have
// both: Run handles the case where no subcommand is named, which is how
// a bare "sandwork" launches the sandbox.
//
// [NewCommandLogger] builds the slog logger shared by all commands, and
// [ExitError] lets a command choose its exit status after printing its
// own output.
package cli
