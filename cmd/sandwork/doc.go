// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// sandwork runs an interactive shell inside a bubblewrap sandbox built
// from ~/.sandwork/config.toml.
//
// Usage:
//
//	sandwork [run] [flags] [-- <command> [args...]]
//	sandwork plan [flags] [-- <command> [args...]]
//	sandwork check [flags]
//	sandwork version
//
// The configuration names four lists of paths. overlay entries are
// mounted copy-on-write with their writes kept under ~/.sandwork/rwsrc;
// rwbind and robind entries are exposed read-write or read-only when they
// exist; shadow entries are hidden behind /dev/null or an empty
// directory. Everything else in the home directory is invisible inside
// the sandbox.
//
// "sandwork" with no subcommand is "sandwork run": it provisions the
// overlay staging directories and replaces itself with bwrap. "plan"
// prints the bwrap command instead of running it, and "check" reports
// whether the host and the configuration are ready.
//
// Set SANDWORK_DEBUG=1 or pass --verbose for debug logging, and
// SANDWORK_CONFIG or --config to use a different configuration file.
package main
