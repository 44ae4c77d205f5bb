// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the sandwork configuration file.
//
// The file declares four ordered lists of paths: overlay, shadow, robind
// and rwbind. Relative paths are interpreted against the home directory
// by the sandbox package, not here; this package only decodes and
// validates.
//
// The file is located by [Locate]: an explicit path (the --config flag),
// then the SANDWORK_CONFIG environment variable, then the well-known
// location supplied by the caller (~/.sandwork/config.toml). There is no
// search and no merging of several files.
//
// The format is chosen by extension: TOML (the default), YAML, or JSON
// with comments. Decoding is strict in every format: unknown keys are an
// error rather than being silently ignored, since a misspelled "shadow"
// list would otherwise leave a secret exposed.
//
// Failures are reported as [ReadError] (the file could not be read),
// [ParseError] (the content could not be decoded), or [ValidationError]
// (decoded, but an entry is empty).
//
// This package depends on no other sandwork packages.
package config
