// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for sandwork packages.
//
// [Home] creates a throwaway home directory for a test. [File], [Dir]
// and [Symlink] populate it using home-relative paths, mirroring how
// configuration entries are written. All helpers call t.Fatalf on
// failure rather than returning errors, since test setup failures are
// not recoverable.
//
// This package has no sandwork-internal dependencies.
package testutil
