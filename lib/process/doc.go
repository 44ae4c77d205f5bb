// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process turns the error returned by a command into the
// process exit status. [Exit] prints plain errors to stderr and exits 1,
// and passes through the status of errors that carry their own exit code
// (a sandboxed command that exited non-zero, a failed check).
package process
