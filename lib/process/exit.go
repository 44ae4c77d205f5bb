// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
)

// exit is replaced in tests.
var exit = os.Exit

// Exit terminates the process for a non-nil error and returns for nil.
// Errors that carry an exit code (an ExitCode() int method) exit with
// that code silently: the command has already reported the outcome.
// Everything else is printed as "error: err" and exits 1.
func Exit(err error) {
	if err == nil {
		return
	}
	exit(report(os.Stderr, err))
}

func report(w io.Writer, err error) int {
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
