// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"testing"
)

type codedError struct{ code int }

func (e codedError) Error() string { return "coded" }
func (e codedError) ExitCode() int { return e.code }

func TestReport(t *testing.T) {
	var buffer bytes.Buffer
	if code := report(&buffer, errors.New("bwrap not found")); code != 1 {
		t.Errorf("report() = %d, want 1", code)
	}
	if got := buffer.String(); got != "error: bwrap not found\n" {
		t.Errorf("report() wrote %q", got)
	}

	buffer.Reset()
	if code := report(&buffer, codedError{code: 42}); code != 42 {
		t.Errorf("report() = %d, want 42", code)
	}
	if buffer.Len() != 0 {
		t.Errorf("report() wrote %q for an exit-code error", buffer.String())
	}
}

func TestExit_NilDoesNotExit(t *testing.T) {
	called := false
	original := exit
	exit = func(int) { called = true }
	t.Cleanup(func() { exit = original })

	Exit(nil)
	if called {
		t.Error("Exit(nil) exited")
	}

	var code int
	exit = func(c int) { called = true; code = c }
	Exit(codedError{code: 3})
	if !called || code != 3 {
		t.Errorf("Exit() called=%v code=%d, want exit 3", called, code)
	}
}
