// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Invoker runs an external program. path is the resolved executable,
// argv includes argv[0].
type Invoker interface {
	Invoke(path string, argv []string, env []string) error
}

// InvokerFunc adapts a function to [Invoker].
type InvokerFunc func(path string, argv []string, env []string) error

// Invoke calls f.
func (f InvokerFunc) Invoke(path string, argv []string, env []string) error {
	return f(path, argv, env)
}

// ExecInvoker replaces the current process image. On success Invoke
// never returns.
type ExecInvoker struct{}

// Invoke calls execve(2).
func (ExecInvoker) Invoke(path string, argv []string, env []string) error {
	return unix.Exec(path, argv, env)
}

// ChildInvoker runs the program as a child process with the given stdio
// and waits for it. A non-zero exit is reported as *ExitError.
type ChildInvoker struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Invoke starts the child and waits for it to exit.
func (c ChildInvoker) Invoke(path string, argv []string, env []string) error {
	cmd := &exec.Cmd{
		Path:   path,
		Args:   argv,
		Env:    env,
		Stdin:  c.Stdin,
		Stdout: c.Stdout,
		Stderr: c.Stderr,
	}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return err
	}
	return nil
}

// Launcher hands a compiled plan to bwrap.
type Launcher struct {
	// Invoker performs the handoff. Nil means ExecInvoker.
	Invoker Invoker

	// BwrapPath overrides bwrap discovery.
	BwrapPath string

	// Env is the launcher's environment. Nil means os.Environ().
	Env []string

	Logger *slog.Logger
}

// Launch builds the bwrap arguments for plan and invokes bwrap. With the
// default invoker a successful call does not return; any returned error
// means the sandbox was not started (or, for ChildInvoker, that it
// exited non-zero).
func (l *Launcher) Launch(plan *Plan) error {
	args, err := NewBwrapBuilder().Build(plan)
	if err != nil {
		return fmt.Errorf("building bwrap command: %w", err)
	}

	path := l.BwrapPath
	if path == "" {
		path, err = BwrapPath()
		if err != nil {
			return err
		}
	}

	env := l.Env
	if env == nil {
		env = os.Environ()
	}

	invoker := l.Invoker
	if invoker == nil {
		invoker = ExecInvoker{}
	}

	argv := append([]string{BwrapName}, args...)

	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("launching sandbox",
		"bwrap", path,
		"command", plan.Command,
		"digest", Digest(args),
	)

	if err := invoker.Invoke(path, argv, env); err != nil {
		if _, ok := IsExitError(err); ok {
			return err
		}
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}

// ExitError represents a non-zero exit from the sandboxed command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// ExitCode returns the exit code, so main can exit with it without
// printing an error.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// IsExitError checks if an error is an ExitError and returns the code.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
