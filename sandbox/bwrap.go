// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"os"
	"os/exec"
)

const (
	// BwrapName is the launcher binary name, used as argv[0].
	BwrapName = "bwrap"

	// NullDevice is the always-empty file used to blank files.
	NullDevice = "/dev/null"

	// DefaultShell is the entry point when no command is given.
	DefaultShell = "/usr/bin/bash"
)

// Baseline returns the fixed directives that establish the sandbox: new
// namespaces for everything except networking, fresh /dev, /proc and
// /tmp, read-only system directories, the merged-/usr symlinks, and the
// shadow password files blanked out. Category is left at its zero value,
// CategoryBaseline.
func Baseline() []Directive {
	return []Directive{
		{Kind: KindDieWithParent},
		{Kind: KindUnshareAll},
		{Kind: KindShareNet},
		{Kind: KindDev, Dest: "/dev"},
		{Kind: KindProc, Dest: "/proc"},
		{Kind: KindTmpfs, Dest: "/tmp"},
		{Kind: KindROBind, Sources: []string{"/usr"}, Dest: "/usr"},
		{Kind: KindROBind, Sources: []string{"/etc"}, Dest: "/etc"},
		{Kind: KindROBind, Sources: []string{"/opt"}, Dest: "/opt"},
		{Kind: KindSymlink, Sources: []string{"/usr/bin"}, Dest: "/bin"},
		{Kind: KindSymlink, Sources: []string{"/usr/bin"}, Dest: "/sbin"},
		{Kind: KindSymlink, Sources: []string{"/usr/lib"}, Dest: "/lib"},
		{Kind: KindSymlink, Sources: []string{"/usr/lib"}, Dest: "/lib64"},
		{Kind: KindROBind, Sources: []string{NullDevice}, Dest: "/etc/shadow"},
		{Kind: KindROBind, Sources: []string{NullDevice}, Dest: "/etc/shadow-"},
	}
}

// BwrapBuilder builds bubblewrap command-line arguments from a [Plan].
type BwrapBuilder struct {
	args []string
}

// NewBwrapBuilder creates a new builder.
func NewBwrapBuilder() *BwrapBuilder {
	return &BwrapBuilder{}
}

// Build serializes the plan: every directive in category order, then the
// "--" separator and the entry command. The result does not include
// argv[0].
func (b *BwrapBuilder) Build(plan *Plan) ([]string, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan is required")
	}
	if len(plan.Command) == 0 {
		return nil, fmt.Errorf("command is required")
	}

	b.args = []string{}
	for _, directive := range plan.Directives() {
		args, err := directive.Args()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", directive.Category, err)
		}
		b.args = append(b.args, args...)
	}

	b.args = append(b.args, "--")
	b.args = append(b.args, plan.Command...)

	return b.args, nil
}

// bwrapLocations are checked when bwrap is not on PATH.
var bwrapLocations = []string{
	"/usr/bin/bwrap",
	"/usr/local/bin/bwrap",
	"/bin/bwrap",
}

// BwrapPath returns the path to the bwrap executable: PATH first, then
// the standard install locations.
func BwrapPath() (string, error) {
	if path, err := exec.LookPath(BwrapName); err == nil {
		return path, nil
	}

	for _, path := range bwrapLocations {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("bwrap not found in PATH or standard locations")
}
