// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// overlayMinimumVersion is the first bubblewrap release with
// --overlay-src and --overlay.
var overlayMinimumVersion = [3]int{0, 10, 0}

// Capabilities describes what the host offers sandwork.
type Capabilities struct {
	// BwrapAvailable is true if bubblewrap is installed.
	BwrapAvailable bool

	// BwrapPath is the path to bwrap if available.
	BwrapPath string

	// BwrapVersion is the bwrap version string ("bubblewrap 0.11.0").
	BwrapVersion string

	// OverlaySupported is true if the installed bwrap understands
	// overlay directives.
	OverlaySupported bool

	// UserNamespacesEnabled is true if unprivileged user namespaces work.
	UserNamespacesEnabled bool
}

// DetectCapabilities probes the host. It runs bwrap twice: once for the
// version and once to create a throwaway user namespace.
func DetectCapabilities() *Capabilities {
	caps := &Capabilities{}

	if path, err := BwrapPath(); err == nil {
		caps.BwrapAvailable = true
		caps.BwrapPath = path

		if out, err := exec.Command(path, "--version").Output(); err == nil {
			caps.BwrapVersion = strings.TrimSpace(string(out))
			caps.OverlaySupported = SupportsOverlay(caps.BwrapVersion)
		}
	}

	caps.UserNamespacesEnabled = checkUserNamespaces(caps.BwrapPath)

	return caps
}

// CanRunSandbox returns true if basic sandbox execution is possible.
func (c *Capabilities) CanRunSandbox() bool {
	return c.BwrapAvailable && c.UserNamespacesEnabled
}

// SkipReason returns a human-readable reason why sandboxing isn't available,
// or empty string if it is available.
func (c *Capabilities) SkipReason() string {
	if !c.BwrapAvailable {
		return "bubblewrap not installed"
	}
	if !c.UserNamespacesEnabled {
		return "unprivileged user namespaces not enabled (set kernel.unprivileged_userns_clone=1)"
	}
	return ""
}

// checkUserNamespaces tests if unprivileged user namespaces work.
func checkUserNamespaces(bwrapPath string) bool {
	data, err := os.ReadFile("/proc/sys/kernel/unprivileged_userns_clone")
	if err == nil && strings.TrimSpace(string(data)) == "0" {
		return false
	}
	if bwrapPath == "" {
		return false
	}
	cmd := exec.Command(bwrapPath,
		"--unshare-user",
		"--ro-bind", "/", "/",
		"--",
		"true",
	)
	return cmd.Run() == nil
}

// SupportsOverlay reports whether a "bwrap --version" string names a
// release with overlay support. Unparseable versions are assumed to be
// recent.
func SupportsOverlay(versionOutput string) bool {
	version, ok := parseVersion(versionOutput)
	if !ok {
		return true
	}
	for i := range version {
		if version[i] != overlayMinimumVersion[i] {
			return version[i] > overlayMinimumVersion[i]
		}
	}
	return true
}

// parseVersion extracts major.minor.patch from the last field of s.
// A missing patch component is zero.
func parseVersion(s string) ([3]int, bool) {
	var version [3]int
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return version, false
	}
	parts := strings.Split(strings.TrimPrefix(fields[len(fields)-1], "v"), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return version, false
	}
	for i, part := range parts {
		number, err := strconv.Atoi(part)
		if err != nil {
			return version, false
		}
		version[i] = number
	}
	return version, true
}
