// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import "testing"

func TestSupportsOverlay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version string
		want    bool
	}{
		{"bubblewrap 0.11.0", true},
		{"bubblewrap 0.10.0", true},
		{"bubblewrap 0.9.0", false},
		{"bubblewrap 0.4.1", false},
		{"bubblewrap 1.0", true},
		{"bubblewrap v0.8.0", false},
		{"bubblewrap", true},
		{"", true},
		{"bubblewrap 0.11.0-rc1", true},
	}

	for _, test := range tests {
		if got := SupportsOverlay(test.version); got != test.want {
			t.Errorf("SupportsOverlay(%q) = %v, want %v", test.version, got, test.want)
		}
	}
}

func TestCapabilitiesSkipReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		caps Capabilities
		want string
	}{
		{Capabilities{}, "bubblewrap not installed"},
		{Capabilities{BwrapAvailable: true}, "unprivileged user namespaces not enabled (set kernel.unprivileged_userns_clone=1)"},
		{Capabilities{BwrapAvailable: true, UserNamespacesEnabled: true}, ""},
	}
	for _, test := range tests {
		if got := test.caps.SkipReason(); got != test.want {
			t.Errorf("SkipReason() = %q, want %q", got, test.want)
		}
		if got := test.caps.CanRunSandbox(); got != (test.want == "") {
			t.Errorf("CanRunSandbox() = %v with skip reason %q", got, test.want)
		}
	}
}
