// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import "path/filepath"

// Resolve turns a configured path entry into an absolute path. Relative
// entries are joined onto home; absolute entries are returned unchanged.
// Nothing is checked on disk, so entries that do not exist yet resolve
// the same way as ones that do.
func Resolve(entry, home string) string {
	if filepath.IsAbs(entry) {
		return entry
	}
	return filepath.Join(home, entry)
}
