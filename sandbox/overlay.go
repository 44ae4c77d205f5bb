// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirMaker creates directories. All staging mutations go through it.
type DirMaker interface {
	// MkdirAll creates path and any missing parents. An existing
	// directory is not an error.
	MkdirAll(path string, perm os.FileMode) error
}

// OSDirMaker implements DirMaker with os.MkdirAll.
type OSDirMaker struct{}

// MkdirAll creates a directory and all parent directories.
func (OSDirMaker) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// DryDirMaker records directories instead of creating them. It is used
// to preview a plan without touching the staging tree.
type DryDirMaker struct {
	Paths []string
}

// MkdirAll records path.
func (d *DryDirMaker) MkdirAll(path string, _ os.FileMode) error {
	d.Paths = append(d.Paths, path)
	return nil
}

// ProvisionError reports a staging directory that could not be created.
// Directories created for earlier entries are left in place; they are
// reused on the next run.
type ProvisionError struct {
	// Entry is the configured overlay entry, empty for the shared
	// empty directory.
	Entry string
	Path  string
	Err   error
}

func (e *ProvisionError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("creating staging directory %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("overlay %q: creating staging directory %s: %v", e.Entry, e.Path, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// overlayDirective provisions the upper and work directories for one
// overlay entry and returns its directive. The directories exist before
// the directive is returned.
//
// Upper and work mirror the entry's location under rwsrc and workdir, so
// each entry has its own pair and writes from earlier runs are visible
// again on the next one.
func (c *Compiler) overlayDirective(entry string) (Directive, []string, error) {
	target := Resolve(entry, c.Layout.Home)

	// The kernel refuses an upper or work directory inside the lower
	// layer, and the staging root lives inside home.
	if _, ok := within(target, c.Layout.Root); ok {
		return Directive{}, nil, &ProvisionError{
			Entry: entry,
			Path:  target,
			Err:   fmt.Errorf("overlay target contains the staging directory %s", c.Layout.Root),
		}
	}

	suffix := c.Layout.stagingSuffix(target)
	upper := filepath.Join(c.Layout.Rwsrc, suffix)
	work := filepath.Join(c.Layout.Workdir, suffix)

	for _, dir := range []string{upper, work} {
		if err := c.dirs().MkdirAll(dir, stagingPerm); err != nil {
			return Directive{}, nil, &ProvisionError{Entry: entry, Path: dir, Err: err}
		}
	}

	c.logger().Debug("provisioned overlay staging",
		"entry", entry,
		"target", target,
		"upper", upper,
		"work", work,
	)

	return Directive{
		Category: CategoryOverlay,
		Kind:     KindOverlay,
		Sources:  []string{target, upper, work},
		Dest:     target,
	}, []string{upper, work}, nil
}
