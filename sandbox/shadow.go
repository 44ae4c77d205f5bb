// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"errors"

	"golang.org/x/sys/unix"
)

// PathKind is the filesystem type of a path as seen by a [Classifier].
type PathKind int

const (
	PathAbsent PathKind = iota
	PathFile
	PathDirectory
	PathSymlink
	// PathOther covers sockets, devices and FIFOs.
	PathOther
)

func (k PathKind) String() string {
	switch k {
	case PathAbsent:
		return "absent"
	case PathFile:
		return "file"
	case PathDirectory:
		return "directory"
	case PathSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Classifier reports the current filesystem type of a path.
type Classifier interface {
	Classify(path string) (PathKind, error)
}

// LstatClassifier classifies paths with lstat(2). Symlinks are reported
// as PathSymlink and are not followed.
type LstatClassifier struct{}

// Classify returns PathAbsent with a nil error when the path or one of
// its parents does not exist.
func (LstatClassifier) Classify(path string) (PathKind, error) {
	var stat unix.Stat_t
	if err := unix.Lstat(path, &stat); err != nil {
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.ENOTDIR) {
			return PathAbsent, nil
		}
		return PathAbsent, err
	}

	switch stat.Mode & unix.S_IFMT {
	case unix.S_IFREG:
		return PathFile, nil
	case unix.S_IFDIR:
		return PathDirectory, nil
	case unix.S_IFLNK:
		return PathSymlink, nil
	default:
		return PathOther, nil
	}
}

// ClassifierFunc adapts a function to [Classifier].
type ClassifierFunc func(path string) (PathKind, error)

// Classify calls f(path).
func (f ClassifierFunc) Classify(path string) (PathKind, error) {
	return f(path)
}

// maskSource picks the masking source for a shadow target. bwrap needs
// source and destination to agree on file versus directory, so regular
// files are blanked with /dev/null and everything else, including paths
// that do not exist yet, gets the shared empty directory.
func maskSource(kind PathKind, layout Layout) string {
	if kind == PathFile {
		return NullDevice
	}
	return layout.Empty
}

// shadowDirective classifies entry's target and returns the masking
// directive for it.
//
// The type is read now, not when bwrap runs. A target that changes type
// in between gets a mismatched mask, and the tolerant bind does not
// cover that case: bwrap fails the launch.
func (c *Compiler) shadowDirective(entry string) Directive {
	target := Resolve(entry, c.Layout.Home)

	kind, err := c.classifier().Classify(target)
	if err != nil {
		c.logger().Warn("cannot inspect shadow target, masking as directory",
			"entry", entry,
			"target", target,
			"error", err,
		)
		kind = PathAbsent
	}

	source := maskSource(kind, c.Layout)
	c.logger().Debug("shadow target classified",
		"entry", entry,
		"target", target,
		"kind", kind.String(),
		"mask", source,
	)

	return Directive{
		Category: CategoryShadow,
		Kind:     KindMask,
		Sources:  []string{source},
		Dest:     target,
	}
}
