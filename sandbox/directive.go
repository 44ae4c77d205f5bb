// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import "fmt"

// DirectiveKind identifies the bwrap operation a [Directive] serializes to.
type DirectiveKind string

// Kinds emitted for configured entries.
const (
	// KindOverlay mounts a persistent copy-on-write overlay:
	// --overlay-src <lower> --overlay <upper> <work> <dest>.
	KindOverlay DirectiveKind = "overlay"

	// KindBindTry is a read-write bind skipped by bwrap when the source
	// is missing: --bind-try <src> <dest>.
	KindBindTry DirectiveKind = "bind-try"

	// KindROBindTry is the read-only counterpart: --ro-bind-try <src> <dest>.
	KindROBindTry DirectiveKind = "ro-bind-try"

	// KindMask hides a path by binding an empty file or directory over it.
	// It serializes exactly like KindROBindTry.
	KindMask DirectiveKind = "mask"
)

// Kinds used by the fixed baseline.
const (
	KindDieWithParent DirectiveKind = "die-with-parent"
	KindUnshareAll    DirectiveKind = "unshare-all"
	KindShareNet      DirectiveKind = "share-net"
	KindDev           DirectiveKind = "dev"
	KindProc          DirectiveKind = "proc"
	KindTmpfs         DirectiveKind = "tmpfs"
	KindROBind        DirectiveKind = "ro-bind"
	KindSymlink       DirectiveKind = "symlink"
)

// Category groups directives. Categories are emitted in declaration order.
type Category int

const (
	CategoryBaseline Category = iota
	CategoryDisplay
	CategoryOverlay
	CategoryRWBind
	CategoryROBind
	CategoryShadow
)

var categoryNames = map[Category]string{
	CategoryBaseline: "baseline",
	CategoryDisplay:  "display",
	CategoryOverlay:  "overlay",
	CategoryRWBind:   "rwbind",
	CategoryROBind:   "robind",
	CategoryShadow:   "shadow",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Directive is one mount or namespace instruction in a [Plan].
//
// Sources holds the source paths in bwrap argument order: for overlays
// that is lower, upper, work; for binds, masks and symlinks it is the
// single source. Flag-only kinds have neither sources nor a destination.
type Directive struct {
	Category Category
	Kind     DirectiveKind
	Sources  []string
	Dest     string
}

// Args serializes the directive into bwrap arguments.
func (d Directive) Args() ([]string, error) {
	switch d.Kind {
	case KindDieWithParent, KindUnshareAll, KindShareNet:
		return []string{"--" + string(d.Kind)}, nil

	case KindDev, KindProc, KindTmpfs:
		if d.Dest == "" {
			return nil, fmt.Errorf("%s directive has no destination", d.Kind)
		}
		return []string{"--" + string(d.Kind), d.Dest}, nil

	case KindROBind, KindSymlink, KindBindTry, KindROBindTry:
		if err := d.requireSources(1); err != nil {
			return nil, err
		}
		return []string{"--" + string(d.Kind), d.Sources[0], d.Dest}, nil

	case KindMask:
		if err := d.requireSources(1); err != nil {
			return nil, err
		}
		return []string{"--ro-bind-try", d.Sources[0], d.Dest}, nil

	case KindOverlay:
		if err := d.requireSources(3); err != nil {
			return nil, err
		}
		return []string{
			"--overlay-src", d.Sources[0],
			"--overlay", d.Sources[1], d.Sources[2], d.Dest,
		}, nil

	default:
		return nil, fmt.Errorf("unknown directive kind %q", d.Kind)
	}
}

func (d Directive) requireSources(count int) error {
	if len(d.Sources) != count {
		return fmt.Errorf("%s directive for %q needs %d source(s), has %d", d.Kind, d.Dest, count, len(d.Sources))
	}
	if d.Dest == "" {
		return fmt.Errorf("%s directive has no destination", d.Kind)
	}
	return nil
}
