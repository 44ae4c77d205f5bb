// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// StagingDirName is the private workspace directory created inside
	// the home directory.
	StagingDirName = ".sandwork"

	// ConfigFileName is the configuration file inside the staging root.
	ConfigFileName = "config.toml"

	// stagingPerm is used for every directory sandwork creates.
	stagingPerm os.FileMode = 0o700
)

// Layout is the fixed set of directories derived from the home directory.
//
//	<home>/.sandwork/rwsrc    overlay upper layers, one subtree per entry
//	<home>/.sandwork/workdir  overlay work directories, one per entry
//	<home>/.sandwork/empty    empty directory used as a masking source
//
// The tree persists across runs and is only ever added to.
type Layout struct {
	Home    string
	Root    string
	Rwsrc   string
	Workdir string
	Empty   string
}

// NewLayout derives the staging layout from a home directory. The home
// path must be absolute: every relative configuration entry is joined
// onto it.
func NewLayout(home string) (Layout, error) {
	if home == "" {
		return Layout{}, fmt.Errorf("home directory is empty")
	}
	if !filepath.IsAbs(home) {
		return Layout{}, fmt.Errorf("home directory %q is not absolute", home)
	}
	home = filepath.Clean(home)
	root := filepath.Join(home, StagingDirName)
	return Layout{
		Home:    home,
		Root:    root,
		Rwsrc:   filepath.Join(root, "rwsrc"),
		Workdir: filepath.Join(root, "workdir"),
		Empty:   filepath.Join(root, "empty"),
	}, nil
}

// DiscoverLayout builds the layout for the current user's home directory.
// Failure here is an environment error and happens before any filesystem
// mutation.
func DiscoverLayout() (Layout, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("home directory not found: %w", err)
	}
	return NewLayout(home)
}

// ConfigPath returns the well-known configuration file location.
func (l Layout) ConfigPath() string {
	return filepath.Join(l.Root, ConfigFileName)
}

// Prepare creates the empty masking directory if it does not exist yet.
func (l Layout) Prepare(dirs DirMaker) error {
	if err := dirs.MkdirAll(l.Empty, stagingPerm); err != nil {
		return &ProvisionError{Path: l.Empty, Err: err}
	}
	return nil
}

// stagingSuffix returns the relative path under rwsrc and workdir that
// mirrors target. Targets inside home use their home-relative path, so
// "Projects" and "/home/u/Projects" share staging. Anything else is kept
// apart under ".host-root".
func (l Layout) stagingSuffix(target string) string {
	if rel, ok := within(l.Home, target); ok {
		return rel
	}
	return filepath.Join(".host-root", filepath.Clean(target))
}

// within reports whether child is parent or lies below it, and returns
// the relative path when it does.
func within(parent, child string) (string, bool) {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
