// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/sandwork/lib/config"
)

// Environment is the snapshot of environment variables the compiler
// consults. It is captured once so compilation does not read the process
// environment at arbitrary points.
type Environment struct {
	// RuntimeDir is XDG_RUNTIME_DIR.
	RuntimeDir string

	// Display is WAYLAND_DISPLAY.
	Display string
}

// EnvironmentFromOS captures the current process environment.
func EnvironmentFromOS() Environment {
	return Environment{
		RuntimeDir: os.Getenv("XDG_RUNTIME_DIR"),
		Display:    os.Getenv("WAYLAND_DISPLAY"),
	}
}

// DisplaySocket returns the display server socket path. It reports false
// unless both variables are set. An absolute display name is used as is.
func (e Environment) DisplaySocket() (string, bool) {
	if e.RuntimeDir == "" || e.Display == "" {
		return "", false
	}
	if filepath.IsAbs(e.Display) {
		return e.Display, true
	}
	return filepath.Join(e.RuntimeDir, e.Display), true
}

// Compiler turns a configuration into a [Plan].
//
// The only side effects are staging directory creation (through Dirs) and
// shadow target inspection (through Classifier). With fakes for both,
// Compile is a pure function of the layout, the environment snapshot, and
// the configuration.
type Compiler struct {
	Layout      Layout
	Environment Environment

	// Dirs creates overlay staging directories. Nil means OSDirMaker.
	Dirs DirMaker

	// Classifier inspects shadow targets. Nil means LstatClassifier.
	Classifier Classifier

	// Command overrides the entry point. Empty means DefaultShell.
	Command []string

	// Logger for compile decisions. Nil means slog.Default().
	Logger *slog.Logger
}

// Compile builds the mount plan for cfg. Overlay staging directories are
// created in input order; the first failure aborts compilation and
// directories created before it are kept.
func (c *Compiler) Compile(cfg *config.Config) (*Plan, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if c.Layout.Home == "" {
		return nil, fmt.Errorf("layout is required")
	}

	plan := &Plan{
		Baseline: Baseline(),
		Command:  c.command(),
	}

	if socket, ok := c.Environment.DisplaySocket(); ok {
		plan.Display = &Directive{
			Category: CategoryDisplay,
			Kind:     KindROBind,
			Sources:  []string{socket},
			Dest:     socket,
		}
	}

	for _, entry := range cfg.Overlay {
		directive, staging, err := c.overlayDirective(entry)
		if err != nil {
			return nil, err
		}
		plan.Overlays = append(plan.Overlays, directive)
		plan.Staging = append(plan.Staging, staging...)
	}

	for _, entry := range cfg.RWBind {
		plan.RWBinds = append(plan.RWBinds, c.bindDirective(entry, CategoryRWBind, KindBindTry))
	}
	for _, entry := range cfg.ROBind {
		plan.ROBinds = append(plan.ROBinds, c.bindDirective(entry, CategoryROBind, KindROBindTry))
	}

	for _, entry := range cfg.Shadow {
		plan.Shadows = append(plan.Shadows, c.shadowDirective(entry))
	}

	c.logger().Debug("compiled mount plan",
		"overlays", len(plan.Overlays),
		"rwbinds", len(plan.RWBinds),
		"robinds", len(plan.ROBinds),
		"shadows", len(plan.Shadows),
		"display", plan.Display != nil,
	)

	return plan, nil
}

// bindDirective maps a bind entry onto the same path inside the sandbox.
// The -try variants let one configuration name machine-specific paths:
// bwrap skips the directive when the source is missing.
func (c *Compiler) bindDirective(entry string, category Category, kind DirectiveKind) Directive {
	path := Resolve(entry, c.Layout.Home)
	return Directive{
		Category: category,
		Kind:     kind,
		Sources:  []string{path},
		Dest:     path,
	}
}

func (c *Compiler) command() []string {
	if len(c.Command) == 0 {
		return []string{DefaultShell}
	}
	command := make([]string, len(c.Command))
	copy(command, c.Command)
	return command
}

func (c *Compiler) dirs() DirMaker {
	if c.Dirs == nil {
		return OSDirMaker{}
	}
	return c.Dirs
}

func (c *Compiler) classifier() Classifier {
	if c.Classifier == nil {
		return LstatClassifier{}
	}
	return c.Classifier
}

func (c *Compiler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
