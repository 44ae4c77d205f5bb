// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Plan is the compiled mount plan. Each category has its own slice, so
// the emission order cannot depend on the order of the configuration
// lists.
type Plan struct {
	Baseline []Directive
	Display  *Directive
	Overlays []Directive
	RWBinds  []Directive
	ROBinds  []Directive
	Shadows  []Directive

	// Command is the entry point run inside the sandbox.
	Command []string

	// Staging lists the staging directories the overlay entries rely
	// on, in the order they were provisioned.
	Staging []string
}

// Directives returns every directive in emission order: baseline,
// display socket, overlay, rwbind, robind, shadow.
func (p *Plan) Directives() []Directive {
	total := len(p.Baseline) + len(p.Overlays) + len(p.RWBinds) + len(p.ROBinds) + len(p.Shadows) + 1
	directives := make([]Directive, 0, total)
	directives = append(directives, p.Baseline...)
	if p.Display != nil {
		directives = append(directives, *p.Display)
	}
	directives = append(directives, p.Overlays...)
	directives = append(directives, p.RWBinds...)
	directives = append(directives, p.ROBinds...)
	directives = append(directives, p.Shadows...)
	return directives
}

// Digest returns the hex BLAKE3 digest of a bwrap argument vector. Each
// argument is terminated by a NUL byte so ["a b"] and ["a", "b"] differ.
// Compiling the same configuration against the same filesystem state
// always yields the same digest.
func Digest(args []string) string {
	hasher := blake3.New()
	for _, arg := range args {
		hasher.Write([]byte(arg))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
