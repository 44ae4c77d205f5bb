// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/sandwork/cmd/sandwork/cli"
	"github.com/bureau-foundation/sandwork/sandbox"
)

// Output formats accepted by "sandwork plan --format".
const (
	formatShell = "shell"
	formatLines = "lines"
	formatNUL   = "nul"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

func planCommand(a *app) *cli.Command {
	var (
		flags       commonFlags
		format      string
		digestOnly  bool
		noProvision bool
	)

	return &cli.Command{
		Name:    "plan",
		Summary: "Print the bwrap command without running it",
		Description: `Compile the configuration and print the resulting bwrap invocation.

Overlay staging directories are created as they would be by "run" unless
--no-provision is given, in which case the directories that would be
created are listed but left alone. The plan digest is a BLAKE3 hash of
the argument vector: two runs against the same configuration and
filesystem state print the same digest.`,
		Usage: "sandwork plan [flags] [-- command [args...]]",
		Examples: []cli.Example{
			{Description: "Show the command as a shell line", Command: "sandwork plan"},
			{Description: "Inspect the plan as YAML without creating directories", Command: "sandwork plan --format yaml --no-provision"},
			{Description: "Feed the arguments to another tool", Command: "sandwork plan --format nul | xargs -0 echo"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("plan", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.StringVar(&format, "format", formatShell, "output format: shell, lines, nul, yaml or json")
			flagSet.BoolVar(&digestOnly, "digest", false, "print only the plan digest")
			flagSet.BoolVar(&noProvision, "no-provision", false, "do not create staging directories")
			return flagSet
		},
		Run: func(args []string) error {
			switch format {
			case formatShell, formatLines, formatNUL, formatYAML, formatJSON:
			default:
				return fmt.Errorf("unknown format %q (want shell, lines, nul, yaml or json)", format)
			}

			options := compileOptions{flags: &flags, command: args}
			var dry *sandbox.DryDirMaker
			if noProvision {
				dry = &sandbox.DryDirMaker{}
				options.dirs = dry
			}

			plan, _, err := compilePlan(options)
			if err != nil {
				return err
			}

			bwrapArgs, err := sandbox.NewBwrapBuilder().Build(plan)
			if err != nil {
				return err
			}
			digest := sandbox.Digest(bwrapArgs)

			if digestOnly {
				_, err := fmt.Fprintln(a.stdout, digest)
				return err
			}

			switch format {
			case formatShell:
				return writeShell(a.stdout, bwrapArgs)
			case formatLines:
				return writeTerminated(a.stdout, bwrapArgs, '\n')
			case formatNUL:
				return writeTerminated(a.stdout, bwrapArgs, 0)
			default:
				document, err := newPlanDocument(plan, bwrapArgs, digest, dry == nil)
				if err != nil {
					return err
				}
				if format == formatYAML {
					return writeYAML(a.stdout, document)
				}
				return writeJSON(a.stdout, document)
			}
		},
	}
}

// planDocument is the structured rendering of a compiled plan.
type planDocument struct {
	Launcher    string              `yaml:"launcher" json:"launcher"`
	Digest      string              `yaml:"digest" json:"digest"`
	Provisioned bool                `yaml:"provisioned" json:"provisioned"`
	Command     []string            `yaml:"command" json:"command"`
	Directives  []directiveDocument `yaml:"directives" json:"directives"`
	Staging     []string            `yaml:"staging,omitempty" json:"staging,omitempty"`
	Args        []string            `yaml:"args" json:"args"`
}

type directiveDocument struct {
	Category string   `yaml:"category" json:"category"`
	Kind     string   `yaml:"kind" json:"kind"`
	Sources  []string `yaml:"sources,omitempty" json:"sources,omitempty"`
	Dest     string   `yaml:"dest,omitempty" json:"dest,omitempty"`
	Args     []string `yaml:"args,flow" json:"args"`
}

func newPlanDocument(plan *sandbox.Plan, args []string, digest string, provisioned bool) (*planDocument, error) {
	document := &planDocument{
		Launcher:    sandbox.BwrapName,
		Digest:      digest,
		Provisioned: provisioned,
		Command:     plan.Command,
		Staging:     plan.Staging,
		Args:        args,
	}
	for _, directive := range plan.Directives() {
		directiveArgs, err := directive.Args()
		if err != nil {
			return nil, err
		}
		document.Directives = append(document.Directives, directiveDocument{
			Category: directive.Category.String(),
			Kind:     string(directive.Kind),
			Sources:  directive.Sources,
			Dest:     directive.Dest,
			Args:     directiveArgs,
		})
	}
	return document, nil
}

func writeYAML(w io.Writer, document *planDocument) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	return encoder.Close()
}

func writeJSON(w io.Writer, document *planDocument) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	return nil
}

// writeShell prints the invocation as one line that a POSIX shell would
// split back into the same arguments.
func writeShell(w io.Writer, args []string) error {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, sandbox.BwrapName)
	for _, arg := range args {
		quoted = append(quoted, shellQuote(arg))
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, " "))
	return err
}

func writeTerminated(w io.Writer, args []string, terminator byte) error {
	var builder strings.Builder
	for _, arg := range args {
		builder.WriteString(arg)
		builder.WriteByte(terminator)
	}
	_, err := io.WriteString(w, builder.String())
	return err
}

// shellQuote returns arg unchanged when it only contains characters a
// shell never interprets, and single-quoted otherwise.
func shellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	safe := true
	for _, r := range arg {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=+,@%", r)
}
