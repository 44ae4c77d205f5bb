// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable overrides the configuration file location.
const EnvironmentVariable = "SANDWORK_CONFIG"

// Config is the sandwork configuration. Each list keeps its file order;
// that order is preserved in the generated bwrap command.
type Config struct {
	// Overlay lists directories mounted copy-on-write. The sandbox sees
	// the original contents; writes persist in the staging tree.
	Overlay []string `toml:"overlay" yaml:"overlay" json:"overlay"`

	// Shadow lists files and directories hidden inside the sandbox.
	Shadow []string `toml:"shadow" yaml:"shadow" json:"shadow"`

	// ROBind lists paths exposed read-only when they exist.
	ROBind []string `toml:"robind" yaml:"robind" json:"robind"`

	// RWBind lists paths exposed read-write when they exist.
	RWBind []string `toml:"rwbind" yaml:"rwbind" json:"rwbind"`
}

// Format is a configuration file syntax.
type Format string

const (
	FormatTOML  Format = "toml"
	FormatYAML  Format = "yaml"
	FormatJSONC Format = "jsonc"
)

// FormatFromPath picks the format from the file extension. A path
// without an extension is TOML.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "", ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSONC, nil
	default:
		return "", fmt.Errorf("unsupported config format %q (want .toml, .yaml, .yml, .json or .jsonc)", filepath.Ext(path))
	}
}

// ReadError reports a configuration file that could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read config failed (%s): %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ParseError reports a configuration file that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse config failed (%s): %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError lists every problem found in a decoded configuration.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid config:\n  %s", strings.Join(e.Problems, "\n  "))
	}
	return fmt.Sprintf("invalid config (%s):\n  %s", e.Path, strings.Join(e.Problems, "\n  "))
}

// Locate returns the configuration path: explicit if set, then
// $SANDWORK_CONFIG, then fallback.
func Locate(explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	if fromEnvironment := os.Getenv(EnvironmentVariable); fromEnvironment != "" {
		return fromEnvironment
	}
	return fallback
}

// Load reads, decodes and validates the configuration at path.
func Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	cfg, err := Parse(data, format)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if problems := cfg.problems(); len(problems) > 0 {
		return nil, &ValidationError{Path: path, Problems: problems}
	}

	return cfg, nil
}

// Parse decodes data in the given format. Missing lists decode as empty;
// unknown keys are an error. Parse does not validate entries.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := &Config{}

	switch format {
	case FormatTOML:
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, key := range undecoded {
				keys = append(keys, key.String())
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}

	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

	case FormatJSONC:
		stripped := jsonc.ToJSON(data)
		if len(bytes.TrimSpace(stripped)) == 0 {
			return cfg, nil
		}
		decoder := json.NewDecoder(bytes.NewReader(stripped))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(cfg); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	return cfg, nil
}

// Validate checks that no entry is empty.
func (c *Config) Validate() error {
	if problems := c.problems(); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (c *Config) problems() []string {
	var problems []string
	lists := []struct {
		name    string
		entries []string
	}{
		{"overlay", c.Overlay},
		{"shadow", c.Shadow},
		{"robind", c.ROBind},
		{"rwbind", c.RWBind},
	}
	for _, list := range lists {
		for i, entry := range list.entries {
			if strings.TrimSpace(entry) == "" {
				problems = append(problems, fmt.Sprintf("%s[%d]: path is empty", list.name, i))
			} else if strings.ContainsRune(entry, 0) {
				problems = append(problems, fmt.Sprintf("%s[%d]: path contains a NUL byte", list.name, i))
			}
		}
	}
	return problems
}
