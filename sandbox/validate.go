// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/sandwork/lib/config"
)

// ValidationResult holds the result of a validation check.
type ValidationResult struct {
	Name    string
	Passed  bool
	Message string
	Warning bool // True if this is a warning, not an error.
}

// Validator performs pre-flight validation without launching anything.
type Validator struct {
	results []ValidationResult
	errors  int

	// Classifier inspects configured paths. Nil means LstatClassifier.
	Classifier Classifier

	// bwrapPath and userNamespaceFile are overridable in tests.
	bwrapPath         func() (string, error)
	userNamespaceFile string
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		results:           make([]ValidationResult, 0),
		bwrapPath:         BwrapPath,
		userNamespaceFile: "/proc/sys/kernel/unprivileged_userns_clone",
	}
}

// Results returns all validation results.
func (v *Validator) Results() []ValidationResult {
	return v.results
}

// HasErrors returns true if any validation failed.
func (v *Validator) HasErrors() bool {
	return v.errors > 0
}

// pass records a successful validation.
func (v *Validator) pass(name, message string) {
	v.results = append(v.results, ValidationResult{
		Name:    name,
		Passed:  true,
		Message: message,
	})
}

// warn records a warning (not a failure).
func (v *Validator) warn(name, message string) {
	v.results = append(v.results, ValidationResult{
		Name:    name,
		Passed:  true,
		Message: message,
		Warning: true,
	})
}

// fail records a validation failure.
func (v *Validator) fail(name, message string) {
	v.results = append(v.results, ValidationResult{
		Name:    name,
		Passed:  false,
		Message: message,
	})
	v.errors++
}

// ValidateAll runs every check. cfg may be nil when loadErr is set.
func (v *Validator) ValidateAll(layout Layout, configPath string, cfg *config.Config, loadErr error, env Environment) {
	v.ValidateBwrap()
	v.ValidateUserNamespaces()
	v.ValidateLayout(layout)
	v.ValidateConfig(configPath, cfg, loadErr)
	if cfg != nil && loadErr == nil {
		v.ValidateEntries(layout, cfg)
	}
	v.ValidateDisplay(env)
}

// ValidateBwrap checks that bubblewrap is available.
func (v *Validator) ValidateBwrap() {
	path, err := v.bwrapPath()
	if err != nil {
		v.fail("bwrap", err.Error())
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		v.fail("bwrap", fmt.Sprintf("cannot stat %s: %v", path, err))
		return
	}

	if info.Mode()&0111 == 0 {
		v.fail("bwrap", fmt.Sprintf("%s is not executable", path))
		return
	}

	output, err := exec.Command(path, "--version").Output()
	if err != nil {
		v.warn("bwrap", fmt.Sprintf("found at %s but --version failed", path))
		return
	}

	version := strings.TrimSpace(string(output))
	if !SupportsOverlay(version) {
		v.warn("bwrap", fmt.Sprintf("%s (%s) predates overlay support; overlay entries will fail", path, version))
		return
	}
	v.pass("bwrap", fmt.Sprintf("available: %s (%s)", path, version))
}

// ValidateUserNamespaces checks that unprivileged user namespaces are
// enabled.
func (v *Validator) ValidateUserNamespaces() {
	data, err := os.ReadFile(v.userNamespaceFile)
	if err != nil {
		// The sysctl only exists on kernels that carry the restriction.
		if os.IsNotExist(err) {
			v.pass("userns", "user namespaces supported (no clone restriction)")
			return
		}
		v.warn("userns", fmt.Sprintf("cannot check user namespace support: %v", err))
		return
	}

	if strings.TrimSpace(string(data)) == "0" {
		v.fail("userns", "unprivileged user namespaces are disabled (set kernel.unprivileged_userns_clone=1)")
		return
	}

	v.pass("userns", "user namespaces enabled")
}

// ValidateLayout checks the home directory and the staging root.
func (v *Validator) ValidateLayout(layout Layout) {
	info, err := os.Stat(layout.Home)
	if err != nil {
		v.fail("home", fmt.Sprintf("cannot access %s: %v", layout.Home, err))
		return
	}
	if !info.IsDir() {
		v.fail("home", fmt.Sprintf("not a directory: %s", layout.Home))
		return
	}
	v.pass("home", layout.Home)

	info, err = os.Stat(layout.Root)
	switch {
	case os.IsNotExist(err):
		v.warn("staging", fmt.Sprintf("%s does not exist yet (created on first run)", layout.Root))
	case err != nil:
		v.fail("staging", fmt.Sprintf("cannot access %s: %v", layout.Root, err))
	case !info.IsDir():
		v.fail("staging", fmt.Sprintf("not a directory: %s", layout.Root))
	default:
		v.pass("staging", layout.Root)
	}
}

// ValidateConfig reports the outcome of loading the configuration.
func (v *Validator) ValidateConfig(path string, cfg *config.Config, loadErr error) {
	if loadErr != nil {
		v.fail("config", loadErr.Error())
		return
	}
	if cfg == nil {
		v.fail("config", fmt.Sprintf("no configuration loaded from %s", path))
		return
	}
	v.pass("config", fmt.Sprintf("%s (%d overlay, %d rwbind, %d robind, %d shadow)",
		path, len(cfg.Overlay), len(cfg.RWBind), len(cfg.ROBind), len(cfg.Shadow)))
}

// ValidateEntries inspects every configured path. Nothing here is fatal:
// missing bind sources are skipped by bwrap, and missing overlay or
// shadow targets are reported so the user knows what will happen.
func (v *Validator) ValidateEntries(layout Layout, cfg *config.Config) {
	classifier := v.Classifier
	if classifier == nil {
		classifier = LstatClassifier{}
	}

	classify := func(name, entry string) (string, PathKind, bool) {
		path := Resolve(entry, layout.Home)
		kind, err := classifier.Classify(path)
		if err != nil {
			v.warn(name, fmt.Sprintf("cannot inspect %s: %v", path, err))
			return path, PathAbsent, false
		}
		return path, kind, true
	}

	for _, entry := range cfg.Overlay {
		path, kind, ok := classify("overlay", entry)
		if !ok {
			continue
		}
		switch kind {
		case PathDirectory:
			v.pass("overlay", path)
		case PathAbsent:
			v.warn("overlay", fmt.Sprintf("lower directory not found: %s", path))
		default:
			v.warn("overlay", fmt.Sprintf("lower path is a %s, not a directory: %s", kind, path))
		}
	}

	binds := []struct {
		name    string
		entries []string
	}{
		{"rwbind", cfg.RWBind},
		{"robind", cfg.ROBind},
	}
	for _, bind := range binds {
		for _, entry := range bind.entries {
			path, kind, ok := classify(bind.name, entry)
			if !ok {
				continue
			}
			if kind == PathAbsent {
				v.warn(bind.name, fmt.Sprintf("not found, will be skipped: %s", path))
				continue
			}
			v.pass(bind.name, path)
		}
	}

	for _, entry := range cfg.Shadow {
		path, kind, ok := classify("shadow", entry)
		if !ok {
			continue
		}
		v.pass("shadow", fmt.Sprintf("%s (%s, masked with %s)", path, kind, maskSource(kind, layout)))
	}
}

// ValidateDisplay checks the display socket passthrough.
func (v *Validator) ValidateDisplay(env Environment) {
	socket, ok := env.DisplaySocket()
	if !ok {
		v.pass("display", "no display socket configured (XDG_RUNTIME_DIR or WAYLAND_DISPLAY unset)")
		return
	}

	info, err := os.Stat(socket)
	if err != nil {
		v.warn("display", fmt.Sprintf("socket not found: %s", socket))
		return
	}
	if info.Mode()&os.ModeSocket == 0 {
		v.warn("display", fmt.Sprintf("not a socket: %s", socket))
		return
	}
	v.pass("display", fmt.Sprintf("socket exists: %s", socket))
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	nameStyle = lipgloss.NewStyle().Bold(true)
)

// PrintResults writes validation results to a writer. styled enables
// terminal colors.
func (v *Validator) PrintResults(w io.Writer, styled bool) {
	render := func(style lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return style.Render(text)
	}

	for _, r := range v.results {
		var prefix string
		if r.Passed {
			if r.Warning {
				prefix = render(warnStyle, "⚠")
			} else {
				prefix = render(passStyle, "✓")
			}
		} else {
			prefix = render(failStyle, "✗")
		}
		fmt.Fprintf(w, "%s %s: %s\n", prefix, render(nameStyle, r.Name), r.Message)
	}

	fmt.Fprintln(w)
	if v.HasErrors() {
		fmt.Fprintln(w, render(failStyle, fmt.Sprintf("Validation failed with %d error(s)", v.errors)))
	} else {
		fmt.Fprintln(w, "Ready to run sandbox")
	}
}
