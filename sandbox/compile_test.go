// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/bureau-foundation/sandwork/lib/config"
	"github.com/bureau-foundation/sandwork/lib/testutil"
)

// recordingDirMaker records MkdirAll calls and fails for paths in fail.
type recordingDirMaker struct {
	created []string
	fail    map[string]error
}

func (r *recordingDirMaker) MkdirAll(path string, perm os.FileMode) error {
	if err, ok := r.fail[path]; ok {
		return err
	}
	r.created = append(r.created, path)
	return nil
}

// kinds returns a classifier that answers from a fixed table. Paths not
// in the table are absent.
func kinds(table map[string]PathKind) Classifier {
	return ClassifierFunc(func(path string) (PathKind, error) {
		return table[path], nil
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCompiler(t *testing.T, home string) (*Compiler, *recordingDirMaker) {
	t.Helper()
	layout, err := NewLayout(home)
	if err != nil {
		t.Fatal(err)
	}
	dirs := &recordingDirMaker{}
	return &Compiler{
		Layout:     layout,
		Dirs:       dirs,
		Classifier: kinds(nil),
		Logger:     discardLogger(),
	}, dirs
}

func buildArgs(t *testing.T, plan *Plan) []string {
	t.Helper()
	args, err := NewBwrapBuilder().Build(plan)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return args
}

func TestCompile_ProjectsAndSecrets(t *testing.T) {
	t.Parallel()

	compiler, dirs := testCompiler(t, "/home/u")
	compiler.Classifier = kinds(map[string]PathKind{"/home/u/secrets.env": PathFile})

	plan, err := compiler.Compile(&config.Config{
		Overlay: []string{"Projects"},
		Shadow:  []string{"secrets.env"},
	})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	want := append(append([]string{}, wantBaselineArgs...),
		"--overlay-src", "/home/u/Projects",
		"--overlay", "/home/u/.sandwork/rwsrc/Projects", "/home/u/.sandwork/workdir/Projects", "/home/u/Projects",
		"--ro-bind-try", "/dev/null", "/home/u/secrets.env",
		"--", "/usr/bin/bash",
	)
	if got := buildArgs(t, plan); !reflect.DeepEqual(got, want) {
		t.Errorf("args =\n  %q\nwant\n  %q", got, want)
	}

	wantDirs := []string{"/home/u/.sandwork/rwsrc/Projects", "/home/u/.sandwork/workdir/Projects"}
	if !reflect.DeepEqual(dirs.created, wantDirs) {
		t.Errorf("created %v, want %v", dirs.created, wantDirs)
	}
	if !reflect.DeepEqual(plan.Staging, wantDirs) {
		t.Errorf("Staging = %v, want %v", plan.Staging, wantDirs)
	}
}

func TestCompile_CategoryOrderIgnoresFileOrder(t *testing.T) {
	t.Parallel()

	documents := []string{
		`
shadow = [".ssh", "secrets.env"]
robind = ["/dev/dri"]
rwbind = [".cache/sccache"]
overlay = ["Projects", ".cargo"]
`,
		`
overlay = ["Projects", ".cargo"]
rwbind = [".cache/sccache"]
robind = ["/dev/dri"]
shadow = [".ssh", "secrets.env"]
`,
	}

	var results [][]string
	for _, document := range documents {
		cfg, err := config.Parse([]byte(document), config.FormatTOML)
		if err != nil {
			t.Fatalf("Parse() error: %v", err)
		}
		compiler, _ := testCompiler(t, "/home/u")
		plan, err := compiler.Compile(cfg)
		if err != nil {
			t.Fatalf("Compile() error: %v", err)
		}

		directives := plan.Directives()
		for i := 1; i < len(directives); i++ {
			if directives[i].Category < directives[i-1].Category {
				t.Errorf("%s directive emitted after %s", directives[i].Category, directives[i-1].Category)
			}
		}
		results = append(results, buildArgs(t, plan))
	}

	if !reflect.DeepEqual(results[0], results[1]) {
		t.Errorf("list order in the file changed the command:\n  %q\n  %q", results[0], results[1])
	}

	// Within a category, entries keep their configured order.
	args := results[0]
	first := slices.Index(args, "/home/u/.ssh")
	second := slices.Index(args, "/home/u/secrets.env")
	if first < 0 || second < 0 || first > second {
		t.Errorf("shadow entries out of order: .ssh at %d, secrets.env at %d", first, second)
	}
}

func TestCompile_BindEntries(t *testing.T) {
	t.Parallel()

	compiler, dirs := testCompiler(t, "/home/u")
	plan, err := compiler.Compile(&config.Config{
		RWBind: []string{".cache/sccache"},
		ROBind: []string{"/nonexistent/device", ".gitconfig"},
	})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	want := []Directive{
		{Category: CategoryROBind, Kind: KindROBindTry, Sources: []string{"/nonexistent/device"}, Dest: "/nonexistent/device"},
		{Category: CategoryROBind, Kind: KindROBindTry, Sources: []string{"/home/u/.gitconfig"}, Dest: "/home/u/.gitconfig"},
	}
	if !reflect.DeepEqual(plan.ROBinds, want) {
		t.Errorf("ROBinds = %+v, want %+v", plan.ROBinds, want)
	}
	wantRW := []Directive{
		{Category: CategoryRWBind, Kind: KindBindTry, Sources: []string{"/home/u/.cache/sccache"}, Dest: "/home/u/.cache/sccache"},
	}
	if !reflect.DeepEqual(plan.RWBinds, wantRW) {
		t.Errorf("RWBinds = %+v, want %+v", plan.RWBinds, wantRW)
	}
	if len(dirs.created) != 0 {
		t.Errorf("bind entries created directories: %v", dirs.created)
	}
}

func TestCompile_Display(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		environment Environment
		want        string
	}{
		{"both set", Environment{RuntimeDir: "/run/user/1000", Display: "wayland-0"}, "/run/user/1000/wayland-0"},
		{"absolute display", Environment{RuntimeDir: "/run/user/1000", Display: "/tmp/wl.sock"}, "/tmp/wl.sock"},
		{"runtime dir only", Environment{RuntimeDir: "/run/user/1000"}, ""},
		{"display only", Environment{Display: "wayland-0"}, ""},
		{"neither", Environment{}, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			compiler, _ := testCompiler(t, "/home/u")
			compiler.Environment = test.environment

			plan, err := compiler.Compile(&config.Config{})
			if err != nil {
				t.Fatalf("Compile() error: %v", err)
			}

			if test.want == "" {
				if plan.Display != nil {
					t.Errorf("Display = %+v, want none", plan.Display)
				}
				return
			}
			want := &Directive{Category: CategoryDisplay, Kind: KindROBind, Sources: []string{test.want}, Dest: test.want}
			if !reflect.DeepEqual(plan.Display, want) {
				t.Errorf("Display = %+v, want %+v", plan.Display, want)
			}

			args := buildArgs(t, plan)
			if got := args[len(wantBaselineArgs) : len(wantBaselineArgs)+3]; !reflect.DeepEqual(got, []string{"--ro-bind", test.want, test.want}) {
				t.Errorf("display directive not directly after baseline: %q", got)
			}
		})
	}
}

func TestCompile_OverlayFailureAbortsWithoutRollback(t *testing.T) {
	t.Parallel()

	compiler, dirs := testCompiler(t, "/home/u")
	failure := errors.New("read-only file system")
	dirs.fail = map[string]error{"/home/u/.sandwork/workdir/b": failure}

	plan, err := compiler.Compile(&config.Config{Overlay: []string{"a", "b", "c"}})
	if plan != nil {
		t.Errorf("Compile() returned a plan despite the failure")
	}

	var provisionErr *ProvisionError
	if !errors.As(err, &provisionErr) {
		t.Fatalf("Compile() = %v, want *ProvisionError", err)
	}
	if provisionErr.Entry != "b" || provisionErr.Path != "/home/u/.sandwork/workdir/b" {
		t.Errorf("ProvisionError = %+v", provisionErr)
	}
	if !errors.Is(err, failure) {
		t.Errorf("ProvisionError does not wrap the cause: %v", err)
	}

	wantCreated := []string{
		"/home/u/.sandwork/rwsrc/a",
		"/home/u/.sandwork/workdir/a",
		"/home/u/.sandwork/rwsrc/b",
	}
	if !reflect.DeepEqual(dirs.created, wantCreated) {
		t.Errorf("created %v, want %v", dirs.created, wantCreated)
	}
}

func TestCompile_OverlayContainingStagingRejected(t *testing.T) {
	t.Parallel()

	for _, entry := range []string{".", "/home/u", "/home", "/"} {
		compiler, dirs := testCompiler(t, "/home/u")
		_, err := compiler.Compile(&config.Config{Overlay: []string{entry}})

		var provisionErr *ProvisionError
		if !errors.As(err, &provisionErr) {
			t.Errorf("overlay %q: Compile() = %v, want *ProvisionError", entry, err)
		}
		if len(dirs.created) != 0 {
			t.Errorf("overlay %q: created %v", entry, dirs.created)
		}
	}
}

func TestCompile_OverlayStagingPaths(t *testing.T) {
	t.Parallel()

	compiler, _ := testCompiler(t, "/home/u")
	plan, err := compiler.Compile(&config.Config{
		Overlay: []string{"work/src", "/home/u/.cargo", "/srv/data"},
	})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	want := [][]string{
		{"/home/u/work/src", "/home/u/.sandwork/rwsrc/work/src", "/home/u/.sandwork/workdir/work/src"},
		{"/home/u/.cargo", "/home/u/.sandwork/rwsrc/.cargo", "/home/u/.sandwork/workdir/.cargo"},
		{"/srv/data", "/home/u/.sandwork/rwsrc/.host-root/srv/data", "/home/u/.sandwork/workdir/.host-root/srv/data"},
	}
	for i, directive := range plan.Overlays {
		if !reflect.DeepEqual(directive.Sources, want[i]) || directive.Dest != want[i][0] {
			t.Errorf("overlay %d = %+v, want sources %v", i, directive, want[i])
		}
	}
}

func TestCompile_ShadowMaskSources(t *testing.T) {
	t.Parallel()

	compiler, _ := testCompiler(t, "/home/u")
	compiler.Classifier = ClassifierFunc(func(path string) (PathKind, error) {
		switch filepath.Base(path) {
		case "file":
			return PathFile, nil
		case "dir":
			return PathDirectory, nil
		case "link":
			return PathSymlink, nil
		case "fifo":
			return PathOther, nil
		case "denied":
			return PathAbsent, fmt.Errorf("permission denied")
		default:
			return PathAbsent, nil
		}
	})

	plan, err := compiler.Compile(&config.Config{
		Shadow: []string{"file", "dir", "link", "fifo", "denied", "missing"},
	})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	empty := "/home/u/.sandwork/empty"
	want := map[string]string{
		"/home/u/file":    NullDevice,
		"/home/u/dir":     empty,
		"/home/u/link":    empty,
		"/home/u/fifo":    empty,
		"/home/u/denied":  empty,
		"/home/u/missing": empty,
	}
	if len(plan.Shadows) != len(want) {
		t.Fatalf("got %d shadow directives, want %d", len(plan.Shadows), len(want))
	}
	for _, directive := range plan.Shadows {
		if directive.Kind != KindMask || directive.Category != CategoryShadow {
			t.Errorf("%s: kind %s category %s", directive.Dest, directive.Kind, directive.Category)
		}
		if got := directive.Sources[0]; got != want[directive.Dest] {
			t.Errorf("%s masked with %s, want %s", directive.Dest, got, want[directive.Dest])
		}
	}
}

func TestCompile_CommandOverride(t *testing.T) {
	t.Parallel()

	compiler, _ := testCompiler(t, "/home/u")
	command := []string{"make", "test"}
	compiler.Command = command

	plan, err := compiler.Compile(&config.Config{})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	command[0] = "changed"
	if !reflect.DeepEqual(plan.Command, []string{"make", "test"}) {
		t.Errorf("Command = %v, want [make test]", plan.Command)
	}

	compiler.Command = nil
	plan, err = compiler.Compile(&config.Config{})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if !reflect.DeepEqual(plan.Command, []string{DefaultShell}) {
		t.Errorf("default Command = %v", plan.Command)
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	compiler, _ := testCompiler(t, "/home/u")
	if _, err := compiler.Compile(nil); err == nil {
		t.Error("Compile(nil) succeeded")
	}

	empty := &Compiler{}
	if _, err := empty.Compile(&config.Config{}); err == nil {
		t.Error("Compile() without a layout succeeded")
	}
}

func TestCompile_RealFilesystemIsIdempotent(t *testing.T) {
	t.Parallel()

	home := testutil.Home(t)
	testutil.Dir(t, home, "Projects")
	testutil.File(t, home, "secrets.env", "TOKEN=1")
	testutil.Dir(t, home, ".ssh")
	testutil.Symlink(t, home, ".netrc", filepath.Join(home, "secrets.env"))

	layout, err := NewLayout(home)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Overlay: []string{"Projects", "not-yet-created"},
		Shadow:  []string{"secrets.env", ".ssh", ".netrc", "absent.key"},
	}

	compile := func() []string {
		compiler := &Compiler{Layout: layout, Logger: discardLogger()}
		if err := layout.Prepare(OSDirMaker{}); err != nil {
			t.Fatalf("Prepare() error: %v", err)
		}
		plan, err := compiler.Compile(cfg)
		if err != nil {
			t.Fatalf("Compile() error: %v", err)
		}
		return buildArgs(t, plan)
	}

	first := compile()
	for _, dir := range []string{"rwsrc/Projects", "workdir/Projects", "rwsrc/not-yet-created", "workdir/not-yet-created", "empty"} {
		testutil.RequireDir(t, filepath.Join(layout.Root, dir))
	}

	// Writes from a previous session must survive the next provisioning.
	testutil.File(t, layout.Rwsrc, "Projects/notes.txt", "kept")

	second := compile()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second compile differs:\n  %q\n  %q", first, second)
	}
	if Digest(first) != Digest(second) {
		t.Error("digest changed between compiles")
	}
	if _, err := os.Stat(filepath.Join(layout.Rwsrc, "Projects", "notes.txt")); err != nil {
		t.Errorf("upper layer content lost: %v", err)
	}

	masks := map[string]string{}
	for i := 0; i+2 < len(first); i++ {
		if first[i] == "--ro-bind-try" {
			masks[first[i+2]] = first[i+1]
		}
	}
	wantMasks := map[string]string{
		filepath.Join(home, "secrets.env"): NullDevice,
		filepath.Join(home, ".ssh"):        layout.Empty,
		filepath.Join(home, ".netrc"):      layout.Empty,
		filepath.Join(home, "absent.key"):  layout.Empty,
	}
	if !reflect.DeepEqual(masks, wantMasks) {
		t.Errorf("masks = %v, want %v", masks, wantMasks)
	}
}

func TestCompile_OverlayCollidesWithFile(t *testing.T) {
	t.Parallel()

	home := testutil.Home(t)
	testutil.File(t, home, ".sandwork/rwsrc/Projects", "stray file")
	layout, err := NewLayout(home)
	if err != nil {
		t.Fatal(err)
	}

	compiler := &Compiler{Layout: layout, Logger: discardLogger()}
	_, err = compiler.Compile(&config.Config{Overlay: []string{"Projects"}})

	var provisionErr *ProvisionError
	if !errors.As(err, &provisionErr) {
		t.Fatalf("Compile() = %v, want *ProvisionError", err)
	}
	if provisionErr.Path != filepath.Join(layout.Rwsrc, "Projects") {
		t.Errorf("ProvisionError.Path = %q", provisionErr.Path)
	}
}
