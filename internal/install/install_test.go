// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/pyenv"
	"modvalidator-cli/internal/registry"
	"modvalidator-cli/internal/testutil"
)

// recordingRunner records commands and simulates venv creation.
type recordingRunner struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingRunner) Run(_ context.Context, _, name string, args ...string) ([]byte, []byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	r.mu.Unlock()
	if len(args) == 3 && args[1] == "venv" {
		if err := os.MkdirAll(filepath.Join(args[2], "bin"), 0o755); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func (r *recordingRunner) contains(sub string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}

func newInstaller(t *testing.T) (*Installer, *recordingRunner, string) {
	t.Helper()
	root := t.TempDir()
	runner := &recordingRunner{}
	envs := pyenv.NewManager(filepath.Join(root, "envs"))
	envs.Runner = runner

	store, err := registry.Open(filepath.Join(root, "modules.db"))
	if err != nil {
		t.Fatalf("registry.Open() error = %v", err)
	}
	t.Cleanup(testutil.DeferClose(t, store))

	return &Installer{
		Layout:      module.Layout{ModulesDir: filepath.Join(root, "modules"), SubnetsDir: filepath.Join(root, "subnets")},
		Envs:        envs,
		Registry:    store,
		HostEnvFile: filepath.Join(root, ".env"),
	}, runner, root
}

func TestDetectKindAndName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		kind   module.Kind
		name   string
	}{
		{source: "translation", kind: module.KindInference, name: "translation"},
		{source: "https://registrar.example/modules/vision", kind: module.KindInference, name: "vision"},
		{source: "https://github.com/org/subnet-9.git", kind: module.KindSubnet, name: "subnet-9"},
		{source: "https://github.com/org/sn1/", kind: module.KindSubnet, name: "sn1"},
		{source: "git@github.com:org/sn2.git", kind: module.KindSubnet, name: "sn2"},
	}
	for _, tt := range tests {
		if got := DetectKind(tt.source); got != tt.kind {
			t.Errorf("DetectKind(%q) = %q, want %q", tt.source, got, tt.kind)
		}
		got, err := NameFromSource(tt.source)
		if err != nil || got != tt.name {
			t.Errorf("NameFromSource(%q) = %q, %v, want %q", tt.source, got, err, tt.name)
		}
	}

	if _, err := NameFromSource("https://example.com/"); !errors.Is(err, ErrInvalidSource) {
		t.Errorf("NameFromSource(no path) error = %v, want ErrInvalidSource", err)
	}
}

func TestDecodeScript(t *testing.T) {
	t.Parallel()

	script := "import os\nprint('setup')\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(script))

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "base64", payload: encoded, want: script},
		{name: "json quoted base64", payload: `"` + encoded + `"` + "\n", want: script},
		{name: "raw fallback", payload: `"print(\"hi\")"`, want: "print(hi)"},
	}
	for _, tt := range tests {
		if got := string(DecodeScript(tt.payload)); got != tt.want {
			t.Errorf("%s: DecodeScript() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestInstallInference(t *testing.T) {
	t.Parallel()

	script := "print('installing')\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/modules/translation" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`"` + base64.StdEncoding.EncodeToString([]byte(script)) + `"`))
	}))
	t.Cleanup(srv.Close)

	inst, runner, root := newInstaller(t)
	inst.RegistrarURL = srv.URL
	inst.Client = srv.Client()
	ctx := context.Background()

	report, err := inst.Install(ctx, "translation", Options{APIHost: "0.0.0.0", APIPort: "8080"})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if report.Module.Kind != module.KindInference || report.Handle.State != pyenv.StateCreated {
		t.Errorf("report = %+v", report)
	}

	setup := filepath.Join(root, "modules", "translation", "setup_translation.py")
	content, err := os.ReadFile(setup)
	if err != nil {
		t.Fatalf("setup script not written: %v", err)
	}
	if string(content) != script {
		t.Errorf("setup script = %q, want %q", content, script)
	}
	if !runner.contains(report.Handle.InterpreterPath + " " + setup) {
		t.Errorf("setup script not run; calls = %v", runner.calls)
	}

	env, err := os.ReadFile(filepath.Join(root, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "TRANSLATION_API_PORT=8080\nTRANSLATION_API_HOST=0.0.0.0\n"; string(env) != want {
		t.Errorf(".env = %q, want %q", env, want)
	}

	entry, err := inst.Registry.Get(ctx, "translation")
	if err != nil || entry.Kind != module.KindInference {
		t.Errorf("registry entry = %+v, %v", entry, err)
	}
}

func TestInstallInferenceFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	inst, _, _ := newInstaller(t)
	inst.RegistrarURL = srv.URL
	inst.Client = srv.Client()

	if _, err := inst.Install(context.Background(), "missing", Options{}); err == nil {
		t.Fatal("Install() error = nil, want fetch error")
	}
	if _, err := inst.Registry.Get(context.Background(), "missing"); !errors.Is(err, registry.ErrNotRegistered) {
		t.Errorf("failed install registered: %v", err)
	}
}

func TestInstallSubnetFromLocalRepository(t *testing.T) {
	t.Parallel()

	repoDir := t.TempDir()
	repo, err := git.PlainInit(repoDir, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	files := map[string]string{
		"requirements.txt": "typer\n",
		"cli.py":           "@app.command(\"greet\")\ndef greet(name: str = typer.Argument(default=\"world\")):\n    pass\n",
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(repoDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("Add(%s) error = %v", name, err)
		}
	}
	if _, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	inst, runner, root := newInstaller(t)
	mod, err := inst.Layout.Module("sn1", module.KindSubnet)
	if err != nil {
		t.Fatal(err)
	}

	report, err := inst.installSubnet(context.Background(), mod, repoDir)
	if err != nil {
		t.Fatalf("installSubnet() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "subnets", "sn1", "cli.py")); err != nil {
		t.Errorf("repository not cloned: %v", err)
	}
	if report.Handle.State != pyenv.StateDependenciesInstalled {
		t.Errorf("State = %v, want dependencies-installed", report.Handle.State)
	}
	if !runner.contains("install -r") {
		t.Errorf("requirements not installed; calls = %v", runner.calls)
	}
	if _, ok := report.Schema.Commands["greet"]; !ok {
		t.Errorf("Schema commands = %v, want greet", report.Schema.CommandNames())
	}
}

func TestUninstall(t *testing.T) {
	t.Parallel()

	inst, _, _ := newInstaller(t)
	ctx := context.Background()
	mod, err := inst.Layout.Module("demo", module.KindInference)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(mod.SourceRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(inst.Envs.IsolationDir("demo"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := inst.Registry.Register(ctx, "demo", module.KindInference); err != nil {
		t.Fatal(err)
	}

	if err := inst.Uninstall(ctx, "demo", module.KindInference); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	for _, p := range []string{mod.SourceRoot, inst.Envs.IsolationDir("demo")} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists", p)
		}
	}
	if _, err := inst.Registry.Get(ctx, "demo"); !errors.Is(err, registry.ErrNotRegistered) {
		t.Errorf("registry entry remains: %v", err)
	}
}
