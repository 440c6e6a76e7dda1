// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"

	"modvalidator-cli/internal/issue"
	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/registry"
	"modvalidator-cli/internal/schema"
	"modvalidator-cli/internal/testutil"
	"modvalidator-cli/pkg/platform"
)

const subnetCLI = `import typer
app = typer.Typer()

@app.command("greet")
def greet(name: str, punctuation: str = typer.Argument(default="!", help="ending")):
    print(f"hello {name}{punctuation}")
`

func TestParseConfigFormats(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	testutil.WriteFile(t, filepath.Join(cfg.SubnetsDir, "sn1", "cli.py"), subnetCLI, 0o644)
	testutil.WriteFile(t, filepath.Join(cfg.SubnetsDir, "sn1", schema.ExampleVarsFile), "WALLET=default\n", 0o644)

	t.Run("text", func(t *testing.T) {
		out, _, err := runCLI(t, cfg, "parse-config", "sn1")
		if err != nil {
			t.Fatalf("parse-config error = %v", err)
		}
		for _, want := range []string{"greet", "(requires name)", "required", `default "!"`, "ending", "WALLET=default"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := runCLI(t, cfg, "parse-config", "sn1", "--format", "json", "--set", "WALLET=hot")
		if err != nil {
			t.Fatalf("parse-config error = %v", err)
		}
		var got schema.ModuleConfig
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if got.EnvVars["WALLET"] != "hot" {
			t.Errorf("EnvVars[WALLET] = %q, want hot", got.EnvVars["WALLET"])
		}
		if len(got.Commands["greet"].Parameters) != 2 {
			t.Errorf("greet parameters = %+v", got.Commands["greet"].Parameters)
		}
	})

	t.Run("toml", func(t *testing.T) {
		out, _, err := runCLI(t, cfg, "parse-config", "sn1", "-f", "toml")
		if err != nil {
			t.Fatalf("parse-config error = %v", err)
		}
		if !strings.Contains(out, "greet") || !strings.Contains(out, "WALLET") {
			t.Errorf("TOML output = %s", out)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, _, err := runCLI(t, cfg, "parse-config", "sn1", "--format", "yaml"); err == nil {
			t.Error("parse-config --format yaml error = nil")
		}
	})

	t.Run("save", func(t *testing.T) {
		_, stderr, err := runCLI(t, cfg, "parse-config", "sn1", "--set", "WALLET=cold", "--save")
		if err != nil {
			t.Fatalf("parse-config --save error = %v", err)
		}
		data, err := os.ReadFile(filepath.Join(cfg.SubnetsDir, "sn1", schema.DeclaredVarsFile))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "WALLET=cold\n" {
			t.Errorf(".env = %q, want WALLET=cold", data)
		}
		if !strings.Contains(stderr, "saved 1 variable(s)") {
			t.Errorf("stderr = %q", stderr)
		}
	})
}

func TestParseConfigUnknownSubnet(t *testing.T) {
	cfg := testConfig(t.TempDir())

	_, _, err := runCLI(t, cfg, "parse-config", "ghost")
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Issue != issue.ModuleNotFoundId {
		t.Errorf("parse-config ghost error = %v, want module-not-found", err)
	}
}

func TestPatchCommand(t *testing.T) {
	script := filepath.Join(t.TempDir(), "miner.py")
	testutil.WriteFile(t, script, "def forward(self, synapse):\n    return synapse\n", 0o644)
	cfg := testConfig(t.TempDir())

	out, _, err := runCLI(t, cfg, "patch", script, "llm")
	if err != nil {
		t.Fatalf("patch error = %v", err)
	}
	if !strings.Contains(out, "redirected to") {
		t.Errorf("patch output = %q", out)
	}
	data, _ := os.ReadFile(script)
	if !strings.Contains(string(data), "modules/llm/llm.py") {
		t.Errorf("script not patched:\n%s", data)
	}

	out, _, err = runCLI(t, cfg, "patch", script, "llm")
	if err != nil || !strings.Contains(out, "already redirected") {
		t.Errorf("second patch = %q, %v", out, err)
	}

	if _, _, err := runCLI(t, cfg, "patch", script, "../evil"); err == nil {
		t.Error("patch with invalid inference name error = nil")
	}
}

func TestListAndUninstall(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)

	out, _, err := runCLI(t, cfg, "list")
	if err != nil || !strings.Contains(out, "No modules installed") {
		t.Fatalf("list = %q, %v", out, err)
	}

	store, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Register(context.Background(), "sn1", module.KindSubnet); err != nil {
		t.Fatal(err)
	}
	testutil.MustClose(t, store)
	testutil.WriteFile(t, filepath.Join(cfg.SubnetsDir, "sn1", "cli.py"), subnetCLI, 0o644)
	testutil.WriteFile(t, filepath.Join(cfg.EnvRoot, ".sn1", "marker"), "", 0o644)
	// Registered nowhere, found through the layout.
	testutil.WriteFile(t, filepath.Join(cfg.ModulesDir, "llm", "llm.py"), "", 0o644)

	out, _, err = runCLI(t, cfg, "list")
	if err != nil || !strings.Contains(out, "sn1") || !strings.Contains(out, "subnet") {
		t.Fatalf("list = %q, %v", out, err)
	}

	for _, name := range []string{"sn1", "llm"} {
		if _, _, err := runCLI(t, cfg, "uninstall", name); err != nil {
			t.Fatalf("uninstall %s error = %v", name, err)
		}
	}
	for _, p := range []string{
		filepath.Join(cfg.SubnetsDir, "sn1"),
		filepath.Join(cfg.EnvRoot, ".sn1"),
		filepath.Join(cfg.ModulesDir, "llm"),
	} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists after uninstall", p)
		}
	}

	out, _, err = runCLI(t, cfg, "list")
	if err != nil || !strings.Contains(out, "No modules installed") {
		t.Errorf("list after uninstall = %q, %v", out, err)
	}

	if _, _, err := runCLI(t, cfg, "uninstall", "ghost"); err == nil {
		t.Error("uninstall ghost error = nil")
	}
}

func TestRunInference(t *testing.T) {
	if goruntime.GOOS == platform.Windows {
		t.Skip("skipping: POSIX shell required")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("skipping: /bin/sh not available")
	}

	root := t.TempDir()
	cfg := testConfig(root)
	envDir := filepath.Join(cfg.EnvRoot, ".llm")
	// The fake interpreter prints the module path and its arguments.
	testutil.FakeEnvironment(t, envDir, "", "#!/bin/sh\nshift\necho \"$@\"\n[ \"$2\" = fail ] && exit 3\nexit 0\n")
	testutil.WriteFile(t, filepath.Join(cfg.ModulesDir, "llm", "llm.py"), "", 0o644)

	out, _, err := runCLI(t, cfg, "run-inference", "llm", "hello world")
	if err != nil {
		t.Fatalf("run-inference error = %v", err)
	}
	if want := "Inference result: modules.llm.llm hello world\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	_, _, err = runCLI(t, cfg, "run-inference", "llm", "fail")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Errorf("run-inference fail error = %v, want exit code 3", err)
	}
}
