// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func TestSaveAppendsSorted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DeclaredVarsFile)
	if err := os.WriteFile(path, []byte("EXISTING=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewModuleConfig()
	cfg.EnvVars["ZED"] = "z"
	cfg.EnvVars["ALPHA"] = "a=b"

	got, err := cfg.Save(dir)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got != path {
		t.Errorf("Save() path = %q, want %q", got, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "EXISTING=1\nALPHA=a=b\nZED=z\n"; string(content) != want {
		t.Errorf("file = %q, want %q", content, want)
	}
}

func TestSaveCreates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := NewModuleConfig()
	cfg.EnvVars["K"] = "v"
	if _, err := cfg.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, DeclaredVarsFile))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "K=v\n" {
		t.Errorf("file = %q, want %q", content, "K=v\n")
	}
}

func TestSet(t *testing.T) {
	t.Parallel()

	cfg := NewModuleConfig()
	if err := cfg.Set("URL=http://x?a=b"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if cfg.EnvVars["URL"] != "http://x?a=b" {
		t.Errorf("EnvVars[URL] = %q", cfg.EnvVars["URL"])
	}
	for _, bad := range []string{"novalue", "=x", ""} {
		if err := cfg.Set(bad); err == nil {
			t.Errorf("Set(%q) error = nil, want error", bad)
		}
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	cfg := scanSource(`@app.command("greet")
def greet(name: str = typer.Argument(default="world", help="who to greet")):
    pass
`, "cli.py")
	cfg.EnvVars["PORT"] = "8080"

	out, err := cfg.EncodeTOML()
	if err != nil {
		t.Fatalf("EncodeTOML() error = %v", err)
	}
	var decoded ModuleConfig
	if err := toml.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("toml.Unmarshal() error = %v\n%s", err, out)
	}
	if decoded.EnvVars["PORT"] != "8080" || decoded.Commands["greet"].BackingFunction != "greet" {
		t.Errorf("decoded TOML = %+v", decoded)
	}

	js, err := cfg.EncodeJSON()
	if err != nil {
		t.Fatalf("EncodeJSON() error = %v", err)
	}
	if !strings.Contains(string(js), `"help": "who to greet"`) {
		t.Errorf("EncodeJSON() = %s", js)
	}
	if !json.Valid(js) {
		t.Error("EncodeJSON() produced invalid JSON")
	}
}
