// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"modvalidator-cli/internal/config"
)

// staticProvider returns a fixed configuration.
type staticProvider struct {
	cfg *config.Config
	err error
}

func (p staticProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	return p.cfg, p.err
}

// testConfig points every directory into root.
func testConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.ModulesDir = filepath.Join(root, "modules")
	cfg.SubnetsDir = filepath.Join(root, "subnets")
	cfg.EnvRoot = filepath.Join(root, "envs")
	cfg.RegistryPath = filepath.Join(root, "modules.db")
	cfg.Shell = "/bin/sh"
	return cfg
}

// runCLI executes the command tree with args and returns stdout and stderr.
func runCLI(t *testing.T, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{Config: staticProvider{cfg: cfg}, Stdout: &stdout, Stderr: &stderr})
	root := newRootCommand(app)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v0.4.0"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		want := "v0.4.0 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got := getVersionString(); got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		// Test binaries report Main.Version == "(devel)".
		Version = "dev"
		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCommand(NewApp(Dependencies{}))
	for _, name := range []string{
		"install", "list", "uninstall", "run-inference", "parse-config",
		"launch-miner", "launch-validator", "patch", "serve", "proxy", "config",
	} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, c, err)
		}
	}
}

// Tests that load configuration replace the default slog handler, so they do not
// run in parallel.
func TestConfigLoadFailureFallsBackToDefaults(t *testing.T) {
	app := NewApp(Dependencies{
		Config: staticProvider{err: context.DeadlineExceeded},
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	})
	cfg := app.loadConfig(context.Background())
	if *cfg != *config.DefaultConfig() {
		t.Errorf("loadConfig() = %+v, want defaults", cfg)
	}
}

func TestConfigLoadFailureKeepsEnvOverrides(t *testing.T) {
	t.Setenv("MODVALIDATOR_API_PORT", "9100")

	var stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config: staticProvider{err: context.DeadlineExceeded},
		Stdout: &bytes.Buffer{},
		Stderr: &stderr,
	})
	cfg := app.loadConfig(context.Background())
	if cfg.API.Port != 9100 {
		t.Errorf("API.Port = %d, want 9100", cfg.API.Port)
	}
	if !strings.Contains(stderr.String(), "Warning") {
		t.Errorf("stderr = %q, want a warning", stderr.String())
	}
}
