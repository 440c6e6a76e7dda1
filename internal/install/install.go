// SPDX-License-Identifier: MPL-2.0

// Package install deposits foreign modules on disk, provisions their environments
// and records them in the registry.
//
// Inference modules are fetched from the registrar as a (usually base64 encoded)
// setup script. Subnet modules are git repositories.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/pyenv"
	"modvalidator-cli/internal/registry"
	"modvalidator-cli/internal/schema"
)

// DefaultRegistrarURL serves inference module setup scripts at /modules/<name>.
const DefaultRegistrarURL = "https://registrar-agentartificial.ngrok.dev"

// ErrInvalidSource is returned when a module name cannot be derived from the source.
var ErrInvalidSource = errors.New("invalid module source")

type (
	// Installer installs and removes modules.
	Installer struct {
		Layout       module.Layout
		RegistrarURL string
		Envs         *pyenv.Manager
		// Registry is optional.
		Registry *registry.Store
		Client   *http.Client
		Git      *GitCloner
		// Runner executes setup scripts. Defaults to the environment manager's runner.
		Runner pyenv.CommandRunner
		// HostEnvFile receives <NAME>_API_PORT / <NAME>_API_HOST.
		HostEnvFile string
	}

	// Options carries values the operator supplies at install time.
	Options struct {
		// APIHost and APIPort are appended to the host env file for inference modules.
		APIHost string
		APIPort string
	}

	// Report describes a completed install.
	Report struct {
		Module module.ManagedModule
		Handle *pyenv.EnvironmentHandle
		// Schema is the extracted command schema (subnet modules only).
		Schema *schema.ModuleConfig
	}
)

// DetectKind classifies an install source: repository URLs on github.com are
// subnets, everything else is an inference module.
func DetectKind(source string) module.Kind {
	if strings.Contains(source, "github.com") {
		return module.KindSubnet
	}
	return module.KindInference
}

// NameFromSource returns the module name: the last path segment of a URL (without
// a .git suffix) or the source itself when it is a bare name.
func NameFromSource(source string) (string, error) {
	name := source
	if strings.Contains(source, "/") {
		trimmed := strings.TrimRight(source, "/")
		if u, err := url.Parse(trimmed); err == nil && u.Host != "" {
			trimmed = u.Path
		}
		name = path.Base(trimmed)
	}
	name = strings.TrimSuffix(name, ".git")
	if err := module.ValidateName(name); err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidSource, source, err)
	}
	return name, nil
}

// Install installs source (a module name or URL) and registers it.
func (i *Installer) Install(ctx context.Context, source string, opts Options) (*Report, error) {
	name, err := NameFromSource(source)
	if err != nil {
		return nil, err
	}
	kind := DetectKind(source)
	mod, err := i.Layout.Module(name, kind)
	if err != nil {
		return nil, err
	}

	var report *Report
	if kind == module.KindSubnet {
		report, err = i.installSubnet(ctx, mod, source)
	} else {
		report, err = i.installInference(ctx, mod, source, opts)
	}
	if err != nil {
		return nil, err
	}

	if i.Registry != nil {
		if err := i.Registry.Register(ctx, mod.Name, mod.Kind); err != nil {
			return nil, err
		}
	}
	slog.Info("module installed", "module", mod.Name, "kind", mod.Kind)
	return report, nil
}

// Uninstall removes the module's source tree, its environment and its registry entry.
func (i *Installer) Uninstall(ctx context.Context, name string, kind module.Kind) error {
	mod, err := i.Layout.Module(name, kind)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(mod.SourceRoot); err != nil {
		return fmt.Errorf("failed to remove %s: %w", mod.SourceRoot, err)
	}
	if err := os.RemoveAll(i.Envs.IsolationDir(name)); err != nil {
		return fmt.Errorf("failed to remove environment: %w", err)
	}
	if i.Registry != nil {
		if err := i.Registry.Unregister(ctx, name); err != nil && !errors.Is(err, registry.ErrNotRegistered) {
			return err
		}
	}
	slog.Info("module uninstalled", "module", name)
	return nil
}

func (i *Installer) client() *http.Client {
	if i.Client != nil {
		return i.Client
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func (i *Installer) runner() pyenv.CommandRunner {
	if i.Runner != nil {
		return i.Runner
	}
	if i.Envs != nil && i.Envs.Runner != nil {
		return i.Envs.Runner
	}
	return pyenv.ExecRunner{}
}

func (i *Installer) cloner() *GitCloner {
	if i.Git != nil {
		return i.Git
	}
	return &GitCloner{}
}

// runScript runs a setup step, surfacing its stderr on failure.
func (i *Installer) runScript(ctx context.Context, dir, op, name string, args ...string) error {
	stdout, stderr, err := i.runner().Run(ctx, dir, name, args...)
	if len(stdout) > 0 {
		slog.Debug(op, "output", strings.TrimSpace(string(stdout)))
	}
	if err != nil {
		return &pyenv.ProvisionError{Op: op, Dir: dir, Output: strings.TrimSpace(string(stderr)), Err: err}
	}
	return nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func readAllLimited(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("response exceeds %d bytes", limit)
	}
	return b, nil
}

func absOrSelf(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
