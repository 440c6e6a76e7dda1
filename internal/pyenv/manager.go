// SPDX-License-Identifier: MPL-2.0

package pyenv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/shell"
)

const (
	// DefaultBaseInterpreter creates new environments.
	DefaultBaseInterpreter = "python3"
	// DeclaredVarsFile is the module's declared-variables file, relative to its source root.
	DeclaredVarsFile = ".env"
	// RequirementsFile is the default dependency manifest name.
	RequirementsFile = "requirements.txt"
)

// editableMarkers are the files that make a source root pip-installable in editable mode.
var editableMarkers = []string{"setup.py", "pyproject.toml"}

// Manager creates, provisions and activates per-module environments.
type Manager struct {
	// EnvRoot is the directory holding every isolation directory.
	EnvRoot string
	// BaseInterpreter is the host interpreter used to create environments.
	BaseInterpreter string
	// Shell sources activation scripts. Resolved lazily when nil.
	Shell *shell.Shell
	// Runner executes provisioning subprocesses. Defaults to ExecRunner.
	Runner CommandRunner
}

// NewManager creates a Manager rooted at envRoot.
func NewManager(envRoot string) *Manager {
	return &Manager{
		EnvRoot:         envRoot,
		BaseInterpreter: DefaultBaseInterpreter,
		Runner:          ExecRunner{},
	}
}

// IsolationDir returns the deterministic environment directory for a module name.
func (m *Manager) IsolationDir(name string) string {
	return filepath.Join(m.EnvRoot, "."+name)
}

// Ensure returns a handle for mod's environment, creating the environment when its
// isolation directory is absent. Creation failures are fatal and never retried.
// An existing directory is reused as-is: no creation and no pip self-upgrade.
func (m *Manager) Ensure(ctx context.Context, mod module.ManagedModule) (*EnvironmentHandle, error) {
	dir := m.IsolationDir(mod.Name)
	h := &EnvironmentHandle{IsolationDir: dir, State: StateUninitialized}

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		slog.Debug("reusing environment", "module", mod.Name, "dir", dir)
		h.InterpreterPath = interpreterPath(dir)
		h.State = StateCreated
		return h, nil
	case err == nil:
		return nil, &ProvisionError{Op: "create environment", Dir: dir, Err: fmt.Errorf("%s exists and is not a directory", dir)}
	case !os.IsNotExist(err):
		return nil, &ProvisionError{Op: "create environment", Dir: dir, Err: err}
	}

	slog.Info("creating environment", "module", mod.Name, "dir", dir)
	if _, stderr, err := m.runner().Run(ctx, "", m.baseInterpreter(), "-m", "venv", dir); err != nil {
		return nil, &ProvisionError{Op: "create environment", Dir: dir, Output: trimOutput(stderr), Err: err}
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", dir)
		}
		return nil, &ProvisionError{Op: "create environment", Dir: dir, Err: err}
	}

	h.InterpreterPath = interpreterPath(dir)
	h.State = StateCreated

	// Best effort: some interpreters ship without pip or pin it.
	if _, stderr, err := m.runner().Run(ctx, "", h.InterpreterPath, "-m", "pip", "install", "--upgrade", "pip"); err != nil {
		slog.Warn("pip self-upgrade failed", "module", mod.Name, "error", err, "stderr", trimOutput(stderr))
	}
	return h, nil
}

// InstallDependencies installs mod into the environment in editable mode (when its
// source root is a package) and then the given requirements manifest (when present).
// An empty requirementsFile means <SourceRoot>/requirements.txt. Failures are
// surfaced, not retried.
func (m *Manager) InstallDependencies(ctx context.Context, h *EnvironmentHandle, mod module.ManagedModule, requirementsFile string) error {
	if !h.Ready() {
		return fmt.Errorf("install dependencies for %s: %w", mod.Name, ErrNotCreated)
	}
	if requirementsFile == "" {
		requirementsFile = filepath.Join(mod.SourceRoot, RequirementsFile)
	}

	if isEditable(mod.SourceRoot) {
		slog.Info("installing module in editable mode", "module", mod.Name)
		if _, stderr, err := m.runner().Run(ctx, "", h.InterpreterPath, "-m", "pip", "install", "-e", mod.SourceRoot); err != nil {
			return &ProvisionError{Op: "install " + mod.Name, Dir: h.IsolationDir, Output: trimOutput(stderr), Err: err}
		}
	}

	if _, err := os.Stat(requirementsFile); err == nil {
		slog.Info("installing requirements", "module", mod.Name, "file", requirementsFile)
		if _, stderr, err := m.runner().Run(ctx, "", h.InterpreterPath, "-m", "pip", "install", "-r", requirementsFile); err != nil {
			return &ProvisionError{Op: "install requirements", Dir: h.IsolationDir, Output: trimOutput(stderr), Err: err}
		}
	} else {
		slog.Debug("no requirements manifest", "module", mod.Name, "file", requirementsFile)
	}

	if h.State < StateDependenciesInstalled {
		h.State = StateDependenciesInstalled
	}
	return nil
}

// Activate sources the environment's activation script, prints mod's declared-variables
// file in the same shell, and captures the KEY=VALUE lines of that output.
// On failure the handle keeps its current state and the environment is left intact.
func (m *Manager) Activate(ctx context.Context, h *EnvironmentHandle, mod module.ManagedModule) (*CapturedVars, error) {
	if !h.Ready() {
		return nil, fmt.Errorf("activate %s: %w", mod.Name, ErrNotCreated)
	}

	sh, err := m.shell()
	if err != nil {
		return nil, &ActivationError{Dir: h.IsolationDir, Err: err}
	}
	script, err := m.activationCommand(sh, h, mod)
	if err != nil {
		return nil, &ActivationError{Dir: h.IsolationDir, Err: err}
	}

	args := append(append([]string(nil), sh.Args...), script)
	stdout, stderr, err := m.runner().Run(ctx, "", sh.Path, args...)
	if err != nil {
		return nil, &ActivationError{Dir: h.IsolationDir, Output: trimOutput(stderr), Err: err}
	}

	vars := ParseCapturedVars(string(stdout))
	for _, k := range vars.Keys() {
		slog.Debug("captured variable", "module", mod.Name, "key", k)
	}
	h.CapturedVars = vars
	h.State = StateActivated
	return vars, nil
}

// activationCommand builds `source <activate> [&& cat <declared-vars>]`. The file is
// only printed when it exists so modules without one can still be activated.
func (m *Manager) activationCommand(sh *shell.Shell, h *EnvironmentHandle, mod module.ManagedModule) (string, error) {
	source, err := sh.Source(h.ActivateScript())
	if err != nil {
		return "", err
	}
	varsFile := filepath.Join(mod.SourceRoot, DeclaredVarsFile)
	if _, err := os.Stat(varsFile); err != nil {
		return source, nil
	}
	concat, err := sh.Concat(varsFile)
	if err != nil {
		return "", err
	}
	return shell.AndThen(source, concat), nil
}

func (m *Manager) runner() CommandRunner {
	if m.Runner == nil {
		return ExecRunner{}
	}
	return m.Runner
}

func (m *Manager) baseInterpreter() string {
	if m.BaseInterpreter == "" {
		return DefaultBaseInterpreter
	}
	return m.BaseInterpreter
}

func (m *Manager) shell() (*shell.Shell, error) {
	if m.Shell != nil {
		return m.Shell, nil
	}
	sh, err := shell.Resolve("")
	if err != nil {
		return nil, err
	}
	m.Shell = sh
	return sh, nil
}

func isEditable(root string) bool {
	for _, marker := range editableMarkers {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			return true
		}
	}
	return false
}

func trimOutput(b []byte) string {
	return strings.TrimSpace(string(b))
}
