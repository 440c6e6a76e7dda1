// SPDX-License-Identifier: MPL-2.0

package pyenv

import (
	"path/filepath"
	"runtime"

	"modvalidator-cli/pkg/platform"
)

const (
	// StateUninitialized means no isolation directory has been observed yet.
	StateUninitialized State = iota
	// StateCreated means the isolation directory exists and the interpreter path is valid.
	StateCreated
	// StateDependenciesInstalled means the module and its manifest were installed.
	StateDependenciesInstalled
	// StateActivated means CapturedVars holds the activation output.
	StateActivated
)

type (
	// State is the lifecycle position of an EnvironmentHandle. States are ordered.
	State int

	// EnvironmentHandle is an isolated interpreter environment bound to one module.
	EnvironmentHandle struct {
		// IsolationDir is the environment root, named deterministically from the module name.
		IsolationDir string
		// InterpreterPath is valid only when State >= StateCreated.
		InterpreterPath string
		// CapturedVars is populated only when State == StateActivated.
		CapturedVars *CapturedVars
		// State is the lifecycle position.
		State State
	}
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreated:
		return "created"
	case StateDependenciesInstalled:
		return "dependencies-installed"
	case StateActivated:
		return "activated"
	default:
		return "unknown"
	}
}

// Ready reports whether the interpreter path may be used.
func (h *EnvironmentHandle) Ready() bool {
	return h != nil && h.State >= StateCreated
}

// ActivateScript returns the path of the environment's activation script.
func (h *EnvironmentHandle) ActivateScript() string {
	return activateScript(h.IsolationDir)
}

// Environ returns the captured variables as KEY=VALUE entries, or nil before activation.
func (h *EnvironmentHandle) Environ() []string {
	if h == nil || h.State != StateActivated || h.CapturedVars == nil {
		return nil
	}
	return h.CapturedVars.Environ()
}

func activateScript(dir string) string {
	if runtime.GOOS == platform.Windows {
		return filepath.Join(dir, "Scripts", "activate.bat")
	}
	return filepath.Join(dir, "bin", "activate")
}

func interpreterPath(dir string) string {
	if runtime.GOOS == platform.Windows {
		return filepath.Join(dir, "Scripts", "python.exe")
	}
	return filepath.Join(dir, "bin", "python3")
}
