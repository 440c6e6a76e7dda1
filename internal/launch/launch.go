// SPDX-License-Identifier: MPL-2.0

// Package launch starts a subnet module's miner or validator role.
//
// A launch locates the role script inside the subnet tree, identifies which
// installed inference module the script refers to, redirects the script's forward
// entry point to that module, and runs the script inside the subnet's environment.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/patch"
	"modvalidator-cli/internal/pyenv"
	"modvalidator-cli/internal/runtime"
)

const (
	// RoleMiner runs miner.py.
	RoleMiner Role = "miner"
	// RoleValidator runs validator.py.
	RoleValidator Role = "validator"

	// skipMarker excludes example trees shipped inside some subnets.
	skipMarker = "stream_tutorial"
)

var (
	// ErrScriptNotFound is returned when the subnet has no script for the role.
	ErrScriptNotFound = errors.New("role script not found")
	// ErrInferenceNotFound is returned when the script names no installed inference module.
	ErrInferenceNotFound = errors.New("inference module not found")
)

type (
	// Role is the part a subnet module is launched as.
	Role string

	// Launcher drives one role launch for one subnet module.
	Launcher struct {
		Subnet     module.ManagedModule
		Role       Role
		ModulesDir string
		Envs       *pyenv.Manager
		Exec       *runtime.Executor

		// Script is the located (or operator-supplied) role script.
		Script string
	}
)

// ParseRole converts a string to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleMiner, RoleValidator:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q (expected miner or validator)", s)
	}
}

// ScriptName returns the file name of the role's script.
func (r Role) ScriptName() string { return string(r) + module.ScriptExt }

// Locate walks the subnet tree depth-first for the role script, skipping entries
// whose name contains the tutorial marker. The first match wins.
func (l *Launcher) Locate() (string, error) {
	want := l.Role.ScriptName()
	var found string
	err := filepath.WalkDir(l.Subnet.SourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != l.Subnet.SourceRoot && strings.Contains(d.Name(), skipMarker) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && d.Name() == want {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", l.Subnet.SourceRoot, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s in %s", ErrScriptNotFound, want, l.Subnet.SourceRoot)
	}
	slog.Debug("located role script", "role", l.Role, "script", found)
	l.Script = found
	return found, nil
}

// IdentifyInference returns the first installed inference module (in name order)
// whose name appears in the role script.
func (l *Launcher) IdentifyInference() (string, error) {
	if l.Script == "" {
		return "", ErrScriptNotFound
	}
	content, err := os.ReadFile(l.Script)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", l.Script, err)
	}
	entries, err := os.ReadDir(l.ModulesDir)
	if err != nil {
		return "", fmt.Errorf("failed to list %s: %w", l.ModulesDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	for _, name := range names {
		if strings.Contains(string(content), name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrInferenceNotFound, l.Script)
}

// Patch redirects the role script's forward entry point to inference. A script
// without a forward definition yields patch.ErrForwardNotFound so the caller can
// ask for another script.
func (l *Launcher) Patch(inference string) (patch.Outcome, error) {
	if l.Script == "" {
		return 0, ErrScriptNotFound
	}
	return patch.RedirectEntryPoint(l.Script, inference)
}

// Launch ensures and activates the subnet environment, then runs the role script
// with args from the subnet root.
func (l *Launcher) Launch(ctx context.Context, args string) (*runtime.Result, error) {
	if l.Script == "" {
		return nil, ErrScriptNotFound
	}
	h, err := l.Envs.Ensure(ctx, l.Subnet)
	if err != nil {
		return nil, err
	}
	if _, err := l.Envs.Activate(ctx, h, l.Subnet); err != nil {
		return nil, err
	}

	slog.Info("launching", "subnet", l.Subnet.Name, "role", l.Role, "script", l.Script)
	entry, err := runtime.EntryPointIn(l.Script, l.Subnet.SourceRoot)
	if err != nil {
		return nil, err
	}
	result := l.Exec.Run(h, entry, args, l.Subnet.SourceRoot)
	if result.Succeeded() && strings.TrimSpace(result.Output) == "" {
		slog.Warn("role produced no output", "subnet", l.Subnet.Name, "role", l.Role)
	}
	return result, nil
}

// Prepare runs Locate, IdentifyInference and Patch. When script is non-empty it is
// used instead of searching the tree.
func (l *Launcher) Prepare(script string) (string, patch.Outcome, error) {
	if script != "" {
		l.Script = script
	} else if _, err := l.Locate(); err != nil {
		return "", 0, err
	}
	inference, err := l.IdentifyInference()
	if err != nil {
		return "", 0, err
	}
	outcome, err := l.Patch(inference)
	return inference, outcome, err
}
