// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"modvalidator-cli/internal/module"
)

// ErrInvalidEntryPoint is returned when an entry point cannot be expressed as a
// module path relative to the working directory.
var ErrInvalidEntryPoint = errors.New("invalid entry point")

// ModulePath converts an entry point into the dotted form passed to `-m`.
//
// A relative script path is taken to be relative to workDir already; an absolute
// one must resolve under workDir. The extension is stripped and separators become
// dots: modules/demo/demo.py -> modules.demo.demo. A name without a script
// extension or separators is taken to be dotted already.
func ModulePath(entryPoint, workDir string) (string, error) {
	if entryPoint == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidEntryPoint)
	}
	if !strings.HasSuffix(entryPoint, module.ScriptExt) && !strings.ContainsAny(entryPoint, `/\`) {
		return entryPoint, nil
	}

	path := filepath.Clean(entryPoint)
	if filepath.IsAbs(path) && workDir != "" {
		absDir, err := filepath.Abs(workDir)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidEntryPoint, err)
		}
		rel, err := filepath.Rel(absDir, path)
		if err != nil {
			return "", fmt.Errorf("%w: %s is outside %s", ErrInvalidEntryPoint, entryPoint, workDir)
		}
		path = rel
	}

	path = filepath.ToSlash(strings.TrimSuffix(path, module.ScriptExt))
	if path == "" || path == "." || path == ".." || strings.HasPrefix(path, "../") || strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("%w: %s is outside %s", ErrInvalidEntryPoint, entryPoint, workDir)
	}
	return strings.ReplaceAll(path, "/", "."), nil
}

// EntryPointIn rewrites a script path given relative to the process directory
// (or absolute) into a path relative to workDir, the form Run expects.
func EntryPointIn(path, workDir string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEntryPoint, err)
	}
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEntryPoint, err)
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrInvalidEntryPoint, path, workDir)
	}
	return rel, nil
}
