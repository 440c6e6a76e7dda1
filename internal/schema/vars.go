// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DeclaredVarsFile is the file Save writes and activation later prints.
const DeclaredVarsFile = ".env"

// ParseExampleVars parses key=value lines, trimming whitespace on both sides.
// Blank lines, # comments and lines without '=' are skipped.
func ParseExampleVars(content string) map[string]string {
	vars := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		vars[key] = strings.TrimSpace(value)
	}
	return vars
}

// Set overrides (or adds) a variable. assignment has the form KEY=VALUE.
func (m *ModuleConfig) Set(assignment string) error {
	key, value, found := strings.Cut(assignment, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return fmt.Errorf("invalid assignment %q (expected KEY=VALUE)", assignment)
	}
	m.EnvVars[key] = value
	return nil
}

// Save writes EnvVars as KEY=VALUE lines, sorted by key, to <dir>/.env. The file is
// appended to when it exists and created otherwise. The write is not atomic.
func (m *ModuleConfig) Save(dir string) (string, error) {
	path := filepath.Join(dir, DeclaredVarsFile)

	var sb strings.Builder
	for _, key := range m.EnvVarNames() {
		fmt.Fprintf(&sb, "%s=%s\n", key, m.EnvVars[key])
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.WriteString(sb.String()); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
