// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path with the given mode, creating parent
// directories as needed. The test fails immediately if either step fails.
func WriteFile(t testing.TB, path, content string, mode os.FileMode) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// FakeEnvironment lays out a minimal isolated environment under envDir: an
// activation script with the given body and an executable bin/python3
// running interpreter. It returns the interpreter path.
func FakeEnvironment(t testing.TB, envDir, activate, interpreter string) string {
	t.Helper()
	WriteFile(t, filepath.Join(envDir, "bin", "activate"), activate, 0o644)
	path := filepath.Join(envDir, "bin", "python3")
	WriteFile(t, path, interpreter, 0o755)
	return path
}

// MustMkdirAll creates a directory along with any necessary parents.
// The test fails immediately if the operation fails.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// MustClose closes the given io.Closer.
// The test fails immediately if the close fails.
func MustClose(t testing.TB, c io.Closer) {
	t.Helper()
	if err := c.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
}

// DeferClose returns a cleanup function that closes the given io.Closer,
// logging any errors. Suited to t.Cleanup in tests.
func DeferClose(t testing.TB, c io.Closer) func() {
	t.Helper()
	return func() {
		t.Helper()
		if err := c.Close(); err != nil {
			t.Logf("warning: close returned error: %v", err)
		}
	}
}
