// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestWriteFileCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "file.txt")
	WriteFile(t, path, "hello", 0o644)

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("content = %q, want %q", got, "hello")
	}
}

func TestFakeEnvironment(t *testing.T) {
	t.Parallel()

	envDir := filepath.Join(t.TempDir(), ".demo")
	got := FakeEnvironment(t, envDir, "export X=1\n", "#!/bin/sh\n")

	if want := filepath.Join(envDir, "bin", "python3"); got != want {
		t.Errorf("FakeEnvironment() = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(envDir, "bin", "activate")); err != nil {
		t.Errorf("activate script missing: %v", err)
	}
	if runtime.GOOS == "windows" {
		return
	}
	info, err := os.Stat(got)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("interpreter mode = %v, want executable", info.Mode())
	}
}

func TestDeferCloseLogsErrors(t *testing.T) {
	t.Parallel()

	c := &closer{err: errors.New("boom")}
	DeferClose(t, c)()
	if !c.closed {
		t.Error("DeferClose() cleanup did not close")
	}
}

func TestMustClose(t *testing.T) {
	t.Parallel()

	c := &closer{}
	MustClose(t, c)
	if !c.closed {
		t.Error("MustClose() did not close")
	}
}
