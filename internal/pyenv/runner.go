// SPDX-License-Identifier: MPL-2.0

package pyenv

import (
	"bytes"
	"context"
	"os/exec"
)

type (
	// CommandRunner abstracts the provisioning subprocesses (venv creation, pip,
	// activation shell) so they can be replaced in tests.
	CommandRunner interface {
		Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, err error)
	}

	// ExecRunner runs commands on the local host.
	ExecRunner struct{}
)

// Run executes name with args in dir and returns both captured streams.
// A non-zero exit is reported as *exec.ExitError.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
