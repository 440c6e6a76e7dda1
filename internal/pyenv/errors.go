// SPDX-License-Identifier: MPL-2.0

package pyenv

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProvision is the sentinel wrapped by ProvisionError.
	ErrProvision = errors.New("environment provisioning failed")
	// ErrActivation is the sentinel wrapped by ActivationError.
	ErrActivation = errors.New("environment activation failed")
	// ErrNotCreated is returned when an operation needs a created environment.
	ErrNotCreated = errors.New("environment has not been created")
)

type (
	// ProvisionError reports a failed venv creation or dependency install.
	// Nothing is rolled back: a half-created isolation directory is left in place.
	ProvisionError struct {
		// Op names the failed step (e.g. "create environment", "install requirements").
		Op string
		// Dir is the isolation directory involved.
		Dir string
		// Output is the trimmed stderr of the failed subprocess, if any.
		Output string
		// Err is the underlying error.
		Err error
	}

	// ActivationError reports a non-zero exit from the activation shell.
	ActivationError struct {
		Dir    string
		Output string
		Err    error
	}
)

// Error implements the error interface.
func (e *ProvisionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)", e.Op, e.Dir)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if e.Output != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Output)
	}
	return sb.String()
}

// Unwrap returns both ErrProvision and the underlying cause.
func (e *ProvisionError) Unwrap() []error {
	return []error{ErrProvision, e.Err}
}

// Error implements the error interface.
func (e *ActivationError) Error() string {
	msg := fmt.Sprintf("failed to source environment %s", e.Dir)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

// Unwrap returns both ErrActivation and the underlying cause.
func (e *ActivationError) Unwrap() []error {
	return []error{ErrActivation, e.Err}
}
