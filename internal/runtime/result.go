// SPDX-License-Identifier: MPL-2.0

package runtime

// Result is the outcome of one execution.
type Result struct {
	// ExitCode is the child's exit status, or 1 when it could not be spawned.
	ExitCode ExitCode
	// Output holds the captured stdout lines, each terminated by "\n".
	// It is empty whenever the execution failed.
	Output string
	// Error is nil on success.
	Error error
}

// Succeeded reports whether the child exited zero without error.
func (r *Result) Succeeded() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult creates a Result with exit code 0 and the captured output.
func NewSuccessResult(output string) *Result {
	return &Result{Output: output}
}
