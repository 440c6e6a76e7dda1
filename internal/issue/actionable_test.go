// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "install module"},
			want: "failed to install module",
		},
		{
			name: "operation with resource",
			err:  &ActionableError{Operation: "install module", Resource: "llm"},
			want: "failed to install module: llm",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "patch launch script",
				Resource:  "neurons/miner.py",
				Cause:     errors.New("no forward function"),
			},
			want: "failed to patch launch script: neurons/miner.py: no forward function",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().WithOperation("run command").Wrap(sentinel).BuildError()
	if !errors.Is(err, sentinel) {
		t.Errorf("errors.Is(%v, sentinel) = false, want true", err)
	}

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("errors.As() = false for %T", err)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("exit status 2")
	err := &ActionableError{
		Operation:   "run command",
		Resource:    "greet",
		Suggestions: []string{"Check the arguments", "Re-run with --verbose"},
		Cause:       fmt.Errorf("python exited: %w", inner),
	}

	short := err.Format(false)
	if !strings.Contains(short, "  • Check the arguments") || !strings.Contains(short, "  • Re-run with --verbose") {
		t.Errorf("Format(false) missing suggestions:\n%s", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Errorf("Format(false) should not include the error chain:\n%s", short)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:\n  1. python exited: exit status 2\n  2. exit status 2") {
		t.Errorf("Format(true) missing error chain:\n%s", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if got := NewErrorContext().WithResource("x").Build(); got != nil {
		t.Errorf("Build() without operation = %v, want nil", got)
	}
	if got := NewErrorContext().BuildError(); got != nil {
		t.Errorf("BuildError() without operation = %v, want nil", got)
	}

	ae := NewErrorContext().
		WithOperation("load configuration").
		WithResource("config.cue").
		WithSuggestion("a").
		WithSuggestion("b").
		WithIssue(ConfigLoadFailedId).
		Build()
	if ae.Operation != "load configuration" || ae.Resource != "config.cue" {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 2 || ae.Issue != ConfigLoadFailedId {
		t.Errorf("Build() suggestions = %v, issue = %d", ae.Suggestions, ae.Issue)
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}
	got := WrapWithContext(errors.New("boom"), "uninstall module", "llm")
	if want := "failed to uninstall module: llm: boom"; got.Error() != want {
		t.Errorf("Error() = %q, want %q", got.Error(), want)
	}
}
