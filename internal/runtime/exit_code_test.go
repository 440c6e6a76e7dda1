// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"testing"
)

func TestExitCodePredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code        ExitCode
		wantValid   bool
		wantSuccess bool
		wantMissing bool
	}{
		{code: 0, wantValid: true, wantSuccess: true},
		{code: 3, wantValid: true},
		{code: 127, wantValid: true, wantMissing: true},
		{code: 255, wantValid: true},
		{code: -1},
		{code: 256},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			t.Parallel()

			valid, errs := tt.code.IsValid()
			if valid != tt.wantValid {
				t.Errorf("IsValid() = %v, want %v", valid, tt.wantValid)
			}
			if !valid && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidExitCode)) {
				t.Errorf("IsValid() errors = %v, want ErrInvalidExitCode", errs)
			}
			if got := tt.code.IsSuccess(); got != tt.wantSuccess {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.wantSuccess)
			}
			if got := tt.code.IsNotFound(); got != tt.wantMissing {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.wantMissing)
			}
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	t.Parallel()

	err := &ExitError{Code: 3}
	if want := "command failed with exit code 3"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrCommandFailed) {
		t.Error("ExitError does not wrap ErrCommandFailed")
	}
}
