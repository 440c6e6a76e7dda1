// SPDX-License-Identifier: MPL-2.0

package platform

import "testing"

func TestIsReservedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"con", true},
		{"Con", true},
		{"NUL.txt", true},
		{"com1.tar.gz", true},
		{"lpt9", true},
		{"com10", false},
		{"console", false},
		{"llm", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := IsReservedName(tt.input); got != tt.want {
				t.Errorf("IsReservedName(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
